package types

// ConversionResult describes one finished conversion run.
type ConversionResult struct {
	InputFile      string
	OutputFile     string
	BackupFile     string
	Sheets         []string
	FormulaColumns int
	RowsProcessed  int
	Warnings       []string
}

// FileData is a lightweight preview of a dataset or workbook, shown before
// converting it.
type FileData struct {
	Path   string
	Sheets []SheetSummary
}

// SheetSummary is the preview of one sheet.
type SheetSummary struct {
	Name     string
	Columns  []string
	Formulas []string
	Rows     int
}

// Dataset is the canonical JSON document.
type Dataset struct {
	Schema string        `json:"$schema,omitempty"`
	Sheets []SheetSchema `json:"sheets"`
}

// SheetSchema is one tab of the dataset.
type SheetSchema struct {
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
	Formulas Formulas `json:"formulas,omitzero"`
	Rows     []Row    `json:"rows"`
}

// Sheet returns the sheet with the given name.
func (d *Dataset) Sheet(name string) (*SheetSchema, bool) {
	for i := range d.Sheets {
		if d.Sheets[i].Name == name {
			return &d.Sheets[i], true
		}
	}
	return nil, false
}

// Summary builds the preview of the dataset.
func (d *Dataset) Summary(path string) *FileData {
	data := &FileData{Path: path}
	for _, s := range d.Sheets {
		data.Sheets = append(data.Sheets, SheetSummary{
			Name:     s.Name,
			Columns:  s.Columns,
			Formulas: s.Formulas.Keys(),
			Rows:     len(s.Rows),
		})
	}
	return data
}

// ColumnIndex returns the 0-based position of a column, or -1.
func (s *SheetSchema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
