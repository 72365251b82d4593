package converter

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetsync/internal/coord"
	"github.com/nconklindev/sheetsync/internal/formula"
	"github.com/nconklindev/sheetsync/internal/normalize"
	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/xuri/excelize/v2"
)

// Builtin number format ids used for written cells.
const (
	numFmtDecimal = 2  // 0.00
	numFmtPercent = 10 // 0.00%
	numFmtText    = 49 // @
)

// DefaultSchemaRef is written as "$schema" into generated datasets.
const DefaultSchemaRef = "../schema/schema.json"

// Options controls a conversion run.
type Options struct {
	Rules normalize.Rules
	// Strict turns diverging formulas within one column into an error.
	Strict bool
	// SchemaRef is written as "$schema"; empty omits it.
	SchemaRef string
	// Logger receives warnings. Nil discards them.
	Logger *log.Logger
}

// DefaultOptions returns options with the default naming rules.
func DefaultOptions() Options {
	return Options{
		Rules:     normalize.DefaultRules(),
		SchemaRef: DefaultSchemaRef,
	}
}

// run collects warnings and reports progress for one conversion.
type run struct {
	opts         Options
	logger       *log.Logger
	progressChan chan<- float64
	warnings     []string
	total        int
	done         int
}

func newRun(opts Options, progressChan chan<- float64) *run {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &run{opts: opts, logger: logger, progressChan: progressChan}
}

func (r *run) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, msg)
	r.logger.Print("warning: " + msg)
}

// step advances progress by one row.
func (r *run) step() {
	r.done++
	if r.progressChan != nil && r.total > 0 {
		select {
		case r.progressChan <- float64(r.done) / float64(r.total):
		default:
		}
	}
}

// ConvertJSON writes the dataset in inputFile as a workbook to outputFile.
func ConvertJSON(inputFile, outputFile string, opts Options, progressChan chan<- float64) (*types.ConversionResult, error) {
	ds, err := LoadDataset(inputFile)
	if err != nil {
		return nil, err
	}

	r := newRun(opts, progressChan)
	f, err := r.buildWorkbook(ds)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := f.SaveAs(outputFile); err != nil {
		return nil, err
	}

	result := &types.ConversionResult{
		InputFile:     inputFile,
		OutputFile:    outputFile,
		RowsProcessed: r.done,
		Warnings:      r.warnings,
	}
	for _, s := range ds.Sheets {
		result.Sheets = append(result.Sheets, s.Name)
		result.FormulaColumns += s.Formulas.Len()
	}
	return result, nil
}

// BuildWorkbook renders a dataset into a new in-memory workbook. The caller
// closes the returned file.
func BuildWorkbook(ds *types.Dataset, opts Options) (*excelize.File, []string, error) {
	r := newRun(opts, nil)
	f, err := r.buildWorkbook(ds)
	return f, r.warnings, err
}

func (r *run) buildWorkbook(ds *types.Dataset) (*excelize.File, error) {
	if len(ds.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	for _, s := range ds.Sheets {
		r.total += len(s.Rows)
	}

	f := excelize.NewFile()
	styles, err := newWriteStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	dir := formula.DirectoryFor(ds.Sheets)
	defaultSheet := f.GetSheetName(0)
	for i := range ds.Sheets {
		sheet := &ds.Sheets[i]
		if i == 0 {
			err = f.SetSheetName(defaultSheet, sheet.Name)
		} else {
			_, err = f.NewSheet(sheet.Name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		if err := r.writeSheet(f, sheet, dir, styles); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	fullCalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

type writeStyles struct {
	text, percent, decimal int
}

func newWriteStyles(f *excelize.File) (writeStyles, error) {
	var s writeStyles
	var err error
	if s.text, err = f.NewStyle(&excelize.Style{NumFmt: numFmtText}); err != nil {
		return s, err
	}
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return s, err
	}
	if s.decimal, err = f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal}); err != nil {
		return s, err
	}
	return s, nil
}

func (r *run) writeSheet(f *excelize.File, sheet *types.SheetSchema, dir *formula.Directory, styles writeStyles) error {
	rules := r.opts.Rules
	for c, column := range sheet.Columns {
		cell, err := coord.CellName(c, coord.HeaderRow)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet.Name, cell, column); err != nil {
			return err
		}
	}

	for _, column := range sheet.Formulas.Keys() {
		if sheet.ColumnIndex(column) < 0 {
			r.warnf("sheet %q: formula for unknown column %q dropped", sheet.Name, column)
		}
	}

	for i, row := range sheet.Rows {
		rowNum := coord.FirstDataRow + i
		for _, key := range row.Keys() {
			if sheet.ColumnIndex(key) < 0 {
				r.warnf("sheet %q row %d: value for unknown column %q dropped", sheet.Name, rowNum, key)
			}
		}

		for c, column := range sheet.Columns {
			cell, err := coord.CellName(c, rowNum)
			if err != nil {
				return err
			}
			value, _ := row.Get(column)

			if symbolic, ok := sheet.Formulas.Get(column); ok {
				if err := r.writeFormula(f, sheet, column, cell, rowNum, symbolic, value, dir, styles); err != nil {
					return err
				}
				continue
			}

			if value.IsEmpty() {
				continue
			}
			value = rules.FromJSON(column, value)
			if n, ok := value.Num(); ok {
				err = f.SetCellFloat(sheet.Name, cell, n, -1, 64)
			} else {
				err = f.SetCellStr(sheet.Name, cell, value.String())
				if err == nil && rules.IsTemporal(column) {
					err = f.SetCellStyle(sheet.Name, cell, cell, styles.text)
				}
			}
			if err != nil {
				return err
			}
		}
		r.step()
	}
	return nil
}

func (r *run) writeFormula(f *excelize.File, sheet *types.SheetSchema, column, cell string, rowNum int, symbolic string, value types.Value, dir *formula.Directory, styles writeStyles) error {
	positional, err := formula.Compile(strings.TrimPrefix(symbolic, "="), sheet.Columns, rowNum, dir)
	if err != nil {
		return &ConversionError{Sheet: sheet.Name, Column: column, Row: rowNum, Formula: symbolic, Err: err}
	}

	// A cell value set after the formula would clear it.
	if err := f.SetCellFloat(sheet.Name, cell, cachedValue(value), -1, 64); err != nil {
		return err
	}
	if err := f.SetCellFormula(sheet.Name, cell, positional); err != nil {
		return &ConversionError{Sheet: sheet.Name, Column: column, Row: rowNum, Formula: symbolic, Err: err}
	}
	style := styles.decimal
	if r.opts.Rules.IsPercent(column) {
		style = styles.percent
	}
	return f.SetCellStyle(sheet.Name, cell, cell, style)
}

// cachedValue is the number shown for a formula cell until the spreadsheet
// recalculates it.
func cachedValue(v types.Value) float64 {
	if n, ok := v.Num(); ok {
		return n
	}
	if s, ok := v.Str(); ok {
		if n, ok := normalize.PercentToFraction(s); ok {
			return n
		}
	}
	return 0
}

// ConvertXLSX reads the workbook in inputFile and writes its dataset to
// outputFile. An existing outputFile is first copied into backupDir unless
// backupDir is empty.
func ConvertXLSX(inputFile, outputFile, backupDir string, opts Options, progressChan chan<- float64) (*types.ConversionResult, error) {
	f, err := excelize.OpenFile(inputFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := newRun(opts, progressChan)
	ds, err := r.readWorkbook(f)
	if err != nil {
		return nil, err
	}

	result := &types.ConversionResult{
		InputFile:     inputFile,
		OutputFile:    outputFile,
		RowsProcessed: r.done,
	}
	if backupDir != "" {
		backup, err := BackupFile(outputFile, backupDir)
		if err != nil {
			return nil, fmt.Errorf("backing up %s: %w", filepath.Base(outputFile), err)
		}
		result.BackupFile = backup
	}
	if err := SaveDataset(outputFile, ds); err != nil {
		return nil, err
	}

	for _, s := range ds.Sheets {
		result.Sheets = append(result.Sheets, s.Name)
		result.FormulaColumns += s.Formulas.Len()
	}
	result.Warnings = r.warnings
	return result, nil
}

// ReadWorkbook extracts the dataset from an open workbook. It returns the
// warnings raised while reading.
func ReadWorkbook(f *excelize.File, opts Options) (*types.Dataset, []string, error) {
	r := newRun(opts, nil)
	ds, err := r.readWorkbook(f)
	return ds, r.warnings, err
}

func (r *run) readWorkbook(f *excelize.File) (*types.Dataset, error) {
	rules := r.opts.Rules
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		rules.Date1904 = *props.Date1904
	}

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrEmptyWorkbook
	}

	sheets := make([]*sheetData, 0, len(names))
	dir := formula.NewDirectory()
	for _, name := range names {
		sd, err := readSheet(f, name, rules.Date1904)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = append(sheets, sd)
		dir.Add(sd.name, sd.columns, len(sd.rows))
		r.total += len(sd.rows)
	}

	ds := &types.Dataset{Schema: r.opts.SchemaRef}
	for _, sd := range sheets {
		schema, err := r.buildSchema(sd, dir, rules)
		if err != nil {
			return nil, err
		}
		ds.Sheets = append(ds.Sheets, schema)
	}
	return ds, nil
}

func (r *run) buildSchema(sd *sheetData, dir *formula.Directory, rules normalize.Rules) (types.SheetSchema, error) {
	schema := types.SheetSchema{
		Name:    sd.name,
		Columns: sd.columns,
		Rows:    make([]types.Row, 0, len(sd.rows)),
	}

	for c, column := range sd.columns {
		if column == "" {
			continue
		}
		first, firstRow := "", 0
		diverged := false
		for i, cells := range sd.rows {
			if c >= len(cells) || !cells[c].HasFormula() {
				continue
			}
			rowNum := coord.FirstDataRow + i
			positional := cells[c].Formula
			symbolic, err := formula.Decompile(positional, sd.columns, rowNum, dir)
			if err != nil {
				return schema, &ConversionError{Sheet: sd.name, Column: column, Row: rowNum, Formula: positional, Err: err}
			}
			if firstRow == 0 {
				first, firstRow = symbolic, rowNum
				schema.Formulas.Set(column, symbolic)
				continue
			}
			if symbolic == first || diverged {
				continue
			}
			if r.opts.Strict {
				return schema, &ConversionError{
					Sheet:   sd.name,
					Column:  column,
					Row:     rowNum,
					Formula: positional,
					Err:     fmt.Errorf("%w: row %d has %q, row %d has %q", errDivergentFormula, firstRow, first, rowNum, symbolic),
				}
			}
			diverged = true
			r.warnf("sheet %q column %q: row %d formula %q differs from row %d formula %q; keeping the first",
				sd.name, column, rowNum, symbolic, firstRow, first)
		}
	}

	for _, cells := range sd.rows {
		var row types.Row
		for c, column := range sd.columns {
			if column == "" {
				continue
			}
			var cell normalize.Cell
			if c < len(cells) {
				cell = cells[c]
			}
			row.Set(column, rules.FromCell(column, cell))
		}
		schema.Rows = append(schema.Rows, row)
		r.step()
	}
	return schema, nil
}

// ReadFileData reads a preview of a dataset or workbook. Diverging formulas
// never fail a preview.
func ReadFileData(filePath string, opts Options) (*types.FileData, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".json":
		ds, err := LoadDataset(filePath)
		if err != nil {
			return nil, err
		}
		return ds.Summary(filePath), nil
	case ".xlsx":
		f, err := excelize.OpenFile(filePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		opts.Strict = false
		ds, _, err := ReadWorkbook(f, opts)
		if err != nil {
			return nil, err
		}
		return ds.Summary(filePath), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
}
