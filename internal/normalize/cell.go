package normalize

import "time"

// Kind is the storage type of a spreadsheet cell.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindError
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Cell is what the workbook codec reports for one cell. Only the field
// matching Kind carries the raw value.
type Cell struct {
	Kind    Kind
	Str     string
	Num     float64
	Bool    bool
	Time    time.Time
	Formula string // formula text without the leading '='
	Format  string // number format code, e.g. "0.00%"
	Display string // formatted text as the spreadsheet shows it
}

// HasFormula reports whether the cell holds a formula.
func (c Cell) HasFormula() bool { return c.Formula != "" }
