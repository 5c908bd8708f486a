package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
)

// ColumnType is the declared or inferred type of a column.
type ColumnType int

const (
	TypeUnknown ColumnType = iota
	TypeString
	TypeNumber
	TypeDate
	TypeDateTime
)

func (ct ColumnType) String() string {
	switch ct {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// IsTemporal reports whether values of the column are already typed as dates or timestamps.
func (ct ColumnType) IsTemporal() bool { return ct == TypeDate || ct == TypeDateTime }

// Value is a single cell. The zero Value is null.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	// Int is the exact value when IsInt is set; Num then holds its float approximation.
	Int   int64
	IsInt bool
	Time  time.Time
	// DateOnly is set for time values that carry no time-of-day precision.
	DateOnly bool
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Integer(i int64) Value { return Value{Kind: KindNumber, Num: float64(i), Int: i, IsInt: true} }
func Date(t time.Time) Value { return Value{Kind: KindTime, Time: t, DateOnly: true} }
func Timestamp(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// IsNull reports whether the value is missing. NaN numbers count as missing.
func (v Value) IsNull() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindNumber:
		return math.IsNaN(v.Num)
	case KindTime:
		return v.Time.IsZero()
	}
	return false
}

// Text renders the value as a plain string. Null renders as "".
func (v Value) Text() string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.numberText()
	case KindTime:
		if v.DateOnly {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format(time.RFC3339Nano)
	}
	return ""
}

// Key returns a grouping key that is equal for equal values of the same kind.
// Numbers compare by value, so 1 and 1.0 share a key while the string "1" does not.
// Integers keep every digit, so ids above 2^53 stay distinct.
func (v Value) Key() string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind {
	case KindNumber:
		return "n:" + v.numberText()
	case KindTime:
		return "t:" + v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return "s:" + v.Str
	}
}

// MarshalJSON emits strings, numbers, or null. Non-finite numbers become null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	switch v.Kind {
	case KindNumber:
		if !v.IsInt && math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(v.numberText()), nil
	default:
		return []byte(strconv.Quote(v.Text())), nil
	}
}

func (v Value) numberText() string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}
	if f := v.Num; f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

// CompareNumbers orders two numbers, exactly when both are integers.
func CompareNumbers(a, b Value) int {
	if a.IsInt && b.IsInt {
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		}
		return 0
	}
	switch {
	case a.Num < b.Num:
		return -1
	case a.Num > b.Num:
		return 1
	}
	return 0
}

// Column describes one column of a table in declared order.
type Column struct {
	Name string
	Type ColumnType
}

// Table is an in-memory snapshot: ordered rows aligned with Columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]Value
	// Truncated is set when a loader stopped early because of a row limit.
	Truncated bool
	// TotalRows counts rows seen by the loader, including those past the limit.
	TotalRows int
}

// ColumnNames returns the column names in declared order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row r, column c; out-of-range cells are null.
func (t *Table) Cell(r, c int) Value {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return Null()
	}
	return t.Rows[r][c]
}

// HasValue reports whether column c contains at least one non-null cell.
func (t *Table) HasValue(c int) bool {
	for r := range t.Rows {
		if !t.Cell(r, c).IsNull() {
			return true
		}
	}
	return false
}

var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {}, "<na>": {},
}

// IsMissingToken reports whether a raw text cell should be treated as null.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
