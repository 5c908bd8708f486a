package analysis

import (
	"time"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// dateColumn is the coerced date column: one slot per table row.
type dateColumn struct {
	times []time.Time
	valid []bool
	// dateOnly is true when the column carries no time-of-day precision.
	dateOnly bool
	invalid  int
}

// coerceDates converts every cell of column idx to a time. Cells that fail
// coercion become invalid rather than failing the run. Numbers are invalid
// unless they are eight-digit integers such as 20240105.
func coerceDates(t *table.Table, idx int) dateColumn {
	dc := dateColumn{
		times: make([]time.Time, len(t.Rows)),
		valid: make([]bool, len(t.Rows)),
	}
	colType := t.Columns[idx].Type
	allDateOnly := true
	parsed := 0
	for r := range t.Rows {
		v := t.Cell(r, idx)
		var (
			ts       time.Time
			dateOnly bool
			ok       bool
		)
		switch {
		case v.IsNull():
		case v.Kind == table.KindTime:
			ts, dateOnly, ok = v.Time, v.DateOnly, true
		case v.Kind == table.KindString:
			ts, dateOnly, ok = table.ParseTime(v.Str)
		case v.Kind == table.KindNumber && v.IsInt && v.Int >= 10000000 && v.Int <= 99999999:
			ts, dateOnly, ok = table.ParseTime(v.Text())
		}
		if !ok {
			dc.invalid++
			continue
		}
		dc.times[r] = ts
		dc.valid[r] = true
		parsed++
		if !dateOnly {
			allDateOnly = false
		}
	}
	switch colType {
	case table.TypeDate:
		dc.dateOnly = true
	case table.TypeDateTime:
		dc.dateOnly = false
	default:
		dc.dateOnly = parsed > 0 && allDateOnly
	}
	return dc
}

func (dc dateColumn) validCount() int {
	return len(dc.valid) - dc.invalid
}

// format renders t at the column's precision.
func (dc dateColumn) format(t time.Time) string {
	if dc.dateOnly {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}
