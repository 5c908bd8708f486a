package table

import (
	"fmt"
	"strings"
)

// FromRecords builds a typed Table from a header and raw text records.
// Ragged records are padded with nulls. Column types are inferred: a column is
// numeric when every non-missing cell parses as a number, string-like when any
// non-missing cell does not, and unknown when it has no values at all. Columns
// holding zero-padded integers such as "007" stay strings. Integers are kept exact.
func FromRecords(name string, header []string, records [][]string, dec rune) *Table {
	t := &Table{Name: name, TotalRows: len(records)}
	t.Columns = make([]Column, len(header))
	seen := map[string]int{}
	for i, h := range header {
		n := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if n == "" {
			n = fmt.Sprintf("unnamed_%d", i)
		}
		if cnt, dup := seen[n]; dup {
			seen[n] = cnt + 1
			n = fmt.Sprintf("%s.%d", n, cnt+1)
		} else {
			seen[n] = 0
		}
		t.Columns[i] = Column{Name: n}
	}

	ncol := len(header)
	type colAcc struct {
		numCnt int
		txtCnt int
	}
	accs := make([]colAcc, ncol)
	for _, rec := range records {
		for j := 0; j < ncol && j < len(rec); j++ {
			v := rec[j]
			if IsMissingToken(v) {
				continue
			}
			if hasLeadingZero(v) {
				accs[j].txtCnt++
			} else if _, ok := ParseNumber(v, dec); ok {
				accs[j].numCnt++
			} else {
				accs[j].txtCnt++
			}
		}
	}
	for j := range t.Columns {
		switch {
		case accs[j].txtCnt > 0:
			t.Columns[j].Type = TypeString
		case accs[j].numCnt > 0:
			t.Columns[j].Type = TypeNumber
		}
	}

	t.Rows = make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, ncol)
		for j := 0; j < ncol; j++ {
			if j >= len(rec) || IsMissingToken(rec[j]) {
				continue
			}
			raw := strings.TrimSpace(rec[j])
			switch t.Columns[j].Type {
			case TypeNumber:
				if n, ok := ParseInteger(raw); ok {
					row[j] = Integer(n)
					break
				}
				f, _ := ParseNumber(raw, dec)
				row[j] = Number(f)
			default:
				row[j] = String(raw)
			}
		}
		t.Rows[i] = row
	}
	return t
}
