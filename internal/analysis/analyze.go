// Package analysis computes per-customer ordering-frequency statistics from a
// table snapshot: column roles are detected by name heuristics, rows are grouped
// by customer id, and each group gets an average order gap, a frequency label
// and a predicted next order date.
package analysis

import (
	"errors"

	"github.com/KaramelBytes/cadence-cli/internal/table"
	"github.com/sourcegraph/conc/iter"
)

// Options controls analysis behavior.
type Options struct {
	// Workers bounds the goroutines computing per-customer records. 0 or 1 runs serially.
	Workers int
}

// DefaultOptions returns reasonable defaults.
func DefaultOptions() Options {
	return Options{Workers: 4}
}

// result carries everything one pipeline run produced.
type result struct {
	roles        Roles
	records      []Record
	invalidDates int
	skippedRows  int
}

// Analyze runs detect, coerce, group, compute and serialize over t and returns
// one record per distinct customer id, sorted by id. A table with no rows
// yields an empty slice. Missing roles or a fully unparseable date column fail
// with a *SchemaError and no partial result.
func Analyze(t *table.Table, opt Options) ([]Record, error) {
	res, err := analyze(t, opt)
	if err != nil {
		return nil, err
	}
	return res.records, nil
}

func analyze(t *table.Table, opt Options) (*result, error) {
	if t == nil {
		return nil, errors.New("analyze: nil table")
	}
	if len(t.Rows) == 0 {
		return &result{records: []Record{}}, nil
	}
	roles := DetectRoles(t)
	if roles.Date == "" || roles.Customer == "" {
		return nil, &SchemaError{
			Kind:           ErrMissingColumns,
			Columns:        t.ColumnNames(),
			DateColumn:     roles.Date,
			CustomerColumn: roles.Customer,
		}
	}
	dateIdx := t.Index(roles.Date)
	dc := coerceDates(t, dateIdx)
	if dc.validCount() == 0 {
		return nil, &SchemaError{
			Kind:           ErrUnparseableDates,
			Columns:        t.ColumnNames(),
			DateColumn:     roles.Date,
			CustomerColumn: roles.Customer,
			Column:         roles.Date,
		}
	}
	nameIdx := -1
	if roles.Name != "" {
		nameIdx = t.Index(roles.Name)
	}
	groups, skipped := groupRows(t, t.Index(roles.Customer), nameIdx, dc)

	workers := opt.Workers
	if workers < 1 {
		workers = 1
	}
	mapper := iter.Mapper[*customerGroup, Record]{MaxGoroutines: workers}
	records := mapper.Map(groups, func(g **customerGroup) Record {
		return buildRecord(*g, dc)
	})
	if records == nil {
		records = []Record{}
	}
	sanitize(records)
	return &result{
		roles:        roles,
		records:      records,
		invalidDates: dc.invalid,
		skippedRows:  skipped,
	}, nil
}
