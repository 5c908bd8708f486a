package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumns is the kind of SchemaError raised when the date or
	// customer-id column cannot be detected.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrUnparseableDates is the kind of SchemaError raised when the detected
	// date column holds no value that coerces to a date.
	ErrUnparseableDates = errors.New("unparseable date column")
)

// SchemaError reports a table whose shape prevents analysis.
// Match the kind with errors.Is(err, ErrMissingColumns) or ErrUnparseableDates.
type SchemaError struct {
	Kind    error
	Columns []string
	// DateColumn and CustomerColumn are the detected names; empty when not found.
	DateColumn     string
	CustomerColumn string
	// Column names the offending column for ErrUnparseableDates.
	Column string
}

func (e *SchemaError) Error() string {
	if errors.Is(e.Kind, ErrUnparseableDates) {
		return fmt.Sprintf("%v: could not parse any value in %q", e.Kind, e.Column)
	}
	return fmt.Sprintf("%v: date column=%s, customer column=%s (columns: %s)",
		e.Kind, orNone(e.DateColumn), orNone(e.CustomerColumn), strings.Join(e.Columns, ", "))
}

func (e *SchemaError) Unwrap() error { return e.Kind }

// Diagnostics returns a JSON-friendly payload describing the failure.
// Undetected column names are reported as nil.
func (e *SchemaError) Diagnostics() map[string]any {
	d := map[string]any{"error": e.Kind.Error()}
	if errors.Is(e.Kind, ErrUnparseableDates) {
		d["column"] = e.Column
		return d
	}
	cols := e.Columns
	if cols == nil {
		cols = []string{}
	}
	d["columns"] = cols
	d["date_column"] = nilIfEmpty(e.DateColumn)
	d["customer_column"] = nilIfEmpty(e.CustomerColumn)
	return d
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
