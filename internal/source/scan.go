package source

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

var numericTypes = map[string]bool{
	"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "BIGINT": true,
	"INT2": true, "INT4": true, "INT8": true, "SERIAL": true, "BIGSERIAL": true, "YEAR": true,
	"DECIMAL": true, "NUMERIC": true, "DEC": true, "FLOAT": true, "FLOAT4": true, "FLOAT8": true,
	"DOUBLE": true, "DOUBLE PRECISION": true, "REAL": true, "MONEY": true, "BOOL": true, "BOOLEAN": true, "BIT": true,
}

var stringTypes = map[string]bool{
	"STRING": true, "ENUM": true, "SET": true, "JSON": true, "JSONB": true, "UUID": true, "NAME": true,
}

// columnType maps a driver's DatabaseTypeName to a column type. Unrecognized
// names return TypeUnknown and are inferred from the values instead.
func columnType(dbType string) table.ColumnType {
	base := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	base = strings.TrimPrefix(base, "UNSIGNED ")
	base = strings.TrimSuffix(base, " UNSIGNED")
	switch {
	case base == "":
		return table.TypeUnknown
	case strings.Contains(base, "TIMESTAMP"), strings.Contains(base, "DATETIME"):
		return table.TypeDateTime
	case base == "DATE":
		return table.TypeDate
	case numericTypes[base]:
		return table.TypeNumber
	case stringTypes[base], strings.Contains(base, "CHAR"), strings.Contains(base, "TEXT"), strings.Contains(base, "CLOB"):
		return table.TypeString
	}
	return table.TypeUnknown
}

// scanTable drains rows into a snapshot keeping at most maxRows rows when maxRows > 0.
func scanTable(name string, rows *sql.Rows, maxRows int) (*table.Table, error) {
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	t := &table.Table{Name: name, Columns: make([]table.Column, len(cts))}
	for i, ct := range cts {
		t.Columns[i] = table.Column{Name: ct.Name(), Type: columnType(ct.DatabaseTypeName())}
	}
	raw := make([]any, len(cts))
	dest := make([]any, len(cts))
	for i := range raw {
		dest[i] = &raw[i]
	}
	seen := 0
	for rows.Next() {
		seen++
		if maxRows > 0 && len(t.Rows) >= maxRows {
			continue
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]table.Value, len(cts))
		for i, v := range raw {
			row[i] = toValue(v, t.Columns[i].Type)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	t.TotalRows = seen
	t.Truncated = seen > len(t.Rows)
	inferUnknown(t)
	return t, nil
}

// toValue converts a driver value. Text in typed columns is parsed so that a
// driver returning DATE columns as strings still yields time values.
func toValue(v any, ct table.ColumnType) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Null()
	case time.Time:
		if ct == table.TypeDate {
			return table.Date(x)
		}
		return table.Timestamp(x)
	case []byte:
		return textValue(string(x), ct)
	case string:
		return textValue(x, ct)
	case int64:
		return table.Integer(x)
	case int32:
		return table.Integer(int64(x))
	case int:
		return table.Integer(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return table.String(strconv.FormatUint(x, 10))
		}
		return table.Integer(int64(x))
	case float64:
		return table.Number(x)
	case float32:
		return table.Number(float64(x))
	case bool:
		if x {
			return table.Integer(1)
		}
		return table.Integer(0)
	default:
		return table.String(fmt.Sprint(x))
	}
}

func textValue(s string, ct table.ColumnType) table.Value {
	switch ct {
	case table.TypeNumber:
		if n, ok := table.ParseInteger(s); ok {
			return table.Integer(n)
		}
		if f, ok := table.ParseNumber(s, '.'); ok {
			return table.Number(f)
		}
	case table.TypeDate, table.TypeDateTime:
		if ts, dateOnly, ok := table.ParseTime(s); ok {
			if ct == table.TypeDate || dateOnly {
				return table.Date(ts)
			}
			return table.Timestamp(ts)
		}
	}
	return table.String(s)
}

// inferUnknown assigns a type to columns the driver did not describe.
func inferUnknown(t *table.Table) {
	for c := range t.Columns {
		if t.Columns[c].Type != table.TypeUnknown {
			continue
		}
		var nums, times, strs int
		allDateOnly := true
		for r := range t.Rows {
			v := t.Rows[r][c]
			if v.IsNull() {
				continue
			}
			switch v.Kind {
			case table.KindNumber:
				nums++
			case table.KindTime:
				times++
				allDateOnly = allDateOnly && v.DateOnly
			default:
				strs++
			}
		}
		switch {
		case strs > 0:
			t.Columns[c].Type = table.TypeString
		case times > 0 && nums == 0:
			if allDateOnly {
				t.Columns[c].Type = table.TypeDate
			} else {
				t.Columns[c].Type = table.TypeDateTime
			}
		case nums > 0 && times == 0:
			t.Columns[c].Type = table.TypeNumber
		}
	}
}
