// Package export renders analysis reports as Markdown, JSON or CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	"github.com/KaramelBytes/cadence-cli/internal/utils"
)

// Format is an output format name.
type Format string

const (
	Markdown Format = "markdown"
	JSON     Format = "json"
	CSV      Format = "csv"
)

// ParseFormat accepts markdown|md, json and csv, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	}
	return "", fmt.Errorf("unsupported format %q (use markdown, json or csv)", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case JSON:
		return "json"
	case CSV:
		return "csv"
	default:
		return "md"
	}
}

// Render encodes the report. top limits the Markdown customer table (0 = all);
// JSON and CSV always carry every record.
func Render(rep *analysis.Report, f Format, top int) ([]byte, error) {
	switch f {
	case JSON:
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case CSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, rep.Records); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return []byte(rep.Markdown(top)), nil
	}
}

// CSVHeader is the column order written by WriteCSV.
var CSVHeader = []string{
	"customer_id",
	"customer_name",
	"total_orders",
	"first_order_date",
	"last_order_date",
	"avg_order_gap",
	"customer_classification",
	"predicted_next_order_date",
}

// WriteCSV writes one row per record. Nulls become empty cells.
func WriteCSV(w io.Writer, recs []analysis.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		gap := ""
		if r.AvgOrderGap != nil {
			gap = strconv.FormatFloat(*r.AvgOrderGap, 'f', 2, 64)
		}
		if err := cw.Write([]string{
			r.CustomerID.Text(),
			str(r.CustomerName),
			strconv.Itoa(r.TotalOrders),
			str(r.FirstOrderDate),
			str(r.LastOrderDate),
			gap,
			string(r.Classification),
			str(r.PredictedNextOrderDate),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
