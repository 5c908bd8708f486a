package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// Report is a markdown-friendly summary of one analysis run.
type Report struct {
	RunID        string                 `json:"run_id"`
	Name         string                 `json:"table"`
	Rows         int                    `json:"rows"`
	TotalRows    int                    `json:"total_rows"`
	Roles        Roles                  `json:"columns"`
	Counts       map[Classification]int `json:"classification_counts"`
	InvalidDates int                    `json:"invalid_dates"`
	SkippedRows  int                    `json:"skipped_rows"`
	Warnings     []string               `json:"warnings,omitempty"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Records      []Record               `json:"records"`
}

// Run analyzes t and wraps the records with run metadata and warnings.
func Run(t *table.Table, opt Options) (*Report, error) {
	res, err := analyze(t, opt)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		RunID:        uuid.NewString(),
		Name:         t.Name,
		Rows:         len(t.Rows),
		TotalRows:    t.TotalRows,
		Roles:        res.roles,
		Counts:       map[Classification]int{},
		InvalidDates: res.invalidDates,
		SkippedRows:  res.skippedRows,
		GeneratedAt:  time.Now().UTC(),
		Records:      res.records,
	}
	for _, c := range Classifications {
		rep.Counts[c] = 0
	}
	for _, r := range res.records {
		rep.Counts[r.Classification]++
	}
	if rep.TotalRows < rep.Rows {
		rep.TotalRows = rep.Rows
	}
	if t.Truncated {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Rows, rep.TotalRows))
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	if res.invalidDates > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d row(s) have a missing or unparseable %q value; they count as orders but not toward gaps", res.invalidDates, res.roles.Date))
	}
	if res.skippedRows > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d row(s) skipped because %q is empty", res.skippedRows, res.roles.Customer))
	}
	if rep.Rows > 0 && res.roles.Name == "" {
		rep.Warnings = append(rep.Warnings, "no customer name column detected")
	}
	return rep, nil
}

// Markdown renders the report. top limits the customer table; 0 shows all.
func (r *Report) Markdown(top int) string {
	var b strings.Builder
	b.WriteString("[ANALYSIS SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Table: %s\n", r.Name))
	}
	if r.TotalRows > r.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.TotalRows, r.Rows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Customers: %d\n", len(r.Records)))
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}

	b.WriteString("\n[DETECTED COLUMNS]\n")
	b.WriteString(fmt.Sprintf("- date: %s\n", orNone(r.Roles.Date)))
	b.WriteString(fmt.Sprintf("- customer id: %s\n", orNone(r.Roles.Customer)))
	b.WriteString(fmt.Sprintf("- customer name: %s\n", orNone(r.Roles.Name)))

	b.WriteString("\n[CLASSIFICATION]\n")
	for _, c := range Classifications {
		n := r.Counts[c]
		pct := 0.0
		if len(r.Records) > 0 {
			pct = float64(n) * 100.0 / float64(len(r.Records))
		}
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", c, n, pct))
	}

	if len(r.Records) > 0 {
		b.WriteString("\n[CUSTOMERS]\n")
		b.WriteString("| customer_id | customer_name | orders | first | last | avg_gap | class | next |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
		n := len(r.Records)
		if top > 0 && top < n {
			n = top
		}
		for _, rec := range r.Records[:n] {
			b.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s | %s | %s |\n",
				safeVal(rec.CustomerID.Text()),
				safeVal(deref(rec.CustomerName)),
				rec.TotalOrders,
				deref(rec.FirstOrderDate),
				deref(rec.LastOrderDate),
				fmtGap(rec.AvgOrderGap),
				rec.Classification,
				deref(rec.PredictedNextOrderDate),
			))
		}
		if n < len(r.Records) {
			b.WriteString(fmt.Sprintf("\n(%d more customers not shown)\n", len(r.Records)-n))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func fmtGap(g *float64) string {
	if g == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *g)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
