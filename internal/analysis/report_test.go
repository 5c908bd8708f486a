package analysis

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRunReportAndMarkdown(t *testing.T) {
	body := "customer_id,customer_name,order_date\n" +
		"1,Ana,2024-01-01\n" +
		"1,Ana,2024-01-04\n" +
		"2,Ben,2024-01-01\n" +
		"2,Ben,bad\n" +
		",Nobody,2024-01-01\n" +
		"3,Cy,2024-01-01\n"
	rep, err := Run(csvTable(t, body), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(rep.RunID); err != nil {
		t.Errorf("run id %q: %v", rep.RunID, err)
	}
	if rep.Rows != 6 || len(rep.Records) != 3 {
		t.Errorf("rows=%d records=%d", rep.Rows, len(rep.Records))
	}
	if rep.Counts[Frequent] != 1 || rep.Counts[Unknown] != 2 || rep.Counts[Moderate] != 0 {
		t.Errorf("counts = %v", rep.Counts)
	}
	if rep.InvalidDates != 1 || rep.SkippedRows != 1 {
		t.Errorf("invalid=%d skipped=%d", rep.InvalidDates, rep.SkippedRows)
	}

	md := rep.Markdown(2)
	for _, want := range []string{
		"[ANALYSIS SUMMARY]",
		"Table: orders",
		"Customers: 3",
		"- date: order_date",
		"- customer name: customer_name",
		"- Frequent: 1 (33.3%)",
		"| 1 | Ana | 2 | 2024-01-01 | 2024-01-04 | 3.00 | Frequent | 2024-01-07 |",
		"(1 more customers not shown)",
		"[NOTES]",
		"1 row(s) skipped",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestReportMarkdownTruncationNote(t *testing.T) {
	tb := csvTable(t, "customer_id,order_date\n1,2024-01-01\n")
	tb.Truncated = true
	tb.TotalRows = 10
	rep, err := Run(tb, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	md := rep.Markdown(0)
	if !strings.Contains(md, "Rows: ~10 (processed 1)") || !strings.Contains(md, "processed only 1/10 rows") {
		t.Errorf("markdown:\n%s", md)
	}
}
