package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	"github.com/KaramelBytes/cadence-cli/internal/table"
)

func sampleReport(t *testing.T) *analysis.Report {
	t.Helper()
	body := "customer_id,customer_name,order_date\n1,\"Ana, Jr\",2024-01-01\n1,\"Ana, Jr\",2024-01-11\n2,,2024-01-05\n"
	tb, err := table.ReadCSV(strings.NewReader(body), "orders", ',', table.Options{})
	if err != nil {
		t.Fatal(err)
	}
	rep, err := analysis.Run(tb, analysis.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Markdown, "MD": Markdown, "json": JSON, " csv ": CSV} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if JSON.Ext() != "json" || Markdown.Ext() != "md" {
		t.Error("ext mismatch")
	}
}

func TestRenderCSV(t *testing.T) {
	b, err := Render(sampleReport(t), CSV, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		strings.Join(CSVHeader, ","),
		`1,"Ana, Jr",2,2024-01-01,2024-01-11,10.00,Moderate,2024-01-21`,
		`2,,1,2024-01-05,2024-01-05,,Unknown,`,
		"",
	}, "\n")
	if string(b) != want {
		t.Errorf("csv:\n%s\nwant:\n%s", b, want)
	}
}

func TestRenderJSONHasNoNaN(t *testing.T) {
	b, err := Render(sampleReport(t), JSON, 0)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		RunID   string           `json:"run_id"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, b)
	}
	if decoded.RunID == "" || len(decoded.Records) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Records[1]["avg_order_gap"] != nil || decoded.Records[1]["customer_name"] != nil {
		t.Errorf("nulls not preserved: %v", decoded.Records[1])
	}
}

func TestRenderMarkdownTop(t *testing.T) {
	b, err := Render(sampleReport(t), Markdown, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "(1 more customers not shown)") {
		t.Errorf("markdown:\n%s", b)
	}
}
