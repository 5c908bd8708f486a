package table

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeXLSX assembles a minimal two-sheet workbook. The second sheet holds
// date-styled serials (style 1 -> numFmtId 14, style 2 -> custom yyyy-mm-dd hh:mm).
func writeXLSX(t *testing.T, dir string) string {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Orders" sheetId="2" r:id="rId2"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>customer_id</t></si><si><t>order_date</t></si><si><t>customer_name</t></si><si><t>Ana</t></si><si><t>note</t></si>
</sst>`,
		"xl/styles.xml": `<?xml version="1.0" encoding="UTF-8"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<numFmts count="1"><numFmt numFmtId="164" formatCode="yyyy\-mm\-dd\ hh:mm"/></numFmts>
<cellStyleXfs count="1"><xf numFmtId="14"/></cellStyleXfs>
<cellXfs count="3"><xf numFmtId="0"/><xf numFmtId="14"/><xf numFmtId="164"/></cellXfs>
</styleSheet>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>4</v></c></row>
<row r="2"><c r="A2" t="inlineStr"><is><t>hello</t></is></c></row>
</sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>
<row r="2"><c r="A2"><v>7</v></c><c r="B2" s="1"><v>45292</v></c><c r="C2" t="s"><v>3</v></c></row>
<row r="3"><c r="A3"><v>7</v></c><c r="B3" s="2"><v>45302.5</v></c></row>
<row r="4"><c r="A4" s="0"><v>8</v></c><c r="C4" t="s"><v>3</v></c></row>
</sheetData></worksheet>`,
	}
	p := filepath.Join(dir, "book.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestXLSXSheetSelectionAndDateSerials(t *testing.T) {
	p := writeXLSX(t, t.TempDir())

	first, err := LoadFile(p, Options{})
	if err != nil {
		t.Fatalf("default sheet: %v", err)
	}
	if got := first.ColumnNames(); len(got) != 1 || got[0] != "note" {
		t.Fatalf("first sheet columns = %v", got)
	}
	if first.Cell(0, 0).Text() != "hello" {
		t.Errorf("inline string = %q", first.Cell(0, 0).Text())
	}

	tb, err := LoadFile(p, Options{SheetName: "orders"})
	if err != nil {
		t.Fatalf("sheet by name: %v", err)
	}
	if tb.Name != "book:Orders" {
		t.Errorf("name = %q", tb.Name)
	}
	if len(tb.Rows) != 3 {
		t.Fatalf("rows = %d", len(tb.Rows))
	}
	if got := tb.Cell(0, 1).Text(); got != "2024-01-01" {
		t.Errorf("date serial = %q, want 2024-01-01", got)
	}
	if got := tb.Cell(1, 1).Text(); got != "2024-01-11T12:00:00" {
		t.Errorf("datetime serial = %q", got)
	}
	if !tb.Cell(2, 1).IsNull() {
		t.Errorf("missing cell should be null")
	}
	if tb.Columns[0].Type != TypeNumber || tb.Cell(2, 0).Num != 8 {
		t.Errorf("id column = %s / %+v", tb.Columns[0].Type, tb.Cell(2, 0))
	}

	byIndex, err := LoadFile(p, Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("sheet by index: %v", err)
	}
	if len(byIndex.Rows) != 3 {
		t.Errorf("index rows = %d", len(byIndex.Rows))
	}
}

func TestXLSXMissingSheetListsAvailable(t *testing.T) {
	p := writeXLSX(t, t.TempDir())
	_, err := LoadFile(p, Options{SheetName: "Missing"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Available sheets: Notes, Orders") {
		t.Errorf("error = %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsDateFormat(t *testing.T) {
	cases := map[string]bool{
		"yyyy-mm-dd":      true,
		"[$-409]d-mmm-yy": true,
		"h:mm:ss":         true,
		"0.00":            false,
		`"day "0`:         false,
		"#,##0.00 [Red]":  false,
	}
	for code, want := range cases {
		if got := isDateFormat(200, code); got != want {
			t.Errorf("isDateFormat(%q) = %v, want %v", code, got, want)
		}
	}
	if !isDateFormat(14, "") || isDateFormat(2, "") {
		t.Errorf("builtin id detection wrong")
	}
}
