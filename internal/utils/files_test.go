package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileAndUniquePath(t *testing.T) {
	dir := t.TempDir()
	p, renamed := UniquePath(dir, "orders", ".cadence.md")
	if renamed || filepath.Base(p) != "orders.cadence.md" {
		t.Fatalf("first path = %s renamed=%v", p, renamed)
	}
	if err := SafeWriteFile(p, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}
	p2, renamed := UniquePath(dir, "orders", ".cadence.md")
	if !renamed || filepath.Base(p2) != "orders__2.cadence.md" {
		t.Fatalf("second path = %s renamed=%v", p2, renamed)
	}
	if err := SafeWriteFile(p2, []byte("y")); err != nil {
		t.Fatal(err)
	}
	if p3, _ := UniquePath(dir, "orders", ".cadence.md"); filepath.Base(p3) != "orders__3.cadence.md" {
		t.Errorf("third path = %s", p3)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Q1 Orders":   "q1-orders",
		"  __x__  ":   "x",
		"***":         "sheet",
		"Sales-2024!": "sales-2024",
	}
	for in, want := range tests {
		if got := Slug(in, "sheet"); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Errorf("json = %q", b)
	}
}
