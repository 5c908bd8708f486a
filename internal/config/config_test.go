package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Driver != "" || c.Workers != 4 || c.HTTPAddr != ":8000" || c.OutputFormat != "markdown" {
		t.Errorf("defaults = %+v", c)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c := &Global{Driver: "sqlite", Workers: 2, TopCustomers: 10}
	if err := Save(c, ""); err != nil {
		t.Fatal(err)
	}
	st, err := os.Stat(filepath.Join(home, ".cadence", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", st.Mode().Perm())
	}
	t.Setenv("CADENCE_WORKERS", "8")
	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Driver != "sqlite" || got.TopCustomers != 10 {
		t.Errorf("file values lost: %+v", got)
	}
	if got.Workers != 8 {
		t.Errorf("workers = %d, want env override 8", got.Workers)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.yaml")
	if _, err := Load(missing); err != nil {
		t.Errorf("missing explicit file should fall back to defaults: %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSetValidation(t *testing.T) {
	var c Global
	ok := map[string]string{
		"driver":        "Postgres",
		"output_format": "md",
		"workers":       "6",
		"log_level":     "DEBUG",
		"db_password":   "supersecret",
	}
	for k, v := range ok {
		if err := c.Set(k, v); err != nil {
			t.Errorf("Set(%s, %s): %v", k, v, err)
		}
	}
	if c.Driver != "postgres" || c.OutputFormat != "markdown" || c.Workers != 6 || c.LogLevel != "debug" {
		t.Errorf("after Set: %+v", c)
	}
	if got := c.Get("db_password"); got != "sup****ret" {
		t.Errorf("masked password = %q", got)
	}

	bad := [][2]string{
		{"driver", "oracle"},
		{"output_format", "xml"},
		{"workers", "-1"},
		{"max_rows", "ten"},
		{"log_level", "trace"},
		{"nope", "x"},
	}
	for _, kv := range bad {
		if err := c.Set(kv[0], kv[1]); err == nil {
			t.Errorf("Set(%s, %s) should fail", kv[0], kv[1])
		}
	}
}

func TestKeysRoundTrip(t *testing.T) {
	var c Global
	for _, k := range Keys {
		if k == "db_password" {
			continue
		}
		val := "1"
		switch k {
		case "driver":
			val = "sqlite"
		case "output_format":
			val = "json"
		case "log_level":
			val = "warn"
		}
		if err := c.Set(k, val); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
		if got := c.Get(k); got != val {
			t.Errorf("Get(%s) = %q, want %q", k, got, val)
		}
	}
}

func TestMask(t *testing.T) {
	for in, want := range map[string]string{"": "", "abc": "******", "abcdefgh": "abc****fgh"} {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	if c.TopCustomers != 50 || c.DBTimeoutSec != 30 || c.MaxOpenConns != 10 || c.LogLevel != "info" {
		t.Errorf("Defaults() = %+v", c)
	}
}
