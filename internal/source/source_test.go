package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// seedSQLite creates a file database with an orders table and returns its path.
func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE orders (order_id INTEGER PRIMARY KEY, customer_id INTEGER, customer_name TEXT, order_date DATE, amount REAL)`,
		`INSERT INTO orders (customer_id, customer_name, order_date, amount) VALUES
			(1, 'Ana', '2024-01-01', 10.5),
			(1, 'Ana', '2024-01-06', 12),
			(1, NULL, '2024-01-11', 9),
			(2, 'Ben', '2024-01-01', 99),
			(2, 'Ben', '2024-02-10', 80),
			(3, 'Cy',  '2024-03-03', 5)`,
		`CREATE TABLE notes (body TEXT)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return path
}

func TestSQLiteListAndLoad(t *testing.T) {
	ctx := context.Background()
	path := seedSQLite(t)
	db, err := Open(ctx, Params{DSN: "sqlite://" + path}, DefaultPoolOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if db.Dialect() != SQLite {
		t.Fatalf("dialect = %s", db.Dialect())
	}

	tables, err := db.ListTables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 || tables[0] != "notes" || tables[1] != "orders" {
		t.Fatalf("tables = %v", tables)
	}

	tb, err := db.LoadTable(ctx, "orders", 0)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(tb.Rows) != 6 || tb.Truncated {
		t.Fatalf("rows = %d truncated=%v", len(tb.Rows), tb.Truncated)
	}
	if got := tb.Columns[tb.Index("order_date")].Type; got != table.TypeDate {
		t.Errorf("order_date type = %s", got)
	}
	if got := tb.Columns[tb.Index("amount")].Type; got != table.TypeNumber {
		t.Errorf("amount type = %s", got)
	}
	if v := tb.Cell(0, tb.Index("order_date")); v.Kind != table.KindTime || v.Text() != "2024-01-01" {
		t.Errorf("order_date cell = %+v", v)
	}

	recs, err := analysis.Analyze(tb, analysis.DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d", len(recs))
	}
	if r := recs[0]; r.CustomerID.Text() != "1" || *r.AvgOrderGap != 5 || *r.PredictedNextOrderDate != "2024-01-16" || *r.CustomerName != "Ana" {
		t.Errorf("customer 1 = %+v", r)
	}
	if r := recs[1]; *r.AvgOrderGap != 40 || r.Classification != analysis.Infrequent {
		t.Errorf("customer 2 = %+v", r)
	}
}

func TestLoadTableMaxRowsAndValidation(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Params{Driver: "sqlite", Schema: seedSQLite(t)}, PoolOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	tb, err := db.LoadTable(ctx, "orders", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(tb.Rows) != 4 || !tb.Truncated || tb.TotalRows != 6 {
		t.Errorf("rows=%d truncated=%v total=%d", len(tb.Rows), tb.Truncated, tb.TotalRows)
	}

	if _, err := db.LoadTable(ctx, "orders; DROP TABLE orders", 0); err == nil {
		t.Fatal("expected invalid table name error")
	}
	if _, err := db.LoadTable(ctx, "missing_table", 0); err == nil {
		t.Fatal("expected query error for missing table")
	}
}

func TestLargeIntegerIDsStayDistinct(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "big.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		`CREATE TABLE orders (customer_id BIGINT, order_date DATE)`,
		`INSERT INTO orders VALUES (9007199254740992, '2024-01-01'), (9007199254740993, '2024-01-05')`,
	} {
		if _, err := raw.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	raw.Close()

	db, err := Open(ctx, Params{DSN: "sqlite://" + path}, PoolOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	tb, err := db.LoadTable(ctx, "orders", 0)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := analysis.Analyze(tb, analysis.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want one per id", len(recs))
	}
	b, err := json.Marshal(recs[1].CustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "9007199254740993" || recs[1].TotalOrders != 1 {
		t.Errorf("second id = %s orders=%d", b, recs[1].TotalOrders)
	}
}

func TestToValue(t *testing.T) {
	if v := toValue(int64(9007199254740993), table.TypeNumber); !v.IsInt || v.Text() != "9007199254740993" {
		t.Errorf("int64 = %+v", v)
	}
	if v := toValue([]byte("9007199254740993"), table.TypeNumber); !v.IsInt || v.Int != 9007199254740993 {
		t.Errorf("integer bytes = %+v", v)
	}
	if v := toValue(uint64(math.MaxUint64), table.TypeNumber); v.Text() != "18446744073709551615" {
		t.Errorf("uint64 = %+v", v)
	}
	if v := toValue([]byte("12.50"), table.TypeNumber); v.Kind != table.KindNumber || v.Num != 12.5 {
		t.Errorf("decimal bytes = %+v", v)
	}
	if v := toValue("2024-02-03 04:05:06", table.TypeDateTime); v.Kind != table.KindTime || v.DateOnly {
		t.Errorf("datetime text = %+v", v)
	}
	if v := toValue(true, table.TypeNumber); v.Num != 1 {
		t.Errorf("bool = %+v", v)
	}
	if !toValue(nil, table.TypeString).IsNull() {
		t.Errorf("nil should be null")
	}
}
