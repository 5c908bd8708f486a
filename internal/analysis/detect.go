package analysis

import (
	"strings"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// Roles is the column role assignment for a table. Empty names mean "not detected".
type Roles struct {
	Date     string `json:"date_column"`
	Customer string `json:"customer_column"`
	Name     string `json:"name_column"`
}

// nameRule is one case-insensitive predicate over a column name.
type nameRule func(lower string) bool

func contains(sub string) nameRule {
	return func(n string) bool { return strings.Contains(n, sub) }
}

func hasPrefix(p string) nameRule {
	return func(n string) bool { return strings.HasPrefix(n, p) }
}

func hasSuffix(s string) nameRule {
	return func(n string) bool { return strings.HasSuffix(n, s) }
}

func anyOf(rules ...nameRule) nameRule {
	return func(n string) bool {
		for _, r := range rules {
			if r(n) {
				return true
			}
		}
		return false
	}
}

var (
	dateNameRule = anyOf(
		contains("date"), hasSuffix("_at"), contains("timestamp"), contains("time"),
		contains("deliver"), contains("order"), contains("created"),
	)
	customerNameRule = anyOf(
		contains("customer"), contains("client"), hasPrefix("cust"), contains("account"),
	)
	nameLiterals = []string{"customer name", "customer_name", "account name", "account_name", "client_name"}
)

// firstColumn returns the first column in declared order satisfying pred.
func firstColumn(cols []table.Column, pred func(c table.Column, lower string) bool) string {
	for _, c := range cols {
		if pred(c, strings.ToLower(c.Name)) {
			return c.Name
		}
	}
	return ""
}

// DetectRoles assigns the date, customer-id and customer-name roles using
// fixed rules evaluated in priority order. It never fails; missing roles are empty.
func DetectRoles(t *table.Table) Roles {
	r := Roles{Date: detectDate(t.Columns), Customer: detectCustomer(t.Columns)}
	r.Name = detectName(t, r)
	return r
}

func detectDate(cols []table.Column) string {
	if n := firstColumn(cols, func(c table.Column, _ string) bool { return c.Type.IsTemporal() }); n != "" {
		return n
	}
	return firstColumn(cols, func(_ table.Column, l string) bool { return dateNameRule(l) })
}

func detectCustomer(cols []table.Column) string {
	var candidates []table.Column
	for _, c := range cols {
		if customerNameRule(strings.ToLower(c.Name)) {
			candidates = append(candidates, c)
		}
	}
	if n := firstColumn(candidates, func(_ table.Column, l string) bool { return strings.Contains(l, "id") }); n != "" {
		return n
	}
	if len(candidates) > 0 {
		return candidates[0].Name
	}
	return firstColumn(cols, func(_ table.Column, l string) bool { return strings.Contains(l, "id") })
}

// detectName falls back to the first populated string column; the date column
// is excluded there because text sources leave it string-typed until coercion.
func detectName(t *table.Table, r Roles) string {
	cols := t.Columns
	if n := firstColumn(cols, func(_ table.Column, l string) bool {
		return strings.Contains(l, "name") && !strings.Contains(l, "id")
	}); n != "" {
		return n
	}
	for _, lit := range nameLiterals {
		if n := firstColumn(cols, func(_ table.Column, l string) bool {
			return strings.Contains(l, lit) && !strings.Contains(l, "id")
		}); n != "" {
			return n
		}
	}
	for i, c := range cols {
		if c.Name == r.Customer || c.Name == r.Date || c.Type != table.TypeString {
			continue
		}
		if t.HasValue(i) {
			return c.Name
		}
	}
	return ""
}
