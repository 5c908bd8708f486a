package analysis

import (
	"sort"
	"time"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// customerGroup holds all rows sharing one customer id.
type customerGroup struct {
	id   table.Value
	rows []int
	// dates are the group's valid dates in ascending order.
	dates []time.Time
	name  table.Value
}

func (g *customerGroup) total() int { return len(g.rows) }

func (g *customerGroup) first() (time.Time, bool) {
	if len(g.dates) == 0 {
		return time.Time{}, false
	}
	return g.dates[0], true
}

func (g *customerGroup) last() (time.Time, bool) {
	if len(g.dates) == 0 {
		return time.Time{}, false
	}
	return g.dates[len(g.dates)-1], true
}

// groupRows partitions rows by customer id. Rows with a null id are skipped
// and counted. Groups come back sorted by id.
func groupRows(t *table.Table, custIdx, nameIdx int, dc dateColumn) (groups []*customerGroup, skipped int) {
	byKey := map[string]*customerGroup{}
	for r := range t.Rows {
		id := t.Cell(r, custIdx)
		if id.IsNull() {
			skipped++
			continue
		}
		k := id.Key()
		g := byKey[k]
		if g == nil {
			g = &customerGroup{id: id}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}

	for _, g := range groups {
		// valid dates ascending, invalid last, declared row order on ties
		sort.SliceStable(g.rows, func(i, j int) bool {
			a, b := g.rows[i], g.rows[j]
			if dc.valid[a] != dc.valid[b] {
				return dc.valid[a]
			}
			if !dc.valid[a] {
				return false
			}
			return dc.times[a].Before(dc.times[b])
		})
		for _, r := range g.rows {
			if dc.valid[r] {
				g.dates = append(g.dates, dc.times[r])
			}
		}
		if nameIdx >= 0 {
			for _, r := range g.rows {
				if v := t.Cell(r, nameIdx); !v.IsNull() {
					g.name = v
					break
				}
			}
		}
	}

	sort.SliceStable(groups, func(i, j int) bool { return lessID(groups[i].id, groups[j].id) })
	return groups, skipped
}

// lessID orders ids: numbers numerically, then times, then strings lexicographically.
func lessID(a, b table.Value) bool {
	ra, rb := kindRank(a.Kind), kindRank(b.Kind)
	if ra != rb {
		return ra < rb
	}
	switch a.Kind {
	case table.KindNumber:
		return table.CompareNumbers(a, b) < 0
	case table.KindTime:
		return a.Time.Before(b.Time)
	default:
		return a.Str < b.Str
	}
}

func kindRank(k table.Kind) int {
	switch k {
	case table.KindNumber:
		return 0
	case table.KindTime:
		return 1
	default:
		return 2
	}
}
