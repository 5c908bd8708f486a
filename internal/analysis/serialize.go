package analysis

import (
	"math"

	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// Record is the per-customer output row. Nullable fields are pointers and
// marshal to JSON null.
type Record struct {
	CustomerID             table.Value    `json:"customer_id"`
	CustomerName           *string        `json:"customer_name"`
	TotalOrders            int            `json:"total_orders"`
	FirstOrderDate         *string        `json:"first_order_date"`
	LastOrderDate          *string        `json:"last_order_date"`
	AvgOrderGap            *float64       `json:"avg_order_gap"`
	Classification         Classification `json:"customer_classification"`
	PredictedNextOrderDate *string        `json:"predicted_next_order_date"`
}

// buildRecord computes gap, label and prediction for one group and renders them.
func buildRecord(g *customerGroup, dc dateColumn) Record {
	rec := Record{
		CustomerID:  g.id,
		TotalOrders: g.total(),
	}
	if !g.name.IsNull() {
		rec.CustomerName = strPtr(g.name.Text())
	}
	first, hasFirst := g.first()
	last, hasLast := g.last()
	if hasFirst {
		rec.FirstOrderDate = strPtr(dc.format(first))
	}
	if hasLast {
		rec.LastOrderDate = strPtr(dc.format(last))
	}
	avg, ok := AverageGap(g.dates)
	rec.Classification = Classify(avg, ok)
	if ok {
		rec.AvgOrderGap = roundGap(avg)
	}
	if next, ok := PredictNext(last, avg, ok && hasLast); ok {
		rec.PredictedNextOrderDate = strPtr(dc.format(next))
	}
	return rec
}

// roundGap rounds to two decimals, half away from zero. Non-finite gaps are nil.
func roundGap(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	r := math.Round(x*100) / 100
	return &r
}

// sanitize clears any non-finite number left in the record set so the wire
// format never carries NaN.
func sanitize(recs []Record) {
	for i := range recs {
		if g := recs[i].AvgOrderGap; g != nil && (math.IsNaN(*g) || math.IsInf(*g, 0)) {
			recs[i].AvgOrderGap = nil
		}
		if recs[i].AvgOrderGap == nil {
			recs[i].PredictedNextOrderDate = nil
		}
		if id := recs[i].CustomerID; id.Kind == table.KindNumber && math.IsInf(id.Num, 0) {
			recs[i].CustomerID = table.Null()
		}
	}
}

func strPtr(s string) *string { return &s }
