package reports

import (
	"github.com/gaorsystempe-cpu/operacionesFeet/branch"
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/shopspring/decimal"
)

// Stats are plain sums over a set of sales, plus the net profit rate.
type Stats struct {
	GrossRevenue      decimal.Decimal `json:"grossRevenue"`
	NetRevenue        decimal.Decimal `json:"netRevenue"`
	TotalCost         decimal.Decimal `json:"totalCost"`
	NetProfit         decimal.Decimal `json:"netProfit"`
	GrossProfit       decimal.Decimal `json:"grossProfit"`
	ItemCount         int             `json:"itemCount"`
	ProfitRatePercent string          `json:"profitRatePercent"`
	MissingCostCount  int             `json:"missingCostCount"`
}

// Summarize is the only aggregation path; every slice of the data is a
// Filter followed by Summarize.
func Summarize(sales []models.ReconciledSale) Stats {
	st := Stats{
		GrossRevenue: decimal.Zero,
		NetRevenue:   decimal.Zero,
		TotalCost:    decimal.Zero,
		NetProfit:    decimal.Zero,
		GrossProfit:  decimal.Zero,
	}
	for _, s := range sales {
		st.GrossRevenue = st.GrossRevenue.Add(s.GrossAmount)
		st.NetRevenue = st.NetRevenue.Add(s.NetAmount)
		st.TotalCost = st.TotalCost.Add(s.TotalCost)
		st.NetProfit = st.NetProfit.Add(s.NetProfit)
		st.GrossProfit = st.GrossProfit.Add(s.GrossProfit)
		st.ItemCount++
		if s.MissingCost() {
			st.MissingCostCount++
		}
	}
	st.ProfitRatePercent = models.PercentOf(st.NetProfit, st.NetRevenue)
	return st
}

// AverageTicket is gross revenue per item, with at least one item assumed.
func AverageTicket(st Stats) decimal.Decimal {
	n := st.ItemCount
	if n < 1 {
		n = 1
	}
	return st.GrossRevenue.Div(decimal.NewFromInt(int64(n)))
}

type Predicate func(models.ReconciledSale) bool

func Filter(sales []models.ReconciledSale, pred Predicate) []models.ReconciledSale {
	if pred == nil {
		pred = All()
	}
	out := make([]models.ReconciledSale, 0, len(sales))
	for _, s := range sales {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}

func All() Predicate {
	return func(models.ReconciledSale) bool { return true }
}

// ByBranch keeps sales whose point-of-sale label classifies as cat.
func ByBranch(cat branch.Category) Predicate {
	return func(s models.ReconciledSale) bool {
		return branch.Classify(s.Branch) == cat
	}
}

// InDateRange keeps sales whose business day falls in [start, end]. A
// reversed range keeps nothing.
func InDateRange(start string, end string) Predicate {
	return func(s models.ReconciledSale) bool {
		return businesstime.InRange(businesstime.DateKey(s.Timestamp), start, end)
	}
}

func And(preds ...Predicate) Predicate {
	return func(s models.ReconciledSale) bool {
		for _, p := range preds {
			if p != nil && !p(s) {
				return false
			}
		}
		return true
	}
}
