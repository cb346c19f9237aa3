// Package reconcile joins ERP orders, their lines and resolved costs into
// per-line profitability records.
package reconcile

import (
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/branch"
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
)

const noPaymentMethod = "-"

// Reconcile emits exactly one sale per line, in line order. A line whose
// order is not in orders still yields a sale with default labels and a zero
// timestamp.
func Reconcile(orders []models.RawOrder, lines []models.RawLine, costs models.ResolvedCost, company string) []models.ReconciledSale {
	byID := make(map[int64]orderHeader, len(orders))
	for _, o := range orders {
		byID[o.ID] = newOrderHeader(o)
	}

	out := make([]models.ReconciledSale, 0, len(lines))
	for _, l := range lines {
		hdr, ok := byID[l.Order.ID()]
		if !ok {
			hdr = orderHeader{branch: branch.DefaultLabel, salesperson: models.DefaultSalesperson}
		}
		out = append(out, reconcileLine(hdr, l, costs, company))
	}
	return out
}

type orderHeader struct {
	id          int64
	timestamp   time.Time
	branch      string
	salesperson string
}

func newOrderHeader(o models.RawOrder) orderHeader {
	// unparseable dates keep the zero time; the line is still reported
	ts, _ := businesstime.ParseERPTimestamp(o.DateOrder)
	return orderHeader{
		id:          o.ID,
		timestamp:   ts,
		branch:      o.Config.LabelOr(branch.DefaultLabel),
		salesperson: o.User.LabelOr(models.DefaultSalesperson),
	}
}

func reconcileLine(hdr orderHeader, l models.RawLine, costs models.ResolvedCost, company string) models.ReconciledSale {
	uc := costs.Lookup(l.Product.ID())
	qty := l.Qty.Decimal
	net := l.Subtotal.Decimal
	gross := l.SubtotalIncl.Decimal

	// quantities are positive for sales; Abs keeps the cost non-negative anyway
	totalCost := uc.Cost.Mul(qty).Abs()
	netProfit := net.Sub(totalCost)

	return models.ReconciledSale{
		OrderID:             hdr.id,
		LineID:              l.ID,
		ProductID:           l.Product.ID(),
		Timestamp:           hdr.timestamp,
		Branch:              hdr.branch,
		Company:             company,
		Salesperson:         hdr.salesperson,
		Product:             l.Product.LabelOr(""),
		Category:            uc.Category,
		PaymentMethod:       noPaymentMethod,
		Quantity:            qty,
		GrossAmount:         gross,
		NetAmount:           net,
		TotalCost:           totalCost,
		NetProfit:           netProfit,
		GrossProfit:         gross.Sub(totalCost),
		ProfitMarginPercent: models.PercentOf(netProfit, net),
	}
}
