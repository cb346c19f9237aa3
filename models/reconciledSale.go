package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSalesperson labels orders with no user reference.
const DefaultSalesperson = "Usuario"

// UnitCost is the resolved cost of one product.
type UnitCost struct {
	Cost     decimal.Decimal `json:"unitCost"`
	Category string          `json:"category"`
}

// ResolvedCost maps product id to its unit cost. Built once per fetch and
// only read afterwards.
type ResolvedCost map[int64]UnitCost

// Lookup never fails: unknown products cost zero and are uncategorized.
func (rc ResolvedCost) Lookup(productID int64) UnitCost {
	if uc, ok := rc[productID]; ok {
		return uc
	}
	return UnitCost{Cost: decimal.Zero, Category: Uncategorized}
}

// ReconciledSale is one sold line joined with its order and cost.
type ReconciledSale struct {
	OrderID             int64           `json:"orderId"`
	LineID              int64           `json:"lineId"`
	ProductID           int64           `json:"productId"`
	Timestamp           time.Time       `json:"timestamp"`
	Branch              string          `json:"branch"`
	Company             string          `json:"company"`
	Salesperson         string          `json:"salesperson"`
	Product             string          `json:"product"`
	Category            string          `json:"category"`
	PaymentMethod       string          `json:"paymentMethod"`
	Quantity            decimal.Decimal `json:"quantity"`
	GrossAmount         decimal.Decimal `json:"grossAmount"`
	NetAmount           decimal.Decimal `json:"netAmount"`
	TotalCost           decimal.Decimal `json:"totalCost"`
	NetProfit           decimal.Decimal `json:"netProfit"`
	GrossProfit         decimal.Decimal `json:"grossProfit"`
	ProfitMarginPercent string          `json:"profitMarginPercent"`
}

// MissingCost flags sales whose cost could not be resolved above zero.
func (s ReconciledSale) MissingCost() bool {
	return !s.TotalCost.IsPositive()
}

var hundred = decimal.NewFromInt(100)

// PercentOf renders part/whole*100 with one decimal, "0.0" when whole is not
// positive.
func PercentOf(part decimal.Decimal, whole decimal.Decimal) string {
	if !whole.IsPositive() {
		return "0.0"
	}
	return part.Div(whole).Mul(hundred).StringFixed(1)
}
