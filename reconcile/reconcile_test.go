package reconcile

import (
	"testing"

	"github.com/gaorsystempe-cpu/operacionesFeet/branch"
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReconcileEndToEndLine(t *testing.T) {
	orders := []models.RawOrder{{
		ID:        1,
		DateOrder: "2024-03-15 10:00:00",
		Config:    models.RefIDWithLabel(5, "FeetCare Recepcion"),
		LineIDs:   []int64{11},
		User:      models.RefIDWithLabel(2, "Ana"),
	}}
	lines := []models.RawLine{{
		ID:           11,
		Product:      models.RefIDWithLabel(100, "Plantilla ortopedica"),
		Qty:          models.NewAmount(2),
		Subtotal:     models.NewAmount(100),
		SubtotalIncl: models.NewAmount(118),
		Order:        models.RefIDWithLabel(1, "Order/0001"),
	}}
	costs := models.ResolvedCost{100: {Cost: decimal.NewFromInt(10), Category: "Ortopedia"}}

	sales := Reconcile(orders, lines, costs, "Feet SAC")
	if len(sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(sales))
	}
	s := sales[0]
	checks := map[string][2]decimal.Decimal{
		"netAmount":   {s.NetAmount, dec("100")},
		"grossAmount": {s.GrossAmount, dec("118")},
		"totalCost":   {s.TotalCost, dec("20")},
		"netProfit":   {s.NetProfit, dec("80")},
		"grossProfit": {s.GrossProfit, dec("98")},
		"quantity":    {s.Quantity, dec("2")},
	}
	for name, pair := range checks {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("%s expected %s, got %s", name, pair[1], pair[0])
		}
	}
	if s.ProfitMarginPercent != "80.0" {
		t.Fatalf("expected margin 80.0, got %s", s.ProfitMarginPercent)
	}
	if s.Branch != "FeetCare Recepcion" || s.Salesperson != "Ana" || s.Company != "Feet SAC" || s.Category != "Ortopedia" {
		t.Fatalf("unexpected labels %+v", s)
	}
	if businesstime.DateKey(s.Timestamp) != "2024-03-15" || s.Timestamp.Hour() != 5 {
		t.Fatalf("expected 2024-03-15 05:00 business time, got %s", s.Timestamp)
	}
}

func TestReconcileMissingCostAndZeroNet(t *testing.T) {
	orders := []models.RawOrder{{ID: 1, DateOrder: "2024-03-15 10:00:00"}}
	lines := []models.RawLine{
		{ID: 1, Product: models.RefID(7), Qty: models.NewAmount(1), Order: models.RefID(1)},
		{ID: 2, Product: models.RefIDWithLabel(8, "Gift"), Qty: models.NewAmount(3), Subtotal: models.NewAmount(0), Order: models.RefID(1)},
	}
	sales := Reconcile(orders, lines, models.ResolvedCost{}, "")
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}
	for _, s := range sales {
		if s.ProfitMarginPercent != "0.0" {
			t.Fatalf("expected 0.0 margin, got %s", s.ProfitMarginPercent)
		}
		if !s.TotalCost.IsZero() || !s.MissingCost() {
			t.Fatalf("expected missing zero cost, got %s", s.TotalCost)
		}
		if s.Category != models.Uncategorized {
			t.Fatalf("expected uncategorized, got %s", s.Category)
		}
		if s.Branch != branch.DefaultLabel || s.Salesperson != models.DefaultSalesperson {
			t.Fatalf("expected default labels, got %q %q", s.Branch, s.Salesperson)
		}
	}
}

func TestReconcileOneRecordPerLine(t *testing.T) {
	orders := []models.RawOrder{
		{ID: 1, DateOrder: "2024-03-01 12:00:00", Config: models.RefIDWithLabel(1, "Surco")},
		{ID: 2, DateOrder: "2024-03-02 12:00:00", Config: models.RefIDWithLabel(2, "FeetCare")},
	}
	lines := []models.RawLine{
		{ID: 10, Order: models.RefID(2), Qty: models.NewAmount(1)},
		{ID: 11, Order: models.RefID(1), Qty: models.NewAmount(1)},
		{ID: 12, Order: models.RefID(2), Qty: models.NewAmount(4)},
		{ID: 13, Order: models.RefID(99), Qty: models.NewAmount(1)},
	}
	sales := Reconcile(orders, lines, nil, "")
	if len(sales) != len(lines) {
		t.Fatalf("expected %d sales, got %d", len(lines), len(sales))
	}
	for i, s := range sales {
		if s.LineID != lines[i].ID {
			t.Fatalf("expected line order preserved at %d: %d vs %d", i, s.LineID, lines[i].ID)
		}
	}
	if sales[0].Branch != "FeetCare" || sales[1].Branch != "Surco" {
		t.Fatalf("unexpected branches %q %q", sales[0].Branch, sales[1].Branch)
	}
	if !sales[2].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected quantity preserved, got %s", sales[2].Quantity)
	}
	if !sales[3].Timestamp.IsZero() || sales[3].Branch != branch.DefaultLabel {
		t.Fatalf("expected orphan line defaults, got %+v", sales[3])
	}
}
