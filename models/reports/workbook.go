package reports

import (
	"sort"

	"github.com/gaorsystempe-cpu/operacionesFeet/branch"
	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/shopspring/decimal"
)

const (
	SheetSummary   = "Summary"
	SheetByProduct = "By Product"

	reportTitle   = "PROFITABILITY AUDIT (NET VS GROSS OF IGV)"
	globalRowName = "GLOBAL TOTAL"
	totalsRowName = "TOTAL"
	noProductName = "-"
)

var (
	summaryHeader = []any{"Branch", "Net Sales (excl. IGV)", "Gross Sales (incl. IGV)", "Cost", "Net Profit (Audit)", "Gross Profit (Cash)", "Margin %", "Items", "Average Ticket", "Missing Cost"}
	detailHeader  = []any{"Product", "Date", "Payment Method", "Net Sales", "Cost", "Net Profit", "Margin %", "Gross Sales"}
	productHeader = []any{"Product", "Qty Sold", "Net Sales", "Cost", "Net Profit", "Margin %", "Avg Unit Price"}
)

// Sheet is a named grid. Cells hold string, int or decimal.Decimal values.
type Sheet struct {
	Name string
	Rows [][]any
}

type Workbook struct {
	Sheets []Sheet
}

func (wb Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range wb.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

func BranchSheetName(cat branch.Category) string {
	return "Detail " + cat.Title()
}

// BuildWorkbook lays out the export for sales the caller already narrowed to
// the wanted range. It does no I/O.
func BuildWorkbook(sales []models.ReconciledSale, rangeLabel string) Workbook {
	wb := Workbook{}
	wb.Sheets = append(wb.Sheets, summarySheet(sales, rangeLabel))
	for _, cat := range branch.Named() {
		wb.Sheets = append(wb.Sheets, branchSheet(cat, Filter(sales, ByBranch(cat))))
	}
	wb.Sheets = append(wb.Sheets, productSheet(sales))
	return wb
}

func summarySheet(sales []models.ReconciledSale, rangeLabel string) Sheet {
	rows := [][]any{
		{reportTitle},
		{"Period:", rangeLabel},
		{},
		summaryHeader,
		statRow(globalRowName, Summarize(sales)),
	}
	for _, cat := range branch.All() {
		rows = append(rows, statRow(cat.Title(), Summarize(Filter(sales, ByBranch(cat)))))
	}
	return Sheet{Name: SheetSummary, Rows: rows}
}

func statRow(name string, st Stats) []any {
	return []any{
		name,
		st.NetRevenue,
		st.GrossRevenue,
		st.TotalCost,
		st.NetProfit,
		st.GrossProfit,
		st.ProfitRatePercent + "%",
		st.ItemCount,
		AverageTicket(st),
		st.MissingCostCount,
	}
}

func branchSheet(cat branch.Category, sales []models.ReconciledSale) Sheet {
	st := Summarize(sales)
	rows := make([][]any, 0, len(sales)+2)
	rows = append(rows, detailHeader)
	rows = append(rows, []any{totalsRowName, "", "", st.NetRevenue, st.TotalCost, st.NetProfit, st.ProfitRatePercent + "%", st.GrossRevenue})
	for _, s := range sales {
		rows = append(rows, []any{
			productName(s),
			businesstime.FormatDisplayDate(s.Timestamp),
			s.PaymentMethod,
			s.NetAmount,
			s.TotalCost,
			s.NetProfit,
			s.ProfitMarginPercent + "%",
			s.GrossAmount,
		})
	}
	return Sheet{Name: BranchSheetName(cat), Rows: rows}
}

type productTotals struct {
	name     string
	quantity decimal.Decimal
	net      decimal.Decimal
	cost     decimal.Decimal
	profit   decimal.Decimal
}

func productSheet(sales []models.ReconciledSale) Sheet {
	byName := map[string]*productTotals{}
	for _, s := range sales {
		name := productName(s)
		pt, ok := byName[name]
		if !ok {
			pt = &productTotals{name: name}
			byName[name] = pt
		}
		pt.quantity = pt.quantity.Add(s.Quantity)
		pt.net = pt.net.Add(s.NetAmount)
		pt.cost = pt.cost.Add(s.TotalCost)
		pt.profit = pt.profit.Add(s.NetProfit)
	}

	totals := make([]*productTotals, 0, len(byName))
	for _, pt := range byName {
		totals = append(totals, pt)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].net.Cmp(totals[j].net); c != 0 {
			return c > 0
		}
		return totals[i].name < totals[j].name
	})

	rows := make([][]any, 0, len(totals)+1)
	rows = append(rows, productHeader)
	for _, pt := range totals {
		avg := decimal.Zero
		if !pt.quantity.IsZero() {
			avg = pt.net.Div(pt.quantity).Round(2)
		}
		rows = append(rows, []any{
			pt.name,
			pt.quantity,
			pt.net,
			pt.cost,
			pt.profit,
			models.PercentOf(pt.profit, pt.net) + "%",
			avg,
		})
	}
	return Sheet{Name: SheetByProduct, Rows: rows}
}

func productName(s models.ReconciledSale) string {
	if s.Product == "" {
		return noProductName
	}
	return s.Product
}
