package reports

import (
	"bytes"
	"testing"

	"github.com/gaorsystempe-cpu/operacionesFeet/branch"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbookSummaryMatchesSummarize(t *testing.T) {
	sales := fixture()
	wb := BuildWorkbook(sales, "2024-03-01 to 2024-03-31")

	names := []string{SheetSummary, BranchSheetName(branch.FeetCare), BranchSheetName(branch.Surco), SheetByProduct}
	if len(wb.Sheets) != len(names) {
		t.Fatalf("expected %d sheets, got %d", len(names), len(wb.Sheets))
	}
	for i, n := range names {
		if wb.Sheets[i].Name != n {
			t.Fatalf("sheet %d expected %q, got %q", i, n, wb.Sheets[i].Name)
		}
	}

	summary, _ := wb.Sheet(SheetSummary)
	if summary.Rows[1][1] != "2024-03-01 to 2024-03-31" {
		t.Fatalf("expected period label, got %v", summary.Rows[1])
	}
	var global []any
	for _, row := range summary.Rows {
		if len(row) > 0 && row[0] == globalRowName {
			global = row
		}
	}
	if global == nil {
		t.Fatalf("global total row missing")
	}
	st := Summarize(sales)
	expected := []decimal.Decimal{st.NetRevenue, st.GrossRevenue, st.TotalCost, st.NetProfit, st.GrossProfit}
	for i, want := range expected {
		got, ok := global[i+1].(decimal.Decimal)
		if !ok || !got.Equal(want) {
			t.Fatalf("global column %d expected %s, got %v", i+1, want, global[i+1])
		}
	}
	if global[6] != st.ProfitRatePercent+"%" || global[7] != st.ItemCount || global[9] != st.MissingCostCount {
		t.Fatalf("unexpected global tail %v", global[6:])
	}

	// global row + one row per category
	if got := len(summary.Rows); got != 5+len(branch.All()) {
		t.Fatalf("expected %d summary rows, got %d", 5+len(branch.All()), got)
	}
}

func TestBuildWorkbookBranchAndProductSheets(t *testing.T) {
	wb := BuildWorkbook(fixture(), "March")

	fc, _ := wb.Sheet(BranchSheetName(branch.FeetCare))
	if len(fc.Rows) != 3 {
		t.Fatalf("expected header, totals and 1 data row, got %d", len(fc.Rows))
	}
	data := fc.Rows[2]
	if data[0] != "Plantilla" || data[1] != "01/03/2024" || data[2] != "-" || data[6] != "80.0%" {
		t.Fatalf("unexpected FeetCare row %v", data)
	}

	byProduct, _ := wb.Sheet(SheetByProduct)
	if len(byProduct.Rows) != 3 {
		t.Fatalf("expected header and 2 products, got %d", len(byProduct.Rows))
	}
	top := byProduct.Rows[1]
	if top[0] != "Plantilla" {
		t.Fatalf("expected Plantilla first by net revenue, got %v", top[0])
	}
	if q := top[1].(decimal.Decimal); !q.Equal(dec("3")) {
		t.Fatalf("expected quantity 3, got %s", q)
	}
	if avg := top[6].(decimal.Decimal); !avg.Equal(dec("36.7")) {
		t.Fatalf("expected average unit price 36.70, got %s", avg)
	}
}

func TestBuildWorkbookEmpty(t *testing.T) {
	wb := BuildWorkbook(nil, "empty")
	surco, ok := wb.Sheet(BranchSheetName(branch.Surco))
	if !ok || len(surco.Rows) != 2 {
		t.Fatalf("expected header and totals only, got %v", surco.Rows)
	}
	byProduct, _ := wb.Sheet(SheetByProduct)
	if len(byProduct.Rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(byProduct.Rows))
	}
}

func TestWriteExcelRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExcel(BuildWorkbook(fixture(), "March"), &buf); err != nil {
		t.Fatalf("WriteExcel error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 4 || sheets[0] != SheetSummary || sheets[3] != SheetByProduct {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	title, err := f.GetCellValue(SheetSummary, "A1")
	if err != nil || title != reportTitle {
		t.Fatalf("unexpected title %q (%v)", title, err)
	}
	global, err := f.GetCellValue(SheetSummary, "A5")
	if err != nil || global != globalRowName {
		t.Fatalf("expected global row at A5, got %q (%v)", global, err)
	}
	items, err := f.GetCellValue(SheetSummary, "H5")
	if err != nil || items != "3" {
		t.Fatalf("expected 3 items, got %q (%v)", items, err)
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("2024-03-01", "2024-03-31"); got != "Reporte_Rentabilidad_2024-03-01_2024-03-31.xlsx" {
		t.Fatalf("unexpected filename %s", got)
	}
}
