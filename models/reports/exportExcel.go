package reports

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportFilename names the xlsx for a date range.
func ExportFilename(start string, end string) string {
	return fmt.Sprintf("Reporte_Rentabilidad_%s_%s.xlsx", start, end)
}

// NewExcelFile renders wb into an in-memory xlsx, one worksheet per sheet in
// order. The caller closes the file.
func NewExcelFile(wb Workbook) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	for i, sh := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			f.Close()
			return nil, err
		}

		for r, row := range sh.Rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = cellValue(v)
			}
			if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
				f.Close()
				return nil, err
			}
		}
		if len(sh.Rows) > 0 {
			if err := f.SetRowStyle(sh.Name, 1, 1, bold); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteExcel streams the xlsx to w, e.g. an HTTP response.
func WriteExcel(wb Workbook, w io.Writer) error {
	f, err := NewExcelFile(wb)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func SaveExcel(wb Workbook, filename string) error {
	f, err := NewExcelFile(wb)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(filename)
}

func cellValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	default:
		return v
	}
}
