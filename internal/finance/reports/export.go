package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ExportTrialBalanceXLSX renders a trial balance as an XLSX workbook. Amounts
// are grouped with thousands separators for hand-off to school office staff.
func ExportTrialBalanceXLSX(tb TrialBalance) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Trial Balance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	printer := message.NewPrinter(language.English)
	amount := func(v float64) string {
		return printer.Sprintf("%.2f", v)
	}

	headers := []string{"Code", "Account", "Type", "Opening", "Debit", "Credit", "Closing"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range tb.Rows {
		values := []any{row.Code, row.Name, string(row.Type),
			amount(row.Opening), amount(row.Debit), amount(row.Credit), amount(row.Closing)}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	totalRow := len(tb.Rows) + 2
	totals := []any{"", fmt.Sprintf("Totals as of %s", tb.AsOf), "",
		"", amount(tb.TotalDebit), amount(tb.TotalCredit), ""}
	for col, value := range totals {
		cell, err := excelize.CoordinatesToCellName(col+1, totalRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
