package backup

import (
	"bufio"
	"fmt"
	"html"
	"io"

	"github.com/xuri/excelize/v2"

	"itledger/internal/tax"
)

const (
	sheetName = "Reporte"
	typeLabel = "Tipo"
)

// WriteXLS writes the rows as an HTML table with a leading Tipo column.
// Spreadsheet programs open the result when saved with an .xls extension.
func WriteXLS(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("<html><head><meta charset='utf-8'></head><body><table border='1'>")
	bw.WriteString("<tr style='background:#1e293b; color:#fff'>")
	for _, h := range append([]string{typeLabel}, Header...) {
		fmt.Fprintf(bw, "<th>%s</th>", html.EscapeString(h))
	}
	bw.WriteString("</tr>")

	for _, row := range rows {
		bw.WriteString("<tr>")
		for _, cell := range append([]string{row.Type}, row.Cells()...) {
			fmt.Fprintf(bw, "<td>%s</td>", html.EscapeString(cell))
		}
		bw.WriteString("</tr>")
	}
	bw.WriteString("</table></body></html>")
	return bw.Flush()
}

// WriteXLSX writes the rows as a native workbook with the same columns as WriteXLS.
// Amount columns are stored as numbers rounded to cents.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := append([]string{typeLabel}, Header...)
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1E293B"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
		return err
	}

	for r, row := range rows {
		values := []any{
			row.Type, row.Folio, row.Date, row.Title, row.Client, row.TaxID, row.Status,
			cents(row.Subtotal), cents(row.IVA), cents(row.ISR), cents(row.Amount),
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cents(v float64) float64 {
	return tax.Round(v).InexactFloat64()
}
