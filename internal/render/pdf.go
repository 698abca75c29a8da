// Package render produces printable PDFs of quotes, sales notes and tickets.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"

	"itledger/internal/document"
	"itledger/internal/tax"
)

// DefaultBusinessName is printed in the header band when none is configured.
const DefaultBusinessName = "CIBER CENTRO IT MANAGER"

// Options controls the document header.
type Options struct {
	BusinessName string
}

var titles = map[document.Kind]string{
	document.KindQuote:  "COTIZACION",
	document.KindNote:   "NOTA DE VENTA",
	document.KindTicket: "TICKET",
}

// FileName is the download name for doc, e.g. QUOTE_<id>.pdf.
func FileName(doc document.Document) string {
	return fmt.Sprintf("%s_%s.pdf", strings.ToUpper(string(doc.Kind())), doc.Base().ID)
}

// PDF writes doc as a one-page A4 PDF to w.
func PDF(w io.Writer, doc document.Document, opts Options) error {
	if opts.BusinessName == "" {
		opts.BusinessName = DefaultBusinessName
	}
	rec := doc.Base()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(titles[doc.Kind()]+" "+rec.Reference(), false)
	pdf.AddPage()

	// header band
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, 210, 50, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(0, 15)
	pdf.CellFormat(210, 10, document.Clean(opts.BusinessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(190, 8, titles[doc.Kind()], "", 1, "C", false, 0, "")

	pdf.SetTextColor(50, 50, 50)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, 65, "CLIENTE: "+document.Clean(rec.Client))
	pdf.Text(20, 72, "RFC: "+rec.TaxID)
	pdf.Text(140, 65, "FOLIO: "+rec.Reference())
	pdf.Text(140, 72, "FECHA: "+rec.Date)
	pdf.Text(20, 79, "CONCEPTO: "+document.Clean(rec.Title))
	pdf.Text(140, 79, "ESTADO: "+doc.DisplayStatus())

	pdf.SetXY(20, 90)
	if len(rec.Items) > 0 {
		itemTable(pdf, rec.Items)
	}

	totals(pdf, rec)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render %s: %w", rec.ID, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf %s: %w", rec.ID, err)
	}
	return nil
}

func itemTable(pdf *gofpdf.Fpdf, items []document.LineItem) {
	widths := []float64{20, 90, 30, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(226, 232, 240)
	for i, h := range []string{"CANT.", "DESCRIPCION", "P. UNIT.", "IMPORTE"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetX(20)
		pdf.CellFormat(widths[0], 7, formatQuantity(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, document.Clean(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(item.Total()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func totals(pdf *gofpdf.Fpdf, rec *document.Record) {
	lines := []struct {
		label string
		value float64
	}{
		{"SUBTOTAL", rec.Subtotal},
		{"IVA 16%", rec.IVA},
		{"RET. ISR", rec.ISR},
		{"TOTAL", rec.Amount},
		{"NETO A COBRAR", rec.FinalTotal},
	}
	for i, line := range lines {
		pdf.SetX(110)
		if i >= 3 {
			pdf.SetFont("Helvetica", "B", 11)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(40, 7, line.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, money(line.value), "", 1, "R", false, 0, "")
	}
}

func money(v float64) string {
	return "$" + tax.Format(v)
}

func formatQuantity(q float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}
