// Package backup converts the ledger to and from the tabular files used for
// backups and reports: a quoted CSV, an HTML table that spreadsheet programs
// open as .xls, and a native .xlsx workbook.
package backup

import (
	"strconv"
	"time"

	"itledger/internal/document"
	"itledger/internal/tax"
)

// Header is the column layout shared by every export format.
var Header = []string{"Folio", "Fecha", "Concepto", "Cliente", "RFC", "Estado", "Subtotal", "IVA", "ISR", "MontoTotal"}

// columnCount is the minimum number of fields an imported row needs.
const columnCount = 10

// Row type labels, shown in the leading Tipo column of spreadsheet exports.
const (
	TypeQuote   = "Cotizacion"
	TypeNote    = "Nota Venta"
	TypeExpense = "Gasto"
	TypeTicket  = "Ticket"
)

// Row is one exported document.
type Row struct {
	Type     string
	Folio    string
	Date     string
	Title    string
	Client   string
	TaxID    string
	Status   string
	Subtotal float64
	IVA      float64
	ISR      float64
	Amount   float64
}

// Cells returns the row's values in Header order, numbers with two decimals.
func (r Row) Cells() []string {
	return []string{
		r.Folio,
		r.Date,
		r.Title,
		r.Client,
		r.TaxID,
		r.Status,
		tax.Format(r.Subtotal),
		tax.Format(r.IVA),
		tax.Format(r.ISR),
		tax.Format(r.Amount),
	}
}

// RowOf flattens a document into an export row.
func RowOf(doc document.Document) Row {
	rec := doc.Base()
	return Row{
		Type:     typeOf(doc),
		Folio:    rec.Reference(),
		Date:     rec.Date,
		Title:    document.Clean(rec.Title),
		Client:   document.Clean(rec.Client),
		TaxID:    rec.TaxID,
		Status:   doc.DisplayStatus(),
		Subtotal: rec.Subtotal,
		IVA:      rec.IVA,
		ISR:      rec.ISR,
		Amount:   rec.Amount,
	}
}

func typeOf(doc document.Document) string {
	switch d := doc.(type) {
	case *document.Quote:
		return TypeQuote
	case *document.Note:
		return TypeNote
	case *document.Ticket:
		if d.IsExpense() {
			return TypeExpense
		}
	}
	return TypeTicket
}

// Rows flattens documents in the order given.
func Rows(docs []document.Document) []Row {
	rows := make([]Row, len(docs))
	for i, doc := range docs {
		rows[i] = RowOf(doc)
	}
	return rows
}

// CSVFileName is the backup file name for the given day.
func CSVFileName(t time.Time) string {
	return "IT_BACKUP_" + t.Format(time.DateOnly) + ".csv"
}

// XLSFileName is the HTML-table report file name for the given day.
func XLSFileName(t time.Time) string {
	return "REPORT_TI_" + t.Format(time.DateOnly) + ".xls"
}

// XLSXFileName is the workbook report file name for the given day.
func XLSXFileName(t time.Time) string {
	return "REPORT_TI_" + t.Format(time.DateOnly) + ".xlsx"
}

// parseAmount reads a numeric cell; anything unparseable counts as zero.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
