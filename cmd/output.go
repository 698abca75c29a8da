package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"itledger/internal/document"
	"itledger/internal/tax"
)

func printTable(w io.Writer, docs []document.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No documents.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFECHA\tFOLIO\tCONCEPTO\tCLIENTE\tESTADO\tTOTAL")
	for _, doc := range docs {
		r := doc.Base()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Folio, r.Title, r.Client, statusLabel(doc), money(r.FinalTotal))
	}
	return tw.Flush()
}

// statusLabel adds the ticket direction to the displayed status.
func statusLabel(doc document.Document) string {
	if t, ok := doc.(*document.Ticket); ok {
		return string(t.Subtype) + "/" + t.DisplayStatus()
	}
	return doc.DisplayStatus()
}

func printDocument(w io.Writer, doc document.Document) {
	r := doc.Base()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tipo:\t%s\n", doc.Kind())
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	if r.Folio != "" {
		fmt.Fprintf(tw, "Folio:\t%s\n", r.Folio)
	}
	fmt.Fprintf(tw, "Fecha:\t%s\n", r.Date)
	fmt.Fprintf(tw, "Concepto:\t%s\n", r.Title)
	fmt.Fprintf(tw, "Cliente:\t%s\n", r.Client)
	fmt.Fprintf(tw, "RFC:\t%s\n", r.TaxID)
	fmt.Fprintf(tw, "Estado:\t%s\n", statusLabel(doc))
	if t, ok := doc.(*document.Ticket); ok && t.FileName != "" {
		fmt.Fprintf(tw, "Archivo:\t%s\n", t.FileName)
	}
	_ = tw.Flush()

	if len(r.Items) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "CANT\tDESCRIPCION\tP. UNIT\tIMPORTE\t")
		for _, item := range r.Items {
			fmt.Fprintf(tw, "%g\t%s\t%s\t%s\t\n",
				item.Quantity, item.Description, money(item.UnitPrice), money(item.Total()))
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(w)
	printBreakdown(w, r.TaxID, r.Breakdown)
}

func printBreakdown(w io.Writer, taxID string, b tax.Breakdown) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Subtotal:\t%s\t\n", money(b.Subtotal))
	fmt.Fprintf(tw, "IVA 16%%:\t%s\t\n", money(b.IVA))
	if tax.IsMoral(taxID) {
		fmt.Fprintf(tw, "Ret. ISR 1.25%%:\t-%s\t\n", money(b.ISR))
	}
	fmt.Fprintf(tw, "Total:\t%s\t\n", money(b.FinalTotal))
	_ = tw.Flush()
}

// writeFile creates path and fills it with write. A failed write removes the
// partial file.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := errors.Join(write(f), f.Close()); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
