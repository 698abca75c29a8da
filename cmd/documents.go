package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"itledger/internal/confirm"
	"itledger/internal/document"
	"itledger/internal/logger"
	"itledger/internal/render"
	"itledger/internal/tax"
)

var (
	quoteCmd  = newDocumentCmd(document.KindQuote, "quote", "Manage quotes (cotizaciones)")
	noteCmd   = newDocumentCmd(document.KindNote, "note", "Manage sales notes (notas de venta)")
	ticketCmd = newDocumentCmd(document.KindTicket, "ticket", "Manage income and expense tickets")
)

func init() {
	rootCmd.AddCommand(quoteCmd, noteCmd, ticketCmd)
	quoteCmd.AddCommand(newStatusCmd())
}

// errReceiptNotLinked is returned for tickets restored from a backup that
// still carry the placeholder file name.
var errReceiptNotLinked = errors.New("ticket has no linked receipt")

func newDocumentCmd(kind document.Kind, use, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
	}

	add := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Create a %s", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, kind)
		},
	}
	addDraftFlags(add, kind)

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: fmt.Sprintf("Change fields of a saved %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, kind, args[0])
		},
	}
	addDraftFlags(edit, kind)

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List saved %ss", kind),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			return printTable(cmd.OutOrStdout(), a.ledger.List(kind))
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: fmt.Sprintf("Show one %s with its tax breakdown", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := findDocument(cmd, kind, args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}
			printDocument(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	show.Flags().Bool("json", false, "Output as JSON")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Delete a %s after a countdown", kind),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, kind, args[0])
		},
	}
	del.Flags().BoolP("yes", "y", false, "Do not ask for confirmation once the countdown ends")

	pdf := &cobra.Command{
		Use:   "pdf <id>",
		Short: fmt.Sprintf("Render a %s as a printable PDF", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPDF(cmd, kind, args[0])
		},
	}
	pdf.Flags().StringP("output", "o", "", "Output file path (default: <KIND>_<id>.pdf in the export directory)")

	c.AddCommand(add, edit, list, show, del, pdf)
	return c
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a quote to another status",
		Long: `Move a quote to another status. Accepted values are Borrador, Pendiente,
Revision, Aceptada and Cancelada (or draft, pending, review, accepted, cancelled).
Only accepted quotes count as income in the summary.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := document.ParseQuoteStatus(args[1])
			if err != nil {
				return err
			}
			doc, err := findDocument(cmd, document.KindQuote, args[0])
			if err != nil {
				return err
			}
			d := document.DraftFrom(doc)
			d.SetStatus(status)
			saved, err := appFrom(cmd).ledger.Save(cmd.Context(), d.Commit())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", saved.Base().Reference(), saved.DisplayStatus())
			return nil
		},
	}
}

func addDraftFlags(cmd *cobra.Command, kind document.Kind) {
	f := cmd.Flags()
	f.String("title", "", "Concept (default: "+document.DefaultTitle+")")
	f.String("client", "", "Client name (default: "+document.DefaultClient+")")
	f.String("rfc", "", "Client RFC; 12 characters means a legal entity and triggers ISR withholding")
	f.String("date", "", "Date as YYYY-MM-DD (default: today)")
	f.String("folio", "", "Folio")

	switch kind {
	case document.KindQuote, document.KindNote:
		f.StringArray("item", nil, `Line item as "quantity|description|unit price"; repeat for more items`)
		if kind == document.KindQuote {
			f.String("status", "", "Quote status (default: Borrador)")
		}
	case document.KindTicket:
		f.Float64("amount", 0, "Gross amount")
		f.String("subtype", "", "ingreso or egreso (default: ingreso)")
		f.String("file", "", "Receipt file name")
	}
}

// applyDraftFlags copies every flag the user set onto d.
func applyDraftFlags(cmd *cobra.Command, d *document.Draft) error {
	f := cmd.Flags()
	str := func(name string, set func(string)) {
		if f.Changed(name) {
			v, _ := f.GetString(name)
			set(v)
		}
	}

	str("title", d.SetTitle)
	str("client", d.SetClient)
	str("rfc", d.SetTaxID)
	str("folio", d.SetFolio)

	if f.Changed("date") {
		v, _ := f.GetString("date")
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", v)
		}
		d.SetDate(v)
	}

	if f.Changed("item") {
		raw, _ := f.GetStringArray("item")
		items := make([]document.LineItem, 0, len(raw))
		for _, s := range raw {
			item, err := parseItem(s)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		if err := d.SetItems(items); err != nil {
			return err
		}
	}

	if f.Changed("status") {
		v, _ := f.GetString("status")
		status, err := document.ParseQuoteStatus(v)
		if err != nil {
			return err
		}
		d.SetStatus(status)
	}

	if f.Changed("subtype") {
		v, _ := f.GetString("subtype")
		subtype, err := parseSubtype(v)
		if err != nil {
			return err
		}
		d.SetSubtype(subtype)
	}

	if f.Changed("amount") {
		v, _ := f.GetFloat64("amount")
		if v < 0 {
			return fmt.Errorf("--amount must not be negative")
		}
		d.SetAmount(v)
	}
	str("file", d.SetFileName)
	return nil
}

// parseItem reads a "quantity|description|unit price" line item.
func parseItem(s string) (document.LineItem, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return document.LineItem{}, fmt.Errorf("invalid --item %q: want \"quantity|description|unit price\"", s)
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return document.LineItem{}, fmt.Errorf("invalid quantity in --item %q: %w", s, err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return document.LineItem{}, fmt.Errorf("invalid unit price in --item %q: %w", s, err)
	}
	if qty < 0 || price < 0 {
		return document.LineItem{}, fmt.Errorf("invalid --item %q: quantity and price must not be negative", s)
	}
	return document.LineItem{
		Quantity:    qty,
		Description: strings.TrimSpace(parts[1]),
		UnitPrice:   price,
	}, nil
}

func parseSubtype(s string) (document.Subtype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ingreso", "income":
		return document.Income, nil
	case "egreso", "expense":
		return document.Expense, nil
	}
	return "", fmt.Errorf("unknown ticket subtype %q: use ingreso or egreso", s)
}

func runAdd(cmd *cobra.Command, kind document.Kind) error {
	log := logger.WithComponent("documents")
	a := appFrom(cmd)

	d := document.NewDraft(kind, a.now())
	if kind == document.KindNote {
		d.SetFolio(a.ledger.NextNoteFolio())
	}
	if err := applyDraftFlags(cmd, d); err != nil {
		return err
	}
	if err := validateDraft(d); err != nil {
		return err
	}

	saved, err := a.ledger.Save(cmd.Context(), d.Commit())
	if err != nil {
		return err
	}

	log.Info().
		Str("kind", string(kind)).
		Str("id", saved.Base().ID).
		Float64("amount", saved.Base().Amount).
		Msg("Document created")

	printDocument(cmd.OutOrStdout(), saved)
	return nil
}

func runEdit(cmd *cobra.Command, kind document.Kind, id string) error {
	log := logger.WithComponent("documents")

	doc, err := findDocument(cmd, kind, id)
	if err != nil {
		return err
	}
	d := document.DraftFrom(doc)
	if err := applyDraftFlags(cmd, d); err != nil {
		return err
	}
	if err := validateDraft(d); err != nil {
		return err
	}

	saved, err := appFrom(cmd).ledger.Save(cmd.Context(), d.Commit())
	if err != nil {
		return err
	}

	log.Info().
		Str("kind", string(kind)).
		Str("id", id).
		Msg("Document updated")

	printDocument(cmd.OutOrStdout(), saved)
	return nil
}

// validateDraft refuses drafts that may not be saved, naming the flag that fixes them.
func validateDraft(d *document.Draft) error {
	err := d.Validate()
	if errors.Is(err, document.ErrNoAmount) {
		if d.Kind() == document.KindTicket {
			return fmt.Errorf("%w: set --amount", err)
		}
		return fmt.Errorf("%w: add at least one priced --item", err)
	}
	return err
}

func findDocument(cmd *cobra.Command, kind document.Kind, id string) (document.Document, error) {
	doc, ok := appFrom(cmd).ledger.Find(kind, id)
	if !ok {
		return nil, fmt.Errorf("no %s with id %s", kind, id)
	}
	return doc, nil
}

func runDelete(cmd *cobra.Command, kind document.Kind, id string) error {
	log := logger.WithComponent("documents")
	a := appFrom(cmd)

	doc, err := findDocument(cmd, kind, id)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Eliminar %s %q (%s). Ctrl+C para cancelar.\n",
		kind, doc.Base().Title, doc.Base().Reference())

	countdown := confirm.NewCountdown(a.cfg.DeleteCountdownSeconds)
	err = countdown.Run(ctx, time.Second, func(remaining int) {
		fmt.Fprintf(stderr, "\rEspere %2ds...", remaining)
	})
	fmt.Fprintln(stderr)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelado.")
			return nil
		}
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		answer, err := a.prompt(cmd, "¿Confirmar eliminacion? [y/N]: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "y", "yes", "s", "si":
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelado.")
			return nil
		}
	}

	if err := a.ledger.Delete(cmd.Context(), kind, id); err != nil {
		return err
	}

	log.Info().
		Str("kind", string(kind)).
		Str("id", id).
		Msg("Document deleted")

	fmt.Fprintf(cmd.OutOrStdout(), "Eliminado %s\n", doc.Base().Reference())
	return nil
}

func runPDF(cmd *cobra.Command, kind document.Kind, id string) error {
	log := logger.WithComponent("documents")
	a := appFrom(cmd)

	doc, err := findDocument(cmd, kind, id)
	if err != nil {
		return err
	}
	if t, ok := doc.(*document.Ticket); ok && t.FileName == document.MissingFileName {
		return fmt.Errorf("%w: link it first with \"itledger ticket edit %s --file <name>\"", errReceiptNotLinked, id)
	}

	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		path = filepath.Join(a.cfg.ExportDir, render.FileName(doc))
	}

	err = writeFile(path, func(w io.Writer) error {
		return render.PDF(w, doc, render.Options{BusinessName: a.cfg.BusinessName})
	})
	if err != nil {
		return fmt.Errorf("failed to write PDF file: %w", err)
	}

	log.Info().
		Str("kind", string(kind)).
		Str("id", id).
		Str("file", path).
		Msg("PDF written")

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func money(v float64) string {
	return "$" + tax.Format(v)
}
