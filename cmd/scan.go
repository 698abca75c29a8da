package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"itledger/internal/document"
	"itledger/internal/extract"
	"itledger/internal/logger"
	"itledger/internal/ocr"
)

func newScanCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "scan <pdf-file>",
		Short: "Create a ticket from a receipt PDF",
		Long: `Read a receipt PDF and pre-fill a ticket with the total, folio and date found
in its text. Anything the scan misses keeps its default and can be set with
the usual ticket flags, which always win over scanned values. The ticket is
only saved once it has an amount above zero.

The text is read locally from the PDF text layer. Set ITLEDGER_EXTRACTOR=vision
to use Google Cloud Vision OCR instead, for scanned receipts without text.
Vision needs GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.`,
		Example: `  # Scan an expense receipt and save it
  itledger ticket scan factura.pdf --subtype egreso

  # Preview what the scan finds without saving
  itledger ticket scan factura.pdf --dry-run --text`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	addDraftFlags(c, document.KindTicket)
	c.Flags().Bool("dry-run", false, "Show the pre-filled ticket without saving it")
	c.Flags().Bool("text", false, "Also print the extracted text")
	c.Flags().Int("timeout", 300, "Processing timeout in seconds")
	return c
}

func init() {
	ticketCmd.AddCommand(newScanCmd())
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")
	a := appFrom(cmd)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	showText, _ := cmd.Flags().GetBool("text")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	log.Info().
		Str("file", pdfPath).
		Str("extractor", a.cfg.Extractor).
		Bool("dry_run", dryRun).
		Msg("Scanning receipt")

	if _, err := validatePDFFile(pdfPath, log); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(cmd.Context(), timeoutSecs)
	defer cancel()

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", pdfPath).
			Msg("Failed to open PDF file")
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer func() {
		if closeErr := pdfFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close PDF file")
		}
	}()

	d := document.NewDraft(document.KindTicket, a.now())
	d.SetFileName(filepath.Base(pdfPath))

	x := a.textExtractor()
	if showText {
		x = &echoExtractor{next: x, w: cmd.ErrOrStderr()}
	}

	startTime := time.Now()
	fields, err := extract.Prefill(ctx, x, pdfFile, d)
	if err != nil {
		// Flags can still supply what the scan could not.
		fmt.Fprintf(cmd.ErrOrStderr(), "Aviso: %v\n", describeScanError(err))
		if errors.Is(err, context.Canceled) {
			return err
		}
	} else if fields.Empty() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aviso: no se encontraron total, folio ni fecha en el documento.")
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Bool("amount", fields.Amount != nil).
		Bool("folio", fields.Folio != nil).
		Bool("date", fields.Date != nil).
		Msg("Scan completed")

	if err := applyDraftFlags(cmd, d); err != nil {
		return err
	}

	doc := d.Commit()
	if dryRun {
		printDocument(cmd.OutOrStdout(), doc)
		return nil
	}
	if err := validateDraft(d); err != nil {
		return err
	}
	if doc, err = a.ledger.Save(cmd.Context(), doc); err != nil {
		return err
	}
	printDocument(cmd.OutOrStdout(), doc)
	return nil
}

// validatePDFFile checks if the file exists, is readable, and appears to be a PDF
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	if fileInfo.Size() > extract.MaxFileSizeBytes {
		log.Error().
			Str("file", pdfPath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", extract.MaxFileSizeBytes).
			Msg("PDF file exceeds maximum size limit")
		return nil, fmt.Errorf("PDF file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), extract.MaxFileSizeBytes)
	}

	return fileInfo, nil
}

// createContextWithTimeout bounds parent by timeoutSecs and cancels it on interrupt.
func createContextWithTimeout(parent context.Context, timeoutSecs int) (context.Context, context.CancelFunc) {
	ctx, cancelTimeout := context.WithTimeout(parent, time.Duration(timeoutSecs)*time.Second)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancelTimeout()
	}
}

// describeScanError turns extraction failures into a message the user can act on.
func describeScanError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("la lectura del PDF excedio el tiempo limite; llene el ticket a mano o use --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("lectura cancelada")
	case errors.Is(err, extract.ErrFileTooLarge), errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("el PDF es demasiado grande (maximo 20MB)")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("el PDF tiene demasiadas paginas para OCR (maximo 5)")
	case errors.Is(err, extract.ErrInvalidPDF), errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("no se pudo leer el PDF, el archivo parece danado")
	case errors.Is(err, extract.ErrEmptyDocument), errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("el PDF no contiene texto legible; pruebe con ITLEDGER_EXTRACTOR=vision")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("faltan credenciales de Google Cloud: defina GOOGLE_APPLICATION_CREDENTIALS o GOOGLE_CREDENTIALS")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("fallo el OCR de Google Cloud Vision: %w", err)
	default:
		return fmt.Errorf("no se pudo leer el PDF: %w", err)
	}
}
