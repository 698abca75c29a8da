package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"itledger/internal/document"
	"itledger/internal/logger"
)

// MaxFileSizeBytes bounds the receipts accepted for extraction (20MB).
const MaxFileSizeBytes = 20 * 1024 * 1024

// TextExtractor returns the plain text of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) (string, error)
}

// PDFExtractor reads the text layer of a PDF locally.
type PDFExtractor struct{}

// NewPDFExtractor returns the local PDF text extractor.
func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// ExtractText concatenates the text of every page, separated by spaces.
func (PDFExtractor) ExtractText(ctx context.Context, r io.Reader) (text string, err error) {
	const op = "ExtractText"

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSizeBytes+1))
	if err != nil {
		return "", WrapExtractError(op, err, "failed to read document")
	}
	if len(data) > MaxFileSizeBytes {
		return "", WrapExtractError(op, ErrFileTooLarge, fmt.Sprintf("file size: > %d bytes", MaxFileSizeBytes))
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", WrapExtractError(op, ErrInvalidPDF, "missing PDF header")
	}

	// the reader panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = WrapExtractError(op, ErrInvalidPDF, fmt.Sprint(rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", WrapExtractError(op, ErrInvalidPDF, err.Error())
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", WrapExtractError(op, err, "canceled")
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", WrapExtractError(op, err, fmt.Sprintf("page %d", i))
		}
		pages = append(pages, content)
	}

	text = strings.Join(pages, " ")
	if strings.TrimSpace(text) == "" {
		return "", WrapExtractError(op, ErrEmptyDocument, "")
	}
	return text, nil
}

// Prefill extracts text from r and applies whatever the patterns find to d.
// When extraction fails d is left untouched and the error is returned so the
// caller can notify the user; the ticket can still be filled in by hand.
func Prefill(ctx context.Context, x TextExtractor, r io.Reader, d *document.Draft) (Fields, error) {
	log := logger.WithComponent("extract")

	text, err := x.ExtractText(ctx, r)
	if err != nil {
		log.Warn().Err(err).Msg("Text extraction failed, no fields populated")
		return Fields{}, err
	}

	f := Scan(text)
	f.ApplyTo(d)

	log.Debug().
		Int("text_length", len(text)).
		Bool("amount", f.Amount != nil).
		Bool("folio", f.Folio != nil).
		Bool("date", f.Date != nil).
		Msg("Receipt scanned")
	return f, nil
}
