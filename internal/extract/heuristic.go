// Package extract pre-fills ticket drafts from uploaded receipts.
//
// Text comes from a TextExtractor (the embedded PDF reader, or Google Vision
// OCR for scanned receipts) and is matched against a few loose patterns for
// the total, folio and date. Matching is best effort: a receipt may yield all,
// some or none of the fields, and none of that is an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"itledger/internal/document"
)

var (
	// \p{Zs} covers the non-breaking spaces common in PDF text layers.
	totalPattern = regexp.MustCompile(`(?i)TOTAL[:\s\p{Zs}]*\$?[\s\p{Zs}]*([\d,]+\.\d{2})`)
	folioPattern = regexp.MustCompile(`(?i)Folio[:\s\p{Zs}]*([A-Z0-9-]+)`)
	datePattern  = regexp.MustCompile(`(?i)Fecha[:\s\p{Zs}]*(\d{2})[/-](\d{2})[/-](\d{4})`)
)

// Fields holds whatever Scan found; nil means no match.
type Fields struct {
	Amount *float64
	Folio  *string
	Date   *string // YYYY-MM-DD
}

// Empty reports whether nothing was found.
func (f Fields) Empty() bool {
	return f.Amount == nil && f.Folio == nil && f.Date == nil
}

// Scan looks for the first total, folio and date in text.
func Scan(text string) Fields {
	text = strings.ReplaceAll(text, `\`, "")

	var f Fields
	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			f.Amount = &v
		}
	}
	if m := folioPattern.FindStringSubmatch(text); m != nil {
		folio := m[1]
		f.Folio = &folio
	}
	if m := datePattern.FindStringSubmatch(text); m != nil {
		date := m[3] + "-" + m[2] + "-" + m[1]
		f.Date = &date
	}
	return f
}

// ApplyTo copies the found fields into d, leaving the rest untouched.
func (f Fields) ApplyTo(d *document.Draft) {
	if f.Amount != nil {
		d.SetAmount(*f.Amount)
	}
	if f.Folio != nil {
		d.SetFolio(*f.Folio)
	}
	if f.Date != nil {
		d.SetDate(*f.Date)
	}
}
