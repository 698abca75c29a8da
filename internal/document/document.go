// Package document defines the three record kinds kept by the ledger and the
// editable draft they are created from.
package document

import (
	"fmt"

	"itledger/internal/tax"
)

// Kind identifies one of the three document collections.
type Kind string

const (
	KindQuote  Kind = "quote"
	KindNote   Kind = "note"
	KindTicket Kind = "ticket"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindQuote, KindNote, KindTicket:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Subtype tells whether a ticket records money coming in or going out.
type Subtype string

const (
	Income  Subtype = "ingreso"
	Expense Subtype = "egreso"
)

// QuoteStatus is the workflow state of a quote. Values are the persisted strings.
type QuoteStatus string

const (
	StatusDraft     QuoteStatus = "Borrador"
	StatusPending   QuoteStatus = "Pendiente"
	StatusInReview  QuoteStatus = "Revision"
	StatusAccepted  QuoteStatus = "Aceptada"
	StatusCancelled QuoteStatus = "Cancelada"
)

// ParseQuoteStatus accepts the persisted value or its English name.
func ParseQuoteStatus(s string) (QuoteStatus, error) {
	switch s {
	case "Borrador", "draft":
		return StatusDraft, nil
	case "Pendiente", "pending":
		return StatusPending, nil
	case "Revision", "review", "in-review":
		return StatusInReview, nil
	case "Aceptada", "accepted":
		return StatusAccepted, nil
	case "Cancelada", "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown quote status %q", s)
}

// Open reports whether the quote still awaits a decision.
func (s QuoteStatus) Open() bool {
	return s != StatusAccepted && s != StatusCancelled
}

// MissingFileName marks a ticket whose source file was never attached,
// as happens for rows restored from a CSV backup.
const MissingFileName = "PENDIENTE_SUBIR.pdf"

// LineItem is one row of a quote or sales note.
type LineItem struct {
	ID          string  `json:"id"`
	Quantity    float64 `json:"quantity"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Total returns quantity times unit price.
func (li LineItem) Total() float64 {
	return li.Quantity * li.UnitPrice
}

// Record holds the fields shared by every document kind. Subtotal, IVA, ISR and
// FinalTotal are stamped when the document is saved and never recomputed on read.
type Record struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Client string     `json:"client"`
	TaxID  string     `json:"rfc"`
	Date   string     `json:"date"`
	Folio  string     `json:"folio,omitempty"`
	Items  []LineItem `json:"items,omitempty"`
	Amount float64    `json:"amount"`

	tax.Breakdown
}

// Base returns the record itself, so variants embedding it satisfy Document.
func (r *Record) Base() *Record { return r }

// Reference is the folio when present, otherwise the id.
func (r *Record) Reference() string {
	if r.Folio != "" {
		return r.Folio
	}
	return r.ID
}

// Seal stamps the tax breakdown for the current amount and RFC.
func (r *Record) Seal() {
	r.Breakdown = tax.Compute(r.Amount, r.TaxID)
}

// Document is implemented by pointers to Quote, Note and Ticket.
type Document interface {
	Base() *Record
	Kind() Kind
	// DisplayStatus is the status shown in listings and exports.
	DisplayStatus() string
}

// Quote is a priced proposal; only accepted quotes count as income.
type Quote struct {
	Record
	Status QuoteStatus `json:"status"`
}

func (q *Quote) Kind() Kind { return KindQuote }

func (q *Quote) DisplayStatus() string {
	if q.Status == "" {
		return string(StatusAccepted)
	}
	return string(q.Status)
}

// Note is a sales note, always counted as income.
type Note struct {
	Record
}

func (n *Note) Kind() Kind { return KindNote }

func (n *Note) DisplayStatus() string { return string(StatusAccepted) }

// Ticket is an income or expense receipt, usually backed by an uploaded file.
type Ticket struct {
	Record
	Subtype  Subtype `json:"ticketSubtype"`
	FileName string  `json:"fileName"`
	// Status is only set on tickets restored from a backup.
	Status string `json:"status,omitempty"`
}

func (t *Ticket) Kind() Kind { return KindTicket }

func (t *Ticket) DisplayStatus() string {
	if t.Status == "" {
		return string(StatusAccepted)
	}
	return t.Status
}

// IsExpense reports whether the ticket is an egreso.
func (t *Ticket) IsExpense() bool { return t.Subtype == Expense }

// NoteFolio formats the sequential folio of the n-th sales note.
func NoteFolio(n int) string {
	return fmt.Sprintf("CV-%05d", n)
}

var (
	_ Document = (*Quote)(nil)
	_ Document = (*Note)(nil)
	_ Document = (*Ticket)(nil)
)
