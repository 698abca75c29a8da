package document

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"itledger/internal/tax"
)

// Draft defaults.
const (
	DefaultTitle  = "Venta de Servicios"
	DefaultClient = "Publico en general"
)

var (
	// ErrLastItem is returned when removing the only line item of a draft.
	ErrLastItem = errors.New("a quote or note needs at least one line item")

	// ErrItemNotFound is returned when a line item id is not in the draft.
	ErrItemNotFound = errors.New("line item not found")

	// ErrNoAmount is returned by Validate while the amount is zero or negative.
	ErrNoAmount = errors.New("document amount must be greater than zero")
)

// Draft is the editable, unsaved form of a document. Nothing is persisted until
// the caller commits it with Quote, Note or Ticket and hands the result to the ledger.
type Draft struct {
	kind   Kind
	record Record

	status       QuoteStatus
	subtype      Subtype
	fileName     string
	ticketStatus string
}

// NewDraft returns a blank draft of the given kind with the usual defaults.
func NewDraft(kind Kind, now time.Time) *Draft {
	d := &Draft{
		kind: kind,
		record: Record{
			Title:  DefaultTitle,
			Client: DefaultClient,
			TaxID:  tax.GenericTaxID,
			Date:   now.Format(time.DateOnly),
			Items:  []LineItem{newItem()},
		},
		subtype: Income,
	}
	if kind == KindQuote {
		d.status = StatusDraft
	}
	return d
}

// DraftFrom opens an existing document for editing.
func DraftFrom(doc Document) *Draft {
	d := &Draft{kind: doc.Kind(), record: *doc.Base()}
	d.record.Items = append([]LineItem(nil), doc.Base().Items...)

	switch v := doc.(type) {
	case *Quote:
		d.status = v.Status
		if d.status == "" {
			d.status = StatusPending
		}
	case *Ticket:
		d.subtype = v.Subtype
		d.fileName = v.FileName
		d.ticketStatus = v.Status
	}
	if len(d.record.Items) == 0 {
		d.record.Items = []LineItem{newItem()}
	}
	return d
}

func newItem() LineItem {
	return LineItem{ID: uuid.NewString(), Quantity: 1}
}

// Kind returns the kind the draft will be saved as.
func (d *Draft) Kind() Kind { return d.kind }

// Record returns a copy of the draft's current fields.
func (d *Draft) Record() Record {
	r := d.record
	r.Items = append([]LineItem(nil), d.record.Items...)
	return r
}

// itemized reports whether the amount is derived from line items.
func (d *Draft) itemized() bool {
	return d.kind == KindQuote || d.kind == KindNote
}

func (d *Draft) SetTitle(title string) { d.record.Title = title }

// SetClient sets the client name. Sales to the general public always carry the generic RFC.
func (d *Draft) SetClient(client string) {
	d.record.Client = client
	if strings.EqualFold(strings.TrimSpace(Clean(client)), DefaultClient) {
		d.record.TaxID = tax.GenericTaxID
	}
}

func (d *Draft) SetTaxID(taxID string) { d.record.TaxID = strings.ToUpper(strings.TrimSpace(taxID)) }

func (d *Draft) SetDate(date string) { d.record.Date = date }

func (d *Draft) SetFolio(folio string) { d.record.Folio = folio }

func (d *Draft) SetStatus(s QuoteStatus) { d.status = s }

func (d *Draft) SetSubtype(s Subtype) { d.subtype = s }

func (d *Draft) SetFileName(name string) { d.fileName = name }

// SetAmount sets the gross amount directly. For quotes and notes the amount
// follows the line items, so it is ignored there.
func (d *Draft) SetAmount(amount float64) {
	if d.itemized() {
		return
	}
	d.record.Amount = amount
}

// Items returns the draft's line items.
func (d *Draft) Items() []LineItem {
	return append([]LineItem(nil), d.record.Items...)
}

// AddItem appends an empty line item and returns its id.
func (d *Draft) AddItem() string {
	item := newItem()
	d.record.Items = append(d.record.Items, item)
	return item.ID
}

// UpdateItem changes a line item and recalculates the amount.
func (d *Draft) UpdateItem(id string, quantity float64, description string, unitPrice float64) error {
	for i := range d.record.Items {
		if d.record.Items[i].ID == id {
			d.record.Items[i].Quantity = quantity
			d.record.Items[i].Description = description
			d.record.Items[i].UnitPrice = unitPrice
			d.recalc()
			return nil
		}
	}
	return ErrItemNotFound
}

// SetItems replaces every line item. An empty list is refused.
func (d *Draft) SetItems(items []LineItem) error {
	if len(items) == 0 {
		return ErrLastItem
	}
	d.record.Items = make([]LineItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		d.record.Items[i] = item
	}
	d.recalc()
	return nil
}

// RemoveItem drops a line item. The last remaining item cannot be removed.
func (d *Draft) RemoveItem(id string) error {
	if len(d.record.Items) == 1 {
		return ErrLastItem
	}
	for i := range d.record.Items {
		if d.record.Items[i].ID == id {
			d.record.Items = append(d.record.Items[:i], d.record.Items[i+1:]...)
			d.recalc()
			return nil
		}
	}
	return ErrItemNotFound
}

func (d *Draft) recalc() {
	if !d.itemized() {
		return
	}
	var total float64
	for _, item := range d.record.Items {
		total += item.Total()
	}
	d.record.Amount = total
}

// Amount is the current gross amount.
func (d *Draft) Amount() float64 { return d.record.Amount }

// Validate reports whether the draft may be saved.
func (d *Draft) Validate() error {
	if d.record.Amount <= 0 {
		return ErrNoAmount
	}
	return nil
}

// Taxes previews the breakdown for the current amount and RFC.
func (d *Draft) Taxes() tax.Breakdown {
	return tax.Compute(d.record.Amount, d.record.TaxID)
}

func (d *Draft) sealed() Record {
	r := d.Record()
	if !d.itemized() {
		r.Items = nil
	}
	r.Seal()
	return r
}

// Quote commits the draft as a quote, stamping the tax breakdown.
func (d *Draft) Quote() *Quote {
	return &Quote{Record: d.sealed(), Status: d.status}
}

// Note commits the draft as a sales note, stamping the tax breakdown.
func (d *Draft) Note() *Note {
	return &Note{Record: d.sealed()}
}

// Ticket commits the draft as a ticket, stamping the tax breakdown.
func (d *Draft) Ticket() *Ticket {
	return &Ticket{Record: d.sealed(), Subtype: d.subtype, FileName: d.fileName, Status: d.ticketStatus}
}

// Commit returns the draft as a document of its own kind.
func (d *Draft) Commit() Document {
	switch d.kind {
	case KindQuote:
		return d.Quote()
	case KindNote:
		return d.Note()
	default:
		return d.Ticket()
	}
}
