// Package ledger owns the application state: the quote, note and ticket
// collections, the fiscal summary derived from them and the login session.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"itledger/internal/document"
	"itledger/internal/logger"
	"itledger/internal/store"
)

// Store keys.
const (
	QuotesKey   = "it_quotes"
	NotesKey    = "it_notes"
	TicketsKey  = "it_tickets"
	PasswordKey = "it_sys_pass"
)

// DefaultPassword is used until a password has been saved.
const DefaultPassword = "1234"

var (
	// ErrNotAuthenticated is returned by operations that need a login first.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrEmptyPassword is returned when setting a blank password.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Ledger is the single owner of every mutable piece of state.
type Ledger struct {
	Quotes  *Collection[*document.Quote]
	Notes   *Collection[*document.Note]
	Tickets *Collection[*document.Ticket]

	kv              store.KV
	defaultPassword string
	authenticated   bool
	log             zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDefaultPassword overrides the password used when none is stored.
func WithDefaultPassword(p string) Option {
	return func(l *Ledger) {
		if p != "" {
			l.defaultPassword = p
		}
	}
}

// Open loads the three collections from kv. Unreadable keys load as empty collections.
func Open(ctx context.Context, kv store.KV, opts ...Option) *Ledger {
	log := logger.WithComponent("ledger")
	l := &Ledger{
		Quotes:          newCollection[*document.Quote](ctx, kv, QuotesKey, log),
		Notes:           newCollection[*document.Note](ctx, kv, NotesKey, log),
		Tickets:         newCollection[*document.Ticket](ctx, kv, TicketsKey, log),
		kv:              kv,
		defaultPassword: DefaultPassword,
		log:             log,
	}
	for _, opt := range opts {
		opt(l)
	}

	log.Debug().
		Int("quotes", l.Quotes.Len()).
		Int("notes", l.Notes.Len()).
		Int("tickets", l.Tickets.Len()).
		Msg("Ledger loaded")
	return l
}

// Save creates doc in the collection of its kind, or replaces the document
// with the same id when doc already has one.
func (l *Ledger) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	id := doc.Base().ID
	switch d := doc.(type) {
	case *document.Quote:
		return save(ctx, l.Quotes, id, d)
	case *document.Note:
		return save(ctx, l.Notes, id, d)
	case *document.Ticket:
		return save(ctx, l.Tickets, id, d)
	}
	return nil, fmt.Errorf("unsupported document type %T", doc)
}

func save[D document.Document](ctx context.Context, c *Collection[D], id string, doc D) (document.Document, error) {
	if id == "" {
		return c.Create(ctx, doc)
	}
	ok, err := c.Update(ctx, id, doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: no document with id %s", c.Key(), id)
	}
	return doc, nil
}

// Find looks up a document of the given kind.
func (l *Ledger) Find(kind document.Kind, id string) (document.Document, bool) {
	switch kind {
	case document.KindQuote:
		if q, ok := l.Quotes.Get(id); ok {
			return q, true
		}
	case document.KindNote:
		if n, ok := l.Notes.Get(id); ok {
			return n, true
		}
	case document.KindTicket:
		if t, ok := l.Tickets.Get(id); ok {
			return t, true
		}
	}
	return nil, false
}

// Delete removes a document of the given kind. Unknown ids are a no-op.
func (l *Ledger) Delete(ctx context.Context, kind document.Kind, id string) error {
	switch kind {
	case document.KindQuote:
		return l.Quotes.Delete(ctx, id)
	case document.KindNote:
		return l.Notes.Delete(ctx, id)
	case document.KindTicket:
		return l.Tickets.Delete(ctx, id)
	}
	return fmt.Errorf("unknown document kind %q", kind)
}

// List returns every document of a kind.
func (l *Ledger) List(kind document.Kind) []document.Document {
	switch kind {
	case document.KindQuote:
		return asDocuments(l.Quotes.List())
	case document.KindNote:
		return asDocuments(l.Notes.List())
	case document.KindTicket:
		return asDocuments(l.Tickets.List())
	}
	return nil
}

// All returns quotes, then notes, then tickets.
func (l *Ledger) All() []document.Document {
	all := l.List(document.KindQuote)
	all = append(all, l.List(document.KindNote)...)
	return append(all, l.List(document.KindTicket)...)
}

func asDocuments[D document.Document](items []D) []document.Document {
	out := make([]document.Document, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// Recent returns up to n documents of any kind, newest date first.
func (l *Ledger) Recent(n int) []document.Document {
	all := l.All()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Base().Date > all[j].Base().Date
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// NextNoteFolio is the folio the next sales note should carry.
func (l *Ledger) NextNoteFolio() string {
	return document.NoteFolio(l.Notes.Len() + 1)
}

// ImportTickets appends tickets restored from a backup.
func (l *Ledger) ImportTickets(ctx context.Context, tickets []*document.Ticket) error {
	return l.Tickets.Append(ctx, tickets...)
}
