package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"itledger/internal/document"
	"itledger/internal/store"
)

type memKV struct {
	data    map[string]string
	failSet error
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value
	return nil
}

var testNow = time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)

func quote(amount float64, status document.QuoteStatus) *document.Quote {
	d := document.NewDraft(document.KindQuote, testNow)
	_ = d.UpdateItem(d.Items()[0].ID, 1, "Servicio", amount)
	d.SetStatus(status)
	return d.Quote()
}

func ticket(amount float64, sub document.Subtype) *document.Ticket {
	d := document.NewDraft(document.KindTicket, testNow)
	d.SetAmount(amount)
	d.SetSubtype(sub)
	d.SetFileName("t.pdf")
	return d.Ticket()
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV())

	a, err := l.Quotes.Create(ctx, quote(100, document.StatusDraft))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := l.Quotes.Create(ctx, quote(200, document.StatusDraft))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids = %q, %q", a.ID, b.ID)
	}
	if l.Quotes.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Quotes.Len())
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	l := Open(ctx, kv)

	saved, err := l.Quotes.Create(ctx, quote(100, document.StatusDraft))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	replacement := quote(300, document.StatusAccepted)
	replacement.ID = "something-else"
	ok, err := l.Quotes.Update(ctx, saved.ID, replacement)
	if err != nil || !ok {
		t.Fatalf("Update = %v, %v", ok, err)
	}
	got, found := l.Quotes.Get(saved.ID)
	if !found || got.Amount != 300 || got.Status != document.StatusAccepted {
		t.Fatalf("after update = %+v", got)
	}
	if _, found := l.Quotes.Get("something-else"); found {
		t.Fatal("update changed the document id")
	}

	ok, err = l.Quotes.Update(ctx, "missing", quote(1, document.StatusDraft))
	if err != nil || ok {
		t.Fatalf("Update(missing) = %v, %v; want false, nil", ok, err)
	}
	if l.Quotes.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Quotes.Len())
	}
}

func TestDeleteRemovesFromStore(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	l := Open(ctx, kv)

	keep, _ := l.Tickets.Create(ctx, ticket(10, document.Income))
	drop, _ := l.Tickets.Create(ctx, ticket(20, document.Expense))

	if err := l.Delete(ctx, document.KindTicket, drop.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, document.KindTicket, "does-not-exist"); err != nil {
		t.Fatalf("Delete(missing): %v", err)
	}

	reloaded := Open(ctx, kv)
	if reloaded.Tickets.Len() != 1 {
		t.Fatalf("persisted tickets = %d, want 1", reloaded.Tickets.Len())
	}
	if _, ok := reloaded.Tickets.Get(keep.ID); !ok {
		t.Fatal("kept ticket missing after reload")
	}
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	l := Open(ctx, kv)
	if _, err := l.Notes.Create(ctx, &document.Note{Record: document.Record{Title: "n"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	kv.failSet = errors.New("disk full")
	if _, err := l.Notes.Create(ctx, &document.Note{}); err == nil {
		t.Fatal("expected error")
	}
	if l.Notes.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Notes.Len())
	}
}

func TestCorruptKeyLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data[QuotesKey] = "[{broken"
	kv.data[NotesKey] = `[{"id":"n1","title":"ok","amount":116}]`

	l := Open(ctx, kv)
	if l.Quotes.Len() != 0 {
		t.Errorf("quotes = %d, want 0", l.Quotes.Len())
	}
	if l.Notes.Len() != 1 {
		t.Errorf("notes = %d, want 1", l.Notes.Len())
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV())

	for _, doc := range []document.Document{
		quote(500, document.StatusAccepted),
		quote(9999, document.StatusDraft),
		ticket(300, document.Income),
		ticket(100, document.Expense),
	} {
		if _, err := l.Save(ctx, doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	s := l.Summarize()
	if s.Income.StringFixed(2) != "800.00" {
		t.Errorf("income = %s, want 800.00", s.Income)
	}
	if s.Expense.StringFixed(2) != "100.00" {
		t.Errorf("expense = %s, want 100.00", s.Expense)
	}
	if s.PendingQuotes != 1 {
		t.Errorf("pending = %d, want 1", s.PendingQuotes)
	}
	if s.Balance().StringFixed(2) != "700.00" {
		t.Errorf("balance = %s", s.Balance())
	}
	// 800/1.16*0.16 and 100/1.16*0.16
	if got := s.IVAPayable.StringFixed(2); got != "110.34" {
		t.Errorf("iva payable = %s, want 110.34", got)
	}
	if got := s.IVACreditable.StringFixed(2); got != "13.79" {
		t.Errorf("iva creditable = %s, want 13.79", got)
	}
}

func TestSummarizeCountsWithholding(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV())

	d := document.NewDraft(document.KindNote, testNow)
	d.SetTaxID("ABC123456XYZ")
	_ = d.UpdateItem(d.Items()[0].ID, 1, "Soporte", 1160)
	if _, err := l.Save(ctx, d.Note()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cancelled := quote(1160, document.StatusCancelled)
	cancelled.TaxID = "ABC123456XYZ"
	cancelled.Seal()
	if _, err := l.Save(ctx, cancelled); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := l.Summarize()
	if got := s.ISRWithheld.StringFixed(2); got != "12.50" {
		t.Errorf("isr = %s, want 12.50", got)
	}
	if s.PendingQuotes != 0 {
		t.Errorf("pending = %d, want 0", s.PendingQuotes)
	}
}

func TestSaveWithUnknownIDFails(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV())
	q := quote(1, document.StatusDraft)
	q.ID = "nope"
	if _, err := l.Save(ctx, q); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestRecentAndFolio(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV())

	for i, date := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		n := &document.Note{Record: document.Record{Date: date, Folio: document.NoteFolio(i + 1)}}
		if _, err := l.Notes.Create(ctx, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	recent := l.Recent(2)
	if len(recent) != 2 || recent[0].Base().Date != "2024-03-01" || recent[1].Base().Date != "2024-02-01" {
		t.Fatalf("recent = %v", recent)
	}
	if got := l.NextNoteFolio(); got != "CV-00004" {
		t.Errorf("NextNoteFolio = %q", got)
	}
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV())

	if err := l.ChangePassword(ctx, "x"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("ChangePassword before login = %v", err)
	}
	if l.Login(ctx, "wrong") || l.Authenticated() {
		t.Fatal("wrong password accepted")
	}
	if !l.Login(ctx, DefaultPassword) {
		t.Fatal("default password rejected")
	}
	if err := l.ChangePassword(ctx, ""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("ChangePassword(\"\") = %v", err)
	}
	if err := l.ChangePassword(ctx, "s3cret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	l.Logout()
	if l.Login(ctx, DefaultPassword) {
		t.Fatal("old password still accepted")
	}
	if !l.Login(ctx, "s3cret") {
		t.Fatal("new password rejected")
	}
}

func TestWithDefaultPassword(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, newMemKV(), WithDefaultPassword("abcd"))
	if !l.Login(ctx, "abcd") {
		t.Fatal("configured default rejected")
	}
}

func TestPersistsThroughSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	kv, err := store.New(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	l := Open(ctx, kv)
	saved, err := l.Save(ctx, quote(1160, document.StatusAccepted))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := Open(ctx, kv)
	got, ok := reloaded.Quotes.Get(saved.Base().ID)
	if !ok {
		t.Fatal("quote not persisted")
	}
	if got.Subtotal != saved.Base().Subtotal || got.Status != document.StatusAccepted || len(got.Items) != 1 {
		t.Fatalf("reloaded = %+v", got)
	}
}
