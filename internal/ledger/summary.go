package ledger

import (
	"github.com/shopspring/decimal"

	"itledger/internal/document"
)

// Summary is the fiscal overview derived from all saved documents.
// Sums are exact decimals; round only when displaying.
type Summary struct {
	Income        decimal.Decimal
	Expense       decimal.Decimal
	IVAPayable    decimal.Decimal // IVA trasladado, on income
	IVACreditable decimal.Decimal // IVA acreditable, on expenses
	ISRWithheld   decimal.Decimal
	PendingQuotes int
}

// Balance is income minus expense.
func (s Summary) Balance() decimal.Decimal { return s.Income.Sub(s.Expense) }

// NetIVA is the IVA owed after crediting expenses.
func (s Summary) NetIVA() decimal.Decimal { return s.IVAPayable.Sub(s.IVACreditable) }

// Summarize computes the summary over accepted quotes, all notes and all tickets.
func (l *Ledger) Summarize() Summary {
	s := Summary{
		Income:        decimal.Zero,
		Expense:       decimal.Zero,
		IVAPayable:    decimal.Zero,
		IVACreditable: decimal.Zero,
		ISRWithheld:   decimal.Zero,
	}

	income := func(r *document.Record) {
		s.Income = s.Income.Add(decimal.NewFromFloat(r.Amount))
		s.IVAPayable = s.IVAPayable.Add(decimal.NewFromFloat(r.IVA))
		s.ISRWithheld = s.ISRWithheld.Add(decimal.NewFromFloat(r.ISR))
	}

	for _, q := range l.Quotes.List() {
		if q.Status == document.StatusAccepted {
			income(&q.Record)
		}
		if q.Status.Open() {
			s.PendingQuotes++
		}
	}
	for _, n := range l.Notes.List() {
		income(&n.Record)
	}
	for _, t := range l.Tickets.List() {
		switch t.Subtype {
		case document.Income:
			income(&t.Record)
		case document.Expense:
			s.Expense = s.Expense.Add(decimal.NewFromFloat(t.Amount))
			s.IVACreditable = s.IVACreditable.Add(decimal.NewFromFloat(t.IVA))
			s.ISRWithheld = s.ISRWithheld.Add(decimal.NewFromFloat(t.ISR))
		default:
			// untyped tickets only count toward withholding
			s.ISRWithheld = s.ISRWithheld.Add(decimal.NewFromFloat(t.ISR))
		}
	}

	return s
}
