// Package tax computes the Mexican tax split applied to every saved document.
//
// Amounts handled here are gross totals with 16% IVA already included. Counterparties
// identified by a 12-character RFC are "personas morales" and have 1.25% ISR withheld
// from the subtotal; every other RFC (13 characters for individuals, or the generic
// XAXX010101000) has no withholding.
package tax

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// IVARate is the value-added tax implied in every gross amount.
	IVARate = 0.16

	// ISRRate is the withholding applied to the subtotal for moral taxpayers.
	ISRRate = 0.0125

	// MoralTaxIDLength is the RFC length that identifies a corporate taxpayer.
	MoralTaxIDLength = 12

	// GenericTaxID is the RFC used for sales to the general public.
	GenericTaxID = "XAXX010101000"
)

// Breakdown is the tax split of a gross amount.
type Breakdown struct {
	Subtotal   float64 `json:"subtotal"`
	IVA        float64 `json:"iva"`
	ISR        float64 `json:"isr"`
	FinalTotal float64 `json:"finalTotal"`
}

// IsMoral reports whether taxID belongs to a corporate taxpayer.
func IsMoral(taxID string) bool {
	return utf8.RuneCountInString(taxID) == MoralTaxIDLength
}

// Compute splits amount into subtotal, IVA and ISR for the given RFC.
// It accepts any amount, zero and negative included.
func Compute(amount float64, taxID string) Breakdown {
	subtotal := amount / (1 + IVARate)
	iva := amount - subtotal

	var isr float64
	if IsMoral(taxID) {
		isr = subtotal * ISRRate
	}

	return Breakdown{
		Subtotal:   subtotal,
		IVA:        iva,
		ISR:        isr,
		FinalTotal: amount - isr,
	}
}

// Round returns v as a decimal rounded to cents, for display only.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Format renders v with exactly two decimals.
func Format(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
