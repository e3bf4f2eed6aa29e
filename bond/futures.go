package bond

import (
	"fmt"

	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/solver"
)

// ForwardYieldResult is the output of ForwardYield.
type ForwardYieldResult struct {
	// ForwardYield is the annualised yield in decimal (e.g. 0.0283).
	ForwardYield float64
	// InvoicePrice is futures_price × conversion_factor + accrued_interest (per-100).
	InvoicePrice float64
	// AccruedInterest is the accrued coupon at delivery (per-100).
	AccruedInterest float64
}

// ForwardYield solves for the yield at the futures delivery date such that
// the bond's full price equals the invoice price of the delivery.
func (b *Bond) ForwardYield(delivery date.Date, futuresPrice, conversionFactor float64, conv YTMCalcType) (ForwardYieldResult, error) {
	if futuresPrice <= 0 || conversionFactor <= 0 {
		return ForwardYieldResult{}, fmt.Errorf("ForwardYield: futures price and conversion factor must be positive")
	}
	ai, err := b.accruedPer100(delivery)
	if err != nil {
		return ForwardYieldResult{}, fmt.Errorf("ForwardYield: %w", err)
	}
	invoice := futuresPrice*conversionFactor + ai

	y, err := b.yieldFromFull(delivery, invoice, conv, solver.DefaultConfig)
	if err != nil {
		return ForwardYieldResult{}, fmt.Errorf("ForwardYield: %w", err)
	}
	return ForwardYieldResult{
		ForwardYield:    y,
		InvoicePrice:    invoice,
		AccruedInterest: ai,
	}, nil
}
