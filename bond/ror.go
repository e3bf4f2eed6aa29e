package bond

import (
	"fmt"
	"math"

	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/solver"
)

// ROR is the return of buying at one yield and selling at another.
type ROR struct {
	// Simple is PnL over the buy price.
	Simple float64
	// IRR is the annually compounded internal rate of return on ACT/365F years.
	IRR float64
	// PnL is sell price plus coupons received less buy price, per 100 par.
	PnL float64
}

type yieldPricer interface {
	FullPriceFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error)
	Cashflows(settle date.Date) ([]Cashflow, error)
	maturity() date.Date
}

func (b *Bond) maturity() date.Date { return b.MaturityDate }

func (z *ZeroBond) maturity() date.Date { return z.MaturityDate }

// CalcROR returns the rate of return between buy and sell. Payments dated
// after buy and up to sell are added to the proceeds undiscounted. Selling
// on or after maturity realises the redemption instead of a sale price.
func (b *Bond) CalcROR(buy, sell date.Date, buyYield, sellYield float64, conv YTMCalcType) (ROR, error) {
	return calcROR(b, buy, sell, buyYield, sellYield, conv)
}

// CalcROR returns the rate of return between buy and sell of a zero bond.
func (z *ZeroBond) CalcROR(buy, sell date.Date, buyYield, sellYield float64, conv YTMCalcType) (ROR, error) {
	return calcROR(z, buy, sell, buyYield, sellYield, conv)
}

func calcROR(p yieldPricer, buy, sell date.Date, buyYield, sellYield float64, conv YTMCalcType) (ROR, error) {
	if !sell.After(buy) {
		return ROR{}, fmt.Errorf("CalcROR: sell date %s must follow buy date %s", sell, buy)
	}
	buyPrice, err := p.FullPriceFromYTM(buy, buyYield, conv)
	if err != nil {
		return ROR{}, fmt.Errorf("CalcROR: buy: %w", err)
	}
	sellPrice := 0.0
	if sell.Before(p.maturity()) {
		if sellPrice, err = p.FullPriceFromYTM(sell, sellYield, conv); err != nil {
			return ROR{}, fmt.Errorf("CalcROR: sell: %w", err)
		}
	}
	cfs, err := p.Cashflows(buy)
	if err != nil {
		return ROR{}, fmt.Errorf("CalcROR: %w", err)
	}

	type flow struct{ t, amount float64 }
	flows := []flow{}
	received := 0.0
	for _, cf := range cfs {
		if cf.Date.After(buy) && !cf.Date.After(sell) {
			flows = append(flows, flow{t: float64(cf.Date.Sub(buy)) / 365.0, amount: cf.Amount()})
			received += cf.Amount()
		}
	}
	horizon := float64(sell.Sub(buy)) / 365.0
	flows = append(flows, flow{t: horizon, amount: sellPrice})

	pnl := sellPrice + received - buyPrice
	simpleRet := pnl / buyPrice

	npv := func(r float64) float64 {
		v := -buyPrice
		for _, f := range flows {
			v += f.amount * math.Pow(1+r, -f.t)
		}
		return v
	}
	guess := simpleRet / horizon
	bounds := solver.Bounds{Lo: -1 + 1e-9, Hi: math.Inf(1)}
	if !bounds.Contains(guess) {
		guess = 0
	}
	res, err := solver.Solve(npv, guess, bounds, solver.DefaultConfig)
	if err != nil {
		return ROR{}, fmt.Errorf("CalcROR: irr: %w", err)
	}
	return ROR{Simple: simpleRet, IRR: res.X, PnL: pnl}, nil
}
