package bond

import "github.com/meenmo/fixedincome/date"

// DollarDuration is -dP/dy of the full price per 100 par.
func (b *Bond) DollarDuration(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	_, d1, _, err := b.priceDerivs(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return -d1, nil
}

// ModifiedDuration is the dollar duration over the full price.
func (b *Bond) ModifiedDuration(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	p, d1, _, err := b.priceDerivs(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return -d1 / p, nil
}

// MacauleyDuration is the modified duration scaled by (1 + y/f).
func (b *Bond) MacauleyDuration(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	md, err := b.ModifiedDuration(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return md * (1 + ytm/float64(b.Frequency.PerYear())), nil
}

// ConvexityFromYTM is d2P/dy2 over the full price, quoted per 100 of price.
func (b *Bond) ConvexityFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	p, _, d2, err := b.priceDerivs(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return d2 / p / par, nil
}
