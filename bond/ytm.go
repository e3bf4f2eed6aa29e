package bond

import (
	"fmt"
	"math"
	"strings"

	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/solver"
)

// YTMCalcType selects how a yield compounds over the first, possibly
// partial, coupon period.
type YTMCalcType int

const (
	// UKDMO compounds the first period fractionally: v^alpha.
	UKDMO YTMCalcType = iota + 1
	// USStreet is UKDMO except in the final coupon period, which discounts simply.
	USStreet
	// USTreasury discounts the first period simply: 1/(1 + alpha*y/f).
	USTreasury
	// CFETS is UKDMO except in the final coupon period, which discounts simply
	// over the actual days to maturity on an actual-days year.
	CFETS
	// Zero discounts simply over ACT/ACT-ISDA years; zero coupon bonds only.
	Zero
)

var calcTypeNames = map[YTMCalcType]string{
	UKDMO:      "UK_DMO",
	USStreet:   "US_STREET",
	USTreasury: "US_TREASURY",
	CFETS:      "CFETS",
	Zero:       "ZERO",
}

func (t YTMCalcType) String() string {
	if s, ok := calcTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("YTMCalcType(%d)", int(t))
}

// ParseYTMCalcType accepts "UK_DMO", "US_STREET", "US_TREASURY", "CFETS" and "ZERO".
func ParseYTMCalcType(s string) (YTMCalcType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return UKDMO, nil
	}
	for k, v := range calcTypeNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("ParseYTMCalcType: unknown yield convention %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *YTMCalcType) UnmarshalText(b []byte) error {
	parsed, err := ParseYTMCalcType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t YTMCalcType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// discount is the first-period discount factor and its first two
// derivatives in y.
type discount struct {
	f, d1, d2 float64
}

// fractional is v^a with v = 1/(1+y/f).
func fractional(y, freq, a float64) discount {
	v := 1 / (1 + y/freq)
	dv := -v * v / freq
	d2v := 2 * v * v * v / (freq * freq)
	va := math.Pow(v, a)
	return discount{
		f:  va,
		d1: a * va / v * dv,
		d2: a*(a-1)*va/(v*v)*dv*dv + a*va/v*d2v,
	}
}

// simple is 1/(1+a*y).
func simple(y, a float64) discount {
	f := 1 / (1 + a*y)
	return discount{f: f, d1: -a * f * f, d2: 2 * a * a * f * f * f}
}

// firstPeriod dispatches on the calc type.
func (b *Bond) firstPeriod(pos position, y float64, conv YTMCalcType) (discount, error) {
	freq := float64(b.Frequency.PerYear())
	switch conv {
	case UKDMO:
		return fractional(y, freq, pos.alpha), nil
	case USStreet:
		if pos.remaining == 0 {
			return simple(y, pos.alpha/freq), nil
		}
		return fractional(y, freq, pos.alpha), nil
	case USTreasury:
		return simple(y, pos.alpha/freq), nil
	case CFETS:
		if pos.remaining == 0 {
			d := float64(b.MaturityDate.Sub(pos.settle))
			ty := float64(b.MaturityDate.Sub(b.MaturityDate.AddYears(-1)))
			return simple(y, d/ty), nil
		}
		return fractional(y, freq, pos.alpha), nil
	default:
		return discount{}, fmt.Errorf("bond %s: %w: %s", b.MaturityDate, ErrUnsupportedYT, conv)
	}
}

// priceDerivs returns the full price per 100 par and its first two yield
// derivatives: P = 100 * F(y) * sum_k CF_k v^k.
func (b *Bond) priceDerivs(settle date.Date, y float64, conv YTMCalcType) (p, d1, d2 float64, err error) {
	pos, err := b.locate(settle)
	if err != nil {
		return 0, 0, 0, err
	}
	first, err := b.firstPeriod(pos, y, conv)
	if err != nil {
		return 0, 0, 0, err
	}

	freq := float64(b.Frequency.PerYear())
	cpn := b.Coupon / freq
	v := 1 / (1 + y/freq)
	dv := -v * v / freq
	d2v := 2 * v * v * v / (freq * freq)

	var s, s1, s2 float64
	vk := 1.0 // v^k
	for k := 0; k <= pos.remaining; k++ {
		cf := cpn
		if k == 0 {
			cf = cpn * pos.firstFrac
			if pos.exDiv {
				cf = 0
			}
		}
		if k == pos.remaining {
			cf++
		}
		kf := float64(k)
		s += cf * vk
		if k >= 1 {
			s1 += cf * kf * vk / v * dv
			s2 += cf * (kf*(kf-1)*vk/(v*v)*dv*dv + kf*vk/v*d2v)
		}
		vk *= v
	}

	p = par * first.f * s
	d1 = par * (first.d1*s + first.f*s1)
	d2 = par * (first.d2*s + 2*first.d1*s1 + first.f*s2)
	return p, d1, d2, nil
}

// FullPriceFromYTM returns the dirty price per 100 par.
func (b *Bond) FullPriceFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	p, _, _, err := b.priceDerivs(settle, ytm, conv)
	return p, err
}

// CleanPriceFromYTM returns the full price less accrued interest, per 100 par.
func (b *Bond) CleanPriceFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	full, err := b.FullPriceFromYTM(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	ai, err := b.accruedPer100(settle)
	if err != nil {
		return 0, err
	}
	return full - ai, nil
}

// yieldBounds keeps 1 + y/f and 1 + a*y positive.
func (b *Bond) yieldBounds() solver.Bounds {
	lo := -math.Min(1, float64(b.Frequency.PerYear())) + 1e-6
	return solver.Bounds{Lo: lo, Hi: math.Inf(1)}
}

// YieldToMaturity solves for the yield that reproduces a clean price per 100
// par, starting from the coupon rate.
func (b *Bond) YieldToMaturity(settle date.Date, clean float64, conv YTMCalcType) (float64, error) {
	ai, err := b.accruedPer100(settle)
	if err != nil {
		return 0, err
	}
	return b.yieldFromFull(settle, clean+ai, conv, solver.DefaultConfig)
}

func (b *Bond) yieldFromFull(settle date.Date, full float64, conv YTMCalcType, cfg solver.Config) (float64, error) {
	if _, _, _, err := b.priceDerivs(settle, b.Coupon, conv); err != nil {
		return 0, err
	}
	f := func(y float64) float64 {
		p, _, _, err := b.priceDerivs(settle, y, conv)
		if err != nil {
			return math.NaN()
		}
		return p - full
	}
	res, err := solver.Solve(f, b.Coupon, b.yieldBounds(), cfg)
	if err != nil {
		return 0, fmt.Errorf("YieldToMaturity %s: %w", b, err)
	}
	return res.X, nil
}
