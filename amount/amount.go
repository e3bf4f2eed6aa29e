// Package amount formats monetary amounts with their currency.
package amount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. The empty currency prints no prefix.
type Currency string

const (
	NONE Currency = ""
	USD  Currency = "USD"
	EUR  Currency = "EUR"
	GBP  Currency = "GBP"
	CHF  Currency = "CHF"
	CAD  Currency = "CAD"
	AUD  Currency = "AUD"
	JPY  Currency = "JPY"
	KRW  Currency = "KRW"
)

// minorUnits are the decimal places quoted for a currency; others use 2.
var minorUnits = map[Currency]int32{
	JPY: 0,
	KRW: 0,
}

// Places returns the number of decimal places c is quoted to.
func (c Currency) Places() int32 {
	if p, ok := minorUnits[c]; ok {
		return p
	}
	return 2
}

// ParseCurrency upper-cases and validates a three letter code.
func ParseCurrency(s string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" || code == "NONE" {
		return NONE, nil
	}
	if len(code) != 3 {
		return NONE, fmt.Errorf("amount: invalid currency code %q", s)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return NONE, fmt.Errorf("amount: invalid currency code %q", s)
		}
	}
	return Currency(code), nil
}

// Amount is a decimal value in a currency.
type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

// New converts a float amount.
func New(v float64, c Currency) Amount {
	return Amount{Value: decimal.NewFromFloat(v), Currency: c}
}

// Add sums two amounts of the same currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("amount: cannot add %s to %s", b.Currency, a.Currency)
	}
	return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency}, nil
}

// Mul scales the amount.
func (a Amount) Mul(f float64) Amount {
	return Amount{Value: a.Value.Mul(decimal.NewFromFloat(f)), Currency: a.Currency}
}

// Float64 returns the nearest float.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

// String prints the code, then the value rounded to the currency's minor
// units with thousands separators: "USD 101,000.23".
func (a Amount) String() string {
	s := groupThousands(a.Value.StringFixed(a.Currency.Places()))
	if a.Currency == NONE {
		return s
	}
	return string(a.Currency) + " " + s
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
