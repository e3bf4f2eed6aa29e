package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   Amount
		want string
	}{
		{"no currency", New(101000.232, NONE), "101,000.23"},
		{"cad", New(101000.232, CAD), "CAD 101,000.23"},
		{"rounds half up", New(0.125, USD), "USD 0.13"},
		{"no minor units", New(1234567.8, JPY), "JPY 1,234,568"},
		{"negative", New(-22071.8232, GBP), "GBP -22,071.82"},
		{"small", New(999, EUR), "EUR 999.00"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()
	sum, err := New(0.1, USD).Add(New(0.2, USD))
	require.NoError(t, err)
	assert.Equal(t, "0.3", sum.Value.String())

	_, err = New(1, USD).Add(New(1, EUR))
	assert.Error(t, err)

	assert.InDelta(t, 50.0, New(100, USD).Mul(0.5).Float64(), 1e-12)
}

func TestParseCurrency(t *testing.T) {
	t.Parallel()
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	c, err = ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, NONE, c)

	for _, bad := range []string{"US", "U5D", "DOLLAR"} {
		_, err := ParseCurrency(bad)
		assert.Error(t, err, bad)
	}
}
