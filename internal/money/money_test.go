package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantity_RejectsNonPositive(t *testing.T) {
	_, err := NewQuantity(decimal.Zero)
	assert.ErrorIs(t, err, ErrNonPositive)

	_, err = NewQuantity(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrNonPositive)
}

func TestNewPrice_RejectsNegative(t *testing.T) {
	_, err := NewPrice(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrNegative)

	p, err := NewPrice(decimal.Zero)
	require.NoError(t, err)
	assert.True(t, p.IsZero())
}

func TestQuantity_SubClampsAtZero(t *testing.T) {
	a := mustQty(NewQuantity(decimal.NewFromInt(5)))
	b := mustQty(NewQuantity(decimal.NewFromInt(10)))

	got := a.Sub(b)
	assert.True(t, got.IsZero())
}

func TestQuantity_Min(t *testing.T) {
	a := mustQty(NewQuantity(decimal.NewFromInt(5)))
	b := mustQty(NewQuantity(decimal.NewFromInt(10)))

	assert.True(t, a.Min(b).Equal(a))
	assert.True(t, b.Min(a).Equal(a))
}

func TestFeeAmount(t *testing.T) {
	price := mustPrice(NewPrice(decimal.NewFromInt(100)))
	qty := mustQty(NewQuantity(decimal.NewFromInt(2)))
	rate := decimal.NewFromFloat(0.001)

	fee := FeeAmount(rate, price, qty)
	assert.True(t, fee.Decimal().Equal(decimal.NewFromFloat(0.2)))
}

func TestParsePrice_RoundTrips(t *testing.T) {
	p, err := ParsePrice("123.45")
	require.NoError(t, err)
	assert.Equal(t, "123.45", p.String())
}

func mustQty(q Quantity, err error) Quantity {
	if err != nil {
		panic(err)
	}
	return q
}

func mustPrice(p Price, err error) Price {
	if err != nil {
		panic(err)
	}
	return p
}
