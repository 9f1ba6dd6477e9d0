// Package money provides the exact fixed-precision decimal types used for
// every price and quantity in the matching path. Floats never appear here:
// shopspring/decimal backs both types with arbitrary-precision base-10
// arithmetic, which is what every comparison, sum, and map key in the book
// depends on being exact.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegative    = errors.New("money: value must not be negative")
	ErrNonPositive = errors.New("money: value must be strictly positive")
)

// Price is a non-negative decimal quantity denominated in the quote currency.
type Price struct{ d decimal.Decimal }

// Quantity is a strictly positive decimal base-unit size.
//
// A Quantity of zero is representable (e.g. Order.Remaining() once fully
// filled) but NewQuantity itself rejects non-positive input, since that
// constructor models an order's requested size.
type Quantity struct{ d decimal.Decimal }

// NewPrice validates and wraps a decimal price. Prices may be zero.
func NewPrice(d decimal.Decimal) (Price, error) {
	if d.IsNegative() {
		return Price{}, ErrNegative
	}
	return Price{d}, nil
}

// ParsePrice parses a decimal string into a Price.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("money: parse price: %w", err)
	}
	return NewPrice(d)
}

// NewQuantity validates and wraps a decimal quantity. Quantities used to
// describe an order's requested size must be strictly positive.
func NewQuantity(d decimal.Decimal) (Quantity, error) {
	if !d.IsPositive() {
		return Quantity{}, ErrNonPositive
	}
	return Quantity{d}, nil
}

// ParseQuantity parses a decimal string into a Quantity.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("money: parse quantity: %w", err)
	}
	return NewQuantity(d)
}

// ZeroQuantity is the additive identity; it is exempt from the
// strictly-positive rule enforced by NewQuantity/ParseQuantity.
func ZeroQuantity() Quantity { return Quantity{decimal.Zero} }

// ParseQuantityAllowZero parses a decimal string into a Quantity without
// NewQuantity's strictly-positive check. Used for fields that record an
// already-filled amount, which is legitimately zero for an order that has
// not traded yet.
func ParseQuantityAllowZero(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("money: parse quantity: %w", err)
	}
	if d.IsNegative() {
		return Quantity{}, ErrNegative
	}
	return Quantity{d}, nil
}

func (p Price) Decimal() decimal.Decimal    { return p.d }
func (q Quantity) Decimal() decimal.Decimal { return q.d }

func (p Price) String() string    { return p.d.String() }
func (q Quantity) String() string { return q.d.String() }

func (p Price) IsZero() bool { return p.d.IsZero() }
func (q Quantity) IsZero() bool { return q.d.IsZero() }
func (q Quantity) IsPositive() bool { return q.d.IsPositive() }

// Cmp returns -1, 0, or 1 as p is less than, equal to, or greater than o.
func (p Price) Cmp(o Price) int { return p.d.Cmp(o.d) }

func (p Price) LessThan(o Price) bool    { return p.d.LessThan(o.d) }
func (p Price) GreaterThan(o Price) bool { return p.d.GreaterThan(o.d) }
func (p Price) Equal(o Price) bool       { return p.d.Equal(o.d) }

// Add returns q + o. Quantities are never negative by construction, so this
// is always safe for the fill/remaining bookkeeping the matcher performs.
func (q Quantity) Add(o Quantity) Quantity {
	return Quantity{q.d.Add(o.d)}
}

// Sub returns q - o, clamped at zero. The matcher never calls this with an
// o larger than q (exec_qty = min(...)), but the clamp keeps the invariant
// "remaining never negative" true even under defensive misuse.
func (q Quantity) Sub(o Quantity) Quantity {
	r := q.d.Sub(o.d)
	if r.IsNegative() {
		r = decimal.Zero
	}
	return Quantity{r}
}

func (q Quantity) Min(o Quantity) Quantity {
	if q.d.LessThan(o.d) {
		return q
	}
	return o
}

func (q Quantity) LessThan(o Quantity) bool    { return q.d.LessThan(o.d) }
func (q Quantity) GreaterThan(o Quantity) bool { return q.d.GreaterThan(o.d) }
func (q Quantity) Equal(o Quantity) bool       { return q.d.Equal(o.d) }

// Amount is an absolute currency amount, e.g. a computed fee. Unlike Price
// it may be produced by multiplying a configured rate against price*quantity,
// so it is kept distinct to make clear it is never itself a trade-book key.
type Amount struct{ d decimal.Decimal }

func NewAmount(d decimal.Decimal) Amount { return Amount{d} }

// FeeAmount computes rate * price * quantity as an absolute amount. Fee
// rates are configuration; the trade only ever stores the resulting amount.
func FeeAmount(rate decimal.Decimal, price Price, qty Quantity) Amount {
	return Amount{rate.Mul(price.d).Mul(qty.d)}
}

func (a Amount) Decimal() decimal.Decimal { return a.d }
func (a Amount) String() string           { return a.d.String() }
