package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is a non-negative integer unit count. Arithmetic that would produce
// a negative result returns an error instead of clamping.
type Quantity int64

// NewQuantity validates v >= 0.
func NewQuantity(v int64) (Quantity, error) {
	if v < 0 {
		return 0, fmt.Errorf("quantity cannot be negative, got %d", v)
	}
	return Quantity(v), nil
}

func (q Quantity) Add(other Quantity) Quantity {
	return q + other
}

// Sub returns q - other, failing if the result would be negative.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if other > q {
		return 0, fmt.Errorf("quantity underflow: %d - %d", q, other)
	}
	return q - other, nil
}

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) Int64() int64     { return int64(q) }

// Money is an exact-decimal currency amount. The embedded decimal keeps pgx
// scanning working; the named methods guard against negative results.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{d} }

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{d}, nil
}

func ZeroMoney() Money { return Money{decimal.Zero} }

func (m Money) AddAmount(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// SubAmount returns m - other, failing if the result would be negative.
func (m Money) SubAmount(other Money) (Money, error) {
	r := m.Decimal.Sub(other.Decimal)
	if r.IsNegative() {
		return Money{}, fmt.Errorf("money underflow: %s - %s", m.Decimal, other.Decimal)
	}
	return Money{r}, nil
}

// MulQuantity returns the line total for a unit price.
func (m Money) MulQuantity(q Quantity) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(int64(q)))}
}

func (m Money) EqualAmount(other Money) bool { return m.Decimal.Equal(other.Decimal) }
