package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places of the marketplace currency.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

// Money is a currency amount. It is deliberately a different type from Percent.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps a decimal amount
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d}
}

// MoneyFromInt creates a whole-unit amount
func MoneyFromInt(v int64) Money {
	return Money{amount: decimal.NewFromInt(v)}
}

// ParseMoney parses a decimal string such as "19.90"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: money %q", ErrInvalidArgument, s)
	}
	return Money{amount: d}, nil
}

// Decimal exposes the underlying amount
func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(o Money) Money { return Money{amount: m.amount.Add(o.amount)} }

func (m Money) Sub(o Money) Money { return Money{amount: m.amount.Sub(o.amount)} }

func (m Money) Equal(o Money) bool { return m.amount.Equal(o.amount) }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Rounded rounds to the currency minor unit, half away from zero
// (half-up for the non-negative amounts this package deals in).
func (m Money) Rounded() Money {
	return Money{amount: m.amount.Round(MinorUnits)}
}

// Portion returns p percent of m, rounded to the minor unit.
func (m Money) Portion(p Percent) Money {
	return Money{amount: m.amount.Mul(p.value).Div(hundred)}.Rounded()
}

func (m Money) String() string {
	return m.amount.StringFixed(MinorUnits)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.amount.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.amount.UnmarshalJSON(data)
}

// Scan implements sql.Scanner for NUMERIC columns
func (m *Money) Scan(value interface{}) error {
	return m.amount.Scan(value)
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.amount.Value()
}

// Percent is a percentage on the 0..100 scale, never a 0..1 fraction.
type Percent struct {
	value decimal.Decimal
}

// NewPercent wraps a decimal percentage
func NewPercent(d decimal.Decimal) Percent {
	return Percent{value: d}
}

// PercentFromInt creates a whole percentage
func PercentFromInt(v int64) Percent {
	return Percent{value: decimal.NewFromInt(v)}
}

// ParsePercent parses a decimal string such as "12.5"
func ParsePercent(s string) (Percent, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percent{}, fmt.Errorf("%w: percent %q", ErrInvalidArgument, s)
	}
	return Percent{value: d}, nil
}

func (p Percent) Decimal() decimal.Decimal { return p.value }

func (p Percent) IsZero() bool { return p.value.IsZero() }

func (p Percent) Equal(o Percent) bool { return p.value.Equal(o.value) }

// PercentPlaces is the precision percentages are stored with
const PercentPlaces = 2

// FitsStoredPrecision reports whether p has no more than PercentPlaces decimals
func (p Percent) FitsStoredPrecision() bool {
	return p.value.Equal(p.value.Round(PercentPlaces))
}

// Min returns the smaller of p and o
func (p Percent) Min(o Percent) Percent {
	if o.value.LessThan(p.value) {
		return o
	}
	return p
}

// Within reports whether lo <= p <= hi
func (p Percent) Within(lo, hi Percent) bool {
	return p.value.GreaterThanOrEqual(lo.value) && p.value.LessThanOrEqual(hi.value)
}

func (p Percent) String() string {
	return p.value.String()
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return p.value.MarshalJSON()
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	return p.value.UnmarshalJSON(data)
}

func (p *Percent) Scan(value interface{}) error {
	return p.value.Scan(value)
}

func (p Percent) Value() (driver.Value, error) {
	return p.value.Value()
}
