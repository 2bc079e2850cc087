// Package money keeps currency amounts as integer minor units and renders them
// as decimal numbers on the JSON surface.
package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Cents is an amount of currency in minor units.
type Cents int64

// ErrOverflow reports an amount outside the int64 range of minor units.
var ErrOverflow = errors.New("money: amount out of range")

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal rounds a major-unit amount to the nearest cent.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

// FromString parses a major-unit amount such as "12.50".
func FromString(value string) (Cents, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if shifted := d.Shift(2).Round(0); shifted.GreaterThan(maxCents) || shifted.LessThan(minCents) {
		return 0, fmt.Errorf("invalid amount %q: %w", value, ErrOverflow)
	}
	return FromDecimal(d), nil
}

// FromFloat converts a major-unit float, as found in seed files.
func FromFloat(value float64) Cents {
	return FromDecimal(decimal.NewFromFloat(value))
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Times multiplies the amount by a quantity, failing with ErrOverflow when
// the product does not fit.
func (c Cents) Times(qty int) (Cents, error) {
	if c == 0 || qty == 0 {
		return 0, nil
	}
	product := c * Cents(qty)
	if product/Cents(qty) != c || (c == math.MinInt64 && qty == -1) {
		return 0, ErrOverflow
	}
	return product, nil
}

// Plus adds o, failing with ErrOverflow when the sum does not fit.
func (c Cents) Plus(o Cents) (Cents, error) {
	sum := c + o
	if (o > 0 && sum < c) || (o < 0 && sum > c) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// String renders the amount with two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// MarshalJSON renders the amount as a JSON number in major units.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in major units.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(raw) == 0 || string(raw) == "null" {
		*c = 0
		return nil
	}
	parsed, err := FromString(string(raw))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Sum adds amounts, failing with ErrOverflow when the total does not fit.
func Sum(amounts ...Cents) (Cents, error) {
	var total Cents
	for _, amount := range amounts {
		next, err := total.Plus(amount)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}
