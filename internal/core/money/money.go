// Package money provides the fixed-point amount type used for expenses and budgets.
//
// Amounts carry exactly two fractional digits. They are parsed from JSON numbers
// or numeric strings and never pass through binary floating point on the way in.
package money

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every amount.
const Scale = 2

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a monetary value serialized as a JSON string ("12.50").
type Amount struct {
	decimal.Decimal
}

// Figure is a monetary value serialized as a bare JSON number (12.50).
// Dashboard totals and OCR results use it.
type Figure struct {
	decimal.Decimal
}

// Parse reads a decimal string such as "12.5" or "1e2" and rounds it to Scale.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{d.Round(Scale)}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d.Round(Scale)}
}

func Zero() Amount {
	return Amount{decimal.Zero}
}

// Sum adds amounts exactly.
func Sum(amounts ...Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Decimal)
	}
	return Amount{total}
}

func (a Amount) Plus(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

func (a Amount) Minus(b Amount) Amount {
	return Amount{a.Decimal.Sub(b.Decimal)}
}

// Figure returns the same value for number-style serialization.
func (a Amount) Figure() Figure {
	return Figure{a.Decimal}
}

func (a Amount) String() string {
	return a.Decimal.StringFixed(Scale)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts 12.5, "12.5" and "12.50". JSON null leaves the value untouched.
func (a *Amount) UnmarshalJSON(b []byte) error {
	d, ok, err := decodeJSON(b)
	if err != nil || !ok {
		return err
	}
	a.Decimal = d
	return nil
}

// Value stores the canonical two-digit string so every driver sees the same text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src interface{}) error {
	if err := a.Decimal.Scan(src); err != nil {
		return err
	}
	a.Decimal = a.Decimal.Round(Scale)
	return nil
}

func (f Figure) String() string {
	return f.Decimal.StringFixed(Scale)
}

func (f Figure) MarshalJSON() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Figure) UnmarshalJSON(b []byte) error {
	d, ok, err := decodeJSON(b)
	if err != nil || !ok {
		return err
	}
	f.Decimal = d
	return nil
}

// Amount converts back to the string-serialized form.
func (f Figure) Amount() Amount {
	return Amount{f.Decimal.Round(Scale)}
}

func decodeJSON(b []byte) (decimal.Decimal, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return decimal.Decimal{}, false, nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}
	parsed, err := Parse(raw)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	return parsed.Decimal, true, nil
}
