package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value read from or written to a record document.
// Valid is false when the source value was missing, null or unparseable;
// such amounts count as zero.
type Amount struct {
	decimal.Decimal
	Valid bool
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d, Valid: true}
}

// AmountFromString parses s, returning an invalid (zero) amount on failure.
func AmountFromString(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// OrZero returns the decimal, zero when the amount is not valid.
func (a Amount) OrZero() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Decimal
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else leaves the
// amount invalid instead of failing the whole document.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return nil
	}
	*a = NewAmount(d)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(json.Number(a.Decimal.String()))
}
