// Package money converts Tinkoff Invest API money representations to decimals.
//
// The API encodes money and prices as an integer part (units) and a
// fractional part in billionths (nano). Both parts carry the sign of the
// value, so -1.5 is units=-1, nano=-500000000.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const nanoPerUnit = 1_000_000_000

// ErrInvalidMoney is returned when a units/nano pair cannot represent a value.
var ErrInvalidMoney = errors.New("invalid money format")

var nanoScale = decimal.New(1, 9)

// Quotation is a price or quantity without currency.
type Quotation struct {
	Units int64 `json:"units"`
	Nano  int32 `json:"nano"`
}

// MoneyValue is a Quotation with an ISO currency code.
type MoneyValue struct {
	Currency string `json:"currency"`
	Units    int64  `json:"units"`
	Nano     int32  `json:"nano"`
}

// Quotation drops the currency.
func (m MoneyValue) Quotation() Quotation {
	return Quotation{Units: m.Units, Nano: m.Nano}
}

// Cast combines units and nano into a decimal.
//
//	Cast(Quotation{Units: 1, Nano: 500000000}) == 1.5
func Cast(q Quotation) (decimal.Decimal, error) {
	if q.Nano <= -nanoPerUnit || q.Nano >= nanoPerUnit {
		return decimal.Zero, fmt.Errorf("%w: nano %d out of range", ErrInvalidMoney, q.Nano)
	}
	if (q.Units > 0 && q.Nano < 0) || (q.Units < 0 && q.Nano > 0) {
		return decimal.Zero, fmt.Errorf("%w: units %d and nano %d differ in sign", ErrInvalidMoney, q.Units, q.Nano)
	}
	units := decimal.NewFromInt(q.Units)
	nano := decimal.NewFromInt32(q.Nano).Div(nanoScale)
	return units.Add(nano), nil
}

// CastMoney is Cast for a MoneyValue.
func CastMoney(m MoneyValue) (decimal.Decimal, error) {
	return Cast(m.Quotation())
}

// FromDecimal splits d into units and nano, truncating below one billionth.
func FromDecimal(d decimal.Decimal) Quotation {
	units := d.Truncate(0)
	frac := d.Sub(units).Mul(nanoScale).Truncate(0)
	return Quotation{Units: units.IntPart(), Nano: int32(frac.IntPart())}
}

// UnmarshalJSON accepts units encoded as a JSON string (proto3 int64 mapping)
// or as a plain number.
func (q *Quotation) UnmarshalJSON(b []byte) error {
	var raw struct {
		Units json.RawMessage `json:"units"`
		Nano  int32           `json:"nano"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	units, err := parseInt64(raw.Units)
	if err != nil {
		return fmt.Errorf("%w: units: %v", ErrInvalidMoney, err)
	}
	q.Units, q.Nano = units, raw.Nano
	return nil
}

// MarshalJSON writes units as a string, the way the gateway expects int64.
func (q Quotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Units string `json:"units"`
		Nano  int32  `json:"nano"`
	}{strconv.FormatInt(q.Units, 10), q.Nano})
}

func (m *MoneyValue) UnmarshalJSON(b []byte) error {
	var raw struct {
		Currency string          `json:"currency"`
		Units    json.RawMessage `json:"units"`
		Nano     int32           `json:"nano"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	units, err := parseInt64(raw.Units)
	if err != nil {
		return fmt.Errorf("%w: units: %v", ErrInvalidMoney, err)
	}
	m.Currency, m.Units, m.Nano = raw.Currency, units, raw.Nano
	return nil
}

// ParseInt64 decodes a proto3 int64 that may arrive quoted or bare.
// Absent (empty or null) values decode to zero.
func ParseInt64(raw json.RawMessage) (int64, error) {
	return parseInt64(raw)
}

func parseInt64(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
