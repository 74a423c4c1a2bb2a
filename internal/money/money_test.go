package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCast(t *testing.T) {
	tests := []struct {
		name string
		in   Quotation
		want string
	}{
		{"one and a half", Quotation{Units: 1, Nano: 500000000}, "1.5"},
		{"whole", Quotation{Units: 250}, "250"},
		{"fraction only", Quotation{Nano: 10000000}, "0.01"},
		{"negative", Quotation{Units: -3, Nano: -250000000}, "-3.25"},
		{"negative fraction", Quotation{Nano: -1}, "-0.000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cast(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCastRejectsInvalid(t *testing.T) {
	_, err := Cast(Quotation{Units: 1, Nano: 1_000_000_000})
	assert.ErrorIs(t, err, ErrInvalidMoney)

	_, err = Cast(Quotation{Units: 1, Nano: -5})
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestFromDecimal(t *testing.T) {
	q := FromDecimal(decimal.RequireFromString("123.456"))
	assert.Equal(t, Quotation{Units: 123, Nano: 456000000}, q)

	back, err := Cast(q)
	require.NoError(t, err)
	assert.Equal(t, "123.456", back.String())
}

func TestUnmarshalQuotedUnits(t *testing.T) {
	var m MoneyValue
	require.NoError(t, json.Unmarshal([]byte(`{"currency":"rub","units":"15230","nano":120000000}`), &m))
	assert.Equal(t, MoneyValue{Currency: "rub", Units: 15230, Nano: 120000000}, m)

	var q Quotation
	require.NoError(t, json.Unmarshal([]byte(`{"units":42,"nano":0}`), &q))
	assert.Equal(t, int64(42), q.Units)

	require.NoError(t, json.Unmarshal([]byte(`{"nano":5}`), &q))
	assert.Equal(t, Quotation{Nano: 5}, q)
}

func TestUnmarshalBadUnits(t *testing.T) {
	var q Quotation
	err := json.Unmarshal([]byte(`{"units":"abc"}`), &q)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestMarshalQuotation(t *testing.T) {
	b, err := json.Marshal(Quotation{Units: 7, Nano: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"units":"7","nano":1}`, string(b))
}
