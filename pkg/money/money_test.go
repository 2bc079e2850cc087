package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCentsJSON(t *testing.T) {
	payload, err := json.Marshal(map[string]Cents{"total": 2150})
	require.NoError(t, err)
	require.JSONEq(t, `{"total":21.5}`, string(payload))

	var decoded struct {
		Price Cents `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":10.005}`), &decoded))
	require.Equal(t, Cents(1001), decoded.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price":"1.50"}`), &decoded))
	require.Equal(t, Cents(150), decoded.Price)
}

func TestArithmetic(t *testing.T) {
	line, err := Cents(1000).Times(2)
	require.NoError(t, err)
	total, err := Sum(line, Cents(150))
	require.NoError(t, err)
	require.Equal(t, Cents(2150), total)
	require.Equal(t, "21.50", total.String())
	require.True(t, Cents(2150).Decimal().Equal(decimal.RequireFromString("21.5")))
	require.Equal(t, Cents(1099), FromFloat(10.99))
}

func TestFromStringInvalid(t *testing.T) {
	_, err := FromString("ten")
	require.Error(t, err)
}

func TestOverflow(t *testing.T) {
	_, err := Cents(1000).Times(math.MaxInt64 / 500)
	require.True(t, errors.Is(err, ErrOverflow))

	_, err = Cents(math.MaxInt64).Plus(1)
	require.True(t, errors.Is(err, ErrOverflow))

	_, err = Sum(Cents(math.MaxInt64-10), 5, 6)
	require.True(t, errors.Is(err, ErrOverflow))

	_, err = FromString("1e30")
	require.True(t, errors.Is(err, ErrOverflow))

	product, err := Cents(-3).Times(4)
	require.NoError(t, err)
	require.Equal(t, Cents(-12), product)
}
