package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMoneyJSONIsBareNumber(t *testing.T) {
	raw, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: MustMoney("150")})
	require.NoError(t, err)
	require.JSONEq(t, `{"total":150.00}`, string(raw))
}

func TestMoneyUnmarshalAcceptsQuotedAndBare(t *testing.T) {
	var bare, quoted Money
	require.NoError(t, json.Unmarshal([]byte(`49.999`), &bare))
	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &quoted))
	require.True(t, bare.Equal(MustMoney("50.00")))
	require.True(t, quoted.Equal(MustMoney("12.50")))
}

func TestMoneyArithmetic(t *testing.T) {
	price := MustMoney("19.99")
	require.True(t, price.Mul(3).Equal(MustMoney("59.97")))
	require.True(t, price.Add(MustMoney("0.01")).Equal(MustMoney("20")))
}

func TestCartScanNormalizesItems(t *testing.T) {
	var cart Cart
	require.NoError(t, cart.Scan([]byte(`{"totalAmount":0}`)))
	require.NotNil(t, cart.Items)
	require.Empty(t, cart.Items)

	require.NoError(t, cart.Scan(nil))
	require.NotNil(t, cart.Items)
}

func TestAddressListRoundTripThroughDriverValue(t *testing.T) {
	list := AddressList{{ID: "a1", Name: "Home", IsDefault: true}}
	value, err := list.Value()
	require.NoError(t, err)

	var decoded AddressList
	require.NoError(t, decoded.Scan(value))
	def, ok := decoded.Default()
	require.True(t, ok)
	require.Equal(t, "a1", def.ID)
}

func TestOrderPlacedAtFallbacks(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	placed := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	require.Equal(t, created, Order{CreatedAt: &created}.PlacedAt())
	require.Equal(t, placed, Order{StatusHistory: []StatusHistoryEntry{{Timestamp: placed}}}.PlacedAt())
	require.Equal(t, time.Unix(0, 0).UTC(), Order{}.PlacedAt())
}
