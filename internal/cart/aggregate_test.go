package cart

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func seqIDs() IDFunc {
	n := 0
	return func(types.Cart, time.Time) string {
		n++
		return fmt.Sprintf("line-%d", n)
	}
}

func input(productID, price string, qty int) AddInput {
	p := types.MustMoney(price)
	return AddInput{ProductID: productID, Name: "Hinge " + productID, Price: &p, Quantity: qty}
}

func strPtr(s string) *string { return &s }

func expectedTotal(c types.Cart) types.Money {
	total := types.Money{}
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(item.Quantity))
	}
	return total
}

func TestAddDedupsByProductAndVariant(t *testing.T) {
	ids := seqIDs()
	c, err := Add(types.Cart{}, input("p1", "10.50", 1), ids, fixedNow)
	require.NoError(t, err)

	in := input("p1", "10.50", 2)
	c, err = Add(c, in, ids, fixedNow)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, 3, c.Items[0].Quantity)
	require.True(t, c.TotalAmount.Equal(types.MustMoney("31.50")))

	red := input("p1", "10.50", 1)
	red.Color = strPtr("red")
	c, err = Add(c, red, ids, fixedNow)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	require.NotNil(t, c.LastUpdated)
}

func TestAddTreatsEmptyVariantAsNull(t *testing.T) {
	ids := seqIDs()
	a := input("p1", "5", 1)
	a.Size = strPtr("")
	c, err := Add(types.Cart{}, a, ids, fixedNow)
	require.NoError(t, err)
	require.Nil(t, c.Items[0].Size)

	c, err = Add(c, input("p1", "5", 1), ids, fixedNow)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, 2, c.Items[0].Quantity)
}

func TestAddValidation(t *testing.T) {
	cases := map[string]AddInput{
		"missing product": {Name: "x", Price: func() *types.Money { m := types.MustMoney("1"); return &m }(), Quantity: 1},
		"missing price":   {ProductID: "p", Name: "x", Quantity: 1},
		"zero price":      {ProductID: "p", Name: "x", Price: &types.Money{}, Quantity: 1},
		"zero quantity":   input("p", "1", 0),
		"blank name":      {ProductID: "p", Name: "   ", Price: func() *types.Money { m := types.MustMoney("1"); return &m }(), Quantity: 1},
		"negative price":  input("p", "-3", 1),
		"negative qty":    input("p", "1", -2),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Add(types.Cart{}, in, seqIDs(), fixedNow)
			require.True(t, errors.IsCode(err, errors.CodeValidation))
			require.Equal(t, "Missing required fields", errors.As(err).Message())
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	c, _ := Add(types.Cart{}, input("p1", "2.25", 1), seqIDs(), fixedNow)

	c, err := UpdateQuantity(c, "line-1", 4, fixedNow)
	require.NoError(t, err)
	require.True(t, c.TotalAmount.Equal(types.MustMoney("9.00")))

	_, err = UpdateQuantity(c, "line-1", 0, fixedNow)
	require.Equal(t, "Invalid item ID or quantity", errors.As(err).Message())

	_, err = UpdateQuantity(c, "ghost", 2, fixedNow)
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
	require.Equal(t, "Item not found in cart", errors.As(err).Message())
}

func TestRemoveIsIdempotent(t *testing.T) {
	c, _ := Add(types.Cart{}, input("p1", "3", 2), seqIDs(), fixedNow)
	c = Remove(c, "line-1", fixedNow)
	require.Empty(t, c.Items)
	require.True(t, c.TotalAmount.IsZero())

	c = Remove(c, "line-1", fixedNow)
	require.Empty(t, c.Items)
}

func TestAddDoesNotAliasInput(t *testing.T) {
	c, _ := Add(types.Cart{}, input("p1", "3", 1), seqIDs(), fixedNow)
	before := c.Items[0].Quantity
	_, err := Add(c, input("p1", "3", 5), seqIDs(), fixedNow)
	require.NoError(t, err)
	require.Equal(t, before, c.Items[0].Quantity)
}

func TestTotalMatchesLinesAcrossRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prices := []string{"0.10", "19.99", "250.00", "3.33"}
	for run := 0; run < 40; run++ {
		ids := seqIDs()
		c := types.Cart{}
		for step := 0; step < 30; step++ {
			switch rng.Intn(4) {
			case 0, 1:
				in := input(fmt.Sprintf("p%d", rng.Intn(5)), prices[rng.Intn(len(prices))], 1+rng.Intn(3))
				if rng.Intn(2) == 0 {
					in.Color = strPtr("black")
				}
				next, err := Add(c, in, ids, fixedNow)
				require.NoError(t, err)
				c = next
			case 2:
				if len(c.Items) > 0 {
					next, err := UpdateQuantity(c, c.Items[rng.Intn(len(c.Items))].ID, 1+rng.Intn(6), fixedNow)
					require.NoError(t, err)
					c = next
				}
			case 3:
				if len(c.Items) > 0 {
					c = Remove(c, c.Items[rng.Intn(len(c.Items))].ID, fixedNow)
				}
			}
			require.Truef(t, c.TotalAmount.Equal(expectedTotal(c)), "run %d step %d: %s != %s", run, step, c.TotalAmount, expectedTotal(c))
		}
	}
}

func TestGuestItemIDsAreUniqueWithinCart(t *testing.T) {
	store := guestStore{}
	c := types.Cart{Items: []types.CartItem{{ID: fmt.Sprint(fixedNow.UnixMilli())}}}
	id := store.NewItemID(c, fixedNow)
	require.Equal(t, fmt.Sprint(fixedNow.UnixMilli()+1), id)
}
