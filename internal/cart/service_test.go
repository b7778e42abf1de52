package cart

import (
	"errors"
	"testing"

	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	lines, err := coalesce([]Line{
		{ProductID: 3, Quantity: 1},
		{ProductID: 1, Quantity: 2},
		{ProductID: 3, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{{ProductID: 3, Quantity: 5}, {ProductID: 1, Quantity: 2}}, lines)

	_, err = coalesce([]Line{{ProductID: 1, Quantity: 0}})
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = coalesce([]Line{{ProductID: 1, Quantity: 1 << 40}, {ProductID: 1, Quantity: 1 << 40}})
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = coalesce([]Line{{ProductID: 1, Quantity: 6000}, {ProductID: 1, Quantity: 6000}})
	assert.True(t, errors.Is(err, ErrInvalidQuantity), "summed quantity above the cap")

	lines, err = coalesce([]Line{{ProductID: 1, Quantity: MaxQuantity}})
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, lines[0].Quantity)

	lines, err = coalesce(nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestBuildItemsUsesCatalogPrices(t *testing.T) {
	products := map[int64]models.Product{
		1: {ID: 1, Name: "Mug", Price: decimal.RequireFromString("12.50")},
		2: {ID: 2, Name: "Tee", Price: decimal.RequireFromString("20.00")},
	}

	cart := &models.Cart{Items: buildItems([]Line{{ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: 2}}, products)}
	cart.Recalculate()

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "Tee", cart.Items[0].ProductName)
	assert.True(t, cart.Items[1].Subtotal.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("45.00")))
}

func TestEmptyCart(t *testing.T) {
	c := emptyCart(9)

	assert.Equal(t, int64(9), c.UserID)
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Items)
	assert.True(t, c.Total.IsZero())
}
