package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbites/order-service/internal/domain"
)

func TestShopSelection(t *testing.T) {
	assert.False(t, ShopSelection{}.Selected())
	assert.False(t, ShopSelection{ShopID: "shop-1"}.Selected())
	assert.True(t, ShopSelection{ShopID: "shop-1", OrderType: domain.OrderTypeDelivery}.Selected())
}

func TestResetClearsEverything(t *testing.T) {
	sess := New("user-1")
	sess.SetShop(ShopSelection{ShopID: "shop-1", OrderType: domain.OrderTypePickup})
	require.NoError(t, sess.Cart.AddItem(domain.MenuItem{ID: "burger", Name: "Burger", Price: 500}, 1, nil))

	sess.Reset()

	assert.Empty(t, sess.UserID)
	assert.False(t, sess.Shop.Selected())
	assert.True(t, sess.Cart.IsEmpty())
}

func TestClearShopKeepsCart(t *testing.T) {
	sess := New("user-1")
	sess.SetShop(ShopSelection{ShopID: "shop-1", OrderType: domain.OrderTypePickup})
	require.NoError(t, sess.Cart.AddItem(domain.MenuItem{ID: "burger", Name: "Burger", Price: 500}, 1, nil))

	sess.ClearShop()

	assert.False(t, sess.Shop.Selected())
	assert.False(t, sess.Cart.IsEmpty())
}
