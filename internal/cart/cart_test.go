package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbites/order-service/internal/domain"
)

var (
	burger = domain.MenuItem{
		ID:    "burger",
		Name:  "Burger",
		Price: 500,
		Customizations: []domain.CustomizationGroup{
			{
				ID:       "extras",
				Name:     "Extras",
				Type:     domain.SelectionMultiple,
				Required: false,
				Options: []domain.CustomizationOption{
					{ID: "cheese", Name: "Extra Cheese", Surcharge: 50},
				},
			},
		},
	}
	coffee = domain.MenuItem{
		ID:           "coffee",
		Name:         "Flat White",
		Price:        300,
		IsRedeemable: true,
		PointsCost:   300,
	}

	cheese = domain.Selection{GroupID: "extras", OptionID: "cheese", OptionName: "Extra Cheese", Surcharge: 50}
	large  = domain.Selection{GroupID: "size", OptionID: "large", OptionName: "Large", Surcharge: 100}
)

func TestAddItemMergesIdenticalLines(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{cheese}))
	require.NoError(t, a.AddItem(burger, 2, []domain.Selection{cheese}))
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{cheese}))

	items := a.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, 4, a.TotalItems())
}

func TestAddItemSelectionOrderIndependent(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{cheese, large}))
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{large, cheese}))

	require.Len(t, a.Items(), 1)
	assert.Equal(t, 2, a.Items()[0].Quantity)
}

func TestAddItemDifferentSelectionsStayDistinct(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{cheese}))
	require.NoError(t, a.AddItem(burger, 1, nil))

	assert.Len(t, a.Items(), 2)
}

func TestAddItemRejectsDuplicateSelections(t *testing.T) {
	a := New()
	err := a.AddItem(burger, 1, []domain.Selection{cheese, cheese})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, a.IsEmpty())

	// Distinct options in the same group are fine.
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{cheese, large}))
	assert.Equal(t, int64(650), a.TotalPrice())
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	a := New()
	err := a.AddItem(burger, 0, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, a.IsEmpty())
}

func TestRedeemedLinesNeverMergeAcrossRedemptions(t *testing.T) {
	a := New()
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-1"))
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-2"))

	items := a.Items()
	require.Len(t, items, 2)
	for _, li := range items {
		assert.True(t, li.IsRewardRedemption)
		assert.Equal(t, int64(0), li.UnitBasePrice)
		assert.Equal(t, int64(300), li.RewardPointsCost)
	}
}

func TestRedeemedLineMergesSameRedemption(t *testing.T) {
	a := New()
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-1"))
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-1"))

	require.Len(t, a.Items(), 1)
	assert.Equal(t, 2, a.Items()[0].Quantity)
}

func TestRedeemedLineContributesNothingToTotal(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 1, nil))
	require.NoError(t, a.AddRedeemedItem(coffee, 2, "red-1"))

	assert.Equal(t, int64(500), a.TotalPrice())
	assert.Equal(t, int64(500), a.ChargeableSubtotal())
	assert.Equal(t, 3, a.TotalItems())
}

func TestQuantityMutatorsIgnoreRewardLines(t *testing.T) {
	a := New()
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-1"))

	a.IncreaseQty("coffee", nil)
	a.DecreaseQty("coffee", nil)

	require.Len(t, a.Items(), 1)
	assert.Equal(t, 1, a.Items()[0].Quantity)
}

func TestDecreaseQtyRemovesLineAtZero(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 1, nil))

	a.DecreaseQty("burger", nil)
	assert.True(t, a.IsEmpty())
}

func TestRemoveItemMatchesFullIdentity(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 1, []domain.Selection{cheese}))
	require.NoError(t, a.AddItem(burger, 1, nil))

	a.RemoveItem("burger", []domain.Selection{cheese}, false, "")

	items := a.Items()
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Customizations)
}

func TestRemoveRedeemedLineLeavesOtherRedemptions(t *testing.T) {
	a := New()
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-1"))
	require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-2"))

	a.RemoveItem("coffee", nil, true, "red-1")

	items := a.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "red-2", items[0].RedemptionID)
}

func TestReorderDropsRewardLines(t *testing.T) {
	a := New()
	past := []domain.OrderItem{
		{MenuItemID: "burger", Name: "Burger", UnitPrice: 550, Quantity: 2,
			Customizations: []domain.Selection{cheese}},
		{MenuItemID: "fries", Name: "Fries", UnitPrice: 250, Quantity: 1},
		{MenuItemID: "coffee", Name: "Flat White", UnitPrice: 0, Quantity: 1,
			IsRewardRedemption: true, RedemptionID: "red-1", RewardPointsCost: 300},
	}

	dropped := a.Reorder(past)

	assert.Equal(t, 1, dropped)
	items := a.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "burger", items[0].MenuItemID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, []domain.Selection{cheese}, items[0].Customizations)
	// Unit price with surcharge folded out: line reprices identically.
	assert.Equal(t, int64(500), items[0].UnitBasePrice)
	assert.Equal(t, int64(1350), a.TotalPrice())
}

func TestValidateRequired(t *testing.T) {
	sizedDrink := domain.MenuItem{
		ID:    "latte",
		Name:  "Latte",
		Price: 320,
		Customizations: []domain.CustomizationGroup{
			{
				ID:       "size",
				Name:     "Size",
				Type:     domain.SelectionSingle,
				Required: true,
				Options: []domain.CustomizationOption{
					{ID: "small", Name: "Small"},
					{ID: "large", Name: "Large", Surcharge: 60},
				},
			},
		},
	}
	catalog := map[string]domain.MenuItem{
		"latte":  sizedDrink,
		"burger": burger,
		"coffee": coffee,
	}

	t.Run("missing required group rejected", func(t *testing.T) {
		a := New()
		require.NoError(t, a.AddItem(sizedDrink, 1, nil))

		err := a.ValidateRequired(catalog)
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "Size")
	})

	t.Run("satisfied required group passes", func(t *testing.T) {
		a := New()
		require.NoError(t, a.AddItem(sizedDrink, 1, []domain.Selection{
			{GroupID: "size", OptionID: "large", OptionName: "Large", Surcharge: 60},
		}))
		assert.NoError(t, a.ValidateRequired(catalog))
	})

	t.Run("reward lines skip customization checks", func(t *testing.T) {
		a := New()
		require.NoError(t, a.AddRedeemedItem(coffee, 1, "red-1"))
		assert.NoError(t, a.ValidateRequired(catalog))
	})
}

func TestClear(t *testing.T) {
	a := New()
	require.NoError(t, a.AddItem(burger, 2, nil))
	a.Clear()
	assert.True(t, a.IsEmpty())
	assert.Equal(t, int64(0), a.TotalPrice())
}
