package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickbites/order-service/internal/domain"
)

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		item domain.LineItem
		want int64
	}{
		{
			name: "base price only",
			item: domain.LineItem{UnitBasePrice: 500, Quantity: 1},
			want: 500,
		},
		{
			name: "base plus surcharges",
			item: domain.LineItem{
				UnitBasePrice: 500,
				Quantity:      1,
				Customizations: []domain.Selection{
					{GroupID: "extras", OptionID: "cheese", Surcharge: 50},
					{GroupID: "size", OptionID: "large", Surcharge: 100},
				},
			},
			want: 650,
		},
		{
			name: "reward line is free regardless of base price",
			item: domain.LineItem{
				UnitBasePrice:      500,
				Quantity:           1,
				IsRewardRedemption: true,
				RedemptionID:       "red-1",
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitPrice(tt.item))
		})
	}
}

func TestOrderTotalScenarioA(t *testing.T) {
	// 2x burger at 500 with extra cheese (+50) per unit.
	items := []domain.LineItem{
		{
			MenuItemID:    "burger",
			UnitBasePrice: 500,
			Quantity:      2,
			Customizations: []domain.Selection{
				{GroupID: "extras", OptionID: "cheese", OptionName: "Extra Cheese", Surcharge: 50},
			},
		},
	}

	assert.Equal(t, int64(1100), OrderTotal(items))
	assert.Equal(t, 2, TotalItems(items))
}

func TestOrderTotalMixedLines(t *testing.T) {
	items := []domain.LineItem{
		{MenuItemID: "burger", UnitBasePrice: 500, Quantity: 2},
		{
			MenuItemID:    "fries",
			UnitBasePrice: 250,
			Quantity:      1,
			Customizations: []domain.Selection{
				{GroupID: "size", OptionID: "large", Surcharge: 80},
			},
		},
		{MenuItemID: "coffee", Quantity: 3, IsRewardRedemption: true, RedemptionID: "red-1", RewardPointsCost: 300},
	}

	assert.Equal(t, int64(1330), OrderTotal(items))
	assert.Equal(t, int64(1330), ChargeableSubtotal(items))
	assert.Equal(t, 6, TotalItems(items))
}

func TestChargeableSubtotalRewardOnly(t *testing.T) {
	items := []domain.LineItem{
		{MenuItemID: "coffee", Quantity: 1, IsRewardRedemption: true, RedemptionID: "red-1", RewardPointsCost: 300},
	}

	assert.Equal(t, int64(0), ChargeableSubtotal(items))
}

func TestPointsForPayment(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   int64
	}{
		{"one point per pence", 1250, 1250},
		{"zero amount", 0, 0},
		{"negative amount clamps to zero", -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointsForPayment(tt.amount))
		})
	}
}
