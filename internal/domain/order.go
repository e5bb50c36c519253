package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// Order is the persisted record created at checkout. Amount and ItemCount
// are snapshots taken at creation; only Status, PaidAt and
// PaymentIntentID change afterwards.
type Order struct {
	ID              string      `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          string      `json:"user_id"`
	ShopID          string      `json:"shop_id"`
	ShopName        string      `json:"shop_name"`
	ShopAddress     string      `json:"shop_address"`
	OrderType       OrderType   `json:"order_type"`
	ItemCount       int         `json:"item_count"`
	Amount          int64       `json:"amount"` // minor currency units
	Status          OrderStatus `json:"status"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`
}

// OrderItem is an immutable snapshot of one order line, stored in the
// orderItems sub-collection of its order.
type OrderItem struct {
	ID                 string      `json:"id"`
	MenuItemID         string      `json:"menu_item_id"`
	Name               string      `json:"name"`
	UnitPrice          int64       `json:"unit_price"` // base plus surcharges
	Quantity           int         `json:"quantity"`
	ImageURL           string      `json:"image_url,omitempty"`
	Customizations     []Selection `json:"customizations"`
	IsRewardRedemption bool        `json:"is_reward_redemption"`
	RewardPointsCost   int64       `json:"reward_points_cost,omitempty"`
	RedemptionID       string      `json:"redemption_id,omitempty"`
}

// LineItem is one row of an order-in-progress, before checkout.
type LineItem struct {
	MenuItemID         string      `json:"menu_item_id"`
	Name               string      `json:"name"`
	UnitBasePrice      int64       `json:"unit_base_price"`
	Quantity           int         `json:"quantity"`
	ImageURL           string      `json:"image_url,omitempty"`
	Customizations     []Selection `json:"customizations"`
	IsRewardRedemption bool        `json:"is_reward_redemption"`
	RedemptionID       string      `json:"redemption_id,omitempty"`
	RewardPointsCost   int64       `json:"reward_points_cost,omitempty"`
}

// Selection is one chosen customization option, unique per line by
// (GroupID, OptionID).
type Selection struct {
	GroupID    string `json:"group_id"`
	OptionID   string `json:"option_id"`
	OptionName string `json:"option_name"`
	Surcharge  int64  `json:"surcharge"`
}
