package domain

import (
	"time"
)

// SelectionRequest carries only the identifiers of a chosen option. Names
// and surcharges are resolved from the catalog server-side; client-supplied
// prices are never trusted.
type SelectionRequest struct {
	GroupID  string `json:"group_id" binding:"required"`
	OptionID string `json:"option_id" binding:"required"`
}

type LineItemRequest struct {
	MenuItemID         string             `json:"menu_item_id" binding:"required"`
	Quantity           int                `json:"quantity" binding:"required,min=1"`
	Customizations     []SelectionRequest `json:"customizations"`
	IsRewardRedemption bool               `json:"is_reward_redemption"`
	RedemptionID       string             `json:"redemption_id,omitempty"`
}

type CheckoutRequest struct {
	ShopID      string            `json:"shop_id" binding:"required"`
	ShopName    string            `json:"shop_name"`
	ShopAddress string            `json:"shop_address"`
	OrderType   OrderType         `json:"order_type" binding:"required,oneof=delivery pickup"`
	Items       []LineItemRequest `json:"items" binding:"required,min=1"`
}

type CheckoutResponse struct {
	OrderID      string      `json:"order_id"`
	OrderNumber  string      `json:"order_number"`
	Status       OrderStatus `json:"status"`
	AmountDue    int64       `json:"amount_due"`
	ClientSecret string      `json:"client_secret,omitempty"`
}

type RedeemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type RedeemResponse struct {
	RedemptionID string `json:"redemption_id"`
}

type BalanceResponse struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

type OrderDetailsResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

type ReorderResponse struct {
	Items        []LineItem `json:"items"`
	DroppedLines int        `json:"dropped_lines"`
}

type TransactionsResponse struct {
	Transactions []PointTransaction `json:"transactions"`
	AsOf         time.Time          `json:"as_of"`
}
