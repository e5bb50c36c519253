package events

import (
	"time"
)

const (
	TypeOrderCreated        = "order.created"
	TypeOrderPaid           = "order.paid"
	TypePointsEarned        = "loyalty.points_earned"
	TypeRedemptionCreated   = "loyalty.redemption_created"
	TypeRedemptionCancelled = "loyalty.redemption_cancelled"
)

type OrderCreatedEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	ShopID      string    `json:"shop_id"`
	Amount      int64     `json:"amount"`
	ItemCount   int       `json:"item_count"`
	Timestamp   time.Time `json:"timestamp"`
}

type OrderPaidEvent struct {
	EventID         string    `json:"event_id"`
	Type            string    `json:"type"`
	OrderID         string    `json:"order_id"`
	UserID          string    `json:"user_id"`
	Amount          int64     `json:"amount"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	Source          string    `json:"source"` // client or webhook
	Timestamp       time.Time `json:"timestamp"`
}

type PointsEarnedEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

type RedemptionEvent struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	RedemptionID string    `json:"redemption_id"`
	UserID       string    `json:"user_id"`
	ItemID       string    `json:"item_id"`
	Quantity     int       `json:"quantity"`
	TotalPoints  int64     `json:"total_points"`
	Timestamp    time.Time `json:"timestamp"`
}
