package domain

import (
	"time"
)

type TransactionType string

const (
	TransactionEarn   TransactionType = "earn"
	TransactionRedeem TransactionType = "redeem"
)

// PointTransaction is one ledger entry. The signed sum of a user's
// non-expired transactions equals the denormalized balance on the user
// document; the two are always written in the same atomic batch.
type PointTransaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"` // points, always positive
	Description string          `json:"description"`
	OrderID     string          `json:"order_id,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Signed returns the transaction's contribution to the balance.
func (t PointTransaction) Signed() int64 {
	if t.Type == TransactionRedeem {
		return -t.Amount
	}
	return t.Amount
}

type RedemptionStatus string

const (
	RedemptionPendingCollection RedemptionStatus = "pending_collection"
	RedemptionCollected         RedemptionStatus = "collected"
	RedemptionCancelled         RedemptionStatus = "cancelled"
)

// Redemption records one reward claim. Only pending_collection
// redemptions may be cancelled; collected is terminal.
type Redemption struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ItemID      string           `json:"item_id"`
	ItemName    string           `json:"item_name"`
	PointsCost  int64            `json:"points_cost"`
	Quantity    int              `json:"quantity"`
	TotalPoints int64            `json:"total_points"`
	Status      RedemptionStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
}

type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Avatar           string    `json:"avatar,omitempty"`
	Points           int64     `json:"points"`
	CreatedAt        time.Time `json:"created_at"`
	LastPointsUpdate time.Time `json:"last_points_update,omitempty"`
}
