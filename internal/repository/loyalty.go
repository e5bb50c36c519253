package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/store"
)

const (
	usersCollection       = "users"
	transactionsSub       = "pointTransactions"
	redemptionsCollection = "redemptions"
)

// LoyaltyRepository owns the points ledger: the denormalized balance on
// the user document, the pointTransactions sub-collection, redemption
// records and reward-stock adjustments. Every mutation couples the
// balance increment with its transaction record in one atomic batch, so
// the two can never drift.
type LoyaltyRepository struct {
	store store.Store
}

func NewLoyaltyRepository(s store.Store) *LoyaltyRepository {
	return &LoyaltyRepository{store: s}
}

func transactionsCollection(userID string) string {
	return fmt.Sprintf("%s/%s/%s", usersCollection, userID, transactionsSub)
}

// Balance reads the denormalized counter. A user with no document has no
// points. Summing transactions is a reconciliation check, not how reads
// work.
func (r *LoyaltyRepository) Balance(ctx context.Context, userID string) (int64, error) {
	doc, err := r.store.Get(ctx, usersCollection, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return fieldInt64(doc.Fields, "points"), nil
}

func (r *LoyaltyRepository) Transactions(ctx context.Context, userID string, limit int) ([]domain.PointTransaction, error) {
	docs, err := r.store.Query(ctx, transactionsCollection(userID), store.Query{
		OrderBy:    "created_at",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	txns := make([]domain.PointTransaction, 0, len(docs))
	for _, doc := range docs {
		txns = append(txns, decodeTransaction(userID, doc))
	}
	return txns, nil
}

// Award appends an earn transaction and increments the balance. The
// transaction id is derived from the order id and guarded by a
// must-not-exist condition, which is what makes the award idempotent per
// order: a duplicate attempt returns store.ErrAlreadyExists and changes
// nothing.
func (r *LoyaltyRepository) Award(ctx context.Context, userID, orderID string, points int64, description string, expiresAt time.Time) error {
	return r.store.RunBatch(ctx, []store.Op{
		{
			Kind:       store.OpCreate,
			Collection: transactionsCollection(userID),
			ID:         "earn-" + orderID,
			Fields: map[string]any{
				"type":        string(domain.TransactionEarn),
				"amount":      points,
				"description": description,
				"order_id":    orderID,
				"expires_at":  expiresAt,
				"created_at":  store.ServerTimestamp(),
			},
			Precondition: &store.Precondition{MustNotExist: true},
		},
		{
			Kind:       store.OpSet,
			Collection: usersCollection,
			ID:         userID,
			Fields: map[string]any{
				"points":             store.Increment(points),
				"last_points_update": store.ServerTimestamp(),
			},
		},
	})
}

// Redeem creates the redemption record, the redeem transaction, the
// balance decrement and (when stock is tracked) the stock decrement as
// one batch. The balance and stock guards run inside the batch, so a
// concurrent spend cannot take the balance negative.
func (r *LoyaltyRepository) Redeem(ctx context.Context, red domain.Redemption, trackStock bool, description string, expiresAt time.Time) error {
	ops := []store.Op{
		{
			Kind:       store.OpCreate,
			Collection: redemptionsCollection,
			ID:         red.ID,
			Fields: map[string]any{
				"user_id":      red.UserID,
				"item_id":      red.ItemID,
				"item_name":    red.ItemName,
				"points_cost":  red.PointsCost,
				"quantity":     int64(red.Quantity),
				"total_points": red.TotalPoints,
				"status":       string(domain.RedemptionPendingCollection),
				"created_at":   store.ServerTimestamp(),
			},
		},
		{
			Kind:       store.OpCreate,
			Collection: transactionsCollection(red.UserID),
			ID:         r.store.NewID(),
			Fields: map[string]any{
				"type":        string(domain.TransactionRedeem),
				"amount":      red.TotalPoints,
				"description": description,
				"expires_at":  expiresAt,
				"created_at":  store.ServerTimestamp(),
			},
		},
		{
			Kind:       store.OpSet,
			Collection: usersCollection,
			ID:         red.UserID,
			Fields: map[string]any{
				"points":             store.Increment(-red.TotalPoints),
				"last_points_update": store.ServerTimestamp(),
			},
			Precondition: &store.Precondition{
				FieldAtLeast: map[string]int64{"points": red.TotalPoints},
			},
		},
	}

	if trackStock {
		ops = append(ops, store.Op{
			Kind:       store.OpUpdate,
			Collection: menuCollection,
			ID:         red.ItemID,
			Fields: map[string]any{
				"reward_stock": store.Increment(-int64(red.Quantity)),
			},
			Precondition: &store.Precondition{
				FieldAtLeast: map[string]int64{"reward_stock": int64(red.Quantity)},
			},
		})
	}

	return r.store.RunBatch(ctx, ops)
}

// CancelRefund reverses a pending redemption: status flip, refunding earn
// transaction, balance increment, stock restoration. The status guard
// makes the cancel single-shot.
func (r *LoyaltyRepository) CancelRefund(ctx context.Context, red domain.Redemption, trackStock bool, description string, expiresAt time.Time) error {
	ops := []store.Op{
		{
			Kind:       store.OpUpdate,
			Collection: redemptionsCollection,
			ID:         red.ID,
			Fields: map[string]any{
				"status":       string(domain.RedemptionCancelled),
				"cancelled_at": store.ServerTimestamp(),
			},
			Precondition: &store.Precondition{
				FieldEquals: map[string]any{"status": string(domain.RedemptionPendingCollection)},
			},
		},
		{
			Kind:       store.OpCreate,
			Collection: transactionsCollection(red.UserID),
			ID:         r.store.NewID(),
			Fields: map[string]any{
				"type":        string(domain.TransactionEarn),
				"amount":      red.TotalPoints,
				"description": description,
				"expires_at":  expiresAt,
				"created_at":  store.ServerTimestamp(),
			},
		},
		{
			Kind:       store.OpSet,
			Collection: usersCollection,
			ID:         red.UserID,
			Fields: map[string]any{
				"points":             store.Increment(red.TotalPoints),
				"last_points_update": store.ServerTimestamp(),
			},
		},
	}

	if trackStock {
		ops = append(ops, store.Op{
			Kind:       store.OpUpdate,
			Collection: menuCollection,
			ID:         red.ItemID,
			Fields: map[string]any{
				"reward_stock": store.Increment(int64(red.Quantity)),
			},
		})
	}

	return r.store.RunBatch(ctx, ops)
}

func (r *LoyaltyRepository) GetRedemption(ctx context.Context, redemptionID string) (domain.Redemption, error) {
	doc, err := r.store.Get(ctx, redemptionsCollection, redemptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Redemption{}, domain.ErrRedemptionNotFound
		}
		return domain.Redemption{}, err
	}
	return decodeRedemption(doc), nil
}

func (r *LoyaltyRepository) RedemptionsByUser(ctx context.Context, userID string) ([]domain.Redemption, error) {
	docs, err := r.store.Query(ctx, redemptionsCollection, store.Query{
		Filters:    []store.Filter{{Field: "user_id", Op: store.OpEqual, Value: userID}},
		OrderBy:    "created_at",
		Descending: true,
	})
	if err != nil {
		return nil, err
	}
	reds := make([]domain.Redemption, 0, len(docs))
	for _, doc := range docs {
		reds = append(reds, decodeRedemption(doc))
	}
	return reds, nil
}

func (r *LoyaltyRepository) NewRedemptionID() string {
	return r.store.NewID()
}

// PutUser writes a user document. Used by seeding and the test suite;
// account creation itself belongs to the auth service.
func (r *LoyaltyRepository) PutUser(ctx context.Context, user domain.User) error {
	return r.store.Update(ctx, usersCollection, user.ID, map[string]any{
		"name":       user.Name,
		"email":      user.Email,
		"avatar":     user.Avatar,
		"points":     user.Points,
		"created_at": user.CreatedAt,
	}, true)
}

func decodeTransaction(userID string, doc store.Document) domain.PointTransaction {
	return domain.PointTransaction{
		ID:          doc.ID,
		UserID:      userID,
		Type:        domain.TransactionType(fieldString(doc.Fields, "type")),
		Amount:      fieldInt64(doc.Fields, "amount"),
		Description: fieldString(doc.Fields, "description"),
		OrderID:     fieldString(doc.Fields, "order_id"),
		ExpiresAt:   fieldTime(doc.Fields, "expires_at"),
		CreatedAt:   fieldTime(doc.Fields, "created_at"),
	}
}

func decodeRedemption(doc store.Document) domain.Redemption {
	return domain.Redemption{
		ID:          doc.ID,
		UserID:      fieldString(doc.Fields, "user_id"),
		ItemID:      fieldString(doc.Fields, "item_id"),
		ItemName:    fieldString(doc.Fields, "item_name"),
		PointsCost:  fieldInt64(doc.Fields, "points_cost"),
		Quantity:    fieldInt(doc.Fields, "quantity"),
		TotalPoints: fieldInt64(doc.Fields, "total_points"),
		Status:      domain.RedemptionStatus(fieldString(doc.Fields, "status")),
		CreatedAt:   fieldTime(doc.Fields, "created_at"),
		CancelledAt: fieldTimePtr(doc.Fields, "cancelled_at"),
	}
}
