package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/store"
)

const (
	ordersCollection = "orders"
	orderItemsSub    = "orderItems"
)

type OrderRepository struct {
	store store.Store
}

func NewOrderRepository(s store.Store) *OrderRepository {
	return &OrderRepository{store: s}
}

func (r *OrderRepository) NewID() string {
	return r.store.NewID()
}

func itemsCollection(orderID string) string {
	return fmt.Sprintf("%s/%s/%s", ordersCollection, orderID, orderItemsSub)
}

// CreateWithItems persists the order document and one sub-document per
// line snapshot in a single atomic batch. Either the whole order lands or
// nothing does.
func (r *OrderRepository) CreateWithItems(ctx context.Context, order domain.Order, items []domain.OrderItem) error {
	ops := make([]store.Op, 0, len(items)+1)
	ops = append(ops, store.Op{
		Kind:       store.OpCreate,
		Collection: ordersCollection,
		ID:         order.ID,
		Fields: map[string]any{
			"user_id":      order.UserID,
			"order_number": order.OrderNumber,
			"shop_id":      order.ShopID,
			"shop_name":    order.ShopName,
			"shop_address": order.ShopAddress,
			"order_type":   string(order.OrderType),
			"item_count":   int64(order.ItemCount),
			"amount":       order.Amount,
			"status":       string(domain.OrderStatusPending),
			"created_at":   store.ServerTimestamp(),
		},
	})

	for _, item := range items {
		ops = append(ops, store.Op{
			Kind:       store.OpCreate,
			Collection: itemsCollection(order.ID),
			ID:         r.store.NewID(),
			Fields: map[string]any{
				"menu_item_id":         item.MenuItemID,
				"name":                 item.Name,
				"unit_price":           item.UnitPrice,
				"quantity":             int64(item.Quantity),
				"image_url":            item.ImageURL,
				"customizations":       encodeSelections(item.Customizations),
				"is_reward_redemption": item.IsRewardRedemption,
				"reward_points_cost":   item.RewardPointsCost,
				"redemption_id":        item.RedemptionID,
			},
		})
	}

	return r.store.RunBatch(ctx, ops)
}

// MarkPaid transitions the order from pending to paid. It reports whether
// this call performed the transition: a second caller, client or webhook,
// finds the precondition failed and gets applied=false with no error.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID, paymentIntentID string) (bool, error) {
	fields := map[string]any{
		"status":  string(domain.OrderStatusPaid),
		"paid_at": store.ServerTimestamp(),
	}
	if paymentIntentID != "" {
		fields["payment_intent_id"] = paymentIntentID
	}

	err := r.store.RunBatch(ctx, []store.Op{{
		Kind:       store.OpUpdate,
		Collection: ordersCollection,
		ID:         orderID,
		Fields:     fields,
		Precondition: &store.Precondition{
			FieldEquals: map[string]any{"status": string(domain.OrderStatusPending)},
		},
	}})
	if err != nil {
		if errors.Is(err, store.ErrPreconditionFailed) {
			return false, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			return false, domain.ErrOrderNotFound
		}
		return false, err
	}
	return true, nil
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.store.Get(ctx, ordersCollection, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return decodeOrder(doc), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	docs, err := r.store.Query(ctx, ordersCollection, store.Query{
		Filters:    []store.Filter{{Field: "user_id", Op: store.OpEqual, Value: userID}},
		OrderBy:    "created_at",
		Descending: true,
	})
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc))
	}
	return orders, nil
}

func (r *OrderRepository) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	docs, err := r.store.Query(ctx, itemsCollection(orderID), store.Query{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, domain.OrderItem{
			ID:                 doc.ID,
			MenuItemID:         fieldString(doc.Fields, "menu_item_id"),
			Name:               fieldString(doc.Fields, "name"),
			UnitPrice:          fieldInt64(doc.Fields, "unit_price"),
			Quantity:           fieldInt(doc.Fields, "quantity"),
			ImageURL:           fieldString(doc.Fields, "image_url"),
			Customizations:     decodeSelections(doc.Fields, "customizations"),
			IsRewardRedemption: fieldBool(doc.Fields, "is_reward_redemption"),
			RewardPointsCost:   fieldInt64(doc.Fields, "reward_points_cost"),
			RedemptionID:       fieldString(doc.Fields, "redemption_id"),
		})
	}
	return items, nil
}

func decodeOrder(doc store.Document) domain.Order {
	return domain.Order{
		ID:              doc.ID,
		OrderNumber:     fieldString(doc.Fields, "order_number"),
		UserID:          fieldString(doc.Fields, "user_id"),
		ShopID:          fieldString(doc.Fields, "shop_id"),
		ShopName:        fieldString(doc.Fields, "shop_name"),
		ShopAddress:     fieldString(doc.Fields, "shop_address"),
		OrderType:       domain.OrderType(fieldString(doc.Fields, "order_type")),
		ItemCount:       fieldInt(doc.Fields, "item_count"),
		Amount:          fieldInt64(doc.Fields, "amount"),
		Status:          domain.OrderStatus(fieldString(doc.Fields, "status")),
		PaymentIntentID: fieldString(doc.Fields, "payment_intent_id"),
		CreatedAt:       fieldTime(doc.Fields, "created_at"),
		PaidAt:          fieldTimePtr(doc.Fields, "paid_at"),
	}
}
