package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/cart"
	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/events"
	"github.com/quickbites/order-service/internal/pricing"
	"github.com/quickbites/order-service/internal/repository"
	"github.com/quickbites/order-service/internal/session"
)

type OrderService struct {
	orders   *repository.OrderRepository
	producer *events.Producer
	logger   *zap.Logger
}

func NewOrderService(orders *repository.OrderRepository, producer *events.Producer, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// OrderNumber derives the human-readable order number shown on receipts:
// date stamp plus the first six characters of the document id.
func OrderNumber(at time.Time, orderID string) string {
	short := orderID
	if len(short) > 6 {
		short = short[:6]
	}
	return at.UTC().Format("060102") + "-" + strings.ToUpper(short)
}

// Create freezes the aggregate into a pending order plus one item
// sub-document per line, written in a single atomic batch. The amounts
// are snapshots: later menu or cart changes do not touch the persisted
// order.
func (s *OrderService) Create(ctx context.Context, userID string, shop session.ShopSelection, agg *cart.Aggregate) (domain.Order, error) {
	if agg.IsEmpty() {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	lines := agg.Items()
	orderID := s.orders.NewID()
	order := domain.Order{
		ID:          orderID,
		OrderNumber: OrderNumber(time.Now(), orderID),
		UserID:      userID,
		ShopID:      shop.ShopID,
		ShopName:    shop.ShopName,
		ShopAddress: shop.ShopAddress,
		OrderType:   shop.OrderType,
		ItemCount:   agg.TotalItems(),
		Amount:      agg.TotalPrice(),
		Status:      domain.OrderStatusPending,
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, li := range lines {
		items = append(items, domain.OrderItem{
			MenuItemID:         li.MenuItemID,
			Name:               li.Name,
			UnitPrice:          pricing.UnitPrice(li),
			Quantity:           li.Quantity,
			ImageURL:           li.ImageURL,
			Customizations:     li.Customizations,
			IsRewardRedemption: li.IsRewardRedemption,
			RewardPointsCost:   li.RewardPointsCost,
			RedemptionID:       li.RedemptionID,
		})
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		s.logger.Error("Failed to persist order",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return domain.Order{}, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.Int64("amount", order.Amount))

	s.producer.PublishOrderCreated(order.ID, order.OrderNumber, userID, order.ShopID, order.Amount, order.ItemCount)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, userID, orderID string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, domain.ErrUnauthorized
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) Details(ctx context.Context, userID, orderID string) (domain.OrderDetailsResponse, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return domain.OrderDetailsResponse{}, err
	}
	items, err := s.orders.Items(ctx, orderID)
	if err != nil {
		return domain.OrderDetailsResponse{}, err
	}
	return domain.OrderDetailsResponse{Order: order, Items: items}, nil
}

// Reorder rebuilds a cart from a past order's purchasable lines. Reward
// lines are dropped (their redemptions are spent) and the response says
// how many, so the caller can tell the user.
func (s *OrderService) Reorder(ctx context.Context, userID, orderID string) (domain.ReorderResponse, error) {
	if _, err := s.Get(ctx, userID, orderID); err != nil {
		return domain.ReorderResponse{}, err
	}
	items, err := s.orders.Items(ctx, orderID)
	if err != nil {
		return domain.ReorderResponse{}, err
	}

	agg := cart.New()
	dropped := agg.Reorder(items)
	return domain.ReorderResponse{
		Items:        agg.Items(),
		DroppedLines: dropped,
	}, nil
}
