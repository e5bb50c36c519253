package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/events"
	"github.com/quickbites/order-service/internal/pricing"
	"github.com/quickbites/order-service/internal/repository"
	"github.com/quickbites/order-service/internal/store"
)

const defaultTransactionLimit = 50

type LoyaltyService struct {
	loyalty  *repository.LoyaltyRepository
	menu     *repository.MenuRepository
	producer *events.Producer
	logger   *zap.Logger
	now      func() time.Time
}

func NewLoyaltyService(loyalty *repository.LoyaltyRepository, menu *repository.MenuRepository, producer *events.Producer, logger *zap.Logger) *LoyaltyService {
	return &LoyaltyService{
		loyalty:  loyalty,
		menu:     menu,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// Points earned on an order expire one year after the award.
func (s *LoyaltyService) pointsExpiry() time.Time {
	return s.now().UTC().AddDate(1, 0, 0)
}

// AwardOnOrder credits points for a paid order, one point per minor
// currency unit actually charged. The award is idempotent per order: the
// ledger rejects a duplicate earn transaction and the duplicate is
// reported as zero points with no error, so webhook and client
// confirmation can both attempt it safely.
func (s *LoyaltyService) AwardOnOrder(ctx context.Context, userID, orderID string, amountPaid int64) (int64, error) {
	points := pricing.PointsForPayment(amountPaid)
	if points <= 0 {
		return 0, nil
	}

	description := fmt.Sprintf("Earned on order %s", orderID)
	err := s.loyalty.Award(ctx, userID, orderID, points, description, s.pointsExpiry())
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			s.logger.Debug("Points already awarded for order",
				zap.String("order_id", orderID),
				zap.String("user_id", userID))
			return 0, nil
		}
		return 0, err
	}

	s.logger.Info("Points awarded",
		zap.String("user_id", userID),
		zap.String("order_id", orderID),
		zap.Int64("points", points))

	s.producer.PublishPointsEarned(userID, orderID, points)
	return points, nil
}

func (s *LoyaltyService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.loyalty.Balance(ctx, userID)
}

func (s *LoyaltyService) Transactions(ctx context.Context, userID string, limit int) ([]domain.PointTransaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	return s.loyalty.Transactions(ctx, userID, limit)
}

func (s *LoyaltyService) Redemptions(ctx context.Context, userID string) ([]domain.Redemption, error) {
	return s.loyalty.RedemptionsByUser(ctx, userID)
}

func (s *LoyaltyService) RedeemableItems(ctx context.Context) ([]domain.MenuItem, error) {
	return s.menu.Redeemables(ctx)
}

// RedeemItem spends points on a reward item and leaves a redemption in
// pending_collection. The pre-reads give friendly errors for the common
// cases; the store batch re-checks balance and stock atomically, so a
// race never produces a negative balance or oversold stock.
func (s *LoyaltyService) RedeemItem(ctx context.Context, userID, itemID string, quantity int) (domain.Redemption, error) {
	if quantity < 1 {
		return domain.Redemption{}, domain.ValidationError("quantity must be at least 1, got %d", quantity)
	}

	item, err := s.menu.Get(ctx, itemID)
	if err != nil {
		return domain.Redemption{}, err
	}
	if !item.IsAvailable {
		return domain.Redemption{}, domain.ErrItemUnavailable
	}
	if !item.IsRedeemable || item.PointsCost <= 0 {
		return domain.Redemption{}, domain.ErrItemNotRedeemable
	}

	totalPoints := item.PointsCost * int64(quantity)
	balance, err := s.loyalty.Balance(ctx, userID)
	if err != nil {
		return domain.Redemption{}, err
	}
	if balance < totalPoints {
		return domain.Redemption{}, domain.ErrInsufficientPoints
	}

	trackStock := item.RewardStock != nil
	if trackStock && *item.RewardStock < int64(quantity) {
		return domain.Redemption{}, domain.ErrInsufficientStock
	}

	red := domain.Redemption{
		ID:          s.loyalty.NewRedemptionID(),
		UserID:      userID,
		ItemID:      item.ID,
		ItemName:    item.Name,
		PointsCost:  item.PointsCost,
		Quantity:    quantity,
		TotalPoints: totalPoints,
		Status:      domain.RedemptionPendingCollection,
	}

	description := fmt.Sprintf("Redeemed %dx %s", quantity, item.Name)
	if err := s.loyalty.Redeem(ctx, red, trackStock, description, s.pointsExpiry()); err != nil {
		if errors.Is(err, store.ErrPreconditionFailed) {
			// Lost a race between the pre-read and the batch.
			fresh, berr := s.loyalty.Balance(ctx, userID)
			if berr == nil && fresh < totalPoints {
				return domain.Redemption{}, domain.ErrInsufficientPoints
			}
			return domain.Redemption{}, domain.ErrInsufficientStock
		}
		return domain.Redemption{}, err
	}

	s.logger.Info("Item redeemed",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
		zap.String("redemption_id", red.ID),
		zap.Int64("total_points", totalPoints))

	s.producer.PublishRedemption(events.TypeRedemptionCreated, red.ID, userID, itemID, quantity, totalPoints)
	return red, nil
}

// CancelRedemption refunds a pending redemption: points come back as a
// fresh earn transaction and tracked stock is restored. Only the owner
// may cancel, and only from pending_collection.
func (s *LoyaltyService) CancelRedemption(ctx context.Context, userID, redemptionID string) error {
	red, err := s.loyalty.GetRedemption(ctx, redemptionID)
	if err != nil {
		return err
	}
	if red.UserID != userID {
		return domain.ErrUnauthorized
	}
	if red.Status != domain.RedemptionPendingCollection {
		return domain.ErrInvalidRedemptionState
	}

	trackStock := false
	if item, err := s.menu.Get(ctx, red.ItemID); err == nil {
		trackStock = item.RewardStock != nil
	}

	description := fmt.Sprintf("Refund for cancelled redemption: %s", red.ItemName)
	if err := s.loyalty.CancelRefund(ctx, red, trackStock, description, s.pointsExpiry()); err != nil {
		if errors.Is(err, store.ErrPreconditionFailed) {
			return domain.ErrInvalidRedemptionState
		}
		return err
	}

	s.logger.Info("Redemption cancelled",
		zap.String("user_id", userID),
		zap.String("redemption_id", redemptionID),
		zap.Int64("refunded_points", red.TotalPoints))

	s.producer.PublishRedemption(events.TypeRedemptionCancelled, red.ID, userID, red.ItemID, red.Quantity, red.TotalPoints)
	return nil
}

// Redemption returns a single redemption, owner-checked. Used by the
// checkout flow to validate reward cart lines.
func (s *LoyaltyService) Redemption(ctx context.Context, userID, redemptionID string) (domain.Redemption, error) {
	red, err := s.loyalty.GetRedemption(ctx, redemptionID)
	if err != nil {
		return domain.Redemption{}, err
	}
	if red.UserID != userID {
		return domain.Redemption{}, domain.ErrUnauthorized
	}
	return red, nil
}

// ReconcileBalance compares the denormalized counter against the signed
// sum of unexpired ledger entries. A mismatch means a bug or manual
// intervention, not something to auto-correct here.
func (s *LoyaltyService) ReconcileBalance(ctx context.Context, userID string) (stored, computed int64, err error) {
	stored, err = s.loyalty.Balance(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	txns, err := s.loyalty.Transactions(ctx, userID, 0)
	if err != nil {
		return 0, 0, err
	}
	now := s.now()
	for _, txn := range txns {
		if txn.Type == domain.TransactionEarn && !txn.ExpiresAt.IsZero() && txn.ExpiresAt.Before(now) {
			continue
		}
		computed += txn.Signed()
	}

	if stored != computed {
		s.logger.Warn("Points balance mismatch",
			zap.String("user_id", userID),
			zap.Int64("stored", stored),
			zap.Int64("computed", computed))
	}
	return stored, computed, nil
}
