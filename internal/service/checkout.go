package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quickbites/order-service/internal/cart"
	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/events"
	"github.com/quickbites/order-service/internal/payment"
	"github.com/quickbites/order-service/internal/repository"
	"github.com/quickbites/order-service/internal/session"
)

// CheckoutState tracks progress through the checkout flow. The flow only
// ever moves forward; a failure leaves the persisted order pending so
// the user can retry payment against the same order.
type CheckoutState string

const (
	StateStart          CheckoutState = "start"
	StateOrderPersisted CheckoutState = "order_persisted"
	StateIntentReady    CheckoutState = "intent_ready"
	StateDone           CheckoutState = "done"
	StateFailed         CheckoutState = "failed"
)

// CheckoutResult is what a checkout attempt produced so far. On
// StateIntentReady the ClientSecret is handed to the payment sheet; on
// StateDone the order is paid; on StateFailed the order (if persisted)
// is still pending.
type CheckoutResult struct {
	State        CheckoutState
	Order        domain.Order
	AmountDue    int64
	ClientSecret string
}

type CheckoutService struct {
	orders   *OrderService
	loyalty  *LoyaltyService
	menu     *repository.MenuRepository
	gateway  payment.Gateway
	producer *events.Producer
	logger   *zap.Logger
	currency string
}

func NewCheckoutService(orders *OrderService, loyalty *LoyaltyService, menu *repository.MenuRepository, gateway payment.Gateway, producer *events.Producer, currency string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		loyalty:  loyalty,
		menu:     menu,
		gateway:  gateway,
		producer: producer,
		logger:   logger,
		currency: currency,
	}
}

// BuildAggregate turns request lines into a cart aggregate, resolving
// every price and surcharge from the catalog. Reward lines must reference
// a pending redemption owned by the user. The returned catalog covers
// every referenced menu item and is reused for validation and for the
// authoritative charge amount.
func (s *CheckoutService) BuildAggregate(ctx context.Context, userID string, lines []domain.LineItemRequest) (*cart.Aggregate, map[string]domain.MenuItem, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}
	catalog, err := s.menu.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	agg := cart.New()
	for _, line := range lines {
		item := catalog[line.MenuItemID]
		if !item.IsAvailable {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrItemUnavailable, item.Name)
		}

		if line.IsRewardRedemption {
			if line.RedemptionID == "" {
				return nil, nil, domain.ValidationError("reward line for %q is missing a redemption id", item.Name)
			}
			red, err := s.loyalty.Redemption(ctx, userID, line.RedemptionID)
			if err != nil {
				return nil, nil, err
			}
			if red.Status != domain.RedemptionPendingCollection {
				return nil, nil, domain.ErrInvalidRedemptionState
			}
			if red.ItemID != item.ID {
				return nil, nil, domain.ValidationError("redemption %s is not for item %q", red.ID, item.Name)
			}
			if err := agg.AddRedeemedItem(item, line.Quantity, line.RedemptionID); err != nil {
				return nil, nil, err
			}
			continue
		}

		selections, err := resolveSelections(item, line.Customizations)
		if err != nil {
			return nil, nil, err
		}
		if err := agg.AddItem(item, line.Quantity, selections); err != nil {
			return nil, nil, err
		}
	}

	return agg, catalog, nil
}

// resolveSelections maps requested group/option ids onto catalog options.
// Names and surcharges always come from the catalog, never the request.
// Selections are a set keyed by (group, option): a repeated pair is
// rejected rather than silently double-charging its surcharge, and a
// single-select group takes at most one option.
func resolveSelections(item domain.MenuItem, reqs []domain.SelectionRequest) ([]domain.Selection, error) {
	type selectionKey struct{ groupID, optionID string }
	seen := make(map[selectionKey]bool, len(reqs))
	perGroup := make(map[string]int, len(reqs))

	selections := make([]domain.Selection, 0, len(reqs))
	for _, req := range reqs {
		group, ok := item.Group(req.GroupID)
		if !ok {
			return nil, domain.ValidationError("%q has no customization group %q", item.Name, req.GroupID)
		}
		option, ok := group.Option(req.OptionID)
		if !ok {
			return nil, domain.ValidationError("group %q of %q has no option %q", group.Name, item.Name, req.OptionID)
		}

		key := selectionKey{group.ID, option.ID}
		if seen[key] {
			return nil, domain.ValidationError("duplicate selection of %q in group %q of %q", option.Name, group.Name, item.Name)
		}
		seen[key] = true

		perGroup[group.ID]++
		if group.Type == domain.SelectionSingle && perGroup[group.ID] > 1 {
			return nil, domain.ValidationError("group %q of %q takes a single selection", group.Name, item.Name)
		}

		selections = append(selections, domain.Selection{
			GroupID:    group.ID,
			OptionID:   option.ID,
			OptionName: option.Name,
			Surcharge:  option.Surcharge,
		})
	}
	return selections, nil
}

// authoritativeAmount recomputes the chargeable subtotal from catalog
// prices. Reward lines are free. This is the only amount that ever
// reaches the gateway.
func authoritativeAmount(lines []domain.LineItem, catalog map[string]domain.MenuItem) (int64, error) {
	var total int64
	for _, li := range lines {
		if li.IsRewardRedemption {
			continue
		}
		item, ok := catalog[li.MenuItemID]
		if !ok {
			return 0, domain.ErrMenuItemNotFound
		}
		unit := item.Price
		for _, sel := range li.Customizations {
			group, ok := item.Group(sel.GroupID)
			if !ok {
				return 0, domain.ValidationError("%q has no customization group %q", item.Name, sel.GroupID)
			}
			option, ok := group.Option(sel.OptionID)
			if !ok {
				return 0, domain.ValidationError("group %q of %q has no option %q", group.Name, item.Name, sel.OptionID)
			}
			unit += option.Surcharge
		}
		total += unit * int64(li.Quantity)
	}
	return total, nil
}

// Begin runs the server half of the checkout: validate, persist the
// pending order, and either complete immediately (fully-redeemed orders
// charge nothing and skip the gateway) or create a payment intent for
// the client to confirm.
func (s *CheckoutService) Begin(ctx context.Context, userID string, shop session.ShopSelection, agg *cart.Aggregate, catalog map[string]domain.MenuItem) (*CheckoutResult, error) {
	if userID == "" {
		return &CheckoutResult{State: StateStart}, domain.ErrAuthRequired
	}
	if !shop.Selected() {
		return &CheckoutResult{State: StateStart}, domain.ErrShopNotSelected
	}
	if agg.IsEmpty() {
		return &CheckoutResult{State: StateStart}, domain.ErrEmptyOrder
	}
	if err := agg.ValidateRequired(catalog); err != nil {
		return &CheckoutResult{State: StateStart}, err
	}

	amount, err := authoritativeAmount(agg.Items(), catalog)
	if err != nil {
		return &CheckoutResult{State: StateStart}, err
	}

	order, err := s.orders.Create(ctx, userID, shop, agg)
	if err != nil {
		return &CheckoutResult{State: StateStart}, err
	}

	if amount == 0 {
		paid, err := s.ConfirmPaid(ctx, order.ID, "", "client")
		if err != nil {
			return &CheckoutResult{State: StateFailed, Order: order}, err
		}
		return &CheckoutResult{State: StateDone, Order: paid}, nil
	}

	intent, err := s.gateway.CreateIntent(ctx, order.ID, amount, s.currency)
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return &CheckoutResult{State: StateFailed, Order: order, AmountDue: amount},
			fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	return &CheckoutResult{
		State:        StateIntentReady,
		Order:        order,
		AmountDue:    amount,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// Run drives a full checkout for an embedded session: build, persist,
// pay through the confirmer, confirm. The cart is cleared only when the
// flow reaches done; any failure before that keeps the cart intact and
// the order, if persisted, pending.
func (s *CheckoutService) Run(ctx context.Context, sess *session.Session, confirmer payment.Confirmer) (*CheckoutResult, error) {
	lines := sess.Cart.Items()
	ids := make([]string, 0, len(lines))
	for _, li := range lines {
		ids = append(ids, li.MenuItemID)
	}
	catalog, err := s.menu.GetMany(ctx, ids)
	if err != nil {
		return &CheckoutResult{State: StateStart}, err
	}

	res, err := s.Begin(ctx, sess.UserID, sess.Shop, sess.Cart, catalog)
	if err != nil {
		return res, err
	}
	if res.State == StateDone {
		sess.Cart.Clear()
		return res, nil
	}

	if err := confirmer.Confirm(ctx, res.ClientSecret); err != nil {
		s.logger.Warn("Payment confirmation failed",
			zap.String("order_id", res.Order.ID),
			zap.Error(err))
		res.State = StateFailed
		return res, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	paid, err := s.ConfirmPaid(ctx, res.Order.ID, "", "client")
	if err != nil {
		res.State = StateFailed
		return res, err
	}

	res.State = StateDone
	res.Order = paid
	res.ClientSecret = ""
	sess.Cart.Clear()
	return res, nil
}

// ConfirmPaid is the single pending-to-paid path, shared by the client
// confirmation and the webhook. The transition is idempotent: whichever
// caller lands second finds the order already paid and changes nothing,
// and the loyalty award is guarded per order on top of that.
func (s *CheckoutService) ConfirmPaid(ctx context.Context, orderID, paymentIntentID, source string) (domain.Order, error) {
	order, err := s.orders.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	applied, err := s.orders.orders.MarkPaid(ctx, orderID, paymentIntentID)
	if err != nil {
		return domain.Order{}, err
	}

	if applied {
		s.logger.Info("Order paid",
			zap.String("order_id", orderID),
			zap.String("source", source))

		// Best-effort: a failed award never fails the payment flow. The
		// idempotent ledger lets the other confirmation path retry it.
		if _, err := s.loyalty.AwardOnOrder(ctx, order.UserID, orderID, order.Amount); err != nil {
			s.logger.Error("Failed to award points for paid order",
				zap.String("order_id", orderID),
				zap.Error(err))
		}

		s.producer.PublishOrderPaid(orderID, order.UserID, paymentIntentID, source, order.Amount)
	} else {
		s.logger.Debug("Order already paid, confirmation ignored",
			zap.String("order_id", orderID),
			zap.String("source", source))
	}

	return s.orders.orders.Get(ctx, orderID)
}

// HandlePaymentEvent applies a verified webhook event. Only
// payment_intent.succeeded matters; other event types are acknowledged
// and dropped. Delivery is at least once, which the idempotent
// transition absorbs.
func (s *CheckoutService) HandlePaymentEvent(ctx context.Context, event *payment.Event) error {
	if event.Type != payment.EventPaymentSucceeded {
		return nil
	}

	orderID := event.OrderID()
	if orderID == "" {
		s.logger.Warn("Payment event without order metadata",
			zap.String("event_id", event.ID))
		return nil
	}

	_, err := s.ConfirmPaid(ctx, orderID, event.Data.Object.ID, "webhook")
	return err
}
