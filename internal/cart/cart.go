// Package cart holds the in-memory order aggregate mutated by the client
// before checkout. The aggregate is owned by a single session and its
// mutators are plain synchronous state transitions; nothing here touches
// the store.
package cart

import (
	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/pricing"
)

type Aggregate struct {
	items []domain.LineItem
}

func New() *Aggregate {
	return &Aggregate{}
}

// AddItem appends a purchasable line or merges it into an existing line
// with the same identity. Quantity must be at least 1 and the selections
// must be unique by (group, option); a repeated pair would price its
// surcharge twice.
func (a *Aggregate) AddItem(item domain.MenuItem, quantity int, selections []domain.Selection) error {
	if quantity < 1 {
		return domain.ValidationError("quantity must be at least 1")
	}
	for i, sel := range selections {
		for _, prev := range selections[:i] {
			if prev.GroupID == sel.GroupID && prev.OptionID == sel.OptionID {
				return domain.ValidationError("duplicate selection %q for %q", sel.OptionName, item.Name)
			}
		}
	}

	candidate := domain.LineItem{
		MenuItemID:     item.ID,
		Name:           item.Name,
		UnitBasePrice:  item.Price,
		Quantity:       quantity,
		ImageURL:       item.ImageURL,
		Customizations: selections,
	}

	for i := range a.items {
		if SameLine(a.items[i], candidate) {
			a.items[i].Quantity += quantity
			return nil
		}
	}
	a.items = append(a.items, candidate)
	return nil
}

// AddRedeemedItem appends a reward-redemption line. The line is free, its
// point cost is carried for display, and it merges only with a line for
// the exact same redemption.
func (a *Aggregate) AddRedeemedItem(item domain.MenuItem, quantity int, redemptionID string) error {
	if quantity < 1 {
		return domain.ValidationError("quantity must be at least 1")
	}
	if redemptionID == "" {
		return domain.ValidationError("redemption id is required")
	}

	candidate := domain.LineItem{
		MenuItemID:         item.ID,
		Name:               item.Name,
		UnitBasePrice:      0,
		Quantity:           quantity,
		ImageURL:           item.ImageURL,
		Customizations:     nil,
		IsRewardRedemption: true,
		RedemptionID:       redemptionID,
		RewardPointsCost:   item.PointsCost,
	}

	for i := range a.items {
		if SameLine(a.items[i], candidate) {
			a.items[i].Quantity += quantity
			return nil
		}
	}
	a.items = append(a.items, candidate)
	return nil
}

// RemoveItem deletes the matching line entirely. For reward lines the
// caller arranges the ledger refund first; removal itself is
// unconditional.
func (a *Aggregate) RemoveItem(menuItemID string, selections []domain.Selection, isRewardRedemption bool, redemptionID string) {
	target := domain.LineItem{
		MenuItemID:         menuItemID,
		Customizations:     selections,
		IsRewardRedemption: isRewardRedemption,
		RedemptionID:       redemptionID,
	}

	kept := a.items[:0]
	for _, li := range a.items {
		if !SameLine(li, target) {
			kept = append(kept, li)
		}
	}
	a.items = kept
}

// IncreaseQty bumps the quantity of a non-reward line by one. Reward
// lines are fixed-quantity and ignored.
func (a *Aggregate) IncreaseQty(menuItemID string, selections []domain.Selection) {
	for i := range a.items {
		li := &a.items[i]
		if li.MenuItemID == menuItemID && !li.IsRewardRedemption && selectionsEqual(li.Customizations, selections) {
			li.Quantity++
			return
		}
	}
}

// DecreaseQty lowers the quantity of a non-reward line by one, removing
// the line when it reaches zero. Reward lines are ignored.
func (a *Aggregate) DecreaseQty(menuItemID string, selections []domain.Selection) {
	for i := range a.items {
		li := &a.items[i]
		if li.MenuItemID == menuItemID && !li.IsRewardRedemption && selectionsEqual(li.Customizations, selections) {
			li.Quantity--
			if li.Quantity <= 0 {
				a.items = append(a.items[:i], a.items[i+1:]...)
			}
			return
		}
	}
}

// Clear empties the aggregate. Called after a completed checkout or an
// explicit cancel.
func (a *Aggregate) Clear() {
	a.items = nil
}

// Reorder replaces the aggregate with the purchasable lines of a past
// order. Reward lines are excluded, since their redemptions were consumed
// by the original order; the count of dropped lines is returned so the
// caller can tell the user.
func (a *Aggregate) Reorder(past []domain.OrderItem) int {
	var dropped int
	items := make([]domain.LineItem, 0, len(past))
	for _, it := range past {
		if it.IsRewardRedemption {
			dropped++
			continue
		}
		// Persisted snapshots store unit price with surcharges folded in;
		// subtract them back out so the rebuilt line prices the same way.
		base := it.UnitPrice
		for _, sel := range it.Customizations {
			base -= sel.Surcharge
		}
		items = append(items, domain.LineItem{
			MenuItemID:     it.MenuItemID,
			Name:           it.Name,
			UnitBasePrice:  base,
			Quantity:       it.Quantity,
			ImageURL:       it.ImageURL,
			Customizations: it.Customizations,
		})
	}
	a.items = items
	return dropped
}

// Items returns a copy of the current lines.
func (a *Aggregate) Items() []domain.LineItem {
	items := make([]domain.LineItem, len(a.items))
	copy(items, a.items)
	return items
}

func (a *Aggregate) IsEmpty() bool {
	return len(a.items) == 0
}

func (a *Aggregate) TotalItems() int {
	return pricing.TotalItems(a.items)
}

func (a *Aggregate) TotalPrice() int64 {
	return pricing.OrderTotal(a.items)
}

func (a *Aggregate) ChargeableSubtotal() int64 {
	return pricing.ChargeableSubtotal(a.items)
}

// ValidateRequired checks that every required customization group of
// every purchasable line has at least one selection. The catalog is keyed
// by menu item id. Checkout is rejected on the first offending group.
func (a *Aggregate) ValidateRequired(catalog map[string]domain.MenuItem) error {
	for _, li := range a.items {
		if li.IsRewardRedemption {
			continue
		}
		item, ok := catalog[li.MenuItemID]
		if !ok {
			return domain.ErrMenuItemNotFound
		}
		for _, group := range item.Customizations {
			if !group.Required {
				continue
			}
			if !hasSelectionForGroup(li.Customizations, group.ID) {
				return domain.ValidationError("%q requires a %q selection", item.Name, group.Name)
			}
		}
	}
	return nil
}

func hasSelectionForGroup(selections []domain.Selection, groupID string) bool {
	for _, sel := range selections {
		if sel.GroupID == groupID {
			return true
		}
	}
	return false
}
