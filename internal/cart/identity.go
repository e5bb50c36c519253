package cart

import (
	"sort"

	"github.com/quickbites/order-service/internal/domain"
)

// selectionsEqual compares customization selections as sets, keyed by
// option id. Order of selection does not matter.
func selectionsEqual(a, b []domain.Selection) bool {
	if len(a) != len(b) {
		return false
	}

	as := make([]domain.Selection, len(a))
	bs := make([]domain.Selection, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Slice(as, func(i, j int) bool { return as[i].OptionID < as[j].OptionID })
	sort.Slice(bs, func(i, j int) bool { return bs[i].OptionID < bs[j].OptionID })

	for i := range as {
		if as[i].OptionID != bs[i].OptionID {
			return false
		}
	}
	return true
}

// SameLine reports whether two candidate lines share an identity and may
// merge. Reward lines with different redemption ids never merge, even for
// the same menu item: each redemption is refunded independently.
func SameLine(a, b domain.LineItem) bool {
	return a.MenuItemID == b.MenuItemID &&
		a.IsRewardRedemption == b.IsRewardRedemption &&
		a.RedemptionID == b.RedemptionID &&
		selectionsEqual(a.Customizations, b.Customizations)
}
