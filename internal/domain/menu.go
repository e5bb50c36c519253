package domain

import (
	"time"
)

// Category is a browsing bucket for menu items, shown in display order.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// Offer is a promotional banner, visible while active and inside its
// start/end window.
type Offer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// SelectionType says how many options of a customization group may be
// chosen at once.
type SelectionType string

const (
	SelectionSingle   SelectionType = "single"
	SelectionMultiple SelectionType = "multiple"
)

type CustomizationOption struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Surcharge int64  `json:"surcharge"` // minor currency units
}

type CustomizationGroup struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Type     SelectionType         `json:"type"`
	Required bool                  `json:"required"`
	Options  []CustomizationOption `json:"options"`
}

// Option looks up an option of the group by id.
func (g CustomizationGroup) Option(optionID string) (CustomizationOption, bool) {
	for _, o := range g.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return CustomizationOption{}, false
}

// MenuItem is a catalog entry. RewardStock is nil when stock is not
// tracked for the item.
type MenuItem struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Price          int64                `json:"price"` // minor currency units
	ImageURL       string               `json:"image_url,omitempty"`
	Type           string               `json:"type"`
	Calories       int                  `json:"calories"`
	Rating         float64              `json:"rating"`
	CategoryIDs    []string             `json:"category_ids"`
	Keywords       []string             `json:"keywords"`
	IsAvailable    bool                 `json:"is_available"`
	IsFeatured     bool                 `json:"is_featured"`
	IsRedeemable   bool                 `json:"is_redeemable"`
	PointsCost     int64                `json:"points_cost,omitempty"`
	RewardStock    *int64               `json:"reward_stock,omitempty"`
	Customizations []CustomizationGroup `json:"customizations,omitempty"`
}

// Group looks up a customization group of the item by id.
func (m MenuItem) Group(groupID string) (CustomizationGroup, bool) {
	for _, g := range m.Customizations {
		if g.ID == groupID {
			return g, true
		}
	}
	return CustomizationGroup{}, false
}
