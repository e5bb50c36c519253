package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/store"
)

const (
	menuCollection       = "menu"
	categoriesCollection = "categories"
	offersCollection     = "offers"
)

// MenuRepository reads the catalog. The only writes to menu documents are
// the reward-stock adjustments performed inside loyalty batches and the
// Put used by seeding.
type MenuRepository struct {
	store store.Store
}

func NewMenuRepository(s store.Store) *MenuRepository {
	return &MenuRepository{store: s}
}

func (r *MenuRepository) Get(ctx context.Context, itemID string) (domain.MenuItem, error) {
	doc, err := r.store.Get(ctx, menuCollection, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.MenuItem{}, domain.ErrMenuItemNotFound
		}
		return domain.MenuItem{}, err
	}
	return decodeMenuItem(doc), nil
}

// GetMany fetches the given menu items keyed by id. A missing id yields
// ErrMenuItemNotFound rather than a partial map.
func (r *MenuRepository) GetMany(ctx context.Context, itemIDs []string) (map[string]domain.MenuItem, error) {
	catalog := make(map[string]domain.MenuItem, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := catalog[id]; ok {
			continue
		}
		item, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		catalog[id] = item
	}
	return catalog, nil
}

type MenuQuery struct {
	CategoryID string
	Keyword    string
}

func (r *MenuRepository) List(ctx context.Context, q MenuQuery) ([]domain.MenuItem, error) {
	filters := []store.Filter{}
	if q.CategoryID != "" {
		filters = append(filters, store.Filter{Field: "category_ids", Op: store.OpArrayContains, Value: q.CategoryID})
	}
	if q.Keyword != "" {
		filters = append(filters, store.Filter{Field: "keywords", Op: store.OpArrayContains, Value: q.Keyword})
	}
	return r.query(ctx, store.Query{Filters: filters, OrderBy: "name"})
}

func (r *MenuRepository) Featured(ctx context.Context) ([]domain.MenuItem, error) {
	return r.query(ctx, store.Query{
		Filters: []store.Filter{{Field: "is_featured", Op: store.OpEqual, Value: true}},
		OrderBy: "name",
	})
}

// Redeemables lists available reward items, cheapest first.
func (r *MenuRepository) Redeemables(ctx context.Context) ([]domain.MenuItem, error) {
	return r.query(ctx, store.Query{
		Filters: []store.Filter{
			{Field: "is_available", Op: store.OpEqual, Value: true},
			{Field: "is_redeemable", Op: store.OpEqual, Value: true},
		},
		OrderBy: "points_cost",
	})
}

// Categories lists the browsing categories in display order.
func (r *MenuRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	docs, err := r.store.Query(ctx, categoriesCollection, store.Query{OrderBy: "sort_order"})
	if err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		cats = append(cats, domain.Category{
			ID:          doc.ID,
			Name:        fieldString(doc.Fields, "name"),
			Description: fieldString(doc.Fields, "description"),
			ImageURL:    fieldString(doc.Fields, "image_url"),
			SortOrder:   fieldInt(doc.Fields, "sort_order"),
		})
	}
	return cats, nil
}

// Offers lists the promotions whose active window contains now.
func (r *MenuRepository) Offers(ctx context.Context, now time.Time) ([]domain.Offer, error) {
	docs, err := r.store.Query(ctx, offersCollection, store.Query{
		Filters: []store.Filter{
			{Field: "is_active", Op: store.OpEqual, Value: true},
			{Field: "starts_at", Op: store.OpLessOrEqual, Value: now},
			{Field: "ends_at", Op: store.OpGreaterOrEqual, Value: now},
		},
		OrderBy: "starts_at",
	})
	if err != nil {
		return nil, err
	}
	offers := make([]domain.Offer, 0, len(docs))
	for _, doc := range docs {
		offers = append(offers, domain.Offer{
			ID:          doc.ID,
			Title:       fieldString(doc.Fields, "title"),
			Description: fieldString(doc.Fields, "description"),
			ImageURL:    fieldString(doc.Fields, "image_url"),
			IsActive:    fieldBool(doc.Fields, "is_active"),
			StartsAt:    fieldTime(doc.Fields, "starts_at"),
			EndsAt:      fieldTime(doc.Fields, "ends_at"),
		})
	}
	return offers, nil
}

// Put writes a full catalog entry. Used by seeding and the test suite.
func (r *MenuRepository) Put(ctx context.Context, item domain.MenuItem) error {
	return r.store.Update(ctx, menuCollection, item.ID, encodeMenuItem(item), true)
}

// PutCategory and PutOffer write catalog documents. Seeding and tests.
func (r *MenuRepository) PutCategory(ctx context.Context, cat domain.Category) error {
	return r.store.Update(ctx, categoriesCollection, cat.ID, map[string]any{
		"name":        cat.Name,
		"description": cat.Description,
		"image_url":   cat.ImageURL,
		"sort_order":  int64(cat.SortOrder),
	}, true)
}

func (r *MenuRepository) PutOffer(ctx context.Context, offer domain.Offer) error {
	return r.store.Update(ctx, offersCollection, offer.ID, map[string]any{
		"title":       offer.Title,
		"description": offer.Description,
		"image_url":   offer.ImageURL,
		"is_active":   offer.IsActive,
		"starts_at":   offer.StartsAt,
		"ends_at":     offer.EndsAt,
	}, true)
}

func (r *MenuRepository) query(ctx context.Context, q store.Query) ([]domain.MenuItem, error) {
	docs, err := r.store.Query(ctx, menuCollection, q)
	if err != nil {
		return nil, err
	}
	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeMenuItem(doc))
	}
	return items, nil
}

func encodeMenuItem(item domain.MenuItem) map[string]any {
	groups := make([]map[string]any, 0, len(item.Customizations))
	for _, g := range item.Customizations {
		options := make([]map[string]any, 0, len(g.Options))
		for _, o := range g.Options {
			options = append(options, map[string]any{
				"id":        o.ID,
				"name":      o.Name,
				"surcharge": o.Surcharge,
			})
		}
		groups = append(groups, map[string]any{
			"id":       g.ID,
			"name":     g.Name,
			"type":     string(g.Type),
			"required": g.Required,
			"options":  options,
		})
	}

	fields := map[string]any{
		"name":           item.Name,
		"description":    item.Description,
		"price":          item.Price,
		"image_url":      item.ImageURL,
		"type":           item.Type,
		"calories":       int64(item.Calories),
		"rating":         item.Rating,
		"category_ids":   item.CategoryIDs,
		"keywords":       item.Keywords,
		"is_available":   item.IsAvailable,
		"is_featured":    item.IsFeatured,
		"is_redeemable":  item.IsRedeemable,
		"points_cost":    item.PointsCost,
		"customizations": groups,
	}
	if item.RewardStock != nil {
		fields["reward_stock"] = *item.RewardStock
	}
	return fields
}

func decodeMenuItem(doc store.Document) domain.MenuItem {
	item := domain.MenuItem{
		ID:           doc.ID,
		Name:         fieldString(doc.Fields, "name"),
		Description:  fieldString(doc.Fields, "description"),
		Price:        fieldInt64(doc.Fields, "price"),
		ImageURL:     fieldString(doc.Fields, "image_url"),
		Type:         fieldString(doc.Fields, "type"),
		Calories:     fieldInt(doc.Fields, "calories"),
		CategoryIDs:  fieldStringSlice(doc.Fields, "category_ids"),
		Keywords:     fieldStringSlice(doc.Fields, "keywords"),
		IsAvailable:  fieldBool(doc.Fields, "is_available"),
		IsFeatured:   fieldBool(doc.Fields, "is_featured"),
		IsRedeemable: fieldBool(doc.Fields, "is_redeemable"),
		PointsCost:   fieldInt64(doc.Fields, "points_cost"),
	}
	if rating, ok := doc.Fields["rating"].(float64); ok {
		item.Rating = rating
	}
	if _, ok := doc.Fields["reward_stock"]; ok {
		stock := fieldInt64(doc.Fields, "reward_stock")
		item.RewardStock = &stock
	}
	for _, g := range fieldMaps(doc.Fields, "customizations") {
		group := domain.CustomizationGroup{
			ID:       fieldString(g, "id"),
			Name:     fieldString(g, "name"),
			Type:     domain.SelectionType(fieldString(g, "type")),
			Required: fieldBool(g, "required"),
		}
		for _, o := range fieldMaps(g, "options") {
			group.Options = append(group.Options, domain.CustomizationOption{
				ID:        fieldString(o, "id"),
				Name:      fieldString(o, "name"),
				Surcharge: fieldInt64(o, "surcharge"),
			})
		}
		item.Customizations = append(item.Customizations, group)
	}
	return item
}
