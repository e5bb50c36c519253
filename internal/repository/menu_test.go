package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbites/order-service/internal/domain"
	"github.com/quickbites/order-service/internal/store/memory"
)

func TestCategoriesOrderedForDisplay(t *testing.T) {
	repo := NewMenuRepository(memory.New())
	ctx := context.Background()

	require.NoError(t, repo.PutCategory(ctx, domain.Category{ID: "sides", Name: "Sides", SortOrder: 2}))
	require.NoError(t, repo.PutCategory(ctx, domain.Category{ID: "mains", Name: "Mains", SortOrder: 1}))
	require.NoError(t, repo.PutCategory(ctx, domain.Category{ID: "drinks", Name: "Drinks", SortOrder: 3}))

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Mains", cats[0].Name)
	assert.Equal(t, "Sides", cats[1].Name)
	assert.Equal(t, "Drinks", cats[2].Name)
}

func TestOffersFiltersByActiveWindow(t *testing.T) {
	repo := NewMenuRepository(memory.New())
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.PutOffer(ctx, domain.Offer{
		ID: "live", Title: "Summer Deal", IsActive: true,
		StartsAt: now.Add(-24 * time.Hour), EndsAt: now.Add(24 * time.Hour),
	}))
	require.NoError(t, repo.PutOffer(ctx, domain.Offer{
		ID: "expired", Title: "Spring Deal", IsActive: true,
		StartsAt: now.Add(-48 * time.Hour), EndsAt: now.Add(-24 * time.Hour),
	}))
	require.NoError(t, repo.PutOffer(ctx, domain.Offer{
		ID: "upcoming", Title: "Autumn Deal", IsActive: true,
		StartsAt: now.Add(24 * time.Hour), EndsAt: now.Add(48 * time.Hour),
	}))
	require.NoError(t, repo.PutOffer(ctx, domain.Offer{
		ID: "disabled", Title: "Paused Deal", IsActive: false,
		StartsAt: now.Add(-24 * time.Hour), EndsAt: now.Add(24 * time.Hour),
	}))

	offers, err := repo.Offers(ctx, now)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Summer Deal", offers[0].Title)
}

func TestMenuListFilters(t *testing.T) {
	repo := NewMenuRepository(memory.New())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, domain.MenuItem{
		ID: "burger", Name: "Burger", Price: 500, IsAvailable: true,
		CategoryIDs: []string{"mains"}, Keywords: []string{"beef"},
	}))
	require.NoError(t, repo.Put(ctx, domain.MenuItem{
		ID: "fries", Name: "Fries", Price: 250, IsAvailable: true,
		CategoryIDs: []string{"sides"}, Keywords: []string{"potato"},
	}))

	byCategory, err := repo.List(ctx, MenuQuery{CategoryID: "mains"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Burger", byCategory[0].Name)

	byKeyword, err := repo.List(ctx, MenuQuery{Keyword: "potato"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Fries", byKeyword[0].Name)

	all, err := repo.List(ctx, MenuQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
