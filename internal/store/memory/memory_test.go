package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbites/order-service/internal/store"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Create(ctx, "orders", map[string]any{
		"status": "pending",
		"amount": int64(1100),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, "orders", id)
	require.NoError(t, err)
	assert.Equal(t, "pending", doc.Fields["status"])
	assert.Equal(t, int64(1100), doc.Fields["amount"])

	_, err = s.Get(ctx, "orders", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestServerTimestampIsMonotonic(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.Create(ctx, "orders", map[string]any{"created_at": store.ServerTimestamp()})
	require.NoError(t, err)
	second, err := s.Create(ctx, "orders", map[string]any{"created_at": store.ServerTimestamp()})
	require.NoError(t, err)

	a, _ := s.Get(ctx, "orders", first)
	b, _ := s.Get(ctx, "orders", second)
	ta := a.Fields["created_at"].(time.Time)
	tb := b.Fields["created_at"].(time.Time)
	assert.True(t, tb.After(ta))
}

func TestUpdateMergeAndStrict(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Update(ctx, "users", "u1", map[string]any{"points": int64(10)}, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"points": int64(10)}, true))
	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"name": "Sam"}, true))

	doc, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc.Fields["points"])
	assert.Equal(t, "Sam", doc.Fields["name"])
}

func TestIncrement(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"points": store.Increment(500)}, true))
	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"points": store.Increment(-200)}, true))

	doc, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), doc.Fields["points"])
}

func TestBatchIsAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"points": int64(100)}, true))

	// Second op fails its balance guard, so the first op must not apply.
	err := s.RunBatch(ctx, []store.Op{
		{
			Kind:       store.OpCreate,
			Collection: "users/u1/pointTransactions",
			ID:         "txn-1",
			Fields:     map[string]any{"type": "redeem", "amount": int64(500)},
		},
		{
			Kind:       store.OpSet,
			Collection: "users",
			ID:         "u1",
			Fields:     map[string]any{"points": store.Increment(-500)},
			Precondition: &store.Precondition{
				FieldAtLeast: map[string]int64{"points": 500},
			},
		},
	})
	require.ErrorIs(t, err, store.ErrPreconditionFailed)

	_, err = s.Get(ctx, "users/u1/pointTransactions", "txn-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	doc, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), doc.Fields["points"])
}

func TestBatchPreconditions(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "orders", "o1", map[string]any{"status": "pending"}, true))

	transition := func() error {
		return s.RunBatch(ctx, []store.Op{{
			Kind:       store.OpUpdate,
			Collection: "orders",
			ID:         "o1",
			Fields:     map[string]any{"status": "paid"},
			Precondition: &store.Precondition{
				FieldEquals: map[string]any{"status": "pending"},
			},
		}})
	}

	require.NoError(t, transition())
	assert.ErrorIs(t, transition(), store.ErrPreconditionFailed)

	err := s.RunBatch(ctx, []store.Op{{
		Kind:         store.OpCreate,
		Collection:   "orders",
		ID:           "o1",
		Fields:       map[string]any{},
		Precondition: &store.Precondition{MustNotExist: true},
	}})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestQueryFiltersOrderAndLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []struct {
		id     string
		user   string
		amount int64
		at     time.Time
	}{
		{"o1", "u1", 500, base},
		{"o2", "u1", 900, base.Add(time.Hour)},
		{"o3", "u2", 700, base.Add(2 * time.Hour)},
		{"o4", "u1", 100, base.Add(3 * time.Hour)},
	}
	for _, r := range rows {
		require.NoError(t, s.Update(ctx, "orders", r.id, map[string]any{
			"user_id":    r.user,
			"amount":     r.amount,
			"created_at": r.at,
		}, true))
	}

	docs, err := s.Query(ctx, "orders", store.Query{
		Filters:    []store.Filter{{Field: "user_id", Op: store.OpEqual, Value: "u1"}},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "o4", docs[0].ID)
	assert.Equal(t, "o2", docs[1].ID)
}

func TestQueryArrayContains(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "menu", "m1", map[string]any{
		"category_ids": []string{"drinks", "hot"},
	}, true))
	require.NoError(t, s.Update(ctx, "menu", "m2", map[string]any{
		"category_ids": []string{"food"},
	}, true))

	docs, err := s.Query(ctx, "menu", store.Query{
		Filters: []store.Filter{{Field: "category_ids", Op: store.OpArrayContains, Value: "drinks"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "m1", docs[0].ID)
}
