package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"

	"github.com/quickbites/order-service/internal/store"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		id         string
		wantPK     string
		wantSK     string
		wantErr    bool
	}{
		{
			name:       "top-level collection",
			collection: "orders",
			id:         "order-1",
			wantPK:     "orders#order-1",
			wantSK:     "METADATA",
		},
		{
			name:       "sub-collection under parent",
			collection: "orders/order-1/orderItems",
			id:         "item-1",
			wantPK:     "orders#order-1",
			wantSK:     "orderItems#item-1",
		},
		{
			name:       "malformed path",
			collection: "orders/order-1",
			id:         "x",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, sk, err := keys(tt.collection, tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantPK, pk)
			assert.Equal(t, tt.wantSK, sk)
		})
	}
}

func TestCanceledErrorSentinels(t *testing.T) {
	failed := types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
	passed := types.CancellationReason{Code: aws.String("None")}

	t.Run("guarded create reports already exists", func(t *testing.T) {
		// The duplicate-award guard: a create with a must-not-exist
		// precondition. Both backends must agree on the sentinel here.
		err := canceledError(
			[]types.CancellationReason{failed, passed},
			[]store.Op{
				{
					Kind:         store.OpCreate,
					Collection:   "users/user-1/pointTransactions",
					ID:           "earn-order-1",
					Precondition: &store.Precondition{MustNotExist: true},
				},
				{Kind: store.OpSet, Collection: "users", ID: "user-1"},
			},
		)
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("bare create reports already exists", func(t *testing.T) {
		err := canceledError(
			[]types.CancellationReason{failed},
			[]store.Op{{Kind: store.OpCreate, Collection: "orders", ID: "order-1"}},
		)
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("failed update guard reports precondition failure", func(t *testing.T) {
		err := canceledError(
			[]types.CancellationReason{failed},
			[]store.Op{{
				Kind:       store.OpUpdate,
				Collection: "orders",
				ID:         "order-1",
				Precondition: &store.Precondition{
					FieldEquals: map[string]any{"status": "pending"},
				},
			}},
		)
		assert.ErrorIs(t, err, store.ErrPreconditionFailed)
	})

	t.Run("no reported reason still fails the batch", func(t *testing.T) {
		err := canceledError(nil, []store.Op{{Kind: store.OpSet, Collection: "users", ID: "user-1"}})
		assert.ErrorIs(t, err, store.ErrPreconditionFailed)
	})
}
