// Package store defines the document-store contract the service is built
// on: collections and sub-collections addressed by slash-separated paths
// ("orders", "orders/<id>/orderItems"), server-assigned timestamps, field
// increments, and all-or-nothing batches with per-operation
// preconditions.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrAlreadyExists      = errors.New("document already exists")
)

// Document is a stored record. Field values are the plain Go types the
// implementation round-trips: string, int64, float64, bool, time.Time,
// []any and nested map[string]any.
type Document struct {
	ID     string
	Fields map[string]any
}

type FilterOp string

const (
	OpEqual          FilterOp = "=="
	OpGreaterOrEqual FilterOp = ">="
	OpLessOrEqual    FilterOp = "<="
	OpArrayContains  FilterOp = "array-contains"
)

type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

type OpKind int

const (
	// OpCreate inserts a new document; it fails the batch with
	// ErrAlreadyExists if the id is taken, whether or not the op also
	// carries a MustNotExist guard.
	OpCreate OpKind = iota
	// OpSet writes fields into a document, creating it if absent. Fields
	// not named are left alone (merge semantics).
	OpSet
	// OpUpdate writes fields into an existing document; it fails the
	// batch if the document is missing.
	OpUpdate
)

// Precondition guards a single batch operation. A failed precondition
// aborts the whole batch with ErrPreconditionFailed and no operation is
// applied.
type Precondition struct {
	MustNotExist bool
	FieldEquals  map[string]any
	// FieldAtLeast requires numeric fields to be >= the given value
	// after treating a missing field as zero. Used for balance and stock
	// guards.
	FieldAtLeast map[string]int64
}

type Op struct {
	Kind         OpKind
	Collection   string
	ID           string
	Fields       map[string]any
	Precondition *Precondition
}

// Store is the contract consumed by the repositories. Implementations
// must apply RunBatch atomically: either every operation takes effect or
// none does.
type Store interface {
	// Create writes a new document and returns its id. An empty id in
	// fields means the store assigns one.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update patches a document. With merge set, missing documents are
	// created; without it, ErrNotFound is returned.
	Update(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	RunBatch(ctx context.Context, ops []Op) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// NewID returns a fresh document id without writing anything. The
	// order workflow derives the human-readable order number from the id
	// before the document exists.
	NewID() string
}

// serverTimestamp and increment are sentinel field values resolved by the
// store at write time.
type serverTimestamp struct{}

type increment struct {
	Delta int64
}

// ServerTimestamp returns a sentinel replaced with the store's
// monotonically increasing write time.
func ServerTimestamp() any {
	return serverTimestamp{}
}

// Increment returns a sentinel that atomically adds delta to the current
// numeric value of the field (missing fields count as zero).
func Increment(delta int64) any {
	return increment{Delta: delta}
}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
// For use by Store implementations.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// IncrementDelta unwraps the Increment sentinel. For use by Store
// implementations.
func IncrementDelta(v any) (int64, bool) {
	inc, ok := v.(increment)
	if !ok {
		return 0, false
	}
	return inc.Delta, true
}
