// Package memory is an in-process implementation of the store contract,
// used by the test suite and for local runs without AWS credentials.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/order-service/internal/store"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	// now is swappable so tests can pin write timestamps.
	now  func() time.Time
	tick int64
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		now:         time.Now,
	}
}

// SetClock replaces the write-timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) NewID() string {
	return uuid.New().String()
}

// writeTime returns a strictly increasing timestamp, emulating the
// server-assigned monotonic write time of the hosted store.
func (s *Store) writeTime() time.Time {
	s.tick++
	return s.now().Add(time.Duration(s.tick) * time.Nanosecond)
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.NewID()
	err := s.RunBatch(ctx, []store.Op{{
		Kind:       store.OpCreate,
		Collection: collection,
		ID:         id,
		Fields:     fields,
	}})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	fields, ok := docs[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	kind := store.OpUpdate
	if merge {
		kind = store.OpSet
	}
	return s.RunBatch(ctx, []store.Op{{
		Kind:       kind,
		Collection: collection,
		ID:         id,
		Fields:     fields,
	}})
}

// RunBatch validates every operation before applying any, so a failed
// precondition or missing document leaves the store untouched.
func (s *Store) RunBatch(_ context.Context, ops []store.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, op := range ops {
		if op.ID == "" {
			return fmt.Errorf("memory store: op %d has no document id", i)
		}
		existing, exists := s.lookup(op.Collection, op.ID)

		switch op.Kind {
		case store.OpCreate:
			if exists {
				return fmt.Errorf("%w: %s/%s", store.ErrAlreadyExists, op.Collection, op.ID)
			}
		case store.OpUpdate:
			if !exists {
				return fmt.Errorf("%w: %s/%s", store.ErrNotFound, op.Collection, op.ID)
			}
		}

		if err := checkPrecondition(op.Precondition, existing, exists); err != nil {
			return fmt.Errorf("%w: %s/%s", err, op.Collection, op.ID)
		}
	}

	ts := s.writeTime()
	for _, op := range ops {
		docs, ok := s.collections[op.Collection]
		if !ok {
			docs = make(map[string]map[string]any)
			s.collections[op.Collection] = docs
		}
		doc, ok := docs[op.ID]
		if !ok {
			doc = make(map[string]any)
			docs[op.ID] = doc
		}
		applyFields(doc, op.Fields, ts)
	}
	return nil
}

func (s *Store) Query(_ context.Context, collection string, q store.Query) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Document
	for id, fields := range s.collections[collection] {
		if matches(fields, q.Filters) {
			out = append(out, store.Document{ID: id, Fields: copyFields(fields)})
		}
	}

	if q.OrderBy != "" {
		sort.Slice(out, func(i, j int) bool {
			less := compareValues(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy]) < 0
			if q.Descending {
				return !less
			}
			return less
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) lookup(collection, id string) (map[string]any, bool) {
	docs, ok := s.collections[collection]
	if !ok {
		return nil, false
	}
	doc, ok := docs[id]
	return doc, ok
}

func checkPrecondition(pre *store.Precondition, doc map[string]any, exists bool) error {
	if pre == nil {
		return nil
	}
	if pre.MustNotExist && exists {
		return store.ErrPreconditionFailed
	}
	for field, want := range pre.FieldEquals {
		if !exists || !valuesEqual(doc[field], want) {
			return store.ErrPreconditionFailed
		}
	}
	for field, min := range pre.FieldAtLeast {
		var have int64
		if exists {
			have = numeric(doc[field])
		}
		if have < min {
			return store.ErrPreconditionFailed
		}
	}
	return nil
}

func applyFields(doc, fields map[string]any, ts time.Time) {
	for k, v := range fields {
		if store.IsServerTimestamp(v) {
			doc[k] = ts
			continue
		}
		if delta, ok := store.IncrementDelta(v); ok {
			doc[k] = numeric(doc[k]) + delta
			continue
		}
		doc[k] = v
	}
}

func matches(fields map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		v := fields[f.Field]
		switch f.Op {
		case store.OpEqual:
			if !valuesEqual(v, f.Value) {
				return false
			}
		case store.OpGreaterOrEqual:
			if compareValues(v, f.Value) < 0 {
				return false
			}
		case store.OpLessOrEqual:
			if compareValues(v, f.Value) > 0 {
				return false
			}
		case store.OpArrayContains:
			if !arrayContains(v, f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func arrayContains(v, want any) bool {
	switch arr := v.(type) {
	case []any:
		for _, el := range arr {
			if valuesEqual(el, want) {
				return true
			}
		}
	case []string:
		for _, el := range arr {
			if valuesEqual(el, want) {
				return true
			}
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if isNumber(a) && isNumber(b) {
		return numeric(a) == numeric(b)
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b) && a != nil && b != nil
}

func compareValues(a, b any) int {
	if ta, aok := a.(time.Time); aok {
		if tb, bok := b.(time.Time); bok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	if isNumber(a) && isNumber(b) {
		na, nb := numeric(a), numeric(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float64:
		return true
	}
	return false
}

func numeric(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
