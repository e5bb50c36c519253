// Package dynamo backs the store contract with a DynamoDB single-table
// layout: top-level documents live under PK "<collection>#<id>" with SK
// "METADATA", sub-collection documents under the parent's PK with SK
// "<subcollection>#<id>". Batches run as TransactWriteItems, so the
// all-or-nothing guarantee and the per-op preconditions map directly onto
// condition expressions.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/quickbites/order-service/internal/store"
)

const (
	collectionIndex = "collection-index"
	metadataSK      = "METADATA"
)

type Store struct {
	client *dynamodb.Client
	table  string
}

// NewClient builds a DynamoDB client from the default credential chain.
// A non-empty endpoint points it at DynamoDB Local.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func New(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

func (s *Store) NewID() string {
	return uuid.New().String()
}

// keys maps a collection path and document id onto the table's PK/SK
// pair.
func keys(collection, id string) (string, string, error) {
	parts := strings.Split(collection, "/")
	switch len(parts) {
	case 1:
		return fmt.Sprintf("%s#%s", parts[0], id), metadataSK, nil
	case 3:
		return fmt.Sprintf("%s#%s", parts[0], parts[1]), fmt.Sprintf("%s#%s", parts[2], id), nil
	default:
		return "", "", fmt.Errorf("dynamo store: unsupported collection path %q", collection)
	}
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

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	pk, sk, err := keys(collection, id)
	if err != nil {
		return store.Document{}, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to get item: %w", err)
	}
	if len(out.Item) == 0 {
		return store.Document{}, store.ErrNotFound
	}

	fields := make(map[string]any)
	if err := attributevalue.UnmarshalMap(out.Item, &fields); err != nil {
		return store.Document{}, err
	}
	stripKeys(fields)
	return store.Document{ID: id, Fields: fields}, nil
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

func (s *Store) RunBatch(ctx context.Context, ops []store.Op) error {
	if len(ops) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(ops))
	now := time.Now().UTC()
	for _, op := range ops {
		item, err := s.transactItem(op, now)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return canceledError(canceled.CancellationReasons, ops)
		}
		return fmt.Errorf("failed to run batch: %w", err)
	}
	return nil
}

// canceledError maps a transaction cancellation onto the store's
// sentinels. A create can only fail its condition because the document
// already exists, so every failed OpCreate reports ErrAlreadyExists,
// matching what the memory store's exists check returns for the same
// write.
func canceledError(reasons []types.CancellationReason, ops []store.Op) error {
	for i, reason := range reasons {
		if aws.ToString(reason.Code) != "ConditionalCheckFailed" {
			continue
		}
		if ops[i].Kind == store.OpCreate {
			return fmt.Errorf("%w: %s/%s", store.ErrAlreadyExists, ops[i].Collection, ops[i].ID)
		}
		return fmt.Errorf("%w: %s/%s", store.ErrPreconditionFailed, ops[i].Collection, ops[i].ID)
	}
	return fmt.Errorf("%w: transaction canceled", store.ErrPreconditionFailed)
}

func (s *Store) transactItem(op store.Op, now time.Time) (types.TransactWriteItem, error) {
	pk, sk, err := keys(op.Collection, op.ID)
	if err != nil {
		return types.TransactWriteItem{}, err
	}

	switch op.Kind {
	case store.OpCreate:
		return s.putItem(op, pk, sk, now)
	case store.OpSet, store.OpUpdate:
		return s.updateItem(op, pk, sk, now)
	default:
		return types.TransactWriteItem{}, fmt.Errorf("dynamo store: unknown op kind %d", op.Kind)
	}
}

func (s *Store) putItem(op store.Op, pk, sk string, now time.Time) (types.TransactWriteItem, error) {
	resolved := make(map[string]any, len(op.Fields))
	for k, v := range op.Fields {
		if store.IsServerTimestamp(v) {
			resolved[k] = now
			continue
		}
		if delta, ok := store.IncrementDelta(v); ok {
			resolved[k] = delta
			continue
		}
		resolved[k] = v
	}

	av, err := attributevalue.MarshalMap(resolved)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal document: %w", err)
	}
	av["PK"] = &types.AttributeValueMemberS{Value: pk}
	av["SK"] = &types.AttributeValueMemberS{Value: sk}
	av["col"] = &types.AttributeValueMemberS{Value: op.Collection}
	av["doc_id"] = &types.AttributeValueMemberS{Value: op.ID}

	put := &types.Put{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	}
	if err := applyPrecondition(op.Precondition, put, nil); err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{Put: put}, nil
}

func (s *Store) updateItem(op store.Op, pk, sk string, now time.Time) (types.TransactWriteItem, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var sets, adds []string

	i := 0
	for k, v := range op.Fields {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = k
		i++

		if store.IsServerTimestamp(v) {
			v = now
		}
		if delta, ok := store.IncrementDelta(v); ok {
			values[valueKey] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)}
			adds = append(adds, fmt.Sprintf("%s %s", nameKey, valueKey))
			continue
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("failed to marshal field %s: %w", k, err)
		}
		values[valueKey] = av
		sets = append(sets, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	// Keep the GSI attributes present even when the update creates the
	// document (merge semantics on a missing id).
	names["#col"] = "col"
	names["#docid"] = "doc_id"
	values[":col"] = &types.AttributeValueMemberS{Value: op.Collection}
	values[":docid"] = &types.AttributeValueMemberS{Value: op.ID}
	sets = append(sets, "#col = :col", "#docid = :docid")

	var expr strings.Builder
	expr.WriteString("SET " + strings.Join(sets, ", "))
	if len(adds) > 0 {
		expr.WriteString(" ADD " + strings.Join(adds, ", "))
	}

	update := &types.Update{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression:          aws.String(expr.String()),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if op.Kind == store.OpUpdate {
		update.ConditionExpression = aws.String("attribute_exists(SK)")
	}
	if err := applyPrecondition(op.Precondition, nil, update); err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{Update: update}, nil
}

// applyPrecondition folds a store precondition into the item's condition
// expression. Exactly one of put/update is non-nil.
func applyPrecondition(pre *store.Precondition, put *types.Put, update *types.Update) error {
	if pre == nil {
		return nil
	}

	var conds []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if pre.MustNotExist {
		conds = append(conds, "attribute_not_exists(SK)")
	}
	i := 0
	for field, want := range pre.FieldEquals {
		nameKey := fmt.Sprintf("#p%d", i)
		valueKey := fmt.Sprintf(":p%d", i)
		i++
		av, err := attributevalue.Marshal(want)
		if err != nil {
			return fmt.Errorf("failed to marshal precondition value for %s: %w", field, err)
		}
		names[nameKey] = field
		values[valueKey] = av
		conds = append(conds, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	for field, min := range pre.FieldAtLeast {
		nameKey := fmt.Sprintf("#p%d", i)
		valueKey := fmt.Sprintf(":p%d", i)
		i++
		names[nameKey] = field
		values[valueKey] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", min)}
		conds = append(conds, fmt.Sprintf("%s >= %s", nameKey, valueKey))
	}
	if len(conds) == 0 {
		return nil
	}
	joined := strings.Join(conds, " AND ")

	if put != nil {
		if existing := aws.ToString(put.ConditionExpression); existing != "" && !pre.MustNotExist {
			joined = existing + " AND " + joined
		}
		put.ConditionExpression = aws.String(joined)
		if put.ExpressionAttributeNames == nil {
			put.ExpressionAttributeNames = map[string]string{}
		}
		if put.ExpressionAttributeValues == nil {
			put.ExpressionAttributeValues = map[string]types.AttributeValue{}
		}
		for k, v := range names {
			put.ExpressionAttributeNames[k] = v
		}
		for k, v := range values {
			put.ExpressionAttributeValues[k] = v
		}
		return nil
	}

	if existing := aws.ToString(update.ConditionExpression); existing != "" {
		joined = existing + " AND " + joined
	}
	update.ConditionExpression = aws.String(joined)
	for k, v := range names {
		update.ExpressionAttributeNames[k] = v
	}
	for k, v := range values {
		update.ExpressionAttributeValues[k] = v
	}
	return nil
}

// Query fetches a collection through the collection GSI and evaluates
// filters, ordering and limit client-side. Collections here are small
// per-user slices, so the simple evaluation is fine.
func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(collectionIndex),
		KeyConditionExpression:    aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": "col"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": &types.AttributeValueMemberS{Value: collection}},
	})

	var docs []store.Document
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
		}
		for _, item := range page.Items {
			fields := make(map[string]any)
			if err := attributevalue.UnmarshalMap(item, &fields); err != nil {
				return nil, err
			}
			id, _ := fields["doc_id"].(string)
			stripKeys(fields)
			if !matches(fields, q.Filters) {
				continue
			}
			docs = append(docs, store.Document{ID: id, Fields: fields})
		}
	}

	if q.OrderBy != "" {
		sort.Slice(docs, func(i, j int) bool {
			less := compare(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy]) < 0
			if q.Descending {
				return !less
			}
			return less
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func stripKeys(fields map[string]any) {
	delete(fields, "PK")
	delete(fields, "SK")
	delete(fields, "col")
	delete(fields, "doc_id")
}

func matches(fields map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		v := fields[f.Field]
		switch f.Op {
		case store.OpEqual:
			if compare(v, f.Value) != 0 {
				return false
			}
		case store.OpGreaterOrEqual:
			if compare(v, f.Value) < 0 {
				return false
			}
		case store.OpLessOrEqual:
			if compare(v, f.Value) > 0 {
				return false
			}
		case store.OpArrayContains:
			arr, ok := v.([]any)
			if !ok {
				return false
			}
			found := false
			for _, el := range arr {
				if compare(el, f.Value) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare handles the types attributevalue hands back (string, float64,
// bool) plus time.Time from filter values, which round-trips as RFC3339
// text.
func compare(a, b any) int {
	if t, ok := b.(time.Time); ok {
		b = t.Format(time.RFC3339Nano)
	}
	if t, ok := a.(time.Time); ok {
		a = t.Format(time.RFC3339Nano)
	}
	na, aok := asFloat(a)
	nb, bok := asFloat(b)
	if aok && bok {
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

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
