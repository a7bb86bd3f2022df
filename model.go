package dynamodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Options adjusts a single model operation. Callers mutate the fields they
// care about inside a functional option:
//
//	result, err := model.Find(ctx, filter, func(o *dynamodel.Options) {
//	    o.Limit = 25
//	    o.Cursor = prev.Next
//	})
type Options struct {
	Hidden         bool   // include hidden fields in results
	Limit          int    // maximum items per page (find and scan)
	Cursor         string // continuation cursor from a previous Result
	SortDescending bool   // reverse the sort-key scan direction
	Tick           Clock  // timestamp source, defaults to the table clock
}

func (o *Options) apply(opts []func(*Options)) {
	for _, opt := range opts {
		opt(o)
	}
}

// Model binds one model schema to its table. It memoizes the field
// classification and the four operation shapes, and implements the
// operation surface over them. Models are immutable once registered; all
// methods are safe for concurrent use.
type Model struct {
	name   string
	schema *ModelSchema
	table  *Table
	cls    Classification
	proj   Projection
}

func newModel(table *Table, name string, schema *ModelSchema) *Model {
	cls := Classify(schema, table.params())
	return &Model{
		name:   name,
		schema: schema,
		table:  table,
		cls:    cls,
		proj:   Project(schema, table.params()),
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Schema returns the underlying model schema.
func (m *Model) Schema() *ModelSchema { return m.schema }

// Classification returns the memoized field classification.
func (m *Model) Classification() Classification { return m.cls }

// Projection returns the memoized operation shapes.
func (m *Model) Projection() Projection { return m.proj }

// Init constructs an in-memory entity instance from the given properties,
// applying generation, defaults, value templates, and timestamps, without
// persisting anything. The result satisfies the entity shape or an error is
// returned.
func (m *Model) Init(props Item, opts ...func(*Options)) (Item, error) {
	options := m.table.newOptions(opts)
	if err := m.proj.Create.Validate(m.name, props); err != nil {
		return nil, err
	}
	resolved, err := m.resolve(props, options.Tick())
	if err != nil {
		return nil, err
	}
	if err := m.proj.Entity.Validate(m.name, resolved); err != nil {
		return nil, err
	}
	return m.transformRead(resolved, options), nil
}

// Create validates the properties against the create-input shape, resolves
// the full entity, and writes it. The write is conditional on the entity
// not already existing. Returns the created entity.
func (m *Model) Create(ctx context.Context, props Item, opts ...func(*Options)) (Item, error) {
	options := m.table.newOptions(opts)
	if err := m.proj.Create.Validate(m.name, props); err != nil {
		return nil, err
	}
	resolved, err := m.resolve(props, options.Tick())
	if err != nil {
		return nil, err
	}
	if err := m.proj.Entity.Validate(m.name, resolved); err != nil {
		return nil, err
	}

	primary, err := m.table.primary()
	if err != nil {
		return nil, err
	}

	stored := resolved.clone()
	stored[m.table.params().TypeField] = m.name

	item, err := attributevalue.MarshalMap(map[string]any(stored))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(primary.Hash))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	m.table.log.Debug("create",
		zap.String("table", m.table.TableName),
		zap.String("model", m.name),
	)

	_, err = m.table.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(m.table.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return nil, fmt.Errorf("%s already exists: %w", m.name, err)
		}
		return nil, fmt.Errorf("failed to create %s: %w", m.name, err)
	}

	return m.transformRead(resolved, options), nil
}

// Get loads a single entity by its key fields. Returns [ErrItemNotFound]
// when no entity exists under the derived key.
func (m *Model) Get(ctx context.Context, props Item, opts ...func(*Options)) (Item, error) {
	options := m.table.newOptions(opts)
	key, err := m.key(props)
	if err != nil {
		return nil, err
	}

	m.table.log.Debug("get",
		zap.String("table", m.table.TableName),
		zap.String("model", m.name),
	)

	out, err := m.table.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(m.table.TableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", m.name, err)
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	entity, err := m.unmarshalItem(out.Item)
	if err != nil {
		return nil, err
	}
	return m.transformRead(entity, options), nil
}

// Update applies a partial mutation to an existing entity. Every field is
// optional; a field required by the entity shape must carry a non-null
// value if supplied, and an explicit null on an optional field clears it
// (stored as NULL when the null policy allows, removed otherwise). Fields
// not supplied are unchanged. Returns the full updated entity, or
// [ErrItemNotFound] if no entity exists under the derived key.
func (m *Model) Update(ctx context.Context, props Item, opts ...func(*Options)) (Item, error) {
	options := m.table.newOptions(opts)
	if err := m.proj.Update.Validate(m.name, props); err != nil {
		return nil, err
	}
	key, err := m.key(props)
	if err != nil {
		return nil, err
	}

	primary, err := m.table.primary()
	if err != nil {
		return nil, err
	}
	params := m.table.params()

	update := expression.UpdateBuilder{}
	assigned := false
	for _, name := range m.schema.Names() {
		if name == primary.Hash || name == primary.Sort {
			continue
		}
		value, present := props[name]
		if !present {
			continue
		}
		f := m.schema.Field(name)
		if value == nil {
			if f.allowsNull(params) {
				update = update.Set(expression.Name(name), expression.Value(nil))
			} else {
				update = update.Remove(expression.Name(name))
			}
			assigned = true
			continue
		}
		update = update.Set(expression.Name(name), expression.Value(value))
		assigned = true
	}

	// Refresh the updated timestamp unless the caller supplied one.
	if updated := m.updatedFieldName(); updated != "" {
		if _, present := props[updated]; !present {
			update = update.Set(
				expression.Name(updated),
				expression.Value(timestampValue(m.schema.Field(updated), options.Tick())),
			)
			assigned = true
		}
	}

	if !assigned {
		return nil, newViolation(m.name, "", "update contains no fields to modify")
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(primary.Hash))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	m.table.log.Debug("update",
		zap.String("table", m.table.TableName),
		zap.String("model", m.name),
	)

	out, err := m.table.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(m.table.TableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update %s: %w", m.name, err)
	}

	entity, err := m.unmarshalItem(out.Attributes)
	if err != nil {
		return nil, err
	}
	return m.transformRead(entity, options), nil
}

// Remove deletes an entity by its key fields and returns the removed
// entity. Returns [ErrItemNotFound] when no entity exists under the key.
func (m *Model) Remove(ctx context.Context, props Item, opts ...func(*Options)) (Item, error) {
	options := m.table.newOptions(opts)
	key, err := m.key(props)
	if err != nil {
		return nil, err
	}

	m.table.log.Debug("remove",
		zap.String("table", m.table.TableName),
		zap.String("model", m.name),
	)

	out, err := m.table.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(m.table.TableName),
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", m.name, err)
	}
	if out.Attributes == nil {
		return nil, ErrItemNotFound
	}

	entity, err := m.unmarshalItem(out.Attributes)
	if err != nil {
		return nil, err
	}
	return m.transformRead(entity, options), nil
}

// Find searches for entities matching the filter. Each filter entry is
// either a literal of the field's type or a single predicate expression.
// When the primary partition key is derivable from the filter the search
// runs as a key-condition query; otherwise it falls back to a table scan.
// A nil filter returns every entity of the model.
func (m *Model) Find(ctx context.Context, filter Item, opts ...func(*Options)) (*Result, error) {
	options := m.table.newOptions(opts)
	if filter == nil {
		filter = Item{}
	}
	if err := m.proj.Find.Validate(m.name, filter); err != nil {
		return nil, err
	}

	primary, err := m.table.primary()
	if err != nil {
		return nil, err
	}

	keyCond, consumed, err := m.keyCondition(primary, filter)
	if err != nil {
		return nil, err
	}

	filterCond, err := m.filterCondition(filter, consumed)
	if err != nil {
		return nil, err
	}

	if keyCond.IsSet() {
		return m.query(ctx, keyCond, filterCond, options)
	}
	return m.scan(ctx, filterCond, options)
}

// Scan searches every entity of the model without using a key condition.
// The model type filter still applies.
func (m *Model) Scan(ctx context.Context, filter Item, opts ...func(*Options)) (*Result, error) {
	options := m.table.newOptions(opts)
	if filter == nil {
		filter = Item{}
	}
	if err := m.proj.Find.Validate(m.name, filter); err != nil {
		return nil, err
	}

	filterCond, err := m.filterCondition(filter, nil)
	if err != nil {
		return nil, err
	}
	return m.scan(ctx, filterCond, options)
}

// resolve computes the full entity from create input: system-generated
// identifiers, defaults, timestamps, then value templates. Caller-supplied
// values always win over computed ones.
func (m *Model) resolve(props Item, now time.Time) (Item, error) {
	out := props.clone()

	for _, name := range m.schema.Names() {
		if _, present := out[name]; present {
			continue
		}
		f := m.schema.Field(name)
		switch {
		case f.generated():
			value, err := generateValue(f.generateScheme())
			if err != nil {
				return nil, err
			}
			out[name] = value
		case f.defaulted():
			out[name] = f.Default
		}
	}

	for _, name := range m.cls.Timestamped {
		if _, present := out[name]; !present {
			out[name] = timestampValue(m.schema.Field(name), now)
		}
	}

	// Value templates may reference other templated fields; iterate until
	// no further progress is possible.
	for range m.schema.Names() {
		progress := false
		for _, name := range m.cls.ValueTemplated {
			if _, present := out[name]; present {
				continue
			}
			if rendered, ok := renderTemplate(m.schema.Field(name).Value, out); ok {
				out[name] = rendered
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	return out, nil
}

// key derives the primary key attribute values from the given properties,
// rendering value templates as needed.
func (m *Model) key(props Item) (map[string]types.AttributeValue, error) {
	primary, err := m.table.primary()
	if err != nil {
		return nil, err
	}

	work := props.clone()
	for range m.schema.Names() {
		progress := false
		for _, name := range m.cls.ValueTemplated {
			if _, present := work[name]; present {
				continue
			}
			if rendered, ok := renderTemplate(m.schema.Field(name).Value, work); ok {
				work[name] = rendered
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	key := map[string]types.AttributeValue{}
	attrs := []string{primary.Hash}
	if primary.Sort != "" {
		attrs = append(attrs, primary.Sort)
	}
	for _, attr := range attrs {
		value, present := work[attr]
		if !present {
			return nil, newViolation(m.name, attr, "missing key field")
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal key %s: %w", attr, err)
		}
		key[attr] = av
	}
	return key, nil
}

// keyCondition builds the query key condition when the partition key is
// derivable from the filter's literal values. Returns the set of key
// attribute names consumed, so they are not repeated in the filter
// expression.
func (m *Model) keyCondition(primary *IndexDef, filter Item) (expression.KeyConditionBuilder, []string, error) {
	work := Item{}
	for name, value := range filter {
		if _, isPredicate, _ := parsePredicate(value); !isPredicate {
			work[name] = value
		}
	}
	for range m.schema.Names() {
		progress := false
		for _, name := range m.cls.ValueTemplated {
			if _, present := work[name]; present {
				continue
			}
			if rendered, ok := renderTemplate(m.schema.Field(name).Value, work); ok {
				work[name] = rendered
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	hashValue, present := work[primary.Hash]
	if !present {
		return expression.KeyConditionBuilder{}, nil, nil
	}

	keyCond := expression.Key(primary.Hash).Equal(expression.Value(hashValue))
	consumed := []string{primary.Hash}

	if primary.Sort != "" {
		if sortValue, ok := work[primary.Sort]; ok {
			keyCond = keyCond.And(expression.Key(primary.Sort).Equal(expression.Value(sortValue)))
			consumed = append(consumed, primary.Sort)
		} else if raw, ok := filter[primary.Sort]; ok {
			cond, isPredicate, err := parsePredicate(raw)
			if err != nil {
				return expression.KeyConditionBuilder{}, nil, newFilterError(m.name, primary.Sort, "", "%v", err)
			}
			if isPredicate {
				sortCond, err := cond.keyCondition(m.name, primary.Sort, primary.Sort)
				if err != nil {
					return expression.KeyConditionBuilder{}, nil, err
				}
				keyCond = keyCond.And(sortCond)
				consumed = append(consumed, primary.Sort)
			}
		}
	}

	return keyCond, consumed, nil
}

// filterCondition translates non-key filter entries into a conjunction of
// DynamoDB conditions, always including the model type discriminator.
func (m *Model) filterCondition(filter Item, consumed []string) (expression.ConditionBuilder, error) {
	params := m.table.params()
	cond := expression.Name(params.TypeField).Equal(expression.Value(m.name))

	skip := map[string]bool{}
	for _, name := range consumed {
		skip[name] = true
	}

	for _, name := range m.schema.Names() {
		if skip[name] {
			continue
		}
		value, present := filter[name]
		if !present {
			continue
		}
		predicate, isPredicate, err := parsePredicate(value)
		if err != nil {
			return expression.ConditionBuilder{}, newFilterError(m.name, name, "", "%v", err)
		}
		if isPredicate {
			cond = cond.And(predicate.condition(name))
			continue
		}
		cond = cond.And(expression.Name(name).Equal(expression.Value(value)))
	}

	return cond, nil
}

func (m *Model) query(ctx context.Context, keyCond expression.KeyConditionBuilder, filterCond expression.ConditionBuilder, options *Options) (*Result, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filterCond).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(m.table.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!options.SortDescending),
	}
	if options.Limit > 0 {
		input.Limit = aws.Int32(int32(options.Limit))
	}
	startKey, err := UnmarshalCursor(options.Cursor)
	if err != nil {
		return nil, err
	}
	if startKey != nil {
		input.ExclusiveStartKey = startKey
	}

	m.table.log.Debug("find",
		zap.String("table", m.table.TableName),
		zap.String("model", m.name),
	)

	out, err := m.table.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.name, err)
	}
	return m.pageResult(out.Items, out.LastEvaluatedKey, options)
}

func (m *Model) scan(ctx context.Context, filterCond expression.ConditionBuilder, options *Options) (*Result, error) {
	expr, err := expression.NewBuilder().WithFilter(filterCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(m.table.TableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if options.Limit > 0 {
		input.Limit = aws.Int32(int32(options.Limit))
	}
	startKey, err := UnmarshalCursor(options.Cursor)
	if err != nil {
		return nil, err
	}
	if startKey != nil {
		input.ExclusiveStartKey = startKey
	}

	m.table.log.Debug("scan",
		zap.String("table", m.table.TableName),
		zap.String("model", m.name),
	)

	out, err := m.table.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", m.name, err)
	}
	return m.pageResult(out.Items, out.LastEvaluatedKey, options)
}

func (m *Model) pageResult(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue, options *Options) (*Result, error) {
	result := &Result{}
	for _, raw := range items {
		entity, err := m.unmarshalItem(raw)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, m.transformRead(entity, options))
	}
	result.Count = len(result.Items)

	next, err := MarshalCursor(lastKey)
	if err != nil {
		return nil, err
	}
	result.Next = next

	// Past the first page, the backward marker is the key of the first
	// item; paging with it in the reverse sort direction reproduces the
	// preceding page.
	if options.Cursor != "" && len(items) > 0 {
		if primary := m.table.schema.Primary(); primary != nil {
			prevKey := map[string]types.AttributeValue{}
			attrs := []string{primary.Hash}
			if primary.Sort != "" {
				attrs = append(attrs, primary.Sort)
			}
			for _, attr := range attrs {
				if av, ok := items[0][attr]; ok {
					prevKey[attr] = av
				}
			}
			prev, err := MarshalCursor(prevKey)
			if err != nil {
				return nil, err
			}
			result.Prev = prev
		}
	}
	return result, nil
}

func (m *Model) unmarshalItem(raw map[string]types.AttributeValue) (Item, error) {
	var entity map[string]any
	if err := attributevalue.UnmarshalMap(raw, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return Item(entity), nil
}

// transformRead strips the type discriminator and, unless requested, any
// hidden fields from an entity before returning it to the caller.
func (m *Model) transformRead(entity Item, options *Options) Item {
	out := Item{}
	params := m.table.params()
	for name, value := range entity {
		if name == params.TypeField {
			continue
		}
		if f := m.schema.Field(name); f != nil && f.Hidden && !options.Hidden {
			continue
		}
		out[name] = value
	}
	return out
}

// updatedFieldName returns the name of the field that tracks modification
// time, or empty when the schema maintains none.
func (m *Model) updatedFieldName() string {
	params := m.table.params()
	if params.Timestamps.coversUpdate() && m.schema.Field(params.UpdatedField) != nil {
		return params.UpdatedField
	}
	return ""
}

// timestampValue renders the current time for a timestamp field: date
// fields carry RFC3339 strings, number fields carry epoch milliseconds.
func timestampValue(f *Field, now time.Time) any {
	if f != nil && f.Type == TypeNumber {
		return now.UnixMilli()
	}
	return now.UTC().Format(time.RFC3339)
}

// clone returns a shallow copy of the item.
func (i Item) clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}
