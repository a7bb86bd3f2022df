package dynamodel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// Clock is a function type that returns the current time for dependency
// injection.
type Clock func() time.Time

// DefaultClock returns the current UTC time.
func DefaultClock() time.Time {
	return time.Now().UTC()
}

// DynamoDBClient is the interface for the DynamoDB operations used by the
// table, satisfied by both the AWS SDK client and test doubles.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Table binds a schema document to a DynamoDB table and client. The schema
// is loaded once at construction; models, classifications, and projections
// are immutable afterward, so a Table is safe for concurrent use.
type Table struct {
	TableName string         // main table name
	Logger    *zap.Logger    // operation logger, defaults to a no-op
	Tick      Clock          // timestamp source, defaults to DefaultClock

	client DynamoDBClient
	schema *SchemaDef
	models map[string]*Model
	log    *zap.Logger
}

// New creates a Table from a validated schema document. The schema's models
// are classified and projected eagerly; a schema conflict surfaces here,
// fatal to the offending model's registration.
func New(tableName string, client DynamoDBClient, schema *SchemaDef, opts ...func(*Table)) (*Table, error) {
	if tableName == "" {
		return nil, fmt.Errorf("missing table name")
	}
	if schema == nil {
		return nil, fmt.Errorf("missing schema")
	}
	schema.Params.applyDefaults()
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		TableName: tableName,
		Tick:      DefaultClock,
		client:    client,
		schema:    schema,
		models:    map[string]*Model{},
	}
	for _, opt := range opts {
		opt(t)
	}

	t.log = t.Logger
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.Tick == nil {
		t.Tick = DefaultClock
	}

	for name, modelSchema := range schema.Models {
		t.models[name] = newModel(t, name, modelSchema)
	}

	return t, nil
}

// Schema returns the table's schema document.
func (t *Table) Schema() *SchemaDef { return t.schema }

// GetModel returns the registered model by name.
func (t *Table) GetModel(name string) (*Model, error) {
	m, ok := t.models[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrModelNotFound)
	}
	return m, nil
}

// AddModel registers an additional model after construction. The model
// schema is validated against the table's schema document settings.
func (t *Table) AddModel(name string, schema *ModelSchema) error {
	if _, exists := t.models[name]; exists {
		return newSchemaConflict(name, "", "model is already registered")
	}
	if schema == nil || schema.Len() == 0 {
		return newSchemaConflict(name, "", "model defines no fields")
	}
	for _, fieldName := range schema.Names() {
		if err := validateField(name, fieldName, schema.Field(fieldName)); err != nil {
			return err
		}
	}
	if err := validateTemplates(name, schema); err != nil {
		return err
	}
	if primary := t.schema.Primary(); primary != nil && schema.Field(primary.Hash) == nil {
		return newSchemaConflict(name, primary.Hash, "model does not define the primary hash attribute")
	}
	if t.schema.Models == nil {
		// the schema document may declare no models at all
		t.schema.Models = map[string]*ModelSchema{}
	}
	t.schema.Models[name] = schema
	t.models[name] = newModel(t, name, schema)
	return nil
}

// RemoveModel unregisters a model.
func (t *Table) RemoveModel(name string) error {
	if _, ok := t.models[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrModelNotFound)
	}
	delete(t.models, name)
	delete(t.schema.Models, name)
	return nil
}

// ListModels returns the registered model names in sorted order.
func (t *Table) ListModels() []string {
	names := make([]string, 0, len(t.models))
	for name := range t.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create creates an entity of the named model.
func (t *Table) Create(ctx context.Context, model string, props Item, opts ...func(*Options)) (Item, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Create(ctx, props, opts...)
}

// Get loads an entity of the named model by its key fields.
func (t *Table) Get(ctx context.Context, model string, props Item, opts ...func(*Options)) (Item, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, props, opts...)
}

// Find searches for entities of the named model.
func (t *Table) Find(ctx context.Context, model string, filter Item, opts ...func(*Options)) (*Result, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, filter, opts...)
}

// Scan scans for entities of the named model.
func (t *Table) Scan(ctx context.Context, model string, filter Item, opts ...func(*Options)) (*Result, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Scan(ctx, filter, opts...)
}

// Update applies a partial mutation to an entity of the named model.
func (t *Table) Update(ctx context.Context, model string, props Item, opts ...func(*Options)) (Item, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Update(ctx, props, opts...)
}

// Remove deletes an entity of the named model by its key fields.
func (t *Table) Remove(ctx context.Context, model string, props Item, opts ...func(*Options)) (Item, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Remove(ctx, props, opts...)
}

// Init constructs an in-memory entity of the named model without
// persisting it.
func (t *Table) Init(model string, props Item, opts ...func(*Options)) (Item, error) {
	m, err := t.GetModel(model)
	if err != nil {
		return nil, err
	}
	return m.Init(props, opts...)
}

func (t *Table) params() SchemaParams {
	return t.schema.Params
}

func (t *Table) primary() (*IndexDef, error) {
	primary := t.schema.Primary()
	if primary == nil {
		return nil, fmt.Errorf("schema declares no primary index")
	}
	return primary, nil
}

func (t *Table) newOptions(opts []func(*Options)) *Options {
	options := &Options{Tick: t.Tick}
	options.apply(opts)
	if options.Tick == nil {
		options.Tick = DefaultClock
	}
	return options
}
