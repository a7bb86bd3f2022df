// Package dynamodel provides a schema-driven data modeling layer for
// single-table DynamoDB designs over the AWS SDK for Go v2 client.
//
// A declarative schema document describes entity models as named fields
// with attributes such as required, default, generate, enum, value
// templates, and timestamps. From each model the package derives the
// distinct shapes an entity takes in different operational contexts: the
// full entity, the create input, the update input, and the find filter.
//
// # Key Concepts
//
// Classification partitions a model's fields into six sets: Required,
// Optional, Generated, Defaulted, ValueTemplated, and Timestamped. Every
// field is exactly one of Required or Optional; the other four are
// independent flags.
//
// Projection combines the classified sets into the four operation shapes.
// A required field the system can compute (generated, defaulted,
// value-templated, or timestamped) becomes overridable in the create
// input: the caller may supply a value but does not have to. The update
// input makes every field optional, with explicit null allowed only on
// fields the entity shape does not require. The find filter accepts, per
// field, either a literal value or a single query predicate.
//
// # Basic Usage
//
//	schema, err := dynamodel.ParseSchema([]byte(`
//	version: "1.0"
//	indexes:
//	  primary: { hash: pk, sort: sk }
//	models:
//	  user:
//	    pk: { type: string, value: "user#${id}", hidden: true }
//	    sk: { type: string, value: "user#${id}", hidden: true }
//	    id: { type: string, generate: ulid, required: true }
//	    email: { type: string, required: true }
//	params:
//	  timestamps: both
//	`))
//
//	table, err := dynamodel.New("my-table", client, schema)
//	user, err := table.Create(ctx, "user", dynamodel.Item{"email": "a@b.co"})
//
// # Querying
//
// Find filters combine literal equality with typed predicates:
//
//	result, err := table.Find(ctx, "user", dynamodel.Item{
//	    "email": dynamodel.Begins("a@"),
//	})
//
// Nine operators are supported: begins, begins_with, between, and the
// comparisons <, <=, =, <>, >=, >. One operator per field; conjunction
// across fields is implicit. Applying a range operator to a non-orderable
// field is reported at filter-build time as a FilterConstructionError.
//
// # Pagination
//
// Find and scan return a Result page with opaque continuation cursors:
//
//	page, err := table.Find(ctx, "user", nil, func(o *dynamodel.Options) {
//	    o.Limit = 25
//	})
//	next, err := table.Find(ctx, "user", nil, func(o *dynamodel.Options) {
//	    o.Cursor = page.Next
//	})
package dynamodel
