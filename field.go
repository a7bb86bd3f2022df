package dynamodel

import (
	"fmt"
	"time"
)

// FieldType enumerates the base value types a field can take.
type FieldType string

const (
	TypeArray      FieldType = "array"
	TypeBoolean    FieldType = "boolean"
	TypeDate       FieldType = "date"
	TypeNumber     FieldType = "number"
	TypeObject     FieldType = "object"
	TypeString     FieldType = "string"
	TypeSet        FieldType = "set"
	TypeBuffer     FieldType = "buffer"
	TypeTypedArray FieldType = "typed-array"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeArray, TypeBoolean, TypeDate, TypeNumber, TypeObject,
		TypeString, TypeSet, TypeBuffer, TypeTypedArray:
		return true
	}
	return false
}

// orderable reports whether values of this type have a total order usable
// with range and comparison operators.
func (t FieldType) orderable() bool {
	switch t {
	case TypeNumber, TypeString, TypeDate:
		return true
	}
	return false
}

// Field describes a single model attribute: its value type plus the
// modifiers that control how the attribute participates in create, update,
// and find operations. Field is pure data; classification and projection
// behavior lives in [Classify] and [Projection].
type Field struct {
	Type      FieldType    `yaml:"type" json:"type"`                           // base value type
	Items     *Field       `yaml:"items,omitempty" json:"items,omitempty"`     // element descriptor, array and typed-array only
	Schema    *ModelSchema `yaml:"schema,omitempty" json:"schema,omitempty"`   // nested schema, object only
	Required  bool         `yaml:"required,omitempty" json:"required,omitempty"`
	Default   any          `yaml:"default,omitempty" json:"default,omitempty"` // concrete default value
	Generate  any          `yaml:"generate,omitempty" json:"generate,omitempty"` // true, "uuid", "ulid", or "uid(n)"
	Value     string       `yaml:"value,omitempty" json:"value,omitempty"`     // template computed from other fields
	Enum      []any        `yaml:"enum,omitempty" json:"enum,omitempty"`       // allowed literal values
	Timestamp bool         `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
	TTL       bool         `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Hidden    bool         `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Unique    bool         `yaml:"unique,omitempty" json:"unique,omitempty"`
	Crypt     bool         `yaml:"crypt,omitempty" json:"crypt,omitempty"`
	Reference string       `yaml:"reference,omitempty" json:"reference,omitempty"`
	Nulls     *bool        `yaml:"nulls,omitempty" json:"nulls,omitempty"` // overrides the schema null policy
}

// generated reports whether the field value is system-assigned.
func (f *Field) generated() bool {
	switch g := f.Generate.(type) {
	case bool:
		return g
	case string:
		return g != ""
	}
	return false
}

// generateScheme returns the generator scheme name. A bare generate: true
// selects uuid.
func (f *Field) generateScheme() string {
	switch g := f.Generate.(type) {
	case bool:
		if g {
			return "uuid"
		}
	case string:
		return g
	}
	return ""
}

// defaulted reports whether the field carries a concrete default value.
func (f *Field) defaulted() bool {
	return f.Default != nil
}

// valueTemplated reports whether the field value is computed from a
// template over other fields.
func (f *Field) valueTemplated() bool {
	return f.Value != ""
}

// allowsNull resolves the per-field null override against the schema-wide
// null storage policy.
func (f *Field) allowsNull(params SchemaParams) bool {
	if f.Nulls != nil {
		return *f.Nulls
	}
	return params.Nulls
}

// checkValue validates a concrete value against the field descriptor,
// including enum narrowing and element and nested-object recursion. The
// model and field names qualify any resulting [ProjectionViolation].
func checkValue(model, name string, f *Field, v any) error {
	if v == nil {
		return newViolation(model, name, "null is not allowed")
	}

	if len(f.Enum) > 0 {
		for _, allowed := range f.Enum {
			if literalEqual(allowed, v) {
				return nil
			}
		}
		return newViolation(model, name, "value %v is not in enum %v", v, f.Enum)
	}

	switch f.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return newViolation(model, name, "expected string, got %T", v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return newViolation(model, name, "expected boolean, got %T", v)
		}
	case TypeNumber:
		if !isNumber(v) {
			return newViolation(model, name, "expected number, got %T", v)
		}
	case TypeDate:
		switch d := v.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, d); err != nil {
				return newViolation(model, name, "invalid date: %v", err)
			}
		default:
			return newViolation(model, name, "expected date, got %T", v)
		}
	case TypeArray, TypeTypedArray:
		items, ok := v.([]any)
		if !ok {
			return newViolation(model, name, "expected array, got %T", v)
		}
		if f.Items != nil {
			for i, item := range items {
				if err := checkValue(model, fmt.Sprintf("%s[%d]", name, i), f.Items, item); err != nil {
					return err
				}
			}
		}
	case TypeObject:
		nested, ok := v.(map[string]any)
		if !ok {
			return newViolation(model, name, "expected object, got %T", v)
		}
		if f.Schema != nil {
			for _, childName := range f.Schema.Names() {
				child := f.Schema.Field(childName)
				value, present := nested[childName]
				if !present {
					if child.Required {
						return newViolation(model, name+"."+childName, "missing required field")
					}
					continue
				}
				if err := checkValue(model, name+"."+childName, child, value); err != nil {
					return err
				}
			}
		}
	case TypeSet:
		switch v.(type) {
		case []string, []any:
		default:
			return newViolation(model, name, "expected set, got %T", v)
		}
	case TypeBuffer:
		if _, ok := v.([]byte); !ok {
			return newViolation(model, name, "expected buffer, got %T", v)
		}
	}

	return nil
}

// isNumber reports whether v is any Go numeric type, including the float64
// values produced by generic document decoding.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// literalEqual compares two literal values, normalizing numeric types so
// that an enum declared as [1, 2] matches an input of float64(1).
func literalEqual(a, b any) bool {
	if a == b {
		return true
	}
	if isNumber(a) && isNumber(b) {
		return toFloat(a) == toFloat(b)
	}
	return false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
