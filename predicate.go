package dynamodel

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// Operator names a query predicate usable in place of a literal value
// within a find filter. Exactly one operator may be applied per field;
// operators do not compose within a single field. Conjunction across fields
// is implicit.
type Operator string

const (
	OpBegins     Operator = "begins"
	OpBeginsWith Operator = "begins_with"
	OpBetween    Operator = "between"
	OpLess       Operator = "<"
	OpLessEqual  Operator = "<="
	OpEqual      Operator = "="
	OpNotEqual   Operator = "<>"
	OpGreatEqual Operator = ">="
	OpGreater    Operator = ">"
)

func knownOperator(op Operator) bool {
	switch op {
	case OpBegins, OpBeginsWith, OpBetween, OpLess, OpLessEqual,
		OpEqual, OpNotEqual, OpGreatEqual, OpGreater:
		return true
	}
	return false
}

// Condition is a single predicate over one field: an operator and its
// operand, or an operand pair for between.
type Condition struct {
	Op    Operator
	Value any
	Upper any // second operand, between only
}

// Begins matches values starting with the given prefix. String fields only.
func Begins(prefix string) *Condition {
	return &Condition{Op: OpBegins, Value: prefix}
}

// BeginsWith is the long-form spelling of [Begins].
func BeginsWith(prefix string) *Condition {
	return &Condition{Op: OpBeginsWith, Value: prefix}
}

// Between matches values in the inclusive range [lo, hi].
func Between(lo, hi any) *Condition {
	return &Condition{Op: OpBetween, Value: lo, Upper: hi}
}

// LessThan matches values ordered strictly before v.
func LessThan(v any) *Condition { return &Condition{Op: OpLess, Value: v} }

// LessOrEqual matches values ordered at or before v.
func LessOrEqual(v any) *Condition { return &Condition{Op: OpLessEqual, Value: v} }

// Equals matches values equal to v.
func Equals(v any) *Condition { return &Condition{Op: OpEqual, Value: v} }

// NotEquals matches values not equal to v.
func NotEquals(v any) *Condition { return &Condition{Op: OpNotEqual, Value: v} }

// GreaterOrEqual matches values ordered at or after v.
func GreaterOrEqual(v any) *Condition { return &Condition{Op: OpGreatEqual, Value: v} }

// GreaterThan matches values ordered strictly after v.
func GreaterThan(v any) *Condition { return &Condition{Op: OpGreater, Value: v} }

// parsePredicate interprets a filter value as a predicate expression.
// Returns ok=false for literal values. A raw operator map such as
// {">=": 18} is accepted as shorthand for the typed constructors; a map
// carrying more than one operator is rejected.
func parsePredicate(value any) (cond *Condition, ok bool, err error) {
	switch v := value.(type) {
	case *Condition:
		return v, true, nil
	case Condition:
		return &v, true, nil
	case map[string]any:
		var ops []Operator
		for key := range v {
			if knownOperator(Operator(key)) {
				ops = append(ops, Operator(key))
			}
		}
		if len(ops) == 0 {
			return nil, false, nil // literal object value
		}
		if len(ops) > 1 {
			return nil, false, fmt.Errorf("exactly one operator is allowed per field, got %d", len(ops))
		}
		if len(v) > 1 {
			return nil, false, fmt.Errorf("operator %q is mixed with non-operator keys", ops[0])
		}
		op := ops[0]
		operand := v[string(op)]
		if op == OpBetween {
			pair, isPair := operand.([]any)
			if !isPair || len(pair) != 2 {
				return nil, false, fmt.Errorf("between requires a two-element range")
			}
			return &Condition{Op: op, Value: pair[0], Upper: pair[1]}, true, nil
		}
		return &Condition{Op: op, Value: operand}, true, nil
	}
	return nil, false, nil
}

// check validates the condition against the target field's type. Operator
// and operand incompatibilities surface as [FilterConstructionError] at
// filter-build time, before any request is issued.
func (c *Condition) check(model, name string, f *Field) error {
	if !knownOperator(c.Op) {
		return newFilterError(model, name, c.Op, "is not a recognized operator")
	}

	switch c.Op {
	case OpBegins, OpBeginsWith:
		if f.Type != TypeString {
			return newFilterError(model, name, c.Op, "requires a string field, field is %q", f.Type)
		}
	default:
		if !f.Type.orderable() {
			return newFilterError(model, name, c.Op, "requires an orderable field (number, string, or date), field is %q", f.Type)
		}
	}

	// Operand values must match the field's base type; enum narrowing does
	// not apply to range bounds.
	base := *f
	base.Enum = nil
	operands := []any{c.Value}
	if c.Op == OpBetween {
		operands = append(operands, c.Upper)
	}
	for _, operand := range operands {
		if operand == nil {
			return newFilterError(model, name, c.Op, "requires a non-null operand")
		}
		if err := checkValue(model, name, &base, operand); err != nil {
			return newFilterError(model, name, c.Op, "operand does not match field type %q", f.Type)
		}
	}
	return nil
}

// condition translates the predicate into a DynamoDB filter condition on
// the named attribute.
func (c *Condition) condition(attr string) expression.ConditionBuilder {
	name := expression.Name(attr)
	switch c.Op {
	case OpBegins, OpBeginsWith:
		return name.BeginsWith(fmt.Sprintf("%v", c.Value))
	case OpBetween:
		return name.Between(expression.Value(c.Value), expression.Value(c.Upper))
	case OpLess:
		return name.LessThan(expression.Value(c.Value))
	case OpLessEqual:
		return name.LessThanEqual(expression.Value(c.Value))
	case OpNotEqual:
		return name.NotEqual(expression.Value(c.Value))
	case OpGreatEqual:
		return name.GreaterThanEqual(expression.Value(c.Value))
	case OpGreater:
		return name.GreaterThan(expression.Value(c.Value))
	default:
		return name.Equal(expression.Value(c.Value))
	}
}

// keyCondition translates the predicate into a DynamoDB key condition on
// the named sort attribute. DynamoDB does not support inequality on key
// attributes.
func (c *Condition) keyCondition(model, field, attr string) (expression.KeyConditionBuilder, error) {
	key := expression.Key(attr)
	switch c.Op {
	case OpBegins, OpBeginsWith:
		return key.BeginsWith(fmt.Sprintf("%v", c.Value)), nil
	case OpBetween:
		return key.Between(expression.Value(c.Value), expression.Value(c.Upper)), nil
	case OpLess:
		return key.LessThan(expression.Value(c.Value)), nil
	case OpLessEqual:
		return key.LessThanEqual(expression.Value(c.Value)), nil
	case OpEqual:
		return key.Equal(expression.Value(c.Value)), nil
	case OpGreatEqual:
		return key.GreaterThanEqual(expression.Value(c.Value)), nil
	case OpGreater:
		return key.GreaterThan(expression.Value(c.Value)), nil
	}
	return expression.KeyConditionBuilder{}, newFilterError(model, field, c.Op, "is not supported on key attributes")
}
