package dynamodel

import (
	"errors"
	"strings"
	"testing"
)

func TestParsePredicate(t *testing.T) {
	t.Run("typed constructor", func(t *testing.T) {
		cond, ok, err := parsePredicate(Begins("user#"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected a predicate")
		}
		if cond.Op != OpBegins || cond.Value != "user#" {
			t.Errorf("unexpected condition: %+v", cond)
		}
	})

	t.Run("condition value", func(t *testing.T) {
		_, ok, err := parsePredicate(Condition{Op: OpEqual, Value: 1})
		if err != nil || !ok {
			t.Fatalf("expected a predicate, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("operator map shorthand", func(t *testing.T) {
		cond, ok, err := parsePredicate(map[string]any{"<=": 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected a predicate")
		}
		if cond.Op != OpLessEqual || cond.Value != 100 {
			t.Errorf("unexpected condition: %+v", cond)
		}
	})

	t.Run("between map carries both bounds", func(t *testing.T) {
		cond, ok, err := parsePredicate(map[string]any{"between": []any{1, 10}})
		if err != nil || !ok {
			t.Fatalf("expected a predicate, got ok=%v err=%v", ok, err)
		}
		if cond.Value != 1 || cond.Upper != 10 {
			t.Errorf("unexpected bounds: %+v", cond)
		}
	})

	t.Run("between requires a pair", func(t *testing.T) {
		_, _, err := parsePredicate(map[string]any{"between": []any{1}})
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("multiple operators rejected", func(t *testing.T) {
		_, _, err := parsePredicate(map[string]any{">": 1, "<": 10})
		if err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(err.Error(), "got 2") {
			t.Errorf("expected the operator count in the error, got %q", err)
		}
	})

	t.Run("operator mixed with stray keys rejected", func(t *testing.T) {
		_, _, err := parsePredicate(map[string]any{">=": 18, "junk": 1})
		if err == nil {
			t.Fatal("expected an error")
		}
		if strings.Contains(err.Error(), "got 2") {
			t.Errorf("stray keys must not be counted as operators, got %q", err)
		}
		if !strings.Contains(err.Error(), "non-operator") {
			t.Errorf("expected the stray-key reason, got %q", err)
		}
	})

	t.Run("plain values are literals", func(t *testing.T) {
		for _, value := range []any{"hello", 42, true, map[string]any{"city": "Oslo"}} {
			_, ok, err := parsePredicate(value)
			if err != nil {
				t.Fatalf("unexpected error for %v: %v", value, err)
			}
			if ok {
				t.Errorf("expected %v to be a literal", value)
			}
		}
	})
}

func TestConditionCheck(t *testing.T) {
	stringField := &Field{Type: TypeString}
	numberField := &Field{Type: TypeNumber}
	dateField := &Field{Type: TypeDate}
	boolField := &Field{Type: TypeBoolean}

	t.Run("begins on string", func(t *testing.T) {
		if err := Begins("a").check("user", "email", stringField); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("begins_with alias", func(t *testing.T) {
		if err := BeginsWith("a").check("user", "email", stringField); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("begins on number rejected", func(t *testing.T) {
		err := Begins("1").check("user", "age", numberField)
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
	})

	t.Run("range on date allowed", func(t *testing.T) {
		cond := Between("2024-01-01T00:00:00Z", "2024-12-31T23:59:59Z")
		if err := cond.check("user", "created", dateField); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("range on boolean rejected", func(t *testing.T) {
		err := Between(false, true).check("user", "active", boolField)
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
		if filterErr.Op != OpBetween {
			t.Errorf("expected between, got %q", filterErr.Op)
		}
	})

	t.Run("comparison on boolean rejected", func(t *testing.T) {
		err := LessThan(true).check("user", "active", boolField)
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
	})

	t.Run("operand type mismatch", func(t *testing.T) {
		err := GreaterThan("eighteen").check("user", "age", numberField)
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
	})

	t.Run("null operand rejected", func(t *testing.T) {
		err := Equals(nil).check("user", "age", numberField)
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
	})

	t.Run("enum narrowing does not constrain bounds", func(t *testing.T) {
		enumField := &Field{Type: TypeString, Enum: []any{"a", "b"}}
		if err := LessThan("zzz").check("user", "grade", enumField); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestConditionKeyCondition(t *testing.T) {
	t.Run("not-equal unsupported on keys", func(t *testing.T) {
		_, err := NotEquals("x").keyCondition("user", "sk", "sk")
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
	})

	t.Run("begins supported on keys", func(t *testing.T) {
		if _, err := Begins("user#").keyCondition("user", "sk", "sk"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("range supported on keys", func(t *testing.T) {
		if _, err := Between(1, 10).keyCondition("user", "sk", "sk"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
