package dynamodel

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProjectShapes(t *testing.T) {
	schema := testSchema(t)
	params := DefaultSchemaParams()
	proj := Project(schema, params)

	t.Run("entity requires required fields", func(t *testing.T) {
		sf, ok := proj.Entity.Field("email")
		if !ok {
			t.Fatal("email missing from entity shape")
		}
		if sf.Presence != Mandatory {
			t.Errorf("expected mandatory, got %s", sf.Presence)
		}
		if sf.AllowNull {
			t.Error("required fields never allow null")
		}
	})

	t.Run("entity keeps optional fields optional", func(t *testing.T) {
		sf, _ := proj.Entity.Field("name")
		if sf.Presence != Optional {
			t.Errorf("expected optional, got %s", sf.Presence)
		}
	})

	t.Run("create demotes computed required fields", func(t *testing.T) {
		for _, name := range []string{"id", "status", "slug", "created"} {
			sf, _ := proj.Create.Field(name)
			if sf.Presence != Overridable {
				t.Errorf("%s: expected overridable, got %s", name, sf.Presence)
			}
		}
	})

	t.Run("create keeps plain required fields mandatory", func(t *testing.T) {
		sf, _ := proj.Create.Field("email")
		if sf.Presence != Mandatory {
			t.Errorf("expected mandatory, got %s", sf.Presence)
		}
	})

	t.Run("update makes every field optional", func(t *testing.T) {
		for _, sf := range proj.Update.Fields() {
			if sf.Presence != Optional {
				t.Errorf("%s: expected optional, got %s", sf.Name, sf.Presence)
			}
		}
	})

	t.Run("update allows null only on non-required fields", func(t *testing.T) {
		email, _ := proj.Update.Field("email")
		if email.AllowNull {
			t.Error("required email must not accept null")
		}
		name, _ := proj.Update.Field("name")
		if !name.AllowNull {
			t.Error("optional name must accept explicit null")
		}
	})

	t.Run("find accepts predicates on every field", func(t *testing.T) {
		for _, sf := range proj.Find.Fields() {
			if !sf.Predicate {
				t.Errorf("%s: expected predicate support", sf.Name)
			}
			if sf.Presence != Optional {
				t.Errorf("%s: expected optional, got %s", sf.Name, sf.Presence)
			}
		}
	})

	t.Run("shapes preserve schema order", func(t *testing.T) {
		want := schema.Names()
		for _, shape := range []Shape{proj.Entity, proj.Create, proj.Update, proj.Find} {
			if diff := cmp.Diff(want, shape.Names()); diff != "" {
				t.Errorf("%s shape order mismatch (-want +got):\n%s", shape.Kind(), diff)
			}
		}
	})
}

func TestProjectDeterministic(t *testing.T) {
	schema := testSchema(t)
	params := DefaultSchemaParams()

	first := Project(schema, params)
	second := Project(schema, params)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(Shape{})); diff != "" {
		t.Errorf("projection is not deterministic (-first +second):\n%s", diff)
	}
}

func TestShapeValidateEntity(t *testing.T) {
	schema := testSchema(t)
	proj := Project(schema, DefaultSchemaParams())

	t.Run("complete entity passes", func(t *testing.T) {
		err := proj.Entity.Validate("user", Item{
			"id":      "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			"email":   "jane@example.com",
			"status":  "active",
			"slug":    "user#01ARZ3NDEKTSV4RRFFQ69G5FAV",
			"created": "2024-01-15T10:30:00Z",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		err := proj.Entity.Validate("user", Item{"id": "x"})
		var violation *ProjectionViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected ProjectionViolation, got %v", err)
		}
		if violation.Field != "email" {
			t.Errorf("expected email violation, got %q", violation.Field)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		err := proj.Entity.Validate("user", Item{"nickname": "jd"})
		var violation *ProjectionViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected ProjectionViolation, got %v", err)
		}
		if violation.Field != "nickname" {
			t.Errorf("expected nickname violation, got %q", violation.Field)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		err := proj.Entity.Validate("user", Item{
			"id":      "x",
			"email":   42,
			"status":  "active",
			"slug":    "user#x",
			"created": "2024-01-15T10:30:00Z",
		})
		var violation *ProjectionViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected ProjectionViolation, got %v", err)
		}
	})
}

func TestShapeValidateCreate(t *testing.T) {
	schema := testSchema(t)
	proj := Project(schema, DefaultSchemaParams())

	t.Run("computed fields may be omitted", func(t *testing.T) {
		if err := proj.Create.Validate("user", Item{"email": "jane@example.com"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("computed fields may be overridden", func(t *testing.T) {
		err := proj.Create.Validate("user", Item{
			"email": "jane@example.com",
			"id":    "custom-id",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("plain required field still mandatory", func(t *testing.T) {
		err := proj.Create.Validate("user", Item{"name": "Jane"})
		var violation *ProjectionViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected ProjectionViolation, got %v", err)
		}
	})
}

func TestShapeValidateUpdate(t *testing.T) {
	schema := testSchema(t)
	proj := Project(schema, DefaultSchemaParams())

	t.Run("partial update passes", func(t *testing.T) {
		if err := proj.Update.Validate("user", Item{"name": "Jane"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("null clears optional field", func(t *testing.T) {
		if err := proj.Update.Validate("user", Item{"name": nil}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("null rejected on required field", func(t *testing.T) {
		err := proj.Update.Validate("user", Item{"email": nil})
		var violation *ProjectionViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected ProjectionViolation, got %v", err)
		}
		if violation.Field != "email" {
			t.Errorf("expected email violation, got %q", violation.Field)
		}
	})
}

func TestShapeValidateFind(t *testing.T) {
	schema := testSchema(t)
	proj := Project(schema, DefaultSchemaParams())

	t.Run("literal value", func(t *testing.T) {
		if err := proj.Find.Validate("user", Item{"email": "jane@example.com"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("typed predicate", func(t *testing.T) {
		if err := proj.Find.Validate("user", Item{"age": GreaterOrEqual(18)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("raw operator map", func(t *testing.T) {
		filter := Item{"age": map[string]any{">=": 18}}
		if err := proj.Find.Validate("user", filter); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("two operators on one field", func(t *testing.T) {
		filter := Item{"age": map[string]any{">=": 18, "<": 65}}
		err := proj.Find.Validate("user", filter)
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
	})

	t.Run("begins on non-string field", func(t *testing.T) {
		err := proj.Find.Validate("user", Item{"age": Begins("1")})
		var filterErr *FilterConstructionError
		if !errors.As(err, &filterErr) {
			t.Fatalf("expected FilterConstructionError, got %v", err)
		}
		if filterErr.Op != OpBegins {
			t.Errorf("expected begins, got %q", filterErr.Op)
		}
	})
}
