package dynamodel

// Item is a plain entity instance: a mapping from field name to concrete
// value. Items flow through every model operation as inputs and outputs.
type Item map[string]any

// Presence annotates how a field participates in an operation shape.
type Presence uint8

const (
	// Mandatory fields must be supplied with a non-null value.
	Mandatory Presence = iota
	// Optional fields may be omitted.
	Optional
	// Overridable fields are computed by the system; the caller may supply
	// a value to override the computed one but is not required to.
	Overridable
)

func (p Presence) String() string {
	switch p {
	case Mandatory:
		return "mandatory"
	case Optional:
		return "optional"
	case Overridable:
		return "overridable"
	}
	return "unknown"
}

// ShapeKind names one of the four operation-specific shapes.
type ShapeKind string

const (
	EntityShape      ShapeKind = "entity"
	CreateInputShape ShapeKind = "create"
	UpdateInputShape ShapeKind = "update"
	FindFilterShape  ShapeKind = "find"
)

// ShapeField is one field of an operation shape: the underlying descriptor
// plus the presence and null-allowance rules the shape imposes on it.
type ShapeField struct {
	Name      string
	Field     *Field
	Presence  Presence
	AllowNull bool // explicit null is accepted as input
	Predicate bool // a query predicate may stand in for a literal value
}

// Shape is an operation-specific projection of a model schema: an ordered
// field set with per-field presence annotations. Shapes are immutable once
// projected.
type Shape struct {
	kind   ShapeKind
	names  []string
	fields map[string]ShapeField
}

// Kind returns which of the four shapes this is.
func (s Shape) Kind() ShapeKind { return s.kind }

// Names returns the field names in schema order.
func (s Shape) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Field returns the shape annotation for name.
func (s Shape) Field(name string) (ShapeField, bool) {
	sf, ok := s.fields[name]
	return sf, ok
}

// Fields returns all shape fields in schema order.
func (s Shape) Fields() []ShapeField {
	fields := make([]ShapeField, 0, len(s.names))
	for _, name := range s.names {
		fields = append(fields, s.fields[name])
	}
	return fields
}

// Len returns the number of fields in the shape.
func (s Shape) Len() int { return len(s.names) }

// Projection holds the four operation shapes derived from one model schema.
type Projection struct {
	Entity Shape // full authoritative representation
	Create Shape // create input
	Update Shape // update input
	Find   Shape // find filter
}

// Project derives the four operation shapes from a model schema. The
// derivation is deterministic: projecting the same schema twice yields
// deep-equal shapes.
func Project(schema *ModelSchema, params SchemaParams) Projection {
	cls := Classify(schema, params)
	computed := cls.Computed()

	entity := newShape(EntityShape)
	create := newShape(CreateInputShape)
	update := newShape(UpdateInputShape)
	find := newShape(FindFilterShape)

	for _, name := range schema.Names() {
		f := schema.Field(name)
		required := cls.Required.Contains(name)

		// Entity: required fields are mandatory and non-null; optional
		// fields may be absent, with explicit null only when allowed.
		entity.add(ShapeField{
			Name:      name,
			Field:     f,
			Presence:  presenceFor(required),
			AllowNull: !required && f.allowsNull(params),
		})

		// Create input: a required field the system can compute is demoted
		// to overridable; everything else keeps its entity presence.
		createPresence := presenceFor(required)
		if required && computed.Contains(name) {
			createPresence = Overridable
		}
		create.add(ShapeField{
			Name:      name,
			Field:     f,
			Presence:  createPresence,
			AllowNull: !required && f.allowsNull(params),
		})

		// Update input: every field is optional. A field required in the
		// entity shape must be non-null if supplied; an optional field also
		// accepts explicit null to express clearing.
		update.add(ShapeField{
			Name:      name,
			Field:     f,
			Presence:  Optional,
			AllowNull: !required,
		})

		// Find filter: every field is optional and accepts either a
		// literal or a single predicate expression.
		find.add(ShapeField{
			Name:      name,
			Field:     f,
			Presence:  Optional,
			Predicate: true,
		})
	}

	return Projection{Entity: entity, Create: create, Update: update, Find: find}
}

func presenceFor(required bool) Presence {
	if required {
		return Mandatory
	}
	return Optional
}

func newShape(kind ShapeKind) Shape {
	return Shape{kind: kind, fields: map[string]ShapeField{}}
}

func (s *Shape) add(sf ShapeField) {
	s.names = append(s.names, sf.Name)
	s.fields[sf.Name] = sf
}

// Validate checks an item against the shape's presence and type rules.
// Violations identify the model and field by name and are never silently
// coerced. Find-filter shapes additionally accept predicate expressions in
// place of literals and validate operator compatibility.
func (s Shape) Validate(model string, props Item) error {
	for name := range props {
		if _, ok := s.fields[name]; !ok {
			return newViolation(model, name, "field is not defined in the model")
		}
	}
	for _, name := range s.names {
		sf := s.fields[name]
		value, present := props[name]

		if !present {
			if sf.Presence == Mandatory {
				return newViolation(model, name, "missing required field")
			}
			continue
		}
		if value == nil {
			if !sf.AllowNull {
				return newViolation(model, name, "null is not allowed")
			}
			continue
		}
		if sf.Predicate {
			cond, isPredicate, err := parsePredicate(value)
			if err != nil {
				return newFilterError(model, name, "", "%v", err)
			}
			if isPredicate {
				if err := cond.check(model, name, sf.Field); err != nil {
					return err
				}
				continue
			}
		}
		if err := checkValue(model, name, sf.Field, value); err != nil {
			return err
		}
	}
	return nil
}
