package dynamodel

// FieldSet is an ordered collection of field names. Order follows the
// schema's insertion order.
type FieldSet []string

// Contains reports whether the set includes name.
func (s FieldSet) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// Classification partitions a model's fields into the six named sets that
// drive shape projection. Required and Optional are mutually exclusive and
// exhaustive; the remaining four are independent flags and may overlap with
// each other and with either of the first two.
type Classification struct {
	Required       FieldSet
	Optional       FieldSet
	Generated      FieldSet
	Defaulted      FieldSet
	ValueTemplated FieldSet
	Timestamped    FieldSet
}

// Classify computes the six field sets for a model schema. The result is a
// pure function of the schema and params: no side effects, deterministic,
// and safe to recompute at any time. The params decide which field names
// count as the created and updated timestamps.
func Classify(schema *ModelSchema, params SchemaParams) Classification {
	var c Classification
	for _, name := range schema.Names() {
		f := schema.Field(name)
		if f.Required {
			c.Required = append(c.Required, name)
		} else {
			// Absence of the required flag means optional.
			c.Optional = append(c.Optional, name)
		}
		if f.generated() {
			c.Generated = append(c.Generated, name)
		}
		if f.defaulted() {
			c.Defaulted = append(c.Defaulted, name)
		}
		if f.valueTemplated() {
			c.ValueTemplated = append(c.ValueTemplated, name)
		}
		if f.Timestamp ||
			(name == params.CreatedField && params.Timestamps.coversCreate()) ||
			(name == params.UpdatedField && params.Timestamps.coversUpdate()) {
			c.Timestamped = append(c.Timestamped, name)
		}
	}
	return c
}

// Computed returns the union of the Defaulted, Generated, ValueTemplated,
// and Timestamped sets. A field belonging to more than one set is claimed
// by the first in that order, which fixes the precedence used by the
// create-input projection.
func (c Classification) Computed() FieldSet {
	var computed FieldSet
	seen := map[string]bool{}
	add := func(set FieldSet) {
		for _, name := range set {
			if !seen[name] {
				seen[name] = true
				computed = append(computed, name)
			}
		}
	}
	add(c.Defaulted)
	add(c.Generated)
	add(c.ValueTemplated)
	add(c.Timestamped)
	return computed
}
