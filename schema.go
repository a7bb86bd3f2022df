package dynamodel

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ModelSchema is an ordered mapping from field name to [Field] describing
// one entity type. Field order is insertion order; it drives default
// projection ordering but carries no other meaning. Duplicate field names
// are rejected.
type ModelSchema struct {
	names  []string
	fields map[string]*Field
}

// NewModelSchema returns an empty model schema.
func NewModelSchema() *ModelSchema {
	return &ModelSchema{fields: map[string]*Field{}}
}

// Add appends a field to the schema. Adding a field under an existing name
// is an error.
func (m *ModelSchema) Add(name string, f *Field) error {
	if m.fields == nil {
		m.fields = map[string]*Field{}
	}
	if _, exists := m.fields[name]; exists {
		return fmt.Errorf("duplicate field %q", name)
	}
	m.names = append(m.names, name)
	m.fields[name] = f
	return nil
}

// Names returns the field names in insertion order.
func (m *ModelSchema) Names() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Field returns the descriptor for name, or nil if the schema does not
// define it.
func (m *ModelSchema) Field(name string) *Field {
	return m.fields[name]
}

// Len returns the number of fields in the schema.
func (m *ModelSchema) Len() int {
	return len(m.names)
}

// UnmarshalYAML decodes a mapping node while preserving key order. The
// generic yaml map decoding would lose insertion order, so the node content
// is walked directly.
func (m *ModelSchema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("model schema must be a mapping, got %v", node.Kind)
	}
	m.names = nil
	m.fields = map[string]*Field{}
	for i := 0; i < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		field := &Field{}
		if err := node.Content[i+1].Decode(field); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if err := m.Add(name, field); err != nil {
			return err
		}
	}
	return nil
}

// TimestampPolicy controls which of the created and updated fields are
// maintained by the system. A schema document may spell the policy as a
// boolean (true means both) or as one of "create", "update", or "both".
type TimestampPolicy string

const (
	TimestampsNone   TimestampPolicy = ""
	TimestampsCreate TimestampPolicy = "create"
	TimestampsUpdate TimestampPolicy = "update"
	TimestampsBoth   TimestampPolicy = "both"
)

// UnmarshalYAML accepts both boolean and string forms.
func (p *TimestampPolicy) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			*p = TimestampsBoth
		} else {
			*p = TimestampsNone
		}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch TimestampPolicy(s) {
	case TimestampsNone, TimestampsCreate, TimestampsUpdate, TimestampsBoth:
		*p = TimestampPolicy(s)
		return nil
	}
	return fmt.Errorf("invalid timestamp policy %q", s)
}

// coversCreate reports whether the policy maintains the created field.
func (p TimestampPolicy) coversCreate() bool {
	return p == TimestampsCreate || p == TimestampsBoth
}

// coversUpdate reports whether the policy maintains the updated field.
func (p TimestampPolicy) coversUpdate() bool {
	return p == TimestampsUpdate || p == TimestampsBoth
}

// SchemaParams holds schema-wide settings: the attribute names used for the
// entity type discriminator and the created and updated timestamps, the
// null storage policy, and the timestamp maintenance policy.
type SchemaParams struct {
	TypeField    string          `yaml:"typeField,omitempty" json:"typeField,omitempty"`
	CreatedField string          `yaml:"createdField,omitempty" json:"createdField,omitempty"`
	UpdatedField string          `yaml:"updatedField,omitempty" json:"updatedField,omitempty"`
	Nulls        bool            `yaml:"nulls,omitempty" json:"nulls,omitempty"`
	Timestamps   TimestampPolicy `yaml:"timestamps,omitempty" json:"timestamps,omitempty"`
}

// DefaultSchemaParams returns the parameter defaults applied when a schema
// document omits them.
func DefaultSchemaParams() SchemaParams {
	return SchemaParams{
		TypeField:    "_type",
		CreatedField: "created",
		UpdatedField: "updated",
	}
}

func (p *SchemaParams) applyDefaults() {
	defaults := DefaultSchemaParams()
	if p.TypeField == "" {
		p.TypeField = defaults.TypeField
	}
	if p.CreatedField == "" {
		p.CreatedField = defaults.CreatedField
	}
	if p.UpdatedField == "" {
		p.UpdatedField = defaults.UpdatedField
	}
}

// IndexDef declares a table index by its hash and sort attribute names.
// The primary index is named "primary"; any other entry describes a
// secondary index. Index selection is the storage layer's concern; the
// definitions here only identify key attributes for request building.
type IndexDef struct {
	Hash    string `yaml:"hash" json:"hash"`
	Sort    string `yaml:"sort,omitempty" json:"sort,omitempty"`
	Project any    `yaml:"project,omitempty" json:"project,omitempty"`
}

// PrimaryIndexName is the reserved name of the table's primary index.
const PrimaryIndexName = "primary"

// SchemaDef is the root schema document: a version marker, the model
// definitions, the index declarations, and optional global params.
type SchemaDef struct {
	Version string                  `yaml:"version" json:"version"`
	Models  map[string]*ModelSchema `yaml:"models" json:"models"`
	Indexes map[string]*IndexDef    `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	Params  SchemaParams            `yaml:"params,omitempty" json:"params,omitempty"`
}

// ParseSchema decodes and validates a schema document. The document may be
// YAML or JSON. Returns the first [SchemaConflictError] found, if any.
func ParseSchema(data []byte) (*SchemaDef, error) {
	def := &SchemaDef{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	def.Params.applyDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// ModelNames returns the defined model names in sorted order.
func (s *SchemaDef) ModelNames() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Primary returns the primary index definition, or nil if the schema
// declares no indexes.
func (s *SchemaDef) Primary() *IndexDef {
	if s.Indexes == nil {
		return nil
	}
	return s.Indexes[PrimaryIndexName]
}

// Validate checks every model definition for contradictory field
// attributes. Validation runs once at schema-load time; models that pass
// are safe to classify and project at any point afterward.
func (s *SchemaDef) Validate() error {
	if len(s.Indexes) > 0 && s.Primary() == nil {
		return newSchemaConflict("", "", "indexes are declared but %q is missing", PrimaryIndexName)
	}
	for _, name := range s.ModelNames() {
		model := s.Models[name]
		if model == nil || model.Len() == 0 {
			return newSchemaConflict(name, "", "model defines no fields")
		}
		for _, fieldName := range model.Names() {
			if err := validateField(name, fieldName, model.Field(fieldName)); err != nil {
				return err
			}
		}
		if err := validateTemplates(name, model); err != nil {
			return err
		}
		if primary := s.Primary(); primary != nil {
			if model.Field(primary.Hash) == nil {
				return newSchemaConflict(name, primary.Hash, "model does not define the primary hash attribute")
			}
		}
	}
	return nil
}

func validateField(model, name string, f *Field) error {
	if f == nil {
		return newSchemaConflict(model, name, "field has no descriptor")
	}
	if !f.Type.valid() {
		return newSchemaConflict(model, name, "unknown type %q", f.Type)
	}
	if f.Items != nil && f.Type != TypeArray && f.Type != TypeTypedArray {
		return newSchemaConflict(model, name, "items is only valid on array and typed-array fields")
	}
	if f.Schema != nil && f.Type != TypeObject {
		return newSchemaConflict(model, name, "schema is only valid on object fields")
	}
	if f.Timestamp && f.Type != TypeDate && f.Type != TypeNumber {
		return newSchemaConflict(model, name, "timestamp fields must be date or number")
	}
	if f.Generate != nil {
		switch g := f.Generate.(type) {
		case bool:
		case string:
			if !knownGenerator(g) {
				return newSchemaConflict(model, name, "unknown generator %q", g)
			}
		default:
			return newSchemaConflict(model, name, "generate must be a boolean or a string")
		}
	}
	if f.Enum != nil {
		if len(f.Enum) == 0 {
			return newSchemaConflict(model, name, "enum must not be empty")
		}
		base := *f
		base.Enum = nil
		for _, v := range f.Enum {
			if err := checkValue(model, name, &base, v); err != nil {
				return newSchemaConflict(model, name, "enum value %v does not match type %q", v, f.Type)
			}
		}
	}
	if f.Items != nil {
		if err := validateField(model, name+".items", f.Items); err != nil {
			return err
		}
	}
	if f.Schema != nil {
		for _, childName := range f.Schema.Names() {
			if err := validateField(model, name+"."+childName, f.Schema.Field(childName)); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateTemplates verifies that every value template references only
// fields defined by the same model.
func validateTemplates(model string, schema *ModelSchema) error {
	for _, name := range schema.Names() {
		f := schema.Field(name)
		if !f.valueTemplated() {
			continue
		}
		for _, ref := range templateRefs(f.Value) {
			if schema.Field(ref) == nil {
				return newSchemaConflict(model, name, "value template references unknown field %q", ref)
			}
		}
	}
	return nil
}
