package dynamodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nisimpson/dynamodel/modelmock"
)

func TestNewTable(t *testing.T) {
	t.Run("registers every model eagerly", func(t *testing.T) {
		table := newTestTable(t, modelmock.NewMockClient(t))
		assert.Equal(t, []string{"note", "user"}, table.ListModels())
	})

	t.Run("missing table name", func(t *testing.T) {
		def, err := ParseSchema([]byte(testSchemaDoc))
		require.NoError(t, err)

		_, err = New("", modelmock.NewMockClient(t), def)
		assert.Error(t, err)
	})

	t.Run("missing schema", func(t *testing.T) {
		_, err := New("test-table", modelmock.NewMockClient(t), nil)
		assert.Error(t, err)
	})

	t.Run("invalid schema surfaces at construction", func(t *testing.T) {
		def := &SchemaDef{
			Version: "1.0",
			Models:  map[string]*ModelSchema{"thing": NewModelSchema()},
		}
		_, err := New("test-table", modelmock.NewMockClient(t), def)
		var conflict *SchemaConflictError
		require.ErrorAs(t, err, &conflict)
	})
}

func TestTableGetModel(t *testing.T) {
	table := newTestTable(t, modelmock.NewMockClient(t))

	t.Run("registered model", func(t *testing.T) {
		m, err := table.GetModel("user")
		require.NoError(t, err)
		assert.Equal(t, "user", m.Name())
		assert.Equal(t, 9, m.Schema().Len())
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := table.GetModel("ghost")
		assert.ErrorIs(t, err, ErrModelNotFound)
	})
}

func TestTableAddModel(t *testing.T) {
	t.Run("registers a valid model", func(t *testing.T) {
		table := newTestTable(t, modelmock.NewMockClient(t))

		schema := NewModelSchema()
		require.NoError(t, schema.Add("pk", &Field{Type: TypeString, Value: "tag#${label}", Hidden: true, Required: true}))
		require.NoError(t, schema.Add("sk", &Field{Type: TypeString, Value: "tag#${label}", Hidden: true, Required: true}))
		require.NoError(t, schema.Add("label", &Field{Type: TypeString, Required: true}))

		require.NoError(t, table.AddModel("tag", schema))
		assert.Contains(t, table.ListModels(), "tag")

		m, err := table.GetModel("tag")
		require.NoError(t, err)
		assert.True(t, m.Classification().Required.Contains("label"))
	})

	t.Run("registers against a modelless schema document", func(t *testing.T) {
		def, err := ParseSchema([]byte("version: \"1.0\"\n"))
		require.NoError(t, err)

		table, err := New("test-table", modelmock.NewMockClient(t), def)
		require.NoError(t, err)
		assert.Empty(t, table.ListModels())

		schema := NewModelSchema()
		require.NoError(t, schema.Add("id", &Field{Type: TypeString, Required: true}))

		require.NoError(t, table.AddModel("thing", schema))
		assert.Equal(t, []string{"thing"}, table.ListModels())

		m, err := table.GetModel("thing")
		require.NoError(t, err)
		assert.Equal(t, "thing", m.Name())
	})

	t.Run("duplicate registration rejected", func(t *testing.T) {
		table := newTestTable(t, modelmock.NewMockClient(t))

		schema := NewModelSchema()
		schema.Add("pk", &Field{Type: TypeString, Required: true})

		err := table.AddModel("user", schema)
		var conflict *SchemaConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("model without primary hash rejected", func(t *testing.T) {
		table := newTestTable(t, modelmock.NewMockClient(t))

		schema := NewModelSchema()
		schema.Add("label", &Field{Type: TypeString})

		err := table.AddModel("tag", schema)
		var conflict *SchemaConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "pk", conflict.Field)
	})

	t.Run("invalid field rejected", func(t *testing.T) {
		table := newTestTable(t, modelmock.NewMockClient(t))

		schema := NewModelSchema()
		schema.Add("pk", &Field{Type: "text"})

		err := table.AddModel("tag", schema)
		var conflict *SchemaConflictError
		require.ErrorAs(t, err, &conflict)
	})
}

func TestTableRemoveModel(t *testing.T) {
	table := newTestTable(t, modelmock.NewMockClient(t))

	require.NoError(t, table.RemoveModel("note"))
	assert.NotContains(t, table.ListModels(), "note")

	_, err := table.GetModel("note")
	assert.ErrorIs(t, err, ErrModelNotFound)

	assert.ErrorIs(t, table.RemoveModel("note"), ErrModelNotFound)
}

func TestTableDispatchUnknownModel(t *testing.T) {
	ctx := context.Background()
	table := newTestTable(t, modelmock.NewMockClient(t))

	_, err := table.Create(ctx, "ghost", Item{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = table.Get(ctx, "ghost", Item{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = table.Find(ctx, "ghost", nil)
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = table.Update(ctx, "ghost", Item{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = table.Remove(ctx, "ghost", Item{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = table.Init("ghost", Item{})
	assert.ErrorIs(t, err, ErrModelNotFound)
}
