package xref

import (
	"testing"

	"notesmith/internal/note"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docWithRelated(id string, related ...string) *note.Document {
	return &note.Document{ID: id, Related: related}
}

func TestResolve_MutualRelationYieldsOneEdge(t *testing.T) {
	g, warnings := Resolve([]*note.Document{
		docWithRelated("a", "b"),
		docWithRelated("b", "a"),
	})

	assert.Empty(t, warnings)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{A: "a", B: "b"}, g.Edges[0])
}

func TestResolve_DanglingReference(t *testing.T) {
	g, warnings := Resolve([]*note.Document{
		docWithRelated("a", "ghost"),
	})

	assert.Empty(t, g.Edges)
	require.Len(t, warnings, 1)
	assert.Equal(t, note.KindDanglingReference, warnings[0].Kind)
	assert.Equal(t, note.SeverityInfo, warnings[0].Severity)
	assert.Equal(t, "ghost", warnings[0].Target)
}

func TestResolve_SelfReference(t *testing.T) {
	g, warnings := Resolve([]*note.Document{
		docWithRelated("a", "a", "b"),
		docWithRelated("b"),
	})

	require.Len(t, warnings, 1)
	assert.Equal(t, note.KindSelfReference, warnings[0].Kind)
	assert.Equal(t, note.SeverityError, warnings[0].Severity)

	// Only the self-relation is skipped; the other survives.
	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{A: "a", B: "b"}, g.Edges[0])
}

func TestResolveRelations_Idempotent(t *testing.T) {
	g := NewGraph()
	g.AddDocument(docWithRelated("a", "b", "ghost"))
	g.AddDocument(docWithRelated("b", "a"))
	g.AddDocument(docWithRelated("c", "c"))

	first := g.ResolveRelations()
	firstEdges := append([]Edge(nil), g.Edges...)

	second := g.ResolveRelations()

	assert.Equal(t, firstEdges, g.Edges)
	assert.Equal(t, first, second)
}

func TestGraph_Neighbors(t *testing.T) {
	g, _ := Resolve([]*note.Document{
		docWithRelated("hub", "a", "b"),
		docWithRelated("a"),
		docWithRelated("b"),
	})

	assert.Equal(t, []string{"a", "b"}, g.Neighbors("hub"))
	assert.Equal(t, []string{"hub"}, g.Neighbors("a"))
	assert.Empty(t, g.Neighbors("missing"))
}

func TestGraph_Components(t *testing.T) {
	g, _ := Resolve([]*note.Document{
		// Triangle: cyclic.
		docWithRelated("a", "b"),
		docWithRelated("b", "c"),
		docWithRelated("c", "a"),
		// Chain: acyclic.
		docWithRelated("x", "y"),
		docWithRelated("y"),
		// Isolated.
		docWithRelated("z"),
	})

	components := g.Components()
	require.Len(t, components, 3)

	t.Run("Cyclic triangle", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, components[0].Members)
		assert.Equal(t, 3, components[0].Edges)
		assert.True(t, components[0].Cyclic)
	})

	t.Run("Acyclic chain", func(t *testing.T) {
		assert.Equal(t, []string{"x", "y"}, components[1].Members)
		assert.False(t, components[1].Cyclic)
	})

	t.Run("Isolated document", func(t *testing.T) {
		assert.Equal(t, []string{"z"}, components[2].Members)
		assert.False(t, components[2].Cyclic)
	})
}
