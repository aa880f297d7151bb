package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

func addNodes(t *testing.T, g *Graph, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, g.AddNode(NewNode(id, KindResource)))
	}
}

func sortedIDs(t *testing.T, g *Graph) []string {
	t.Helper()
	nodes, err := g.TopologicalSort()
	require.NoError(t, err)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestTopologicalSortDependenciesFirst(t *testing.T) {
	g := New()
	addNodes(t, g, "resource.null_resource.b", "resource.null_resource.a")
	require.NoError(t, g.AddEdge("resource.null_resource.a", "resource.null_resource.b"))

	ids := sortedIDs(t, g)
	assert.Equal(t, []string{"resource.null_resource.a", "resource.null_resource.b"}, ids)
}

func TestTopologicalSortRegistrationOrderTieBreak(t *testing.T) {
	g := New()
	addNodes(t, g, "resource.null_resource.c", "resource.null_resource.a", "resource.null_resource.b")

	ids := sortedIDs(t, g)
	assert.Equal(t, []string{
		"resource.null_resource.c",
		"resource.null_resource.a",
		"resource.null_resource.b",
	}, ids)
}

func TestTopologicalSortRoundsBeforeUnblockedNodes(t *testing.T) {
	// b depends on a; c is independent. The first round resolves a and c
	// together, so c precedes b even though b registered earlier.
	g := New()
	addNodes(t, g, "a", "b", "c")
	require.NoError(t, g.AddEdge("a", "b"))

	ids := sortedIDs(t, g)
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestTopologicalSortCycle(t *testing.T) {
	g := New()
	addNodes(t, g, "resource.null_resource.a", "resource.null_resource.b")
	require.NoError(t, g.AddEdge("resource.null_resource.a", "resource.null_resource.b"))
	require.NoError(t, g.AddEdge("resource.null_resource.b", "resource.null_resource.a"))

	_, err := g.TopologicalSort()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCycleDetected))
	assert.Contains(t, err.Error(), "resource.null_resource.a")
	assert.Contains(t, err.Error(), "resource.null_resource.b")
}

func TestSelfEdgeIsCycle(t *testing.T) {
	g := New()
	addNodes(t, g, "a", "b")
	require.NoError(t, g.AddEdge("b", "b"))

	_, err := g.TopologicalSort()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCycleDetected))
}

func TestAddEdgeMissingNode(t *testing.T) {
	g := New()
	addNodes(t, g, "a")

	err := g.AddEdge("missing", "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeMissingNode))
}

func TestAddDuplicateNode(t *testing.T) {
	g := New()
	addNodes(t, g, "a")
	assert.Error(t, g.AddNode(NewNode("a", KindResource)))
}

func TestDuplicateEdgesCollapse(t *testing.T) {
	g := New()
	addNodes(t, g, "a", "b")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"))

	assert.Equal(t, []string{"a"}, g.GetNode("b").DependsOn)
	assert.Equal(t, []string{"b"}, g.GetNode("a").DependedOnBy)
}
