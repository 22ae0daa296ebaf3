package executor

import (
	"testing"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodesOf(ids ...string) []domain.WorkflowNode {
	nodes := make([]domain.WorkflowNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, domain.WorkflowNode{ID: id, Type: "echo"})
	}

	return nodes
}

func orderOf(t *testing.T, nodes []domain.WorkflowNode, edges []domain.WorkflowEdge) []string {
	t.Helper()

	g, err := buildGraph(nodes, edges)
	require.NoError(t, err)

	ids := make([]string, 0, len(nodes))
	for _, node := range g.topologicalOrder() {
		ids = append(ids, node.ID)
	}

	return ids
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("no edges keeps declaration order", func(t *testing.T) {
		order := orderOf(t, nodesOf("a", "b", "c"), nil)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("linear chain", func(t *testing.T) {
		order := orderOf(t, nodesOf("c", "b", "a"), []domain.WorkflowEdge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
		})
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("diamond breaks ties by declaration order", func(t *testing.T) {
		order := orderOf(t, nodesOf("start", "right", "left", "end"), []domain.WorkflowEdge{
			{Source: "start", Target: "left"},
			{Source: "start", Target: "right"},
			{Source: "left", Target: "end"},
			{Source: "right", Target: "end"},
		})
		assert.Equal(t, []string{"start", "right", "left", "end"}, order)
	})
}

func TestBuildGraphRejectsCycle(t *testing.T) {
	_, err := buildGraph(nodesOf("a", "b", "c"), []domain.WorkflowEdge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "c", Target: "a"},
	})

	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestBuildGraphRejectsSelfLoop(t *testing.T) {
	_, err := buildGraph(nodesOf("a"), []domain.WorkflowEdge{
		{Source: "a", Target: "a"},
	})

	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestBuildGraphRejectsDanglingEdge(t *testing.T) {
	_, err := buildGraph(nodesOf("a"), []domain.WorkflowEdge{
		{Source: "a", Target: "ghost"},
	})

	assert.ErrorIs(t, err, ErrDanglingEdge)
}
