package executor

import (
	"errors"
	"fmt"

	"github.com/tradeflow/tradeflow/internal/domain"
)

var (
	// ErrCycleDetected fails the whole run before any node executes.
	ErrCycleDetected = errors.New("workflow graph contains a cycle")

	// ErrDanglingEdge is returned when an edge references a node id that is
	// not part of the workflow.
	ErrDanglingEdge = errors.New("edge references unknown node")
)

// graph is the per-run adjacency view of a workflow snapshot. Nodes live in
// the workflow's flat array; the graph only holds indices into it.
type graph struct {
	nodes    []domain.WorkflowNode
	indexOf  map[string]int
	incoming map[string][]domain.WorkflowEdge
	outgoing map[string][]domain.WorkflowEdge
}

func buildGraph(nodes []domain.WorkflowNode, edges []domain.WorkflowEdge) (*graph, error) {
	g := &graph{
		nodes:    nodes,
		indexOf:  make(map[string]int, len(nodes)),
		incoming: map[string][]domain.WorkflowEdge{},
		outgoing: map[string][]domain.WorkflowEdge{},
	}

	for i, node := range nodes {
		g.indexOf[node.ID] = i
	}

	for _, edge := range edges {
		if _, ok := g.indexOf[edge.Source]; !ok {
			return nil, fmt.Errorf("%w: source %q", ErrDanglingEdge, edge.Source)
		}

		if _, ok := g.indexOf[edge.Target]; !ok {
			return nil, fmt.Errorf("%w: target %q", ErrDanglingEdge, edge.Target)
		}

		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
		g.incoming[edge.Target] = append(g.incoming[edge.Target], edge)
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	return g, nil
}

// detectCycles runs a DFS with recursion-stack marking over every component.
func (g *graph) detectCycles() error {
	const (
		unvisited = iota
		inStack
		done
	)

	state := make([]int, len(g.nodes))

	var visit func(index int) error

	visit = func(index int) error {
		state[index] = inStack

		for _, edge := range g.outgoing[g.nodes[index].ID] {
			targetIndex := g.indexOf[edge.Target]

			switch state[targetIndex] {
			case inStack:
				return fmt.Errorf("%w: involving node %q", ErrCycleDetected, edge.Target)
			case unvisited:
				if err := visit(targetIndex); err != nil {
					return err
				}
			}
		}

		state[index] = done

		return nil
	}

	for i := range g.nodes {
		if state[i] == unvisited {
			if err := visit(i); err != nil {
				return err
			}
		}
	}

	return nil
}

// topologicalOrder returns the nodes in dependency order. Ties are broken by
// original array index so runs stay reproducible when several orders are
// valid.
func (g *graph) topologicalOrder() []domain.WorkflowNode {
	indegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		indegree[node.ID] = len(g.incoming[node.ID])
	}

	order := make([]domain.WorkflowNode, 0, len(g.nodes))
	placed := make([]bool, len(g.nodes))

	for len(order) < len(g.nodes) {
		for i, node := range g.nodes {
			if placed[i] || indegree[node.ID] != 0 {
				continue
			}

			placed[i] = true
			order = append(order, node)

			for _, edge := range g.outgoing[node.ID] {
				indegree[edge.Target]--
			}

			break
		}
	}

	return order
}
