package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownNodeType aborts a whole run; an unregistered type in a workflow
// is an infrastructure failure, not a node failure.
type ErrUnknownNodeType struct {
	NodeType string
}

func (e ErrUnknownNodeType) Error() string {
	return fmt.Sprintf("unknown node type: %s", e.NodeType)
}

// NodeRegistry maps node type names to their creators. Registration happens
// once at startup; lookups are concurrent.
type NodeRegistry struct {
	mu       sync.RWMutex
	creators map[string]NodeCreator
}

func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		creators: map[string]NodeCreator{},
	}
}

func (r *NodeRegistry) Register(nodeType string, creator NodeCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creators[nodeType] = creator
}

func (r *NodeRegistry) CreateNode(ctx context.Context, nodeType string, params CreateNodeParams) (NodeExecutor, error) {
	r.mu.RLock()
	creator, ok := r.creators[nodeType]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownNodeType{NodeType: nodeType}
	}

	return creator.CreateNode(ctx, params)
}

func (r *NodeRegistry) RegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.creators))
	for nodeType := range r.creators {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// NodeCreatorFunc adapts a function to the NodeCreator interface.
type NodeCreatorFunc func(ctx context.Context, params CreateNodeParams) (NodeExecutor, error)

func (f NodeCreatorFunc) CreateNode(ctx context.Context, params CreateNodeParams) (NodeExecutor, error) {
	return f(ctx, params)
}
