package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fnNode struct {
	fn func(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

func (n fnNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return n.fn(ctx, inputs)
}

func (n fnNode) RequiredInputs() []string { return nil }
func (n fnNode) Outputs() []string        { return nil }

func TestRunNode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		node := fnNode{fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return map[string]any{"value": 1.0}, nil
		}}

		result := RunNode(context.Background(), node, nil)

		assert.True(t, result.Success)
		assert.Equal(t, map[string]any{"value": 1.0}, result.Output)
		assert.Empty(t, result.Error)
	})

	t.Run("nil output becomes empty map", func(t *testing.T) {
		node := fnNode{fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return nil, nil
		}}

		result := RunNode(context.Background(), node, nil)

		assert.True(t, result.Success)
		assert.NotNil(t, result.Output)
		assert.Empty(t, result.Output)
	})

	t.Run("error becomes failed result", func(t *testing.T) {
		node := fnNode{fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return nil, errors.New("order rejected")
		}}

		result := RunNode(context.Background(), node, nil)

		assert.False(t, result.Success)
		assert.Equal(t, "order rejected", result.Error)
		assert.NotNil(t, result.Output)
	})

	t.Run("panic becomes failed result", func(t *testing.T) {
		node := fnNode{fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			panic("nil pointer somewhere")
		}}

		result := RunNode(context.Background(), node, nil)

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "node panicked")
		assert.Contains(t, result.Error, "nil pointer somewhere")
	})
}

func TestNodeRegistry(t *testing.T) {
	registry := NewNodeRegistry()

	registry.Register("echo", NodeCreatorFunc(func(ctx context.Context, params CreateNodeParams) (NodeExecutor, error) {
		return fnNode{fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return inputs, nil
		}}, nil
	}))

	t.Run("creates registered type", func(t *testing.T) {
		node, err := registry.CreateNode(context.Background(), "echo", CreateNodeParams{NodeID: "n1"})
		require.NoError(t, err)
		assert.NotNil(t, node)
	})

	t.Run("unknown type is a typed error", func(t *testing.T) {
		_, err := registry.CreateNode(context.Background(), "nope", CreateNodeParams{})
		require.Error(t, err)

		var unknownErr ErrUnknownNodeType
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "nope", unknownErr.NodeType)
	})

	t.Run("registered types are sorted", func(t *testing.T) {
		registry.Register("alpha", NodeCreatorFunc(func(ctx context.Context, params CreateNodeParams) (NodeExecutor, error) {
			return nil, nil
		}))

		assert.Equal(t, []string{"alpha", "echo"}, registry.RegisteredTypes())
	})
}

func TestBindConfig(t *testing.T) {
	type orderConfig struct {
		Symbol    string  `json:"symbol"`
		Volume    float64 `json:"volume"`
		Direction string  `json:"direction"`
	}

	var config orderConfig

	err := BindConfig(map[string]any{
		"symbol":    "EURUSD",
		"volume":    0.5,
		"direction": "buy",
		"extra":     "ignored",
	}, &config)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", config.Symbol)
	assert.Equal(t, 0.5, config.Volume)
	assert.Equal(t, "buy", config.Direction)
}
