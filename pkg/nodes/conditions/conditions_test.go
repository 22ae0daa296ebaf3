package conditions

import (
	"context"
	"testing"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareNode(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		inputs map[string]any
		want   bool
	}{
		{
			name:   "greater than fires",
			config: map[string]any{"operator": ">", "threshold": 70.0},
			inputs: map[string]any{"value": 75.0},
			want:   true,
		},
		{
			name:   "greater than holds",
			config: map[string]any{"operator": ">", "threshold": 70.0},
			inputs: map[string]any{"value": 65.0},
			want:   false,
		},
		{
			name:   "custom input key",
			config: map[string]any{"input_key": "rsi", "operator": "<", "threshold": 30.0},
			inputs: map[string]any{"rsi": 25.0},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewCompareCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
				Config: tt.config,
			})
			require.NoError(t, err)

			output, err := node.Execute(context.Background(), tt.inputs)
			require.NoError(t, err)

			assert.Equal(t, tt.want, output["result"])
		})
	}
}

func TestCompareNodeRejectsUnknownOperator(t *testing.T) {
	_, err := NewCompareCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"operator": "!=", "threshold": 1.0},
	})

	assert.ErrorIs(t, err, domain.ErrUnsafeCondition)
}

func TestCompareNodeMissingInput(t *testing.T) {
	node, err := NewCompareCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"operator": ">", "threshold": 1.0},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), map[string]any{})
	assert.Error(t, err)

	_, err = node.Execute(context.Background(), map[string]any{"value": "not a number"})
	assert.Error(t, err)
}

func TestIfElseNodeRoutesBranches(t *testing.T) {
	node, err := NewIfElseCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"operator": ">", "threshold": 1.10},
	})
	require.NoError(t, err)

	t.Run("true branch", func(t *testing.T) {
		inputs := map[string]any{"value": 1.20, "symbol": "EURUSD"}

		output, err := node.Execute(context.Background(), inputs)
		require.NoError(t, err)

		assert.Equal(t, true, output["result"])
		assert.Equal(t, inputs, output["true"])
		assert.NotContains(t, output, "false")
	})

	t.Run("false branch", func(t *testing.T) {
		inputs := map[string]any{"value": 1.05}

		output, err := node.Execute(context.Background(), inputs)
		require.NoError(t, err)

		assert.Equal(t, false, output["result"])
		assert.Equal(t, inputs, output["false"])
		assert.NotContains(t, output, "true")
	})
}
