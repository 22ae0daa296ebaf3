package notifications

import (
	"context"
	"testing"

	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardNotificationNode(t *testing.T) {
	notifier := notify.NewDashboardNotifier()
	deps := domain.NodeDeps{Notifier: notifier}

	node, err := NewDashboardNotificationCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{
			"title":   "Order placed",
			"message": "Bought 0.1 lots EURUSD",
		},
		Context: domain.NodeContext{UserID: "user-1"},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, true, output["sent"])
	assert.Equal(t, "info", output["severity"])

	recent := notifier.Recent("user-1")
	require.Len(t, recent, 1)
	assert.Equal(t, "Order placed", recent[0].Title)
	assert.Equal(t, "Bought 0.1 lots EURUSD", recent[0].Message)

	assert.Empty(t, notifier.Recent("someone-else"))
}

func TestDashboardNotificationMessageFallsBackToInputs(t *testing.T) {
	notifier := notify.NewDashboardNotifier()
	deps := domain.NodeDeps{Notifier: notifier}

	node, err := NewDashboardNotificationCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config:  map[string]any{"title": "Signal"},
		Context: domain.NodeContext{UserID: "user-1"},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), map[string]any{"rsi": 28.5})
	require.NoError(t, err)
	assert.Contains(t, output["message"], "rsi")
}

func TestDashboardNotificationRequiresNotifier(t *testing.T) {
	node, err := NewDashboardNotificationCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"title": "x"},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestSlackNotificationRequiresTokenAndChannel(t *testing.T) {
	_, err := NewSlackNotificationCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"message": "hello"},
	})
	assert.Error(t, err)
}
