// Package notifications provides the nodes that surface workflow outcomes to
// users: the in-app dashboard feed and Slack.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/slack-go/slack"
)

const (
	NodeTypeDashboardNotification = "DashboardNotification"
	NodeTypeSlackNotification     = "SlackNotification"
)

type DashboardConfig struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type DashboardNotificationNode struct {
	notifier domain.Notifier
	config   DashboardConfig
	userID   string
}

func NewDashboardNotificationCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config DashboardConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &DashboardNotificationNode{
			notifier: deps.Notifier,
			config:   config,
			userID:   params.Context.UserID,
		}, nil
	})
}

func (n *DashboardNotificationNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if n.notifier == nil {
		return nil, fmt.Errorf("no notifier configured")
	}

	message := renderMessage(n.config.Message, inputs)

	severity := n.config.Severity
	if severity == "" {
		severity = "info"
	}

	notification := domain.Notification{
		UserID:    n.userID,
		Title:     n.config.Title,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	if err := n.notifier.Notify(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	return map[string]any{
		"sent":     true,
		"title":    n.config.Title,
		"message":  message,
		"severity": severity,
	}, nil
}

func (n *DashboardNotificationNode) RequiredInputs() []string {
	return nil
}

func (n *DashboardNotificationNode) Outputs() []string {
	return []string{"sent", "title", "message", "severity"}
}

type SlackConfig struct {
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

type SlackNotificationNode struct {
	client *slack.Client
	config SlackConfig
}

func NewSlackNotificationCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config SlackConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.Token == "" || config.ChannelID == "" {
			return nil, fmt.Errorf("slack token and channel_id must be configured")
		}

		return &SlackNotificationNode{
			client: slack.New(config.Token),
			config: config,
		}, nil
	})
}

func (n *SlackNotificationNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	message := renderMessage(n.config.Message, inputs)
	if message == "" {
		return nil, fmt.Errorf("message is empty")
	}

	channel, timestamp, err := n.client.PostMessageContext(ctx, n.config.ChannelID, slack.MsgOptionText(message, false))
	if err != nil {
		return nil, fmt.Errorf("failed to post slack message: %w", err)
	}

	return map[string]any{
		"sent":      true,
		"channel":   channel,
		"timestamp": timestamp,
	}, nil
}

func (n *SlackNotificationNode) RequiredInputs() []string {
	return nil
}

func (n *SlackNotificationNode) Outputs() []string {
	return []string{"sent", "channel", "timestamp"}
}

// renderMessage falls back to a plain dump of the node's inputs when no
// message template is configured.
func renderMessage(configured string, inputs map[string]any) string {
	if configured != "" {
		return configured
	}

	if len(inputs) == 0 {
		return ""
	}

	return fmt.Sprintf("workflow update: %v", inputs)
}
