// Package notify holds the in-process notifier the dashboard notification
// node writes to. Notifications are logged and kept in a bounded ring so the
// management API can serve the recent ones.
package notify

import (
	"context"
	"sync"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/rs/zerolog/log"
)

const defaultCapacity = 200

type DashboardNotifier struct {
	mu       sync.RWMutex
	recent   []domain.Notification
	capacity int
}

func NewDashboardNotifier() *DashboardNotifier {
	return &DashboardNotifier{capacity: defaultCapacity}
}

func (n *DashboardNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	log.Info().
		Str("user_id", notification.UserID).
		Str("title", notification.Title).
		Str("severity", notification.Severity).
		Msg("dashboard notification")

	n.mu.Lock()
	defer n.mu.Unlock()

	n.recent = append(n.recent, notification)
	if len(n.recent) > n.capacity {
		n.recent = n.recent[len(n.recent)-n.capacity:]
	}

	return nil
}

// Recent returns the retained notifications for a user, newest last.
func (n *DashboardNotifier) Recent(userID string) []domain.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var out []domain.Notification

	for _, notification := range n.recent {
		if notification.UserID == userID {
			out = append(out, notification)
		}
	}

	return out
}
