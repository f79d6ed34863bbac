// Package service contains application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calldeck/calldeck/internal/port/notifier"
)

// NotificationService dispatches notifications to the registered notifiers.
type NotificationService struct {
	notifiers []notifier.Notifier
}

// NewNotificationService creates a NotificationService with the given notifiers.
func NewNotificationService(notifiers []notifier.Notifier) *NotificationService {
	return &NotificationService{notifiers: notifiers}
}

// Broadcast sends a notification to all registered notifiers on a best-effort
// basis. Errors are logged but do not interrupt delivery to other notifiers.
func (s *NotificationService) Broadcast(ctx context.Context, n notifier.Notification) {
	for _, provider := range s.notifiers {
		if err := provider.Send(ctx, n); err != nil {
			if errors.Is(err, notifier.ErrNotConfigured) {
				continue
			}
			slog.Warn("notification send failed",
				"provider", provider.Name(),
				"subject", n.Subject,
				"error", err,
			)
			continue
		}
		slog.Debug("notification sent", "provider", provider.Name(), "subject", n.Subject)
	}
}

// Deliver sends a notification through the first notifier that accepts it and
// reports failure when none does. Callers that must not record phantom
// deliveries (the reminder scheduler) use this instead of Broadcast.
func (s *NotificationService) Deliver(ctx context.Context, n notifier.Notification) error {
	var errs []error
	for _, provider := range s.notifiers {
		err := provider.Send(ctx, n)
		if err == nil {
			slog.Debug("notification delivered", "provider", provider.Name(), "subject", n.Subject)
			return nil
		}
		if errors.Is(err, notifier.ErrNotConfigured) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
	}
	if len(errs) == 0 {
		return notifier.ErrNotConfigured
	}
	return errors.Join(errs...)
}

// NotifierCount returns the number of registered notifiers.
func (s *NotificationService) NotifierCount() int {
	return len(s.notifiers)
}
