// Package notifier defines the notification gateway port (interface) and capabilities.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is the payload sent through a Notifier.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Level     string `json:"level"`  // "info", "warning", "urgent"
	Source    string `json:"source"` // e.g. "case.created", "case.reminder"
}

// Capabilities declares which features a notifier supports.
type Capabilities struct {
	RichFormatting bool `json:"rich_formatting"`
	DirectAddress  bool `json:"direct_address"` // delivers to Notification.Recipient rather than a fixed channel
}

// Notifier is the port interface for sending notifications. Implementations
// must respect ctx deadlines: the scheduler imposes a bounded timeout per send.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "email", "slack").
	Name() string

	// Capabilities returns what this notifier supports.
	Capabilities() Capabilities

	// Send delivers a notification.
	Send(ctx context.Context, notification Notification) error
}
