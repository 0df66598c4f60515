package core

import (
	"context"
	"time"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a fire-and-forget message for the user.
type Notification struct {
	Severity Severity
	Message  string
	Duration time.Duration

	// Retry, when set, re-invokes the failed operation with the same arguments.
	// It is only ever run on explicit user request.
	Retry func(ctx context.Context) error
}

// Notifier is any sink that can present notifications.
type Notifier interface {
	Notify(n Notification)
}
