package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess     ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure     ActivityEventType = "auth.login.failure"
	ActivityEventTokenRejected    ActivityEventType = "auth.token.rejected"
	ActivityEventUserRegistered   ActivityEventType = "user.registered"
	ActivityEventCodeVerified     ActivityEventType = "user.code.verified"
	ActivityEventConnectionLogged ActivityEventType = "user.connection.recorded"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Username   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// NormalizeActivitySink returns a no-op sink for nil.
func NormalizeActivitySink(s ActivitySink) ActivitySink {
	return normalizeActivitySink(s)
}

// RecordActivity stamps the event time when missing and forwards it.
func RecordActivity(ctx context.Context, sink ActivitySink, event ActivityEvent) error {
	return recordActivity(ctx, sink, event)
}

func recordActivity(ctx context.Context, sink ActivitySink, event ActivityEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return normalizeActivitySink(sink).Record(ctx, event)
}
