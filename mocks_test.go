package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/carthy/go-auth"
	"github.com/google/uuid"
)

const testSigningKey = "0123456789abcdef0123456789abcdef-test-key"

var fixedNow = time.Date(2024, time.March, 9, 14, 27, 41, 0, time.UTC)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testProperties() auth.SecurityProperties {
	return auth.SecurityProperties{
		SigningKey: testSigningKey,
		Validity:   1,
		Unit:       auth.UnitDays,
	}
}

func newTestPrincipal(mutators ...func(*auth.PrincipalParams)) auth.Principal {
	params := auth.PrincipalParams{
		ID:                    uuid.MustParse("5f0c3a52-1c1f-4b7e-9a43-2f1f0f6f8a10"),
		Sex:                   auth.SexMale,
		Username:              "john.doe@yopmail.com",
		Roles:                 []auth.Authority{auth.AuthorityAdmin},
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Enabled:               true,
	}
	for _, m := range mutators {
		m(&params)
	}
	return auth.NewPrincipal(params)
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) levels(level string) []logCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logCall
	for _, c := range l.calls {
		if c.level == level {
			out = append(out, c)
		}
	}
	return out
}

// states returns the values logged under the "state" key, in order.
func (l *captureLogger) states() []string {
	var out []string
	for _, c := range l.levels("debug") {
		for i := 0; i+1 < len(c.args); i += 2 {
			if c.args[i] == "state" {
				if s, ok := c.args[i+1].(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.ActivityEvent(nil), s.events...)
}
