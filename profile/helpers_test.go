package profile_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/profile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const testSigningKey = "profile-test-signing-key-0123456789abcdef"

var fixedNow = time.Date(2024, time.March, 9, 14, 27, 41, 0, time.UTC)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))
	db, err := profile.OpenDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, profile.CreateSchema(ctx, db))
	return db
}

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(auth.SecurityProperties{
		SigningKey: testSigningKey,
		Validity:   1,
		Unit:       auth.UnitHours,
	}, quietLogger{}).WithClock(func() time.Time { return fixedNow })
}

// plainEncoder keeps tests fast; bcrypt is covered in the root package.
type plainEncoder struct{}

func (plainEncoder) Encode(raw string) (string, error) {
	if raw == "" {
		return "", auth.ErrNoEmptyString
	}
	return "plain:" + raw, nil
}

func (plainEncoder) Matches(raw, hash string) bool {
	return raw != "" && hash == "plain:"+raw
}

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

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

func (s *recordingSink) Types() []auth.ActivityEventType {
	var out []auth.ActivityEventType
	for _, e := range s.Events() {
		out = append(out, e.EventType)
	}
	return out
}

type userOption func(*profile.User)

func withAuthorities(a ...auth.Authority) userOption {
	return func(u *profile.User) { u.Authorities = a }
}

func withPendingCode(value string) userOption {
	return func(u *profile.User) {
		u.CodeByReasons = map[profile.CodeReason]profile.Code{
			profile.CodeReasonEmailVerification: {Value: value, CreatedAt: fixedNow},
		}
	}
}

func locked() userOption {
	return func(u *profile.User) { u.AccountNonLocked = false }
}

func seedUser(t *testing.T, repo *profile.UserRepository, username, password string, opts ...userOption) *profile.User {
	t.Helper()
	hash, err := plainEncoder{}.Encode(password)
	require.NoError(t, err)

	u := &profile.User{
		Username:              username,
		PasswordHash:          hash,
		Sex:                   auth.SexFemale,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Authorities:           []auth.Authority{auth.AuthorityUser},
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
