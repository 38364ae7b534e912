package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carthy/go-auth"
	"github.com/goliatone/go-print"
)

// UserStore is the persistence the login flow needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// LoginService exchanges credentials for a token.
type LoginService struct {
	users        UserStore
	issuer       auth.TokenIssuer
	encoder      auth.PasswordEncoder
	connections  *ConnectionService
	activitySink auth.ActivitySink
	logger       auth.Logger
}

func NewLoginService(users UserStore, issuer auth.TokenIssuer) *LoginService {
	return &LoginService{
		users:        users,
		issuer:       issuer,
		encoder:      auth.BcryptEncoder{},
		connections:  NewConnectionService(),
		activitySink: auth.NormalizeActivitySink(nil),
		logger:       slog.Default(),
	}
}

func (s *LoginService) WithEncoder(encoder auth.PasswordEncoder) *LoginService {
	if encoder != nil {
		s.encoder = encoder
	}
	return s
}

func (s *LoginService) WithConnectionService(connections *ConnectionService) *LoginService {
	if connections != nil {
		s.connections = connections
	}
	return s
}

// WithActivitySink configures an ActivitySink for login events.
func (s *LoginService) WithActivitySink(sink auth.ActivitySink) *LoginService {
	s.activitySink = auth.NormalizeActivitySink(sink)
	return s
}

func (s *LoginService) WithLogger(logger auth.Logger) *LoginService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func badCredentials(username string) error {
	return auth.AccessDeniedError(auth.CodeAuthenticationDenied, fmt.Sprintf("Username %s or password is not valid", username))
}

// CreateToken checks the credentials and issues a token. Every attempt on an
// existing account is stored as a Connection before the outcome is decided,
// and the store write is not aborted when ctx is cancelled.
func (s *LoginService) CreateToken(ctx context.Context, meta RequestMetadata, username, password string) (auth.Token, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if auth.IsNotFoundError(err) {
			s.recordFailure(ctx, "", username, "unknown_user")
			return auth.Token{}, badCredentials(username)
		}
		return auth.Token{}, err
	}

	matches := s.encoder.Matches(password, user.PasswordHash)
	conn := s.connections.Create(matches, meta)
	user.AddConnection(conn)
	s.logger.Debug("login attempt recorded", "user_id", user.ID, "connection", print.MaybePrettyJSON(conn))

	if err := s.users.Save(context.WithoutCancel(ctx), user); err != nil {
		return auth.Token{}, fmt.Errorf("record connection: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return auth.Token{}, err
	}

	if !matches {
		s.recordFailure(ctx, user.ID.String(), username, "bad_password")
		return auth.Token{}, badCredentials(username)
	}

	if _, pending := user.PendingCode(CodeReasonEmailVerification); pending {
		s.recordFailure(ctx, user.ID.String(), username, "email_not_verified")
		return auth.Token{}, auth.UnprocessableEntityError(auth.CodeEmailVerificationFailed, "Verify your email")
	}

	if !user.Enabled() {
		s.recordFailure(ctx, user.ID.String(), username, "not_enabled")
		return auth.Token{}, auth.UnprocessableEntityError(auth.CodeUserNotEnable, "User is not enable")
	}

	token, err := s.issuer.Issue(user.ID, user.ToPrincipal())
	if err != nil {
		return auth.Token{}, err
	}

	s.record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Username:  username,
		Metadata:  map[string]any{"expiry": token.Expiry},
	})
	return token, nil
}

func (s *LoginService) recordFailure(ctx context.Context, userID, username, reason string) {
	s.record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventLoginFailure,
		UserID:    userID,
		Username:  username,
		Metadata:  map[string]any{"reason": reason},
	})
}

func (s *LoginService) record(ctx context.Context, event auth.ActivityEvent) {
	if err := auth.RecordActivity(ctx, s.activitySink, event); err != nil {
		s.logger.Warn("login activity sink failed", "event", event.EventType, "error", err)
	}
}
