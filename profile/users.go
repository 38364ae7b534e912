package profile

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/carthy/go-auth"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UserRepo is the persistence UserService needs. *UserRepository
// implements it.
type UserRepo interface {
	UserStore
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsernameIgnoreCase(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	Create(ctx context.Context, user *User) error
}

var _ UserRepo = (*UserRepository)(nil)

// UserService holds the account use cases.
type UserService struct {
	repo         UserRepo
	encoder      auth.PasswordEncoder
	useHashid    bool
	codes        func() (string, error)
	now          func() time.Time
	activitySink auth.ActivitySink
	logger       auth.Logger
}

func NewUserService(repo UserRepo) *UserService {
	return &UserService{
		repo:         repo,
		encoder:      auth.BcryptEncoder{},
		codes:        randomCode,
		now:          time.Now,
		activitySink: auth.NormalizeActivitySink(nil),
		logger:       slog.Default(),
	}
}

func (s *UserService) WithEncoder(encoder auth.PasswordEncoder) *UserService {
	if encoder != nil {
		s.encoder = encoder
	}
	return s
}

// WithHashid derives user ids from the lower cased username.
func (s *UserService) WithHashid(enabled bool) *UserService {
	s.useHashid = enabled
	return s
}

// WithCodeGenerator overrides the one time code source.
func (s *UserService) WithCodeGenerator(gen func() (string, error)) *UserService {
	if gen != nil {
		s.codes = gen
	}
	return s
}

func (s *UserService) WithActivitySink(sink auth.ActivitySink) *UserService {
	s.activitySink = auth.NormalizeActivitySink(sink)
	return s
}

func (s *UserService) WithLogger(logger auth.Logger) *UserService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetAll returns the users the principal owns, which is at most itself.
func (s *UserService) GetAll(ctx context.Context, principal auth.Principal) ([]*User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*User, 0, 1)
	for _, u := range users {
		if auth.IsMe(principal, u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

// OwnerOf lets UserService act as a jwtware.OwnerLookup.
func (s *UserService) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return s.repo.OwnerOf(ctx, id)
}

// Register creates an account with the USER authority and a pending email
// verification code. The account cannot log in until the code is verified.
func (s *UserService) Register(ctx context.Context, req RegistrationRequest) (*User, error) {
	if err := validationError(req.Validate()); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if _, err := s.repo.FindByUsernameIgnoreCase(ctx, username); err == nil {
		return nil, auth.UnprocessableEntityError(auth.CodeUserDuplication, fmt.Sprintf("User with username %s already exists", username))
	} else if !auth.IsNotFoundError(err) {
		return nil, err
	}

	hash, err := s.encoder.Encode(req.Password)
	if err != nil {
		return nil, auth.InternalError(fmt.Errorf("hash password: %w", err))
	}

	code, err := s.codes()
	if err != nil {
		return nil, auth.InternalError(fmt.Errorf("generate code: %w", err))
	}

	sex, err := auth.ParseSex(req.Sex)
	if err != nil {
		return nil, auth.ValidationError("Invalid request", auth.FieldError{Field: "sexe", Message: err.Error(), RejectedValue: req.Sex})
	}

	user := &User{
		Username:              username,
		PasswordHash:          hash,
		Sex:                   sex,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Authorities:           []auth.Authority{auth.AuthorityUser},
		CodeByReasons: map[CodeReason]Code{
			CodeReasonEmailVerification: {Value: code, CreatedAt: s.now().UTC()},
		},
	}
	if s.useHashid {
		if id, err := hashid.NewUUID(strings.ToLower(username)); err == nil {
			user.ID = id
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventUserRegistered,
		UserID:    user.ID.String(),
		Username:  user.Username,
		Metadata: map[string]any{
			"reason": string(CodeReasonEmailVerification),
			"code":   code,
		},
	})
	return user, nil
}

// VerifyCode consumes the pending code for reason. Unknown users and wrong
// codes fail the same way.
func (s *UserService) VerifyCode(ctx context.Context, req VerifyCodeRequest) error {
	if err := validationError(req.Validate()); err != nil {
		return err
	}

	failed := auth.UnprocessableEntityError(auth.CodeCodeVerificationFailed, "Code is not valid")

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if auth.IsNotFoundError(err) {
			return failed
		}
		return err
	}

	pending, ok := user.PendingCode(req.Reason)
	if !ok || pending.Value != req.Code {
		return failed
	}

	delete(user.CodeByReasons, req.Reason)
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}

	s.record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventCodeVerified,
		UserID:    user.ID.String(),
		Username:  user.Username,
		Metadata:  map[string]any{"reason": string(req.Reason)},
	})
	return nil
}

func (s *UserService) record(ctx context.Context, event auth.ActivityEvent) {
	if err := auth.RecordActivity(ctx, s.activitySink, event); err != nil {
		s.logger.Warn("user activity sink failed", "event", event.EventType, "error", err)
	}
}

// randomCode returns a five digit code in [10000, 99999].
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+10000), nil
}
