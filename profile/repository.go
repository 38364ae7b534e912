package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carthy/go-auth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRepository persists users and their connections with Bun.
type UserRepository struct {
	db *bun.DB
}

// NewUserRepository creates a new repository.
func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userNotFound(field string, value any) error {
	return auth.EntityNotFoundError(auth.CodeEntityNotFound, fmt.Sprintf("Can not found User with %s : %v", field, value))
}

func (r *UserRepository) selectUser(dst *User) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(dst).
		Relation("Connections", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("date ASC")
		})
}

// FindByID returns an EntityNotFound error when no user has id.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := new(User)
	err := r.selectUser(user).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound("id", id)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// FindByUsername matches the username exactly.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	user := new(User)
	err := r.selectUser(user).
		Where("?TableAlias.username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound("username", username)
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

// FindByUsernameIgnoreCase is used to detect duplicate registrations.
func (r *UserRepository) FindByUsernameIgnoreCase(ctx context.Context, username string) (*User, error) {
	user := new(User)
	err := r.selectUser(user).
		Where("LOWER(?TableAlias.username) = LOWER(?)", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, userNotFound("username", username)
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*User, error) {
	var users []*User
	err := r.db.NewSelect().
		Model(&users).
		Relation("Connections", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("date ASC")
		}).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*User{}, nil
		}
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

// OwnerOf returns the id of the user itself: accounts own themselves.
func (r *UserRepository) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.NewSelect().
		Model((*User)(nil)).
		Column("id").
		Where("id = ?", id).
		Scan(ctx, &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, userNotFound("id", id)
		}
		return uuid.Nil, fmt.Errorf("find user owner: %w", err)
	}
	return owner, nil
}

// Create inserts a new user and its connections.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	return r.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		now := time.Now().UTC()
		user.CreatedAt = now
		user.UpdatedAt = now

		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return insertConnections(ctx, tx, user)
	})
}

// Save upserts the user and inserts connections that are not stored yet,
// in one transaction.
func (r *UserRepository) Save(ctx context.Context, user *User) error {
	return r.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		now := time.Now().UTC()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now

		_, err := tx.NewInsert().
			Model(user).
			On("CONFLICT (id) DO UPDATE").
			Set("username = EXCLUDED.username").
			Set("password_hash = EXCLUDED.password_hash").
			Set("sexe = EXCLUDED.sexe").
			Set("account_non_expired = EXCLUDED.account_non_expired").
			Set("account_non_locked = EXCLUDED.account_non_locked").
			Set("credentials_non_expired = EXCLUDED.credentials_non_expired").
			Set("authorities = EXCLUDED.authorities").
			Set("code_by_reasons = EXCLUDED.code_by_reasons").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		return insertConnections(ctx, tx, user)
	})
}

func insertConnections(ctx context.Context, tx bun.Tx, user *User) error {
	if len(user.Connections) == 0 {
		return nil
	}
	for _, c := range user.Connections {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.UserID = user.ID
	}
	_, err := tx.NewInsert().
		Model(&user.Connections).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert connections: %w", err)
	}
	return nil
}

func (r *UserRepository) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return r.db.RunInTx(ctx, opts, f)
	}
}
