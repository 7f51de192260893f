package store

import (
	"context"
	"time"

	users "github.com/AdamBeresnev/knockout/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT id, email, username, created_at, provider, provider_id, avatar_url FROM users WHERE id = ?"
	getUserByProviderQuery = `
        SELECT id, email, username, created_at, provider, provider_id, avatar_url FROM users
        WHERE provider = ?
        AND provider_id = ?
    `
	createUserQuery = `
		INSERT INTO users (id, email, username, created_at, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :created_at, :provider, :provider_id, :avatar_url)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByProviderQuery), provider, providerID)
	if err != nil {
		return nil, notFound(err, "user for provider "+provider)
	}

	return &user, nil
}

// GetUser looks a user up, inside tx when it is not nil.
func (s *UserStore) GetUser(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*users.User, error) {
	q := queryer(s.db, tx)
	var user users.User
	err := sqlx.GetContext(ctx, q, &user, q.Rebind(getUserQuery), id)
	if err != nil {
		return nil, notFound(err, "user "+id.String())
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return conflict(err, "user "+user.ID.String())
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}
