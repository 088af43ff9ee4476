package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Users struct{ DB *pgxpool.Pool }

func (u *Users) GetByUsername(ctx context.Context, username string) (*User, error) {
	var usr User
	err := u.DB.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username=$1`, username,
	).Scan(&usr.ID, &usr.Username, &usr.PasswordHash, &usr.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &usr, nil
}

// Sessions issues and resolves bearer tokens. A token is an opaque uuid
// whose meaning lives entirely in redis; expiry is the key TTL.
type Sessions struct{ Redis *redis.Client }

func (s *Sessions) Issue(ctx context.Context, username string) (string, error) {
	token := uuid.NewString()
	key := fmt.Sprintf(redisx.KeySession, token)
	if err := s.Redis.Set(ctx, key, username, redisx.TTLSession).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Lookup returns the username behind token, or "" when the token is
// unknown or expired.
func (s *Sessions) Lookup(ctx context.Context, token string) (string, error) {
	key := fmt.Sprintf(redisx.KeySession, token)
	v, err := s.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Service ties credential verification to token issuance.
type Service struct {
	Users    *Users
	Sessions *Sessions
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.Sessions.Issue(ctx, u.Username)
}
