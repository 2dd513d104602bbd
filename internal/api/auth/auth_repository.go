package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-secondhand-market/app/observability/metrics"
	"github.com/FACorreiaa/go-secondhand-market/internal/api"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ AuthRepo = (*AuthRepoFactory)(nil)

// AuthRepo is the storage contract for user records.
type AuthRepo interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *types.User) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByToken(ctx context.Context, token string) (*types.User, error)
	SetAvatar(ctx context.Context, userID uuid.UUID, avatar *types.ImageDescriptor) error
}

type AuthRepoFactory struct {
	logger *slog.Logger
	pgpool api.PGXQuerier
}

func NewAuthRepoFactory(pgpool api.PGXQuerier, logger *slog.Logger) *AuthRepoFactory {
	return &AuthRepoFactory{
		logger: logger,
		pgpool: pgpool,
	}
}

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

func (r *AuthRepoFactory) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)",
		email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: query failed: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a new user row. A concurrent signup racing past the
// EmailExists check still surfaces as ErrConflict via the unique index.
func (r *AuthRepoFactory) CreateUser(ctx context.Context, user *types.User) (uuid.UUID, error) {
	start := time.Now()
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (email, username, newsletter, token, password_hash, password_salt)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		user.Email, user.Account.Username, user.Newsletter, user.Token, user.Hash, user.Salt).Scan(&id)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
		}
		return uuid.Nil, fmt.Errorf("create user: db insert failed: %w", err)
	}
	return id, nil
}

func (r *AuthRepoFactory) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.getUser(ctx,
		`SELECT id, email, username, avatar, newsletter, token, password_hash, password_salt, created_at
         FROM users WHERE email = $1`, email)
}

func (r *AuthRepoFactory) GetUserByToken(ctx context.Context, token string) (*types.User, error) {
	return r.getUser(ctx,
		`SELECT id, email, username, avatar, newsletter, token, password_hash, password_salt, created_at
         FROM users WHERE token = $1`, token)
}

func (r *AuthRepoFactory) getUser(ctx context.Context, query string, arg any) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Account.Username,
		&user.Account.Avatar,
		&user.Newsletter,
		&user.Token,
		&user.Hash,
		&user.Salt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user: query failed: %w", err)
	}
	return &user, nil
}

func (r *AuthRepoFactory) SetAvatar(ctx context.Context, userID uuid.UUID, avatar *types.ImageDescriptor) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET avatar = $1 WHERE id = $2",
		avatar, userID)
	if err != nil {
		return fmt.Errorf("set avatar: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
