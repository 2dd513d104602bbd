package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/pbkdf2"

	"github.com/FACorreiaa/go-secondhand-market/app/observability/metrics"
	"github.com/FACorreiaa/go-secondhand-market/internal/app/imagestore"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for account operations.
type AuthService interface {
	Signup(ctx context.Context, params types.SignupParams) (*types.PublicUser, error)
	Login(ctx context.Context, email, password string) (*types.PublicUser, error)
	GetUserByToken(ctx context.Context, token string) (*types.AuthenticatedUser, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	images imagestore.Store
}

// NewAuthService creates a new auth service instance.
func NewAuthService(repo AuthRepo, images imagestore.Store, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		images: images,
	}
}

const (
	tokenBytes     = 32
	saltBytes      = 16
	hashIterations = 10_000
	hashKeyLength  = 32
)

// DeriveHash computes the stored password digest. It is deterministic for a
// fixed (password, salt) pair, which login relies on.
func DeriveHash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

// randomHex returns n random bytes hex-encoded (2n characters).
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process cannot mint credentials at all.
		panic(fmt.Sprintf("auth: reading random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

// Signup registers a new account, mints its bearer token and optionally
// hosts the supplied avatar keyed to the new user id.
func (s *AuthServiceImpl) Signup(ctx context.Context, params types.SignupParams) (*types.PublicUser, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Signup", trace.WithAttributes(
		attribute.String("user.email", params.Email),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Signup"), slog.String("email", params.Email))
	metrics.Get().SignupRequestsTotal.Add(ctx, 1)

	if params.Username == "" || params.Email == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", types.ErrValidation)
	}

	exists, err := s.repo.EmailExists(ctx, params.Email)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check email", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: this user already exists", types.ErrConflict)
	}

	salt := randomHex(saltBytes)
	user := &types.User{
		Email:      params.Email,
		Newsletter: params.Newsletter,
		Token:      randomHex(tokenBytes),
		Salt:       salt,
		Hash:       DeriveHash(params.Password, salt),
		Account:    types.Account{Username: params.Username},
	}

	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create user")
		return nil, err
	}
	user.ID = id

	// Avatar hosting is best effort: a failed upload must not lose the
	// freshly created account.
	if params.Avatar != nil {
		avatar, upErr := s.images.Upload(ctx, imagestore.AvatarFolder(id.String()), "avatar", params.Avatar)
		if upErr != nil {
			l.WarnContext(ctx, "Avatar upload failed, account created without avatar", slog.Any("error", upErr))
		} else if setErr := s.repo.SetAvatar(ctx, id, avatar); setErr != nil {
			l.WarnContext(ctx, "Failed to persist avatar descriptor", slog.Any("error", setErr))
		} else {
			user.Account.Avatar = avatar
		}
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", id.String()))
	span.SetStatus(codes.Ok, "User registered")
	return &types.PublicUser{
		ID:      user.ID,
		Email:   user.Email,
		Token:   user.Token,
		Account: user.Account,
	}, nil
}

// Login authenticates by recomputing the digest from the supplied password
// and the stored salt.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.PublicUser, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))
	metrics.Get().LoginRequestsTotal.Add(ctx, 1)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.WarnContext(ctx, "Login lookup failed", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	recomputed := DeriveHash(password, user.Salt)
	if subtle.ConstantTimeCompare([]byte(recomputed), []byte(user.Hash)) != 1 {
		l.WarnContext(ctx, "Password mismatch")
		return nil, types.ErrUnauthenticated
	}

	l.InfoContext(ctx, "Login successful", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Login successful")
	return &types.PublicUser{
		ID:      user.ID,
		Email:   user.Email,
		Token:   user.Token,
		Account: user.Account,
	}, nil
}

// GetUserByToken resolves a bearer token to the owning user.
func (s *AuthServiceImpl) GetUserByToken(ctx context.Context, token string) (*types.AuthenticatedUser, error) {
	user, err := s.repo.GetUserByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &types.AuthenticatedUser{
		ID:      user.ID,
		Account: user.Account,
	}, nil
}
