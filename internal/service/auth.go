// Package service contains application services for authentication and job applications.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/jobtrack/internal/crypto"
	"github.com/and161185/jobtrack/internal/errs"
	"github.com/and161185/jobtrack/internal/limiter"
	"github.com/and161185/jobtrack/internal/model"
	"github.com/and161185/jobtrack/internal/repository"
	"github.com/and161185/jobtrack/internal/token"
)

// AuthService defines registration and login.
type AuthService interface {
	// Register creates a new user and returns a token for it.
	Register(ctx context.Context, fullName, email, password string) (model.Tokens, model.User, error)
	// Login applies rate-limiting and authenticates the user.
	Login(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
}

// AuthServiceImpl implements AuthService over a user repository, the token
// service and a login limiter.
type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *token.Service
	lim    limiter.Limiter
	now    func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens *token.Service, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim, now: time.Now}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates input, stores the user with a salted Argon2id hash and issues a token.
func (s *AuthServiceImpl) Register(ctx context.Context, fullName, email, password string) (model.Tokens, model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = NormalizeEmail(email)

	if err := check(registerRequest{FullName: fullName, Email: email, Password: password}); err != nil {
		return model.Tokens{}, model.User{}, err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	hash, salt, err := pkgcrypto.NewPasswordHash(password)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	u := &model.User{
		ID:        uid,
		FullName:  fullName,
		Email:     email,
		PwdHash:   hash,
		SaltAuth:  salt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return model.Tokens{}, model.User{}, errs.Validation("email", "User already exists")
		}
		return model.Tokens{}, model.User{}, fmt.Errorf("create user: %w", err)
	}

	tok, err := s.issue(uid)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// Login authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = NormalizeEmail(email)
	if err := check(loginRequest{Email: email, Password: password}); err != nil {
		return model.Tokens{}, model.User{}, err
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, fmt.Errorf("limiter allow: %w", err)
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)

	tok, err := s.issue(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

func (s *AuthServiceImpl) issue(userID uuid.UUID) (model.Tokens, error) {
	access, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}
