package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/jobtrack/internal/crypto"
	"github.com/and161185/jobtrack/internal/errs"
	"github.com/and161185/jobtrack/internal/limiter"
	"github.com/and161185/jobtrack/internal/model"
	"github.com/and161185/jobtrack/internal/repository"
	"github.com/and161185/jobtrack/internal/token"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}
func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func newTokens(t *testing.T) *token.Service {
	t.Helper()
	ts, err := token.New([]byte("test-secret"))
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	return ts
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	s := NewAuthService(&fakeUsers{}, newTokens(t), &fakeLimiter{allowOK: true})
	ctx := context.Background()

	cases := []struct {
		name, fullName, email, password, field string
	}{
		{"blank name", "   ", "a@b.co", "secret1", "fullName"},
		{"bad email", "Ann", "not-an-email", "secret1", "email"},
		{"empty email", "Ann", "", "secret1", "email"},
		{"empty password", "Ann", "a@b.co", "", "password"},
		{"short password", "Ann", "a@b.co", "12345", "password"},
	}
	for _, tc := range cases {
		_, _, err := s.Register(ctx, tc.fullName, tc.email, tc.password)
		var ve *errs.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%s: want validation on %s, got %v", tc.name, tc.field, err)
		}
	}
}

// Register followed by Verify yields the id that was created.
func TestAuth_Register_TokenResolvesToUser(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	ts := newTokens(t)
	s := NewAuthService(users, ts, &fakeLimiter{allowOK: true})

	tok, u, err := s.Register(context.Background(), " Ann Lee ", " Ann@Example.COM ", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ann@example.com" || u.FullName != "Ann Lee" {
		t.Fatalf("not normalized: %+v", u)
	}
	if len(u.PwdHash) == 0 || string(u.PwdHash) == "secret1" {
		t.Fatalf("password must be stored hashed")
	}
	got, err := ts.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != u.ID {
		t.Fatalf("subject %s, want %s", got, u.ID)
	}
	if d := time.Until(tok.ExpiresAt); d < 29*24*time.Hour {
		t.Fatalf("token expiry too short: %v", d)
	}
}

func TestAuth_Register_DuplicateAndRepoError(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	s := NewAuthService(users, newTokens(t), &fakeLimiter{allowOK: true})
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "Ann", "ann@example.com", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Register(ctx, "Ann 2", "ANN@example.com", "secret2"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on duplicate email, got %v", err)
	}

	users.createErr = errors.New("boom")
	_, _, err := s.Register(ctx, "Bob", "bob@example.com", "secret1")
	if err == nil || errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want propagated repo error, got %v", err)
	}
}

func TestAuth_Login_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()

	hash, salt, _ := pkgcrypto.NewPasswordHash("correct")
	u := &model.User{
		ID:       uuid.Must(uuid.NewV4()),
		FullName: "Alice",
		Email:    "alice@example.com",
		SaltAuth: salt,
		PwdHash:  hash,
	}

	users := &fakeUsers{byEmail: map[string]*model.User{u.Email: u}}
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(users, newTokens(t), lim)
	ctx := context.Background()

	if _, _, err := s.Login(ctx, "", "x", "1.2.3.4"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation on missing email, got %v", err)
	}
	if _, _, err := s.Login(ctx, "alice@example.com", "", "1.2.3.4"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation on missing password, got %v", err)
	}
	if lim.allowCalls != 0 {
		t.Fatalf("limiter must not be consulted on invalid input")
	}

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.Login(ctx, "alice@example.com", "correct", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.Login(ctx, "alice@example.com", "correct", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	if _, _, err := s.Login(ctx, "nope@example.com", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on missing user, got %v", err)
	}

	users.getErr = errors.New("db down")
	if _, _, err := s.Login(ctx, "alice@example.com", "correct", ""); err == nil || errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want storage error, got %v", err)
	}
	users.getErr = nil

	lim.failBlocked = true
	if _, _, err := s.Login(ctx, "alice@example.com", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}

	lim.failBlocked = false
	if _, _, err := s.Login(ctx, "alice@example.com", "wrong", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong password, got %v", err)
	}

	tok, gotUser, err := s.Login(ctx, "  ALICE@example.com", "correct", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("Login success: %v", err)
	}
	if tok.AccessToken == "" || tok.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad token: %+v", tok)
	}
	if gotUser.ID != u.ID {
		t.Fatalf("bad user returned: %+v", gotUser)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}
}

func TestAuth_Login_LocksOutWithMemoryLimiter(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	lim := limiter.NewMemory(limiter.Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Minute})
	s := NewAuthService(users, newTokens(t), lim)
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "Ann", "ann@example.com", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Login(ctx, "ann@example.com", "bad", "10.0.0.1"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("first failure: %v", err)
	}
	if _, _, err := s.Login(ctx, "ann@example.com", "bad", "10.0.0.1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("second failure should block: %v", err)
	}
	if _, _, err := s.Login(ctx, "ann@example.com", "secret1", "10.0.0.1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("correct password while blocked: %v", err)
	}
	if _, _, err := s.Login(ctx, "ann@example.com", "secret1", "10.0.0.2"); err != nil {
		t.Fatalf("other client must not be blocked: %v", err)
	}
}
