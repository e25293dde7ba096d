package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/jobtrack/internal/limiter"
	"github.com/and161185/jobtrack/internal/metrics"
	"github.com/and161185/jobtrack/internal/model"
	"github.com/and161185/jobtrack/internal/repository/memory"
	httpserver "github.com/and161185/jobtrack/internal/server/http"
	"github.com/and161185/jobtrack/internal/service"
	"github.com/and161185/jobtrack/internal/token"
)

type staticToken string

func (s *staticToken) CurrentToken() (string, bool) { return string(*s), *s != "" }

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	db := memory.New()
	ts, err := token.New([]byte("test-secret"))
	require.NoError(t, err)
	srv := httpserver.New(
		service.NewAuthService(db.Users(), ts, limiter.NewMemory(limiter.DefaultPolicy)),
		service.NewApplicationService(db.Applications()),
		ts, metrics.New(), zaptest.NewLogger(t), httpserver.Options{},
	)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return hs
}

func str(s string) *string { return &s }

func TestClient_EndToEnd(t *testing.T) {
	t.Parallel()
	hs := newBackend(t)
	var tok staticToken
	c := New(hs.URL+"/api", &tok)
	ctx := context.Background()

	_, err := c.List(ctx)
	require.ErrorIs(t, err, ErrNotSignedIn)

	reg, err := c.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)
	require.Equal(t, "ann@example.com", reg.User.Email)

	res, err := c.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, res.User.ID)
	tok = staticToken(res.Token)

	date := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	created, err := c.Create(ctx, model.ApplicationInput{
		CompanyName: str("Google"), JobRole: str("SWE"), ApplicationDate: str("2024-04-02"),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusApplied, created.Status)
	require.True(t, created.ApplicationDate.Equal(date))

	updated, err := c.Update(ctx, created.ID.String(), model.ApplicationInput{Status: str("Offer")})
	require.NoError(t, err)
	require.Equal(t, model.StatusOffer, updated.Status)

	got, err := c.Get(ctx, created.ID.String())
	require.NoError(t, err)
	require.Equal(t, "Google", got.CompanyName)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Stats{Total: 1, Offer: 1}, st)

	require.NoError(t, c.Delete(ctx, created.ID.String()))
	err = c.Delete(ctx, created.ID.String())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "Application not found", apiErr.Message)
}

func TestClient_APIErrors(t *testing.T) {
	t.Parallel()
	hs := newBackend(t)
	tok := staticToken("bogus")
	c := New(hs.URL+"/api", &tok)
	ctx := context.Background()

	_, err := c.Login(ctx, "nobody@example.com", "secret1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "Invalid credentials", apiErr.Message)

	_, err = c.List(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Not authorized to access this route", apiErr.Message)

	_, err = c.Register(ctx, "", "x", "1")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	t.Parallel()
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer hs.Close()

	_, err := New(hs.URL, nil).Login(context.Background(), "a@b.co", "secret1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_ConnectionError(t *testing.T) {
	t.Parallel()
	hs := httptest.NewServer(http.NotFoundHandler())
	url := hs.URL
	hs.Close()

	_, err := New(url, nil).Login(context.Background(), "a@b.co", "secret1")
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.False(t, errors.As(err, new(*APIError)))
}
