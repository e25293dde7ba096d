// Package api is the HTTP client for the JobTrack JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/and161185/jobtrack/internal/convert"
	"github.com/and161185/jobtrack/internal/model"
)

// ErrNotSignedIn is returned by authenticated calls when no token is available.
var ErrNotSignedIn = errors.New("api: not signed in")

// ConnectionError reports a request that never produced an HTTP response.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}
func (e *ConnectionError) Unwrap() error { return e.Err }

// APIError is a response with success:false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%d: %s", e.Status, e.Message) }

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	CurrentToken() (string, bool)
}

// Client talks to one API base URL. Failed calls are never retried.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// New constructs a Client for baseURL such as "http://localhost:5000/api".
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{base: baseURL, http: &http.Client{Timeout: 30 * time.Second}, tokens: tokens}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AuthResult is the answer to register and login.
type AuthResult struct {
	Token string          `json:"token"`
	User  convert.UserDTO `json:"user"`
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"fullName": fullName, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/register", false, body, &out)
	return out, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", false, body, &out)
	return out, err
}

// List returns the caller's applications, newest first.
func (c *Client) List(ctx context.Context) ([]model.Application, error) {
	var out struct {
		Data []convert.ApplicationDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/applications", true, nil, &out); err != nil {
		return nil, err
	}
	apps := make([]model.Application, 0, len(out.Data))
	for _, d := range out.Data {
		a, err := convert.FromApplicationDTO(d)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, nil
}

// Stats returns per-status counts.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var out struct {
		Data convert.StatsDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/applications/stats", true, nil, &out); err != nil {
		return model.Stats{}, err
	}
	return convert.FromStatsDTO(out.Data), nil
}

// Get fetches one application.
func (c *Client) Get(ctx context.Context, id string) (model.Application, error) {
	return c.one(ctx, http.MethodGet, "/applications/"+url.PathEscape(id), nil)
}

// Create stores a new application.
func (c *Client) Create(ctx context.Context, in model.ApplicationInput) (model.Application, error) {
	return c.one(ctx, http.MethodPost, "/applications", convert.ToApplicationRequest(in))
}

// Update changes the supplied fields of an application.
func (c *Client) Update(ctx context.Context, id string, in model.ApplicationInput) (model.Application, error) {
	return c.one(ctx, http.MethodPut, "/applications/"+url.PathEscape(id), convert.ToApplicationRequest(in))
}

// Delete removes an application.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/applications/"+url.PathEscape(id), true, nil, nil)
}

func (c *Client) one(ctx context.Context, method, path string, body any) (model.Application, error) {
	var out struct {
		Data convert.ApplicationDTO `json:"data"`
	}
	if err := c.do(ctx, method, path, true, body, &out); err != nil {
		return model.Application{}, err
	}
	return convert.FromApplicationDTO(out.Data)
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		tok, ok := "", false
		if c.tokens != nil {
			tok, ok = c.tokens.CurrentToken()
		}
		if !ok || tok == "" {
			return ErrNotSignedIn
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Op: op, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= http.StatusBadRequest || decodeErr != nil || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
