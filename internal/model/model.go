// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server. The password is never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	FullName  string
	Email     string // unique, login key
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user auth salt
	CreatedAt time.Time
}

// Status is the closed set of states an application can be in.
type Status string

// Known statuses.
const (
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusRejected  Status = "Rejected"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected}

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Application is a single job application owned by exactly one user.
type Application struct {
	ID              uuid.UUID // server-generated PK
	UserID          uuid.UUID // FK -> users.id, immutable
	CompanyName     string
	JobRole         string
	ApplicationDate time.Time
	Status          Status
	JobURL          string
	Notes           string
	CreatedAt       time.Time
}

// ApplicationInput carries client-supplied fields for create and update.
// Nil pointers mean "not supplied"; owner and id are deliberately absent.
// ApplicationDate stays raw text until the service has checked ownership.
type ApplicationInput struct {
	CompanyName     *string
	JobRole         *string
	ApplicationDate *string
	Status          *string
	JobURL          *string
	Notes           *string
}

// Stats holds per-status counts for one user.
type Stats struct {
	Total     int
	Applied   int
	Interview int
	Offer     int
	Rejected  int
}

// Add increments the counter for st by n, keeping Total in step.
func (s *Stats) Add(st Status, n int) {
	switch st {
	case StatusApplied:
		s.Applied += n
	case StatusInterview:
		s.Interview += n
	case StatusOffer:
		s.Offer += n
	case StatusRejected:
		s.Rejected += n
	default:
		return
	}
	s.Total += n
}

// ParseDate accepts RFC 3339 (fractional seconds optional) or a bare YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}
