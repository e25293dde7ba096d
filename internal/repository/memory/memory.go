// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/and161185/jobtrack/internal/errs"
	"github.com/and161185/jobtrack/internal/model"
	"github.com/and161185/jobtrack/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// DB holds users and applications in maps guarded by one mutex.
type DB struct {
	mu      sync.Mutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	apps    map[uuid.UUID]model.Application
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:   make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		apps:    make(map[uuid.UUID]model.Application),
	}
}

// Ensure interfaces are met.
var _ repository.UserRepository = (*Users)(nil)
var _ repository.ApplicationRepository = (*Applications)(nil)

// Users exposes DB as a UserRepository.
type Users struct{ db *DB }

// Applications exposes DB as an ApplicationRepository.
type Applications struct{ db *DB }

// Users returns the user repository view.
func (db *DB) Users() *Users { return &Users{db: db} }

// Applications returns the application repository view.
func (db *DB) Applications() *Applications { return &Applications{db: db} }

// --- UserRepository ---

// Create stores u unless its email is taken.
func (r *Users) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, taken := r.db.byEmail[key]; taken {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	cpy.PwdHash = append([]byte(nil), u.PwdHash...)
	cpy.SaltAuth = append([]byte(nil), u.SaltAuth...)
	r.db.users[u.ID] = cpy
	r.db.byEmail[key] = u.ID
	return nil
}

// GetByID loads a user by ID.
func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// GetByEmail loads a user by email.
func (r *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id, ok := r.db.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u := r.db.users[id]
	return &u, nil
}

// --- ApplicationRepository ---

// ListByUser returns the user's applications, newest application date first.
func (r *Applications) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := []model.Application{}
	for _, a := range r.db.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ApplicationDate.Equal(out[j].ApplicationDate) {
			return out[i].ApplicationDate.After(out[j].ApplicationDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns a single application by ID.
func (r *Applications) Get(_ context.Context, id uuid.UUID) (*model.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.apps[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

// Create stores a new application.
func (r *Applications) Create(_ context.Context, a *model.Application) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.apps[a.ID]; exists {
		return errs.ErrAlreadyExists
	}
	r.db.apps[a.ID] = *a
	return nil
}

// Update overwrites mutable fields of an application owned by a.UserID.
func (r *Applications) Update(_ context.Context, a *model.Application) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.apps[a.ID]
	if !ok || cur.UserID != a.UserID {
		return errs.ErrNotFound
	}
	cur.CompanyName = a.CompanyName
	cur.JobRole = a.JobRole
	cur.ApplicationDate = a.ApplicationDate
	cur.Status = a.Status
	cur.JobURL = a.JobURL
	cur.Notes = a.Notes
	r.db.apps[a.ID] = cur
	return nil
}

// Delete removes an application owned by userID.
func (r *Applications) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.apps[id]
	if !ok || cur.UserID != userID {
		return errs.ErrNotFound
	}
	delete(r.db.apps, id)
	return nil
}

// CountByStatus groups the user's applications by status.
func (r *Applications) CountByStatus(_ context.Context, userID uuid.UUID) (map[model.Status]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make(map[model.Status]int, len(model.Statuses))
	for _, a := range r.db.apps {
		if a.UserID == userID {
			out[a.Status]++
		}
	}
	return out, nil
}
