// Package state keeps the client's in-memory copy of the caller's
// applications and stats, refreshed from the API.
package state

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/and161185/jobtrack/internal/model"
)

// StatusAll disables the status filter in Filtered.
const StatusAll = "All"

// ErrStale is returned when a result arrived after Reset or a newer Refresh
// and was therefore discarded.
var ErrStale = errors.New("state: result discarded")

// Backend is the subset of the API client used by State.
type Backend interface {
	List(ctx context.Context) ([]model.Application, error)
	Stats(ctx context.Context) (model.Stats, error)
	Create(ctx context.Context, in model.ApplicationInput) (model.Application, error)
	Update(ctx context.Context, id string, in model.ApplicationInput) (model.Application, error)
	Delete(ctx context.Context, id string) error
}

// State is safe for concurrent use.
type State struct {
	api Backend

	mu         sync.Mutex
	epoch      uint64 // bumped by Reset
	refreshGen uint64 // bumped by Refresh and Reset
	apps       []model.Application
	stats      model.Stats
}

// New constructs an empty State over api.
func New(api Backend) *State {
	return &State{api: api}
}

// Refresh reloads the list and stats. Only the latest refresh started since
// the last Reset may apply its result.
func (s *State) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshGen++
	gen := s.refreshGen
	s.mu.Unlock()

	apps, err := s.api.List(ctx)
	if err != nil {
		return err
	}
	st, err := s.api.Stats(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.refreshGen {
		return ErrStale
	}
	s.apps = sortByDate(append([]model.Application(nil), apps...))
	s.stats = st
	return nil
}

// Reset drops all cached data and invalidates in-flight work (logout).
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.refreshGen++
	s.apps = nil
	s.stats = model.Stats{}
}

// Add creates an application and inserts the server's copy.
func (s *State) Add(ctx context.Context, in model.ApplicationInput) (model.Application, error) {
	epoch := s.currentEpoch()
	app, err := s.api.Create(ctx, in)
	if err != nil {
		return model.Application{}, err
	}
	if !s.apply(epoch, func() {
		s.apps = sortByDate(append([]model.Application{app}, s.apps...))
	}) {
		return app, ErrStale
	}
	return app, s.reloadStats(ctx, epoch)
}

// Update changes an application and replaces the local copy with the server's.
func (s *State) Update(ctx context.Context, id string, in model.ApplicationInput) (model.Application, error) {
	epoch := s.currentEpoch()
	app, err := s.api.Update(ctx, id, in)
	if err != nil {
		return model.Application{}, err
	}
	if !s.apply(epoch, func() {
		for i := range s.apps {
			if s.apps[i].ID == app.ID {
				s.apps[i] = app
			}
		}
		s.apps = sortByDate(s.apps)
	}) {
		return app, ErrStale
	}
	return app, s.reloadStats(ctx, epoch)
}

// Remove deletes an application and drops it from the local list.
func (s *State) Remove(ctx context.Context, id string) error {
	epoch := s.currentEpoch()
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	if !s.apply(epoch, func() {
		kept := s.apps[:0]
		for _, a := range s.apps {
			if a.ID.String() != id {
				kept = append(kept, a)
			}
		}
		s.apps = kept
	}) {
		return ErrStale
	}
	return s.reloadStats(ctx, epoch)
}

// Applications returns a copy of the cached list, newest application date first.
func (s *State) Applications() []model.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Application(nil), s.apps...)
}

// Stats returns the cached counts.
func (s *State) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Filtered searches company, role and notes case-insensitively and keeps
// only status when it is not StatusAll (or empty).
func (s *State) Filtered(query, status string) []model.Application {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.Application{}
	for _, a := range s.Applications() {
		if status != "" && status != StatusAll && string(a.Status) != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(a.CompanyName), q) &&
			!strings.Contains(strings.ToLower(a.JobRole), q) &&
			!strings.Contains(strings.ToLower(a.Notes), q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Find looks up a cached application by id.
func (s *State) Find(id string) (model.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.ID.String() == id {
			return a, true
		}
	}
	return model.Application{}, false
}

func (s *State) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// apply runs fn under the lock unless a Reset happened since epoch.
func (s *State) apply(epoch uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	fn()
	return true
}

func (s *State) reloadStats(ctx context.Context, epoch uint64) error {
	st, err := s.api.Stats(ctx)
	if err != nil {
		return err
	}
	if !s.apply(epoch, func() { s.stats = st }) {
		return ErrStale
	}
	return nil
}

func sortByDate(apps []model.Application) []model.Application {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].ApplicationDate.After(apps[j].ApplicationDate)
	})
	return apps
}
