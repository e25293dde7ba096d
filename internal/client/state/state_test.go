package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/jobtrack/internal/model"
)

type fakeBackend struct {
	mu      sync.Mutex
	apps    []model.Application
	gate    chan struct{} // when set, List blocks until closed
	entered chan struct{} // receives once List is blocked on gate
	err     error
	stats   int
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) List(ctx context.Context) ([]model.Application, error) {
	f.mu.Lock()
	gate := f.gate
	out := append([]model.Application(nil), f.apps...)
	f.mu.Unlock()
	if gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		<-gate
	}
	return out, f.err
}

func (f *fakeBackend) Stats(context.Context) (model.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats++
	var st model.Stats
	for _, a := range f.apps {
		st.Add(a.Status, 1)
	}
	return st, nil
}

func (f *fakeBackend) Create(_ context.Context, in model.ApplicationInput) (model.Application, error) {
	if f.err != nil {
		return model.Application{}, f.err
	}
	a := model.Application{ID: uuid.Must(uuid.NewV4()), CompanyName: *in.CompanyName, Status: model.StatusApplied, ApplicationDate: time.Now()}
	f.mu.Lock()
	f.apps = append(f.apps, a)
	f.mu.Unlock()
	return a, nil
}

func (f *fakeBackend) Update(_ context.Context, id string, in model.ApplicationInput) (model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apps {
		if f.apps[i].ID.String() == id {
			if in.Status != nil {
				f.apps[i].Status = model.Status(*in.Status)
			}
			return f.apps[i], nil
		}
	}
	return model.Application{}, errors.New("not found")
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apps {
		if f.apps[i].ID.String() == id {
			f.apps = append(f.apps[:i], f.apps[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func app(company, role, notes string, st model.Status, day int) model.Application {
	return model.Application{
		ID:              uuid.Must(uuid.NewV4()),
		CompanyName:     company,
		JobRole:         role,
		Notes:           notes,
		Status:          st,
		ApplicationDate: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func seeded() *fakeBackend {
	return &fakeBackend{apps: []model.Application{
		app("Google", "SWE Intern", "", model.StatusApplied, 3),
		app("Acme", "Backend Dev", "met at google io", model.StatusInterview, 10),
		app("Initech", "QA", "", model.StatusRejected, 5),
	}}
}

func TestRefresh_SortsAndLoadsStats(t *testing.T) {
	t.Parallel()
	s := New(seeded())

	require.NoError(t, s.Refresh(context.Background()))
	list := s.Applications()
	require.Len(t, list, 3)
	require.Equal(t, "Acme", list[0].CompanyName)
	require.Equal(t, "Google", list[2].CompanyName)
	require.Equal(t, model.Stats{Total: 3, Applied: 1, Interview: 1, Rejected: 1}, s.Stats())
}

func TestFiltered(t *testing.T) {
	t.Parallel()
	s := New(seeded())
	require.NoError(t, s.Refresh(context.Background()))

	names := func(apps []model.Application) []string {
		out := []string{}
		for _, a := range apps {
			out = append(out, a.CompanyName)
		}
		return out
	}
	require.Equal(t, []string{"Acme", "Initech", "Google"}, names(s.Filtered("", StatusAll)))
	require.Equal(t, []string{"Acme", "Google"}, names(s.Filtered("GOOGLE", StatusAll)))
	require.Equal(t, []string{"Google"}, names(s.Filtered("google", "Applied")))
	require.Equal(t, []string{"Acme"}, names(s.Filtered("backend", "")))
	require.Empty(t, s.Filtered("nothing", StatusAll))
}

func TestAddUpdateRemove(t *testing.T) {
	t.Parallel()
	be := seeded()
	s := New(be)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	company := "Globex"
	added, err := s.Add(ctx, model.ApplicationInput{CompanyName: &company})
	require.NoError(t, err)
	require.Equal(t, "Globex", s.Applications()[0].CompanyName)
	require.Equal(t, 4, s.Stats().Total)

	got, ok := s.Find(added.ID.String())
	require.True(t, ok)
	require.Equal(t, "Globex", got.CompanyName)

	offer := "Offer"
	_, err = s.Update(ctx, added.ID.String(), model.ApplicationInput{Status: &offer})
	require.NoError(t, err)
	got, _ = s.Find(added.ID.String())
	require.Equal(t, model.StatusOffer, got.Status)
	require.Equal(t, 1, s.Stats().Offer)

	require.NoError(t, s.Remove(ctx, added.ID.String()))
	_, ok = s.Find(added.ID.String())
	require.False(t, ok)
	require.Len(t, s.Applications(), 3)
	require.Equal(t, 3, s.Stats().Total)

	require.Error(t, s.Remove(ctx, added.ID.String()))
	require.Len(t, s.Applications(), 3)
}

func TestAdd_ErrorLeavesListUntouched(t *testing.T) {
	t.Parallel()
	be := seeded()
	s := New(be)
	require.NoError(t, s.Refresh(context.Background()))

	be.err = errors.New("offline")
	company := "X"
	_, err := s.Add(context.Background(), model.ApplicationInput{CompanyName: &company})
	require.Error(t, err)
	require.Len(t, s.Applications(), 3)
}

func blocked() *fakeBackend {
	be := seeded()
	be.gate = make(chan struct{})
	be.entered = make(chan struct{}, 1)
	return be
}

func TestRefresh_DiscardedAfterReset(t *testing.T) {
	t.Parallel()
	be := blocked()
	s := New(be)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-be.entered

	s.Reset()
	close(be.gate)

	require.ErrorIs(t, <-done, ErrStale)
	require.Empty(t, s.Applications())
	require.Equal(t, model.Stats{}, s.Stats())
}

func TestRefresh_OlderResultLoses(t *testing.T) {
	t.Parallel()
	be := blocked()
	gate := be.gate
	s := New(be)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	<-be.entered

	be.mu.Lock()
	be.gate = nil
	be.apps = be.apps[:1]
	be.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	require.Len(t, s.Applications(), 1)

	close(gate)
	require.ErrorIs(t, <-done, ErrStale)
	require.Len(t, s.Applications(), 1)
}
