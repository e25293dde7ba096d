package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/jobtrack/internal/errs"
	"github.com/and161185/jobtrack/internal/model"
	"github.com/and161185/jobtrack/internal/repository"
)

// ApplicationService is the ownership-scoped access layer over job applications.
// Every operation takes the authenticated caller explicitly.
type ApplicationService interface {
	// List returns the caller's applications, newest application date first.
	List(ctx context.Context, callerID uuid.UUID) ([]model.Application, error)
	// Get returns one application owned by the caller.
	Get(ctx context.Context, callerID, id uuid.UUID) (*model.Application, error)
	// Create stores a new application owned by the caller.
	Create(ctx context.Context, callerID uuid.UUID, in model.ApplicationInput) (*model.Application, error)
	// Update applies a partial update to an application owned by the caller.
	Update(ctx context.Context, callerID, id uuid.UUID, in model.ApplicationInput) (*model.Application, error)
	// Delete removes an application owned by the caller.
	Delete(ctx context.Context, callerID, id uuid.UUID) error
	// Stats counts the caller's applications by status.
	Stats(ctx context.Context, callerID uuid.UUID) (model.Stats, error)
}

// ApplicationServiceImpl implements ApplicationService over an ApplicationRepository.
type ApplicationServiceImpl struct {
	repo repository.ApplicationRepository
	now  func() time.Time
}

// NewApplicationService constructs ApplicationService over repo.
func NewApplicationService(repo repository.ApplicationRepository) *ApplicationServiceImpl {
	return &ApplicationServiceImpl{repo: repo, now: time.Now}
}

// authorizeOwner is the single ownership predicate shared by get, update and delete.
func authorizeOwner(app *model.Application, callerID uuid.UUID) error {
	if app.UserID != callerID {
		return errs.ErrForbidden
	}
	return nil
}

// load fetches id and checks that callerID owns it.
func (s *ApplicationServiceImpl) load(ctx context.Context, callerID, id uuid.UUID) (*model.Application, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(app, callerID); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns all applications of callerID.
func (s *ApplicationServiceImpl) List(ctx context.Context, callerID uuid.UUID) ([]model.Application, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, callerID)
}

// Get returns ErrNotFound when id does not exist and ErrForbidden when it belongs to someone else.
func (s *ApplicationServiceImpl) Get(ctx context.Context, callerID, id uuid.UUID) (*model.Application, error) {
	return s.load(ctx, callerID, id)
}

// Create validates in, forces the owner to callerID and stores the record.
// Missing status defaults to Applied and missing date to the creation time.
func (s *ApplicationServiceImpl) Create(ctx context.Context, callerID uuid.UUID, in model.ApplicationInput) (*model.Application, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	app := &model.Application{
		ID:              id,
		UserID:          callerID,
		ApplicationDate: now,
		Status:          model.StatusApplied,
		CreatedAt:       now,
	}
	if err := apply(app, in); err != nil {
		return nil, err
	}
	if err := validateApplication(app); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// Update merges the supplied fields into the stored record and re-validates it.
// ID, owner and creation time never change.
func (s *ApplicationServiceImpl) Update(ctx context.Context, callerID, id uuid.UUID, in model.ApplicationInput) (*model.Application, error) {
	app, err := s.load(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(app, in); err != nil {
		return nil, err
	}
	if err := validateApplication(app); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return app, nil
}

// Delete removes id. A second delete of the same id reports ErrNotFound.
func (s *ApplicationServiceImpl) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.load(ctx, callerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, callerID, id)
}

// Stats reports every status, zero included.
func (s *ApplicationServiceImpl) Stats(ctx context.Context, callerID uuid.UUID) (model.Stats, error) {
	if callerID == uuid.Nil {
		return model.Stats{}, errs.ErrUnauthorized
	}
	counts, err := s.repo.CountByStatus(ctx, callerID)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count applications: %w", err)
	}
	var st model.Stats
	for status, n := range counts {
		st.Add(status, n)
	}
	return st, nil
}

func apply(app *model.Application, in model.ApplicationInput) error {
	if in.CompanyName != nil {
		app.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.JobRole != nil {
		app.JobRole = strings.TrimSpace(*in.JobRole)
	}
	if in.ApplicationDate != nil && strings.TrimSpace(*in.ApplicationDate) != "" {
		t, err := model.ParseDate(*in.ApplicationDate)
		if err != nil {
			return errs.Validation("applicationDate", "Please use a valid date")
		}
		app.ApplicationDate = t.UTC()
	}
	if in.Status != nil {
		app.Status = model.Status(strings.TrimSpace(*in.Status))
	}
	if in.JobURL != nil {
		app.JobURL = strings.TrimSpace(*in.JobURL)
	}
	if in.Notes != nil {
		app.Notes = *in.Notes
	}
	return nil
}

func validateApplication(app *model.Application) error {
	return check(applicationFields{
		CompanyName: app.CompanyName,
		JobRole:     app.JobRole,
		Status:      string(app.Status),
		JobURL:      app.JobURL,
	})
}
