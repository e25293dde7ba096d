package repository

import (
	"context"

	"github.com/and161185/jobtrack/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ApplicationRepository stores job applications. It does not enforce
// ownership on reads; that is the access layer's job.
type ApplicationRepository interface {
	// ListByUser returns the user's applications ordered by application date, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Application, error)

	// Get returns a single application by ID regardless of owner.
	Get(ctx context.Context, id uuid.UUID) (*model.Application, error)

	// Create inserts a new application.
	Create(ctx context.Context, a *model.Application) error

	// Update overwrites the mutable fields of an application owned by a.UserID.
	Update(ctx context.Context, a *model.Application) error

	// Delete removes an application owned by userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// CountByStatus returns per-status counts for the user's applications.
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.Status]int, error)
}
