package postgres

import (
	"context"
	"errors"

	"github.com/and161185/jobtrack/internal/errs"
	"github.com/and161185/jobtrack/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ApplicationRepo implements ApplicationRepository using PostgreSQL.
type ApplicationRepo struct{ db *DB }

// NewApplicationRepo constructs an application repository.
func NewApplicationRepo(db *DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

const applicationColumns = `id, user_id, company_name, job_role, application_date, status, job_url, notes, created_at`

// ListByUser returns the user's applications, newest application date first.
func (r *ApplicationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Application, error) {
	const q = `
SELECT ` + applicationColumns + `
FROM applications
WHERE user_id=$1
ORDER BY application_date DESC, created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Get returns a single application by id.
func (r *ApplicationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	const q = `
SELECT ` + applicationColumns + `
FROM applications WHERE id=$1`
	a, err := scanApplication(r.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return a, err
}

// Create inserts a new application row.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	const q = `
INSERT INTO applications (` + applicationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.UserID, a.CompanyName, a.JobRole,
		a.ApplicationDate, string(a.Status), a.JobURL, a.Notes, a.CreatedAt)
	return err
}

// Update overwrites the mutable columns; id, user_id and created_at never change.
func (r *ApplicationRepo) Update(ctx context.Context, a *model.Application) error {
	const q = `
UPDATE applications
SET company_name=$3, job_role=$4, application_date=$5, status=$6, job_url=$7, notes=$8
WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, a.ID, a.UserID, a.CompanyName, a.JobRole,
		a.ApplicationDate, string(a.Status), a.JobURL, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes an application owned by userID.
func (r *ApplicationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM applications WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CountByStatus groups the user's applications by status.
func (r *ApplicationRepo) CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.Status]int, error) {
	const q = `SELECT status, COUNT(*) FROM applications WHERE user_id=$1 GROUP BY status`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Status]int, len(model.Statuses))
	for rows.Next() {
		var (
			st string
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[model.Status(st)] = int(n)
	}
	return out, rows.Err()
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var (
		a  model.Application
		st string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.CompanyName, &a.JobRole,
		&a.ApplicationDate, &st, &a.JobURL, &a.Notes, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = model.Status(st)
	return &a, nil
}
