package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gradtrack/apiserver/types"
)

// ApplicationRepository handles persistence for tracked applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, student_id, program_id, program_name, university,
		status, priority, application_deadline, notes, created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (types.Application, error) {
	var app types.Application
	var deadline sql.NullTime
	var notes sql.NullString
	if err := row.Scan(
		&app.ID,
		&app.StudentID,
		&app.ProgramID,
		&app.ProgramName,
		&app.University,
		&app.Status,
		&app.Priority,
		&deadline,
		&notes,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return types.Application{}, err
	}
	if deadline.Valid {
		app.ApplicationDeadline = &types.Date{Time: deadline.Time}
	}
	if notes.Valid {
		app.Notes = &notes.String
	}
	return app, nil
}

func deadlineValue(app types.Application) any {
	if app.ApplicationDeadline == nil {
		return nil
	}
	return app.ApplicationDeadline.Time
}

func notesValue(app types.Application) any {
	if app.Notes == nil {
		return nil
	}
	return *app.Notes
}

func (r *ApplicationRepository) Get(ctx context.Context, id int) (types.Application, error) {
	const query = `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE id = $1`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Application{}, ErrNotFound
		}
		return types.Application{}, unavailable(err)
	}
	return app, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	const query = `
		INSERT INTO applications (student_id, program_id, program_name, university,
			status, priority, application_deadline, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		app.StudentID,
		app.ProgramID,
		app.ProgramName,
		app.University,
		app.Status,
		app.Priority,
		deadlineValue(app),
		notesValue(app),
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID); err != nil {
		return types.Application{}, unavailable(err)
	}
	return app, nil
}

func (r *ApplicationRepository) Update(ctx context.Context, app types.Application) (types.Application, error) {
	app.UpdatedAt = time.Now()

	const query = `
		UPDATE applications
		SET status = $1,
			priority = $2,
			application_deadline = $3,
			notes = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		app.Status,
		app.Priority,
		deadlineValue(app),
		notesValue(app),
		app.UpdatedAt,
		app.ID,
	)
	if err != nil {
		return types.Application{}, unavailable(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Application{}, unavailable(err)
	}
	if affected == 0 {
		return types.Application{}, ErrNotFound
	}
	return app, nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM applications WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return unavailable(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStudent returns a student's applications, most urgent first:
// priority descending, then deadline ascending with nulls last. Ties keep
// insertion order via the id column.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string, status types.Status, offset, limit int) ([]types.Application, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 100
	}

	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE student_id = $1`
	args := []any{studentID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += `
		ORDER BY priority DESC, application_deadline ASC NULLS LAST, id ASC`
	args = append(args, offset, limit)
	if status != "" {
		query += `
		OFFSET $3 LIMIT $4`
	} else {
		query += `
		OFFSET $2 LIMIT $3`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	apps := make([]types.Application, 0, limit)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return apps, nil
}

// ExistsForProgram reports whether the student already tracks the program.
func (r *ApplicationRepository) ExistsForProgram(ctx context.Context, studentID string, programID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE student_id = $1 AND program_id = $2
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, studentID, programID).Scan(&exists); err != nil {
		return false, unavailable(err)
	}
	return exists, nil
}

// CountByStatus returns the number of applications per status for a student.
func (r *ApplicationRepository) CountByStatus(ctx context.Context, studentID string) (map[types.Status]int, error) {
	const query = `
		SELECT status, COUNT(1)
		FROM applications
		WHERE student_id = $1
		GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	counts := make(map[types.Status]int)
	for rows.Next() {
		var status types.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, unavailable(err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return counts, nil
}
