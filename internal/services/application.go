package services

import (
	"context"

	"github.com/gradtrack/apiserver/internal/store"
	"github.com/gradtrack/apiserver/types"
)

const maxListLimit = 100

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	Get(ctx context.Context, id int) (types.Application, error)
	Create(ctx context.Context, app types.Application) (types.Application, error)
	Update(ctx context.Context, app types.Application) (types.Application, error)
	Delete(ctx context.Context, id int) error
	ListByStudent(ctx context.Context, studentID string, status types.Status, offset, limit int) ([]types.Application, error)
	ExistsForProgram(ctx context.Context, studentID string, programID int) (bool, error)
	CountByStatus(ctx context.Context, studentID string) (map[types.Status]int, error)
}

// ApplicationService owns the application lifecycle: creation defaults,
// the status state machine, the duplicate-tracking policy, and listing
// order.
type ApplicationService struct {
	repo            ApplicationRepository
	allowDuplicates bool
}

func NewApplicationService(repo ApplicationRepository, allowDuplicates bool) *ApplicationService {
	return &ApplicationService{
		repo:            repo,
		allowDuplicates: allowDuplicates,
	}
}

// CreateApplicationParams carries the caller-supplied fields for Create.
// ProgramName and University are point-in-time snapshots of catalog
// fields; they are never re-synchronized afterwards.
type CreateApplicationParams struct {
	StudentID           string
	ProgramID           int
	ProgramName         string
	University          string
	Priority            int
	ApplicationDeadline *types.Date
	Notes               *string
}

// ApplicationPatch is a partial update. Nil fields are left unchanged.
type ApplicationPatch struct {
	Status              *types.Status
	Priority            *int
	ApplicationDeadline *types.Date
	Notes               *string
}

// Create inserts a new application with status "planned".
func (s *ApplicationService) Create(ctx context.Context, params CreateApplicationParams) (types.Application, error) {
	if !types.ValidPriority(params.Priority) {
		return types.Application{}, ErrInvalidPriority
	}

	if !s.allowDuplicates {
		exists, err := s.repo.ExistsForProgram(ctx, params.StudentID, params.ProgramID)
		if err != nil {
			return types.Application{}, err
		}
		if exists {
			return types.Application{}, ErrDuplicateApplication
		}
	}

	return s.repo.Create(ctx, types.Application{
		StudentID:           params.StudentID,
		ProgramID:           params.ProgramID,
		ProgramName:         params.ProgramName,
		University:          params.University,
		Status:              types.StatusPlanned,
		Priority:            params.Priority,
		ApplicationDeadline: params.ApplicationDeadline,
		Notes:               params.Notes,
	})
}

// Get fetches one application. A non-empty studentID scopes the lookup to
// that student; an application owned by someone else reads as not found.
func (s *ApplicationService) Get(ctx context.Context, id int, studentID string) (types.Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Application{}, err
	}
	if studentID != "" && app.StudentID != studentID {
		return types.Application{}, store.ErrNotFound
	}
	return app, nil
}

// Update applies a partial update. Invalid status or priority values
// reject the entire patch; no fields are applied.
func (s *ApplicationService) Update(ctx context.Context, id int, studentID string, patch ApplicationPatch) (types.Application, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return types.Application{}, ErrInvalidStatus
	}
	if patch.Priority != nil && !types.ValidPriority(*patch.Priority) {
		return types.Application{}, ErrInvalidPriority
	}

	app, err := s.Get(ctx, id, studentID)
	if err != nil {
		return types.Application{}, err
	}

	if patch.Status != nil {
		app.Status = *patch.Status
	}
	if patch.Priority != nil {
		app.Priority = *patch.Priority
	}
	if patch.ApplicationDeadline != nil {
		app.ApplicationDeadline = patch.ApplicationDeadline
	}
	if patch.Notes != nil {
		app.Notes = patch.Notes
	}

	return s.repo.Update(ctx, app)
}

// Delete removes an application. Deleting an absent id reports
// store.ErrNotFound, repeatably.
func (s *ApplicationService) Delete(ctx context.Context, id int, studentID string) error {
	if studentID != "" {
		if _, err := s.Get(ctx, id, studentID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

// ListByStudent returns a student's applications ordered by priority
// descending, then deadline ascending with nulls last.
func (s *ApplicationService) ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]types.Application, error) {
	return s.list(ctx, studentID, "", offset, limit)
}

// ListByStatus filters ListByStudent to one status value.
func (s *ApplicationService) ListByStatus(ctx context.Context, studentID string, status types.Status, offset, limit int) ([]types.Application, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, studentID, status, offset, limit)
}

func (s *ApplicationService) list(ctx context.Context, studentID string, status types.Status, offset, limit int) ([]types.Application, error) {
	if limit <= 0 {
		limit = maxListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListByStudent(ctx, studentID, status, offset, limit)
}

// ApplicationStats summarizes a student's applications per status.
type ApplicationStats struct {
	Total    int                  `json:"total"`
	ByStatus map[types.Status]int `json:"by_status"`
}

// Stats counts a student's applications by status.
func (s *ApplicationService) Stats(ctx context.Context, studentID string) (ApplicationStats, error) {
	counts, err := s.repo.CountByStatus(ctx, studentID)
	if err != nil {
		return ApplicationStats{}, err
	}

	stats := ApplicationStats{ByStatus: counts}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}
