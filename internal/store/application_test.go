package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gradtrack/apiserver/types"
)

func newAppRepoWithMock(t *testing.T) (*ApplicationRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewApplicationRepository(db), mock, db
}

var applicationRowColumns = []string{
	"id", "student_id", "program_id", "program_name", "university",
	"status", "priority", "application_deadline", "notes", "created_at", "updated_at",
}

func applicationRow(rows *sqlmock.Rows, app types.Application) *sqlmock.Rows {
	var deadline any
	if app.ApplicationDeadline != nil {
		deadline = app.ApplicationDeadline.Time
	}
	var notes any
	if app.Notes != nil {
		notes = *app.Notes
	}
	return rows.AddRow(
		app.ID, app.StudentID, app.ProgramID, app.ProgramName, app.University,
		string(app.Status), app.Priority, deadline, notes, app.CreatedAt, app.UpdatedAt,
	)
}

func TestApplicationCreate_Success(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT INTO applications \(student_id, program_id, program_name, university,\s+status, priority, application_deadline, notes, created_at, updated_at\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10\)\s+RETURNING id\s*$`
	mock.ExpectQuery(q).
		WithArgs("a@x.com", 7, "MSCS", "Example U", "planned", 0, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	got, err := repo.Create(context.Background(), types.Application{
		StudentID:   "a@x.com",
		ProgramID:   7,
		ProgramName: "MSCS",
		University:  "Example U",
		Status:      types.StatusPlanned,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 11 {
		t.Fatalf("expected id 11, got %d", got.ID)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("updated_at %v before created_at %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestApplicationGet_RoundTrip(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	deadline, _ := types.ParseDate("2025-01-01")
	notes := "reach school"
	now := time.Now()
	want := types.Application{
		ID: 3, StudentID: "a@x.com", ProgramID: 7, ProgramName: "MSCS", University: "Example U",
		Status: types.StatusSubmitted, Priority: 2,
		ApplicationDeadline: &deadline, Notes: &notes,
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(`(?s)SELECT .* FROM applications\s+WHERE id = \$1`).
		WithArgs(3).
		WillReturnRows(applicationRow(sqlmock.NewRows(applicationRowColumns), want))

	got, err := repo.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != want.Status || got.Priority != want.Priority {
		t.Fatalf("unexpected application: %+v", got)
	}
	if got.ApplicationDeadline == nil || got.ApplicationDeadline.String() != "2025-01-01" {
		t.Fatalf("unexpected deadline: %v", got.ApplicationDeadline)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Fatalf("unexpected notes: %v", got.Notes)
	}
}

func TestApplicationGet_NotFound(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM applications`).WithArgs(99).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplicationUpdate_NotFound(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE applications\s+SET status = \$1`).
		WithArgs("submitted", 1, nil, nil, sqlmock.AnyArg(), 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), types.Application{
		ID:       99,
		Status:   types.StatusSubmitted,
		Priority: 1,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplicationDelete_RepeatedNotFound(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	// Deleting an absent id reports not found every time, never success.
	for i := 0; i < 2; i++ {
		mock.ExpectExec(`DELETE FROM applications WHERE id = \$1`).
			WithArgs(99).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	for i := 0; i < 2; i++ {
		if err := repo.Delete(context.Background(), 99); !errors.Is(err, ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i+1, err)
		}
	}
}

func TestApplicationListByStudent_Ordering(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	high := types.Application{ID: 2, StudentID: "a@x.com", Priority: 2, Status: types.StatusPlanned, CreatedAt: now, UpdatedAt: now}
	medDeadline, _ := types.ParseDate("2024-06-01")
	med := types.Application{ID: 3, StudentID: "a@x.com", Priority: 1, Status: types.StatusPlanned, ApplicationDeadline: &medDeadline, CreatedAt: now, UpdatedAt: now}
	low := types.Application{ID: 1, StudentID: "a@x.com", Priority: 0, Status: types.StatusPlanned, CreatedAt: now, UpdatedAt: now}

	rows := sqlmock.NewRows(applicationRowColumns)
	for _, app := range []types.Application{high, med, low} {
		applicationRow(rows, app)
	}

	q := `(?s)SELECT .* FROM applications\s+WHERE student_id = \$1\s+ORDER BY priority DESC, application_deadline ASC NULLS LAST, id ASC\s+OFFSET \$2 LIMIT \$3`
	mock.ExpectQuery(q).WithArgs("a@x.com", 0, 100).WillReturnRows(rows)

	got, err := repo.ListByStudent(context.Background(), "a@x.com", "", 0, 100)
	if err != nil {
		t.Fatalf("ListByStudent error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 applications, got %d", len(got))
	}
	if got[0].Priority != 2 || got[1].Priority != 1 || got[2].Priority != 0 {
		t.Fatalf("unexpected order: %d %d %d", got[0].Priority, got[1].Priority, got[2].Priority)
	}
}

func TestApplicationListByStudent_StatusFilter(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	q := `(?s)WHERE student_id = \$1 AND status = \$2\s+ORDER BY priority DESC.*OFFSET \$3 LIMIT \$4`
	mock.ExpectQuery(q).
		WithArgs("a@x.com", "submitted", 0, 50).
		WillReturnRows(sqlmock.NewRows(applicationRowColumns))

	got, err := repo.ListByStudent(context.Background(), "a@x.com", types.StatusSubmitted, 0, 50)
	if err != nil {
		t.Fatalf("ListByStudent error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestApplicationExistsForProgram(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT EXISTS`).
		WithArgs("a@x.com", 7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForProgram(context.Background(), "a@x.com", 7)
	if err != nil {
		t.Fatalf("ExistsForProgram error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
}

func TestApplicationCountByStatus(t *testing.T) {
	repo, mock, db := newAppRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("planned", 2).
		AddRow("submitted", 1)
	mock.ExpectQuery(`(?s)SELECT status, COUNT\(1\)\s+FROM applications\s+WHERE student_id = \$1\s+GROUP BY status`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("CountByStatus error: %v", err)
	}
	if counts[types.StatusPlanned] != 2 || counts[types.StatusSubmitted] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
