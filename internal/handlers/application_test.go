package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gradtrack/apiserver/internal/services"
	"github.com/gradtrack/apiserver/internal/store"
	"github.com/gradtrack/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApplicationRepo is an in-memory services.ApplicationRepository
// implementing the same listing order as the SQL store.
type fakeApplicationRepo struct {
	apps   map[int]types.Application
	nextID int
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: map[int]types.Application{}, nextID: 1}
}

func (f *fakeApplicationRepo) Get(ctx context.Context, id int) (types.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	return app, nil
}

func (f *fakeApplicationRepo) Create(ctx context.Context, app types.Application) (types.Application, error) {
	app.ID = f.nextID
	f.nextID++
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeApplicationRepo) Update(ctx context.Context, app types.Application) (types.Application, error) {
	if _, ok := f.apps[app.ID]; !ok {
		return types.Application{}, store.ErrNotFound
	}
	app.UpdatedAt = time.Now()
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeApplicationRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.apps[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.apps, id)
	return nil
}

func (f *fakeApplicationRepo) ListByStudent(ctx context.Context, studentID string, status types.Status, offset, limit int) ([]types.Application, error) {
	matched := []types.Application{}
	for _, app := range f.apps {
		if app.StudentID != studentID {
			continue
		}
		if status != "" && app.Status != status {
			continue
		}
		matched = append(matched, app)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		switch {
		case a.ApplicationDeadline == nil && b.ApplicationDeadline == nil:
			return a.ID < b.ID
		case a.ApplicationDeadline == nil:
			return false
		case b.ApplicationDeadline == nil:
			return true
		default:
			return a.ApplicationDeadline.Before(b.ApplicationDeadline.Time)
		}
	})
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeApplicationRepo) ExistsForProgram(ctx context.Context, studentID string, programID int) (bool, error) {
	for _, app := range f.apps {
		if app.StudentID == studentID && app.ProgramID == programID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApplicationRepo) CountByStatus(ctx context.Context, studentID string) (map[types.Status]int, error) {
	counts := map[types.Status]int{}
	for _, app := range f.apps {
		if app.StudentID == studentID {
			counts[app.Status]++
		}
	}
	return counts, nil
}

// newApplicationTestRouter wires the full auth + applications surface
// over in-memory repositories and returns a valid session token.
func newApplicationTestRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	authService := services.NewAuthService(newFakeUserRepo(), "test-secret")
	applicationService := services.NewApplicationService(newFakeApplicationRepo(), true)
	authHandler := NewAuthHandler(authService)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService)
	})
	router.Route("/applications", func(r chi.Router) {
		ApplicationRouter(r, applicationService, authHandler.RequireAuth)
	})

	rec := postJSON(t, router, "/auth/register", RegisterRequest{
		Email: "a@x.com", Password: "secret1", Name: "A",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var registered AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	return router, registered.Token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createApplication(t *testing.T, router http.Handler, token string, req ApplicationCreateRequest) types.Application {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/applications/", token, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var app types.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
	return app
}

func TestApplicationEndpoints_RequireToken(t *testing.T) {
	router, _ := newApplicationTestRouter(t)

	for _, call := range []struct{ method, path string }{
		{http.MethodPost, "/applications/"},
		{http.MethodGet, "/applications/?student_id=a@x.com"},
		{http.MethodGet, "/applications/1"},
		{http.MethodPut, "/applications/1"},
		{http.MethodDelete, "/applications/1"},
		{http.MethodGet, "/applications/stats/summary?student_id=a@x.com"},
	} {
		rec := doJSON(t, router, call.method, call.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", call.method, call.path)
	}
}

func TestCreateApplicationEndpoint(t *testing.T) {
	router, token := newApplicationTestRouter(t)

	app := createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 7, ProgramName: "MSCS", University: "Example U",
	})
	assert.Equal(t, types.StatusPlanned, app.Status)
	assert.Equal(t, types.PriorityLow, app.Priority)
	assert.NotZero(t, app.ID)

	rec := doJSON(t, router, http.MethodPost, "/applications/", token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 0, ProgramName: "MSCS", University: "Example U",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/applications/", token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 7, ProgramName: "MSCS", University: "Example U",
		Priority: 9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateApplicationEndpoint(t *testing.T) {
	router, token := newApplicationTestRouter(t)
	app := createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 7, ProgramName: "MSCS", University: "Example U",
	})

	status := types.StatusSubmitted
	rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/applications/%d", app.ID), token,
		ApplicationUpdateRequest{Status: &status})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated types.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, types.StatusSubmitted, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(app.UpdatedAt))

	// An invalid status rejects the patch and leaves the record unchanged.
	bogus := types.Status("bogus")
	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/applications/%d", app.ID), token,
		ApplicationUpdateRequest{Status: &bogus})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/applications/%d", app.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current types.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, types.StatusSubmitted, current.Status)

	rec = doJSON(t, router, http.MethodPut, "/applications/999", token,
		ApplicationUpdateRequest{Status: &status})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteApplicationEndpoint(t *testing.T) {
	router, token := newApplicationTestRouter(t)
	app := createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 7, ProgramName: "MSCS", University: "Example U",
	})

	rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/applications/%d", app.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again reports not found, not success.
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/applications/%d", app.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListApplicationsEndpoint(t *testing.T) {
	router, token := newApplicationTestRouter(t)

	createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 1, ProgramName: "P1", University: "U1", Priority: 0,
	})
	high := createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 2, ProgramName: "P2", University: "U2", Priority: 2,
	})
	createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "other@x.com", ProgramID: 3, ProgramName: "P3", University: "U3",
	})

	rec := doJSON(t, router, http.MethodGet, "/applications/?student_id=a@x.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ApplicationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, high.ID, resp.Items[0].ID)

	// Status filter.
	rec = doJSON(t, router, http.MethodGet, "/applications/?student_id=a@x.com&status=planned", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	rec = doJSON(t, router, http.MethodGet, "/applications/?student_id=a@x.com&status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/applications/", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicationStatsEndpoint(t *testing.T) {
	router, token := newApplicationTestRouter(t)
	createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 1, ProgramName: "P1", University: "U1",
	})
	createApplication(t, router, token, ApplicationCreateRequest{
		StudentID: "a@x.com", ProgramID: 2, ProgramName: "P2", University: "U2",
	})

	rec := doJSON(t, router, http.MethodGet, "/applications/stats/summary?student_id=a@x.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats services.ApplicationStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[types.StatusPlanned])
}
