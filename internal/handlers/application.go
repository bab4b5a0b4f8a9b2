package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gradtrack/apiserver/internal/services"
	"github.com/gradtrack/apiserver/internal/store"
	"github.com/gradtrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

const (
	defaultApplicationLimit = 100
	maxApplicationLimit     = 100
)

// ApplicationHandler provides HTTP handlers for tracked applications.
type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

// NewApplicationHandler constructs a handler with the provided service.
func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// ApplicationRouter registers application routes on the given router.
// All routes require a valid session token.
func ApplicationRouter(r chi.Router, applicationService *services.ApplicationService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewApplicationHandler(applicationService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateApplication)
	r.Get("/", handler.ListApplications)
	r.Get("/stats/summary", handler.ApplicationStats)
	r.Route("/{applicationID}", func(r chi.Router) {
		r.Get("/", handler.GetApplication)
		r.Put("/", handler.UpdateApplication)
		r.Delete("/", handler.DeleteApplication)
	})
}

// ApplicationCreateRequest is the JSON payload for creating an application.
type ApplicationCreateRequest struct {
	StudentID           string      `json:"student_id"`
	ProgramID           int         `json:"program_id"`
	ProgramName         string      `json:"program_name"`
	University          string      `json:"university"`
	Priority            int         `json:"priority"`
	ApplicationDeadline *types.Date `json:"application_deadline"`
	Notes               *string     `json:"notes"`
}

// ApplicationUpdateRequest is the JSON payload for a partial update.
type ApplicationUpdateRequest struct {
	Status              *types.Status `json:"status"`
	Priority            *int          `json:"priority"`
	ApplicationDeadline *types.Date   `json:"application_deadline"`
	Notes               *string       `json:"notes"`
}

// ApplicationListResponse is the list payload.
type ApplicationListResponse struct {
	Items  []types.Application `json:"items"`
	Count  int                 `json:"count"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req ApplicationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ProgramName = strings.TrimSpace(req.ProgramName)
	req.University = strings.TrimSpace(req.University)
	if req.StudentID == "" || req.ProgramID < 1 || req.ProgramName == "" || req.University == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	created, err := h.applicationService.Create(r.Context(), services.CreateApplicationParams{
		StudentID:           req.StudentID,
		ProgramID:           req.ProgramID,
		ProgramName:         req.ProgramName,
		University:          req.University,
		Priority:            req.Priority,
		ApplicationDeadline: req.ApplicationDeadline,
		Notes:               req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPriority):
			writeError(w, http.StatusBadRequest, "invalid priority")
		case errors.Is(err, services.ErrDuplicateApplication):
			writeError(w, http.StatusConflict, "program already tracked")
		default:
			logrus.WithError(err).WithField("student_id", req.StudentID).Error("create application failed")
			writeError(w, statusForStorageError(err), "failed to create application")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	offset, limit, err := parseListRange(r, defaultApplicationLimit, maxApplicationLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var items []types.Application
	if rawStatus := strings.TrimSpace(r.URL.Query().Get("status")); rawStatus != "" {
		items, err = h.applicationService.ListByStatus(r.Context(), studentID, types.Status(rawStatus), offset, limit)
	} else {
		items, err = h.applicationService.ListByStudent(r.Context(), studentID, offset, limit)
	}
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		logrus.WithError(err).WithField("student_id", studentID).Error("list applications failed")
		writeError(w, statusForStorageError(err), "failed to list applications")
		return
	}

	writeJSON(w, http.StatusOK, ApplicationListResponse{
		Items:  items,
		Count:  len(items),
		Limit:  limit,
		Offset: offset,
	})
}

func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "applicationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))

	app, err := h.applicationService.Get(r.Context(), id, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "application not found")
			return
		}
		logrus.WithError(err).WithField("application_id", id).Error("fetch application failed")
		writeError(w, statusForStorageError(err), "failed to fetch application")
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "applicationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))

	var req ApplicationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.applicationService.Update(r.Context(), id, studentID, services.ApplicationPatch{
		Status:              req.Status,
		Priority:            req.Priority,
		ApplicationDeadline: req.ApplicationDeadline,
		Notes:               req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "invalid status")
		case errors.Is(err, services.ErrInvalidPriority):
			writeError(w, http.StatusBadRequest, "invalid priority")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "application not found")
		default:
			logrus.WithError(err).WithField("application_id", id).Error("update application failed")
			writeError(w, statusForStorageError(err), "failed to update application")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ApplicationHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "applicationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))

	if err := h.applicationService.Delete(r.Context(), id, studentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "application not found")
			return
		}
		logrus.WithError(err).WithField("application_id", id).Error("delete application failed")
		writeError(w, statusForStorageError(err), "failed to delete application")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ApplicationHandler) ApplicationStats(w http.ResponseWriter, r *http.Request) {
	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	stats, err := h.applicationService.Stats(r.Context(), studentID)
	if err != nil {
		logrus.WithError(err).WithField("student_id", studentID).Error("application stats failed")
		writeError(w, statusForStorageError(err), "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
