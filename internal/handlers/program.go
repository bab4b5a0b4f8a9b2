package handlers

import (
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
	defaultProgramLimit = 20
	maxProgramLimit     = 100
)

// ProgramHandler provides read-only HTTP handlers for the program catalog.
type ProgramHandler struct {
	programService *services.ProgramService
}

// NewProgramHandler constructs a handler with the provided service.
func NewProgramHandler(programService *services.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// ProgramRouter registers catalog routes on the given router.
func ProgramRouter(r chi.Router, programService *services.ProgramService) {
	handler := NewProgramHandler(programService)

	r.Get("/", handler.ListPrograms)
	r.Get("/filter-options", handler.FilterOptions)
	r.Get("/{programID}", handler.GetProgram)
}

// ProgramListResponse is the paginated catalog payload.
type ProgramListResponse struct {
	Items  []types.Program `json:"items"`
	Count  int             `json:"count"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// FilterOptionsResponse lists the distinct values usable as filters.
type FilterOptionsResponse struct {
	Countries    []string `json:"countries"`
	Universities []string `json:"universities"`
}

func (h *ProgramHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parseListRange(r, defaultProgramLimit, maxProgramLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ProgramFilter{
		Country:    strings.TrimSpace(r.URL.Query().Get("country")),
		University: strings.TrimSpace(r.URL.Query().Get("university")),
		Keyword:    strings.TrimSpace(r.URL.Query().Get("keyword")),
	}

	items, total, err := h.programService.List(r.Context(), filter, offset, limit)
	if err != nil {
		logrus.WithError(err).Error("list programs failed")
		writeError(w, statusForStorageError(err), "failed to list programs")
		return
	}

	writeJSON(w, http.StatusOK, ProgramListResponse{
		Items:  items,
		Count:  len(items),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *ProgramHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "programID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid program id")
		return
	}

	program, err := h.programService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "program not found")
			return
		}
		logrus.WithError(err).WithField("program_id", id).Error("fetch program failed")
		writeError(w, statusForStorageError(err), "failed to fetch program")
		return
	}

	writeJSON(w, http.StatusOK, program)
}

func (h *ProgramHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	countries, universities, err := h.programService.FilterOptions(r.Context())
	if err != nil {
		logrus.WithError(err).Error("program filter options failed")
		writeError(w, statusForStorageError(err), "failed to load filter options")
		return
	}

	writeJSON(w, http.StatusOK, FilterOptionsResponse{
		Countries:    countries,
		Universities: universities,
	})
}
