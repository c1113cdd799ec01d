package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/services"
	"cinreq/internal/httputil"
)

// SectionHandler handles section outline HTTP requests
type SectionHandler struct {
	sectionService services.SectionService
	logger         *slog.Logger
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(sectionService services.SectionService, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		logger:         logger,
	}
}

// CreateSection creates a section in a document's outline
// POST /api/documents/{id}/sections
// Returns 201 if created, 409 with the existing section when the
// client-supplied ID is already taken (optimistic creation replayed).
func (h *SectionHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")

	var req services.CreateSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	section, err := h.sectionService.CreateSection(r.Context(), documentID, &req)
	if err != nil {
		HandleCreateConflict(w, err, func() (*models.SectionWithBindings, error) {
			var conflictErr *domain.ConflictError
			if errors.As(err, &conflictErr) {
				return h.sectionService.GetSection(r.Context(), documentID, conflictErr.ResourceID)
			}
			return nil, err
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, section)
}

// ListSections returns the flat, ordered section list
// GET /api/documents/{id}/sections
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.sectionService.ListSections(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sections)
}

// GetSectionTree returns the nested outline
// GET /api/documents/{id}/sections/tree
func (h *SectionHandler) GetSectionTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.sectionService.GetSectionTree(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// GetSection retrieves a section with its active bindings
// GET /api/documents/{id}/sections/{sid}
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section, err := h.sectionService.GetSection(r.Context(), r.PathValue("id"), r.PathValue("sid"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, section)
}

// UpdateSection applies a partial update, including reparenting.
// Reparent requests that would create a cycle come back as 422.
// PATCH /api/documents/{id}/sections/{sid}
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	section, err := h.sectionService.UpdateSection(r.Context(), r.PathValue("id"), r.PathValue("sid"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, section)
}

// DeleteSection removes a section, deactivating any binding on it
// DELETE /api/documents/{id}/sections/{sid}
func (h *SectionHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := h.sectionService.DeleteSection(r.Context(), r.PathValue("id"), r.PathValue("sid")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
