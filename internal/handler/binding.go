package handler

import (
	"log/slog"
	"net/http"

	"cinreq/internal/domain/services"
	"cinreq/internal/httputil"
)

// BindingHandler handles section binding HTTP requests
type BindingHandler struct {
	bindingService services.BindingService
	logger         *slog.Logger
}

// NewBindingHandler creates a new binding handler
func NewBindingHandler(bindingService services.BindingService, logger *slog.Logger) *BindingHandler {
	return &BindingHandler{
		bindingService: bindingService,
		logger:         logger,
	}
}

// CreateBinding records a new active binding on a section. Whatever binding
// was active elsewhere in the document is deactivated in the same
// transaction.
// POST /api/documents/{id}/sections/{sid}/bindings
func (h *BindingHandler) CreateBinding(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBindingRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	binding, err := h.bindingService.CreateBinding(r.Context(), r.PathValue("id"), r.PathValue("sid"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, binding)
}

// UpdateBinding deactivates a binding or edits its note. Attempting to
// reactivate a closed binding is rejected with 400.
// PATCH /api/documents/{id}/bindings/{bid}
func (h *BindingHandler) UpdateBinding(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateBindingRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	binding, err := h.bindingService.UpdateBinding(r.Context(), r.PathValue("id"), r.PathValue("bid"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, binding)
}

// ListActiveBindings returns every active binding in the document
// GET /api/documents/{id}/active-bindings
func (h *BindingHandler) ListActiveBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.bindingService.ListActiveBindings(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, bindings)
}
