package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/service"
)

// EntryHandler handles HTTP requests for diary entries. Every route sits
// behind middleware.BearerAuth.
type EntryHandler struct {
	service *service.EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(svc *service.EntryService) *EntryHandler {
	return &EntryHandler{service: svc}
}

// HandleList handles GET /api/v1/entries requests.
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, entries)
}

// HandleSave handles POST /api/v1/entries requests.
func (h *EntryHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req model.EntryRequest
	if !decodeJSON(w, r, maxEntryBody, &req) {
		return
	}

	entry, err := h.service.Save(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, entry)
}

// HandleGet handles GET /api/v1/entries/{id} requests.
func (h *EntryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, entry)
}

// HandleUpdate handles PUT /api/v1/entries/{id} requests.
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.EntryRequest
	if !decodeJSON(w, r, maxEntryBody, &req) {
		return
	}

	entry, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, entry)
}

// HandleDelete handles DELETE /api/v1/entries/{id} requests.
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, nil)
}
