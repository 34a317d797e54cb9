package handler

import (
	"net/http"

	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/service"
)

// AuthHandler handles HTTP requests for initialization and login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleCheckInitStatus handles GET /api/v1/check-init-status requests.
func (h *AuthHandler) HandleCheckInitStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.CheckInitStatus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, status)
}

// HandleInitialize handles POST /api/v1/initialize requests.
func (h *AuthHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req model.SecretRequest
	if !decodeJSON(w, r, maxAuthBody, &req) {
		return
	}

	if err := h.service.Initialize(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusCreated, nil)
}

// HandleLogin handles POST /api/v1/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.SecretRequest
	if !decodeJSON(w, r, maxAuthBody, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, resp)
}
