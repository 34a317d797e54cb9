package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/service"
)

// Pinger reports storage connectivity. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusHandler serves the unauthenticated health and status endpoints.
type StatusHandler struct {
	auth *service.AuthService
	db   Pinger
}

// NewStatusHandler creates a new StatusHandler. db may be nil when the
// service runs without a database.
func NewStatusHandler(auth *service.AuthService, db Pinger) *StatusHandler {
	return &StatusHandler{auth: auth, db: db}
}

// HandleHealth handles GET /health requests.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		success(w, http.StatusOK, model.Health{Status: "ok", Database: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		slog.Warn("health check: database ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, model.Envelope{
			Success: false,
			Data:    model.Health{Status: "degraded", Database: "unreachable"},
			Error:   "database unavailable",
		})
		return
	}
	success(w, http.StatusOK, model.Health{Status: "ok", Database: "connected"})
}

// HandleStatus handles GET /api/v1/status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	initStatus, err := h.auth.CheckInitStatus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := "uninitialized"
	if initStatus.Initialized {
		status = "initialized"
	}
	success(w, http.StatusOK, model.ServerStatus{
		Status:    status,
		Server:    "running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
