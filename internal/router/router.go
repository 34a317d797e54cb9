// Package router assembles the HTTP API.
package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/molo/molo-go/internal/handler"
	"github.com/molo/molo-go/internal/middleware"
	"github.com/molo/molo-go/internal/model"
	"github.com/molo/molo-go/internal/service"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	Auth           *service.AuthService
	Entries        *service.EntryService
	DB             handler.Pinger
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// New returns the API handler.
func New(d Deps) http.Handler {
	authHandler := handler.NewAuthHandler(d.Auth)
	entryHandler := handler.NewEntryHandler(d.Entries)
	statusHandler := handler.NewStatusHandler(d.Auth, d.DB)

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(chimw.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", statusHandler.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.HandleStatus)
		r.Get("/check-init-status", authHandler.HandleCheckInitStatus)
		r.Post("/initialize", authHandler.HandleInitialize)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(d.Auth))
			r.Get("/entries", entryHandler.HandleList)
			r.Post("/entries", entryHandler.HandleSave)
			r.Get("/entries/{id}", entryHandler.HandleGet)
			r.Put("/entries/{id}", entryHandler.HandleUpdate)
			r.Delete("/entries/{id}", entryHandler.HandleDelete)
		})
	})

	return r
}

func writeEnvelope(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Envelope{Success: false, Error: msg})
}
