// Package api exposes the tracker over HTTP for the desktop UI and for
// scripting. Every state-changing endpoint maps to exactly one engine
// command, so the single-writer atomicity guarantees hold unchanged
// under concurrent HTTP callers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/engine"
	"github.com/betmanager/betmanager/internal/settings"
)

// Version is reported by /api/version.
const Version = "1.0.0"

// Server is the HTTP API server.
type Server struct {
	engine         *engine.Engine
	settings       *settings.Service
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(eng *engine.Engine, svc *settings.Service) *Server {
	return &Server{engine: eng, settings: svc}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/logs", s.handleLogs)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Patch("/{id}", s.handleEditTask)
			r.Delete("/{id}", s.handleDeleteTask)
			r.Post("/{id}/status", s.handleChangeStatus)
			r.Post("/{id}/finish", s.handleFinishDelivery)
		})

		r.Route("/packs", func(r chi.Router) {
			r.Get("/", s.handleListPacks)
			r.Post("/", s.handleCreatePack)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleSaveAccount)
			r.Post("/{id}/limit", s.handleLimitAccount)
			r.Post("/{id}/replacement", s.handleMarkReplacement)
		})

		r.Route("/insights", func(r chi.Router) {
			r.Get("/summary", s.handleInsightsSummary)
			r.Get("/deposits", s.handleInsightsDeposits)
			r.Get("/status", s.handleInsightsStatus)
			r.Get("/volume", s.handleInsightsVolume)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Post("/houses", s.handleAddHouse)
			r.Delete("/houses/{name}", s.handleRemoveHouse)
			r.Post("/task-types", s.handleAddTaskType)
			r.Delete("/task-types/{value}", s.handleRemoveTaskType)
			r.Post("/pix-keys", s.handleAddPixKey)
			r.Delete("/pix-keys/{id}", s.handleRemovePixKey)
			r.Post("/default-pix-key", s.handleSetDefaultPixKey)
			r.Post("/reset", s.handleResetSettings)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeCommandError maps domain failures onto HTTP status codes.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrPackNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// corsMiddleware adds CORS headers for the local UI.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
