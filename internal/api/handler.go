// Package api provides the HTTP handlers for the retail insights REST API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"retail-insights/internal/assistant"
	"retail-insights/internal/domain"
	"retail-insights/internal/middleware"
)

// DatasetStore is the slice of the analytical store the API needs.
type DatasetStore interface {
	LoadCSV(ctx context.Context, csvPath, table string) (*domain.Metadata, error)
	Metadata() (*domain.Metadata, error)
}

// Assistant runs the question and summary pipelines.
type Assistant interface {
	Ask(ctx context.Context, sessionID, question string) (*assistant.Answer, error)
	Summarize(ctx context.Context, sessionID string) (*assistant.Summary, error)
}

// Handler serves the REST API.
type Handler struct {
	store        DatasetStore
	assistant    Assistant
	sessions     domain.SessionRepository
	history      domain.HistoryRepository
	queryLog     domain.QueryLogRepository
	logger       *slog.Logger
	datasetTable string
	startTime    time.Time
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(
	store DatasetStore,
	asst Assistant,
	sessions domain.SessionRepository,
	history domain.HistoryRepository,
	queryLog domain.QueryLogRepository,
	logger *slog.Logger,
	datasetTable string,
) *Handler {
	return &Handler{
		store:        store,
		assistant:    asst,
		sessions:     sessions,
		history:      history,
		queryLog:     queryLog,
		logger:       logger,
		datasetTable: datasetTable,
		startTime:    time.Now(),
	}
}

// Routes mounts the API endpoints on a new router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/datasets", h.loadDataset)
		r.Get("/datasets/current/schema", h.currentSchema)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/ask", h.ask)
			r.Post("/summary", h.summarize)
			r.Get("/history", h.listHistory)
			r.Delete("/history", h.clearHistory)
			r.Get("/queries", h.listQueries)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	var dataset any
	if meta, err := h.store.Metadata(); err == nil {
		dataset = meta.Table
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"dataset":        dataset,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}

// loadDataset ingests a CSV into the analytical store and opens a new
// session bound to it.
func (h *Handler) loadDataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path  string `json:"path"`
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, r, domain.ErrValidation("path is required"))
		return
	}
	table := req.Table
	if table == "" {
		table = h.datasetTable
	}

	meta, err := h.store.LoadCSV(r.Context(), req.Path, table)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session := &domain.Session{DatasetPath: req.Path, DatasetTable: table}
	if err := h.sessions.Create(r.Context(), session); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("dataset loaded",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"path", req.Path,
		"session_id", session.ID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"session": session,
		"schema":  meta,
	})
}

func (h *Handler) currentSchema(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.Metadata()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.writeError(w, r, domain.ErrValidation("question is required"))
		return
	}

	answer, err := h.assistant.Ask(r.Context(), session.ID, req.Question)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *Handler) summarize(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	summary, err := h.assistant.Summarize(r.Context(), session.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	messages, err := h.history.List(r.Context(), session.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := h.history.Clear(r.Context(), session.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listQueries(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	entries, err := h.queryLog.List(r.Context(), session.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.QueryLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": entries})
}

// requireSession resolves the session in the URL or writes a 404.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, err := h.sessions.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	requestID := middleware.RequestIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", requestID, "status", status, "error", err)
	} else {
		h.logger.Info("request rejected", "request_id", requestID, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]any{
		"error":      err.Error(),
		"request_id": requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
