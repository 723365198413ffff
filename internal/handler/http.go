package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// RankingService is the ranking engine surface the HTTP boundary needs
type RankingService interface {
	SubmitScore(ctx context.Context, sub domain.ScoreSubmit) (*domain.SubmitResult, error)
	GetLeaderboard(ctx context.Context, limit, offset int, timeRange domain.TimeRange) (*domain.LeaderboardPage, error)
	GetPlayerRank(ctx context.Context, playerID string, timeRange domain.TimeRange) (*domain.PlayerRank, error)
}

// Handler provides HTTP handlers for the leaderboard API
type Handler struct {
	service RankingService
	config  *config.LeaderboardConfig
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service RankingService, cfg *config.LeaderboardConfig, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		config:  cfg,
		logger:  logger,
	}
}

// APIResponse is the envelope every response is wrapped in. Code is 0
// with message "success" on success; on failure it carries the mapped
// HTTP status and the error text.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	r.Route("/leaderboard", func(r chi.Router) {
		r.Post("/submit", h.SubmitScore)
		r.Get("/", h.GetLeaderboard)
		r.Get("/player/{playerID}", h.GetPlayerRank)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Code:    status,
		Message: err.Error(),
	})
}

// writeServiceError maps a ranking engine error to its response shape.
// Validation failures become 400s, unknown players 404s, and everything
// else surfaces as a 500 carrying the raw error text.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err)
	case domain.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err)
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// SubmitScore handles POST /leaderboard/submit
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var sub domain.ScoreSubmit
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed request body", domain.ErrInvalidRequest))
		return
	}

	result, err := h.service.SubmitScore(r.Context(), sub)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, result)
}

// GetLeaderboard handles GET /leaderboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := h.config.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidRequest))
			return
		}
		limit = l
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: offset must be an integer", domain.ErrInvalidRequest))
			return
		}
		offset = o
	}

	page, err := h.service.GetLeaderboard(r.Context(), limit, offset, timeRangeParam(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, page)
}

// GetPlayerRank handles GET /leaderboard/player/{playerID}
func (h *Handler) GetPlayerRank(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	rank, err := h.service.GetPlayerRank(r.Context(), playerID, timeRangeParam(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, rank)
}

// timeRangeParam reads the time_range query parameter, defaulting to all
func timeRangeParam(r *http.Request) domain.TimeRange {
	if v := r.URL.Query().Get("time_range"); v != "" {
		return domain.TimeRange(v)
	}
	return domain.TimeRangeAll
}
