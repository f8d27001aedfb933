package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/pipeline"
)

// Handler holds the dependencies every route needs.
type Handler struct {
	store       *cache.Store
	http        *httpclient.Client
	credentials pipeline.Credentials
	logger      *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(store *cache.Store, httpc *httpclient.Client, creds pipeline.Credentials, logger *slog.Logger) *Handler {
	return &Handler{store: store, http: httpc, credentials: creds, logger: logger}
}

// CreateBrief godoc
// @Summary Generate a research brief
// @Description Fan out to discovery providers for a topic, enrich, rank, dedupe, and return a brief
// @Tags briefs
// @Accept json
// @Produce json
// @Param brief body BriefRequest true "Brief request"
// @Success 200 {object} content.Brief
// @Failure 400 {object} ErrorResponse "Invalid request body or span"
// @Failure 502 {object} ErrorResponse "Upstream provider or cache failure"
// @Router /v1/briefs [post]
func (h *Handler) CreateBrief(w http.ResponseWriter, r *http.Request) {
	var req BriefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "topic is required")
		return
	}

	span, err := resolveSpan(req, time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := pipeline.Options{
		Topic:          req.Topic,
		Span:           span,
		RequestedMode:  req.Mode,
		Credentials:    h.credentials,
		Sampling:       resolveSampling(req.Sampling),
		WebResults:     req.WebResults,
		IncludeWeb:     len(req.WebResults) > 0,
		ExcludeUndated: req.ExcludeUndated,
		Refresh:        req.Refresh,
		Store:          h.store,
		HTTP:           h.http,
		Logger:         h.logger,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Minute)
	defer cancel()

	brief, err := pipeline.Run(ctx, opts)
	if err != nil {
		h.logger.Error("brief generation failed", "topic", req.Topic, "error", err)
		respondError(w, http.StatusBadGateway, "failed to generate brief")
		return
	}

	if err := json.NewEncoder(w).Encode(brief); err != nil {
		h.logger.Error("failed to encode brief response", "error", err)
	}
}

// Health godoc
// @Summary Health check
// @Description Check the health of the service and its response cache
// @Tags monitoring
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Cache:     cacheSummary{Entries: stats.Entries, SizeBytes: stats.SizeBytes},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", "error", err)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
