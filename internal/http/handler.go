package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/http/middleware"
	"github.com/davidbz/repeatguard/internal/observability"
)

// Handler exposes the similarity engine over HTTP.
type Handler struct {
	similarity *domain.SimilarityService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(similarity *domain.SimilarityService) *Handler {
	return &Handler{
		similarity: similarity,
	}
}

// CheckRequest is the body of the duplicate check endpoint.
type CheckRequest struct {
	Prompt       string `json:"prompt"`
	ExcludeJobID string `json:"exclude_job_id,omitempty"`
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/similarity/process", h.HandleProcess)
	mux.HandleFunc("POST /v1/similarity/check", h.HandleCheck)
	mux.HandleFunc("GET /v1/similarity/stats", h.HandleStats)
	mux.HandleFunc("GET /v1/similarity/config", h.HandleGetConfig)
	mux.HandleFunc("PATCH /v1/similarity/config", h.HandleUpdateConfig)
	mux.HandleFunc("DELETE /v1/similarity/cache", h.HandleClearCache)
	mux.HandleFunc("GET /health", h.HandleHealth)
}

// HandleProcess enriches a chat request with anti-repetition context.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, domain.ErrPromptRequired.Error(), http.StatusBadRequest)
		return
	}

	enriched := h.similarity.ProcessRequest(r.Context(), req, identity)

	observability.FromContext(r.Context()).Info("request processed",
		observability.Int("matches", len(enriched.SimilarMatches)),
		observability.Bool("context_injected", enriched.SimilarityContext != ""))

	setSimilarityHeaders(w, enriched)
	writeJSON(w, r, http.StatusOK, enriched)
}

// Similarity headers let proxies act on the outcome without decoding the body.
const (
	MatchesHeader       = "X-Repeatguard-Matches"
	TopSimilarityHeader = "X-Repeatguard-Top-Similarity"
)

func setSimilarityHeaders(w http.ResponseWriter, enriched domain.EnrichedRequest) {
	w.Header().Set(MatchesHeader, strconv.Itoa(len(enriched.SimilarMatches)))
	if len(enriched.SimilarMatches) > 0 {
		w.Header().Set(TopSimilarityHeader, fmt.Sprintf("%.4f", enriched.SimilarMatches[0].Similarity))
	}
}

// HandleCheck reports whether a prompt nearly duplicates the caller's history.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, domain.ErrPromptRequired.Error(), http.StatusBadRequest)
		return
	}

	check := h.similarity.IsPromptTooSimilar(r.Context(), req.Prompt, identity, req.ExcludeJobID)

	writeJSON(w, r, http.StatusOK, check)
}

// HandleStats returns pairwise prompt similarity statistics for the caller.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	stats, err := h.similarity.GetUserStats(r.Context(), identity)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrIdentityRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, r, http.StatusOK, stats)
}

// HandleGetConfig returns the current engine configuration.
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.similarity.GetConfig())
}

// HandleUpdateConfig merges a partial configuration into the engine configuration.
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update domain.SimilarityConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	cfg := h.similarity.UpdateConfig(update)

	observability.FromContext(r.Context()).Info("similarity config updated",
		observability.Bool("enabled", cfg.Enabled),
		observability.Float64("threshold", cfg.SimilarityThreshold),
		observability.Int("max_matches", cfg.MaxMatches))

	writeJSON(w, r, http.StatusOK, cfg)
}

// HandleClearCache drops all cached history.
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.similarity.ClearCache()

	observability.FromContext(r.Context()).Info("history cache cleared")

	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := strings.TrimSpace(r.Header.Get(middleware.IdentityHeader))
	if identity == "" {
		http.Error(w,
			fmt.Sprintf("%s: missing %s header", domain.ErrIdentityRequired, middleware.IdentityHeader),
			http.StatusBadRequest)
		return "", false
	}
	return identity, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(r.Context()).Error("failed to encode response",
			observability.Error(err))
	}
}
