package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davidbz/repeatguard/internal/config"
	"github.com/davidbz/repeatguard/internal/domain"
	apihttp "github.com/davidbz/repeatguard/internal/http"
	"github.com/davidbz/repeatguard/internal/http/middleware"
	"github.com/davidbz/repeatguard/internal/mocks"
	"github.com/davidbz/repeatguard/internal/observability"
)

const wallet = "0xfeedbeef"

func history() []domain.StoredMessage {
	return []domain.StoredMessage{
		{ID: "u1", Role: domain.RoleUser, Content: domain.PlainText("Tell me a joke about cats"), JobID: "job-1", OrderIndex: 0},
		{ID: "a1", Role: domain.RoleAssistant, Content: domain.PlainText("Cats land on their feet."), JobID: "job-1", OrderIndex: 1},
		{ID: "u2", Role: domain.RoleUser, Content: domain.PlainText("Explain quantum entanglement"), JobID: "job-1", OrderIndex: 2},
		{ID: "a2", Role: domain.RoleAssistant, Content: domain.PlainText("Particles share one state."), JobID: "job-1", OrderIndex: 3},
		{ID: "u3", Role: domain.RoleUser, Content: domain.PlainText("Recommend a pasta recipe"), JobID: "job-1", OrderIndex: 4},
		{ID: "a3", Role: domain.RoleAssistant, Content: domain.PlainText("Try carbonara."), JobID: "job-1", OrderIndex: 5},
	}
}

func newRouter(t *testing.T, store *mocks.MockHistoryStore) http.Handler {
	t.Helper()

	observability.SetLogger(zap.NewNop())

	cache := domain.NewHistoryCache(store)
	service := domain.NewSimilarityService(store, cache, domain.NewConfigStore(domain.DefaultSimilarityConfig()))
	server := apihttp.NewServer(
		&config.ServerConfig{Port: 0, ReadTimeout: 5, WriteTimeout: 5},
		apihttp.NewHandler(service),
		middleware.BuildMiddlewareChain(&config.CORSConfig{AllowedOrigins: []string{"*"}}),
	)

	return server.Routes()
}

func do(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func withWallet() map[string]string {
	return map[string]string{middleware.IdentityHeader: wallet}
}

func TestHandleProcess(t *testing.T) {
	t.Run("should return the enriched request", func(t *testing.T) {
		store := mocks.NewMockHistoryStore(t)
		store.EXPECT().
			FetchMessagesForSimilarity(mock.Anything, wallet, domain.HistoryQuery{DaysBack: 30, Limit: 50, ExcludeJobID: "job-2"}).
			Return(history(), nil).
			Once()
		router := newRouter(t, store)

		w := do(t, router, http.MethodPost, "/v1/similarity/process",
			`{"prompt":"Tell me a joke about cats","job_id":"job-2"}`, withWallet())

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.NotEmpty(t, w.Header().Get(middleware.TraceIDHeader))
		require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		require.Equal(t, "1", w.Header().Get(apihttp.MatchesHeader))
		require.Equal(t, "1.0000", w.Header().Get(apihttp.TopSimilarityHeader))

		var enriched domain.EnrichedRequest
		require.NoError(t, json.NewDecoder(w.Body).Decode(&enriched))
		require.Equal(t, "Tell me a joke about cats", enriched.Prompt)
		require.Equal(t, "job-2", enriched.JobID)
		require.NotEmpty(t, enriched.SimilarMatches)
		require.Equal(t, "u1", enriched.SimilarMatches[0].MessageID)
		require.Contains(t, enriched.SimilarityContext, "ANTI-REPETITION CONTEXT")
	})

	t.Run("should reject requests without identity", func(t *testing.T) {
		router := newRouter(t, mocks.NewMockHistoryStore(t))

		w := do(t, router, http.MethodPost, "/v1/similarity/process", `{"prompt":"Tell me a joke about cats"}`, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), middleware.IdentityHeader)
	})

	t.Run("should reject malformed bodies", func(t *testing.T) {
		router := newRouter(t, mocks.NewMockHistoryStore(t))

		w := do(t, router, http.MethodPost, "/v1/similarity/process", `{"prompt":`, withWallet())

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject empty prompts", func(t *testing.T) {
		router := newRouter(t, mocks.NewMockHistoryStore(t))

		w := do(t, router, http.MethodPost, "/v1/similarity/process", `{"prompt":"   "}`, withWallet())

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), domain.ErrPromptRequired.Error())
	})

	t.Run("should degrade to the original request when the store fails", func(t *testing.T) {
		store := mocks.NewMockHistoryStore(t)
		store.EXPECT().
			FetchMessagesForSimilarity(mock.Anything, wallet, mock.Anything).
			Return(nil, errors.New("connection refused")).
			Once()
		router := newRouter(t, store)

		w := do(t, router, http.MethodPost, "/v1/similarity/process", `{"prompt":"Tell me a joke about cats"}`, withWallet())

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "0", w.Header().Get(apihttp.MatchesHeader))
		require.Empty(t, w.Header().Get(apihttp.TopSimilarityHeader))

		var enriched domain.EnrichedRequest
		require.NoError(t, json.NewDecoder(w.Body).Decode(&enriched))
		require.Empty(t, enriched.SimilarMatches)
		require.Empty(t, enriched.SimilarityContext)
	})

	t.Run("should only accept POST", func(t *testing.T) {
		router := newRouter(t, mocks.NewMockHistoryStore(t))

		w := do(t, router, http.MethodGet, "/v1/similarity/process", "", withWallet())

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleCheck(t *testing.T) {
	t.Run("should flag a repeated prompt", func(t *testing.T) {
		store := mocks.NewMockHistoryStore(t)
		store.EXPECT().
			FetchMessagesForSimilarity(mock.Anything, wallet, domain.HistoryQuery{DaysBack: 30, Limit: 50, ExcludeJobID: "job-9"}).
			Return(history(), nil).
			Once()
		router := newRouter(t, store)

		w := do(t, router, http.MethodPost, "/v1/similarity/check",
			`{"prompt":"Explain quantum entanglement","exclude_job_id":"job-9"}`, withWallet())

		require.Equal(t, http.StatusOK, w.Code)

		var check domain.SimilarityCheck
		require.NoError(t, json.NewDecoder(w.Body).Decode(&check))
		require.True(t, check.IsSimilar)
		require.Equal(t, "u2", check.Match.MessageID)
	})

	t.Run("should require identity", func(t *testing.T) {
		router := newRouter(t, mocks.NewMockHistoryStore(t))

		w := do(t, router, http.MethodPost, "/v1/similarity/check", `{"prompt":"Explain quantum entanglement"}`, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleStats(t *testing.T) {
	t.Run("should return user stats", func(t *testing.T) {
		store := mocks.NewMockHistoryStore(t)
		store.EXPECT().FetchRecentMessages(mock.Anything, wallet, 30, 100).Return(history(), nil).Once()
		router := newRouter(t, store)

		w := do(t, router, http.MethodGet, "/v1/similarity/stats", "", withWallet())

		require.Equal(t, http.StatusOK, w.Code)

		var stats domain.UserStats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		require.Equal(t, 6, stats.TotalMessages)
		require.Len(t, stats.TopSimilarPairs, 3)
	})

	t.Run("should answer 500 when the store fails", func(t *testing.T) {
		store := mocks.NewMockHistoryStore(t)
		store.EXPECT().FetchRecentMessages(mock.Anything, wallet, 30, 100).Return(nil, errors.New("disk I/O error")).Once()
		router := newRouter(t, store)

		w := do(t, router, http.MethodGet, "/v1/similarity/stats", "", withWallet())

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("should require identity", func(t *testing.T) {
		router := newRouter(t, mocks.NewMockHistoryStore(t))

		w := do(t, router, http.MethodGet, "/v1/similarity/stats", "", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleConfig(t *testing.T) {
	router := newRouter(t, mocks.NewMockHistoryStore(t))

	w := do(t, router, http.MethodGet, "/v1/similarity/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg domain.SimilarityConfig
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cfg))
	require.Equal(t, domain.DefaultSimilarityConfig(), cfg)

	w = do(t, router, http.MethodPatch, "/v1/similarity/config", `{"similarity_threshold":0.5,"max_matches":1}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cfg))
	require.InDelta(t, 0.5, cfg.SimilarityThreshold, 1e-9)
	require.Equal(t, 1, cfg.MaxMatches)
	require.True(t, cfg.Enabled)

	w = do(t, router, http.MethodGet, "/v1/similarity/config", "", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cfg))
	require.Equal(t, 1, cfg.MaxMatches)

	w = do(t, router, http.MethodPatch, "/v1/similarity/config", `not json`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleClearCache(t *testing.T) {
	store := mocks.NewMockHistoryStore(t)
	store.EXPECT().
		FetchMessagesForSimilarity(mock.Anything, wallet, mock.Anything).
		Return(history(), nil).
		Twice()
	router := newRouter(t, store)
	body := `{"prompt":"Tell me a joke about cats"}`

	do(t, router, http.MethodPost, "/v1/similarity/process", body, withWallet())
	do(t, router, http.MethodPost, "/v1/similarity/process", body, withWallet())

	w := do(t, router, http.MethodDelete, "/v1/similarity/cache", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	do(t, router, http.MethodPost, "/v1/similarity/process", body, withWallet())
}

func TestHandleHealth(t *testing.T) {
	router := newRouter(t, mocks.NewMockHistoryStore(t))

	w := do(t, router, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}
