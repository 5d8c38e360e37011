package domain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/davidbz/repeatguard/internal/observability"
	"github.com/davidbz/repeatguard/internal/tfidf"
)

const (
	// DefaultDeadline bounds how long a request may wait for similarity context.
	DefaultDeadline = 500 * time.Millisecond

	statsMessageLimit = 100
	statsTopPairs     = 5
)

var (
	// ErrIdentityRequired indicates an identity-scoped operation was called without an identity.
	ErrIdentityRequired = errors.New("identity is required")

	// ErrPromptRequired indicates a request without prompt text.
	ErrPromptRequired = errors.New("prompt is required")
)

var errPipelinePanic = errors.New("similarity pipeline panicked")

// SimilarityService detects prompts an identity has already asked and builds
// anti-repetition context for the generator.
type SimilarityService struct {
	store      HistoryStore
	cache      *HistoryCache
	config     *ConfigStore
	deadline   time.Duration
	demoCorpus bool
}

// ServiceOption customizes a SimilarityService.
type ServiceOption func(*SimilarityService)

// WithDeadline overrides DefaultDeadline.
func WithDeadline(deadline time.Duration) ServiceOption {
	return func(s *SimilarityService) { s.deadline = deadline }
}

// WithDemoCorpus substitutes DemoPairs when an identity has no usable history.
// Never enable it in production.
func WithDemoCorpus(enabled bool) ServiceOption {
	return func(s *SimilarityService) { s.demoCorpus = enabled }
}

// NewSimilarityService creates a new similarity service (DI constructor).
func NewSimilarityService(
	store HistoryStore,
	cache *HistoryCache,
	config *ConfigStore,
	opts ...ServiceOption,
) *SimilarityService {
	s := &SimilarityService{
		store:      store,
		cache:      cache,
		config:     config,
		deadline:   DefaultDeadline,
		demoCorpus: false,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type pipelineResult struct {
	matches []SimilarMatch
	context string
}

type pipelineOutcome struct {
	result   pipelineResult
	err      error
	panicked bool
}

// ProcessRequest returns req enriched with similar historical matches and, when context
// injection is on, a directive block for the generator. It never fails: when the engine is
// disabled, preconditions are not met, the deadline passes or anything goes wrong, the
// original request is returned unchanged.
func (s *SimilarityService) ProcessRequest(ctx context.Context, req ChatRequest, identity string) EnrichedRequest {
	original := EnrichedRequest{ChatRequest: req}

	ctx = observability.WithIdentity(ctx, identity)
	if req.JobID != "" {
		ctx = observability.WithJobID(ctx, req.JobID)
	}
	logger := observability.FromContext(ctx)

	cfg := s.config.Get()
	if reason := skipReason(cfg, req.Prompt, identity); reason != "" {
		logger.Debug("similarity check skipped",
			observability.String("reason", reason))
		return original
	}

	excludeJobID := ""
	if cfg.ExcludeCurrentJob {
		excludeJobID = req.JobID
	}

	result, err := s.runBounded(ctx, func(ctx context.Context, tracker *stageTracker) (pipelineResult, error) {
		matches, findErr := s.findMatches(
			ctx, tracker, cfg, req.Prompt, identity, excludeJobID, cfg.SimilarityThreshold, cfg.MaxMatches,
		)
		if findErr != nil {
			return pipelineResult{}, findErr
		}

		tracker.set(StageFormatting)
		out := pipelineResult{matches: matches, context: ""}
		if cfg.ContextInjectionEnabled {
			out.context = FormatContext(matches)
		}
		return out, nil
	})
	if err != nil || len(result.matches) == 0 {
		return original
	}

	logger.Info("similar prompts found",
		observability.Int("matches", len(result.matches)),
		observability.Float64("top_similarity", result.matches[0].Similarity),
		observability.Bool("context_injected", result.context != ""))

	enriched := original
	enriched.SimilarMatches = result.matches
	enriched.SimilarityContext = result.context

	return enriched
}

// IsPromptTooSimilar reports whether prompt nearly duplicates something the identity asked
// before, using the blocking threshold. Failures and timeouts report not similar.
func (s *SimilarityService) IsPromptTooSimilar(
	ctx context.Context,
	prompt string,
	identity string,
	excludeJobID string,
) SimilarityCheck {
	ctx = observability.WithIdentity(ctx, identity)
	logger := observability.FromContext(ctx)

	cfg := s.config.Get()
	if reason := skipReason(cfg, prompt, identity); reason != "" {
		logger.Debug("duplicate check skipped",
			observability.String("reason", reason))
		return SimilarityCheck{IsSimilar: false, Match: nil}
	}

	blocking := cfg.BlockingThreshold()
	result, err := s.runBounded(ctx, func(ctx context.Context, tracker *stageTracker) (pipelineResult, error) {
		matches, findErr := s.findMatches(ctx, tracker, cfg, prompt, identity, excludeJobID, blocking, 1)
		return pipelineResult{matches: matches, context: ""}, findErr
	})
	if err != nil || len(result.matches) == 0 {
		return SimilarityCheck{IsSimilar: false, Match: nil}
	}

	// Response-pass scores are down-weighted and may sit below the gate.
	top := result.matches[0]
	if top.Similarity < blocking {
		return SimilarityCheck{IsSimilar: false, Match: nil}
	}

	logger.Info("prompt is too similar to history",
		observability.String("message_id", top.MessageID),
		observability.Float64("similarity", top.Similarity),
		observability.Float64("blocking_threshold", blocking))

	return SimilarityCheck{IsSimilar: true, Match: &top}
}

// GetUserStats compares every pair of the identity's recent prompts. It is quadratic in the
// number of prompts and meant for diagnostics over small histories.
func (s *SimilarityService) GetUserStats(ctx context.Context, identity string) (*UserStats, error) {
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	ctx = observability.WithIdentity(ctx, identity)
	logger := observability.FromContext(ctx)
	cfg := s.config.Get()

	messages, err := s.store.FetchRecentMessages(ctx, identity, cfg.MaxHistoryDays, statsMessageLimit)
	if err != nil {
		logger.Error("failed to fetch recent messages for stats",
			observability.Error(err))
		return nil, fmt.Errorf("failed to fetch recent messages: %w", err)
	}

	pairs := ExtractPairs(messages, cfg.MinPromptLength)
	stats := &UserStats{
		TotalMessages:     len(messages),
		AverageSimilarity: 0,
		TopSimilarPairs:   []SimilarPromptPair{},
	}
	if len(pairs) < 2 {
		return stats, nil
	}

	prompts := make([]string, len(pairs))
	for i, pair := range pairs {
		prompts[i] = pair.Prompt
	}
	vectors := tfidf.Vectorize(prompts)

	var total float64
	compared := make([]SimilarPromptPair, 0, len(pairs)*(len(pairs)-1)/2)
	for i := range vectors {
		for j := i + 1; j < len(vectors); j++ {
			similarity := tfidf.Cosine(vectors[i], vectors[j])
			total += similarity
			compared = append(compared, SimilarPromptPair{
				FirstPrompt:  prompts[i],
				SecondPrompt: prompts[j],
				Similarity:   similarity,
			})
		}
	}

	slices.SortStableFunc(compared, func(a, b SimilarPromptPair) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	stats.AverageSimilarity = total / float64(len(compared))
	stats.TopSimilarPairs = compared[:min(statsTopPairs, len(compared))]

	logger.Debug("user stats computed",
		observability.Int("pairs", len(pairs)),
		observability.Float64("average_similarity", stats.AverageSimilarity))

	return stats, nil
}

// GetConfig returns the current engine configuration.
func (s *SimilarityService) GetConfig() SimilarityConfig {
	return s.config.Get()
}

// UpdateConfig shallow-merges update into the engine configuration.
func (s *SimilarityService) UpdateConfig(update SimilarityConfigUpdate) SimilarityConfig {
	return s.config.Update(update)
}

// ClearCache drops all cached history, e.g. on logout.
func (s *SimilarityService) ClearCache() {
	s.cache.Clear()
}

// runBounded races fn against the deadline. On timeout the pipeline goroutine is abandoned;
// it notices the cancelled context at its next stage boundary.
func (s *SimilarityService) runBounded(
	ctx context.Context,
	fn func(context.Context, *stageTracker) (pipelineResult, error),
) (pipelineResult, error) {
	logger := observability.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	tracker := &stageTracker{}
	tracker.set(StageCheckingPreconditions)

	done := make(chan pipelineOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- pipelineOutcome{
					result:   pipelineResult{},
					err:      fmt.Errorf("%w: %v", errPipelinePanic, r),
					panicked: true,
				}
			}
		}()

		result, err := fn(ctx, tracker)
		done <- pipelineOutcome{result: result, err: err, panicked: false}
	}()

	select {
	case outcome := <-done:
		stage := tracker.get()
		switch {
		case outcome.panicked:
			// DPanic panics under the development logger and only logs in production.
			logger.DPanic("similarity pipeline failed",
				observability.Error(outcome.err),
				observability.Stage(stage.String()))
		case outcome.err != nil:
			logger.Warn("similarity pipeline failed, continuing without context",
				observability.Error(outcome.err),
				observability.Stage(stage.String()))
		default:
			tracker.set(StageDone)
		}
		return outcome.result, outcome.err

	case <-ctx.Done():
		stage := tracker.get()
		tracker.set(StageTimedOut)
		logger.Warn("similarity pipeline timed out, continuing without context",
			observability.Error(ctx.Err()),
			observability.Stage(stage.String()),
			observability.Duration("deadline", s.deadline))
		return pipelineResult{}, ctx.Err()
	}
}

func (s *SimilarityService) findMatches(
	ctx context.Context,
	tracker *stageTracker,
	cfg SimilarityConfig,
	prompt string,
	identity string,
	excludeJobID string,
	threshold float64,
	maxMatches int,
) ([]SimilarMatch, error) {
	tracker.set(StageFetchingHistory)
	messages := s.cache.GetHistory(ctx, identity, excludeJobID, cfg.MaxHistoryDays)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := ExtractPairs(messages, cfg.MinPromptLength)
	if len(pairs) == 0 && s.demoCorpus {
		observability.FromContext(ctx).Info("no history, using demo corpus")
		pairs = DemoPairs()
	}
	if len(pairs) == 0 {
		return []SimilarMatch{}, nil
	}

	tracker.set(StageVectorizing)
	vectors := vectorizePairs(prompt, pairs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracker.set(StageRanking)
	return rankPasses(vectors, pairs, threshold, maxMatches), nil
}

// skipReason returns why a prompt bypasses the engine, or "" when it should be checked.
func skipReason(cfg SimilarityConfig, prompt string, identity string) string {
	switch {
	case !cfg.Enabled:
		return "disabled"
	case identity == "":
		return "no identity"
	case utf8.RuneCountInString(prompt) < cfg.MinPromptLength:
		return "prompt too short"
	default:
		return ""
	}
}
