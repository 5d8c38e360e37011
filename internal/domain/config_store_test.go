package domain_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/repeatguard/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultSimilarityConfig(t *testing.T) {
	cfg := domain.DefaultSimilarityConfig()

	require.True(t, cfg.Enabled)
	require.InDelta(t, 0.7, cfg.SimilarityThreshold, 1e-9)
	require.Equal(t, 3, cfg.MaxMatches)
	require.Equal(t, 10, cfg.MinPromptLength)
	require.Equal(t, 30, cfg.MaxHistoryDays)
	require.True(t, cfg.ExcludeCurrentJob)
	require.True(t, cfg.ContextInjectionEnabled)
}

func TestSimilarityConfig_BlockingThreshold(t *testing.T) {
	t.Run("should add offset to threshold", func(t *testing.T) {
		cfg := domain.SimilarityConfig{SimilarityThreshold: 0.5}
		require.InDelta(t, 0.7, cfg.BlockingThreshold(), 1e-9)
	})

	t.Run("should never exceed 0.95", func(t *testing.T) {
		cfg := domain.SimilarityConfig{SimilarityThreshold: 0.9}
		require.InDelta(t, 0.95, cfg.BlockingThreshold(), 1e-9)

		cfg.SimilarityThreshold = 3
		require.InDelta(t, 0.95, cfg.BlockingThreshold(), 1e-9)
	})
}

func TestConfigStore_Update(t *testing.T) {
	t.Run("should merge only provided fields", func(t *testing.T) {
		store := domain.NewConfigStore(domain.DefaultSimilarityConfig())

		updated := store.Update(domain.SimilarityConfigUpdate{
			SimilarityThreshold: ptr(0.55),
			MaxMatches:          ptr(5),
		})

		require.InDelta(t, 0.55, updated.SimilarityThreshold, 1e-9)
		require.Equal(t, 5, updated.MaxMatches)
		require.Equal(t, 10, updated.MinPromptLength)
		require.True(t, updated.Enabled)
		require.Equal(t, updated, store.Get())
	})

	t.Run("should accept out-of-range values", func(t *testing.T) {
		store := domain.NewConfigStore(domain.DefaultSimilarityConfig())

		updated := store.Update(domain.SimilarityConfigUpdate{
			SimilarityThreshold: ptr(1.5),
			MaxMatches:          ptr(-1),
		})

		require.InDelta(t, 1.5, updated.SimilarityThreshold, 1e-9)
		require.Equal(t, -1, updated.MaxMatches)
	})

	t.Run("should be safe for concurrent use", func(t *testing.T) {
		store := domain.NewConfigStore(domain.DefaultSimilarityConfig())

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				store.Update(domain.SimilarityConfigUpdate{MaxMatches: ptr(i)})
			}()
			go func() {
				defer wg.Done()
				_ = store.Get()
			}()
		}
		wg.Wait()

		require.GreaterOrEqual(t, store.Get().MaxMatches, 0)
	})
}
