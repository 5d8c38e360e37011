package tfidf_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/repeatguard/internal/tfidf"
)

func TestTokenize(t *testing.T) {
	t.Run("should lowercase and strip punctuation", func(t *testing.T) {
		terms := tfidf.Tokenize("How do I create a React-Component?!")
		require.Equal(t, []string{"create", "react", "component"}, terms)
	})

	t.Run("should drop short terms and stop words", func(t *testing.T) {
		terms := tfidf.Tokenize("What is the best way to go there with an ox")
		require.Equal(t, []string{"best", "way"}, terms)
	})

	t.Run("should keep digits", func(t *testing.T) {
		terms := tfidf.Tokenize("Explain HTTP2 vs HTTP3 in 2024")
		require.Equal(t, []string{"explain", "http2", "http3", "2024"}, terms)
	})

	t.Run("should return empty sequence for blank input", func(t *testing.T) {
		require.Empty(t, tfidf.Tokenize(""))
		require.Empty(t, tfidf.Tokenize("   \t\n "))
	})

	t.Run("should be deterministic", func(t *testing.T) {
		text := "Tell me a joke about penguins and databases"
		require.Equal(t, tfidf.Tokenize(text), tfidf.Tokenize(text))
	})
}

func TestVectorize(t *testing.T) {
	t.Run("should return empty result for empty batch", func(t *testing.T) {
		require.Empty(t, tfidf.Vectorize(nil))
	})

	t.Run("should share one vocabulary across the batch", func(t *testing.T) {
		vectors := tfidf.Vectorize([]string{"alpha beta", "beta gamma", "delta"})

		require.Len(t, vectors, 3)
		for _, vec := range vectors {
			require.Len(t, vec, 4)
		}
	})

	t.Run("should compute tf times natural log idf", func(t *testing.T) {
		vectors := tfidf.Vectorize([]string{"alpha beta", "beta gamma"})

		// vocabulary: alpha, beta, gamma
		require.InDelta(t, 0.5*math.Log(2), vectors[0][0], 1e-9)
		require.InDelta(t, 0.0, vectors[0][1], 1e-9)
		require.InDelta(t, 0.0, vectors[0][2], 1e-9)
		require.InDelta(t, 0.5*math.Log(2), vectors[1][2], 1e-9)
	})

	t.Run("should zero terms present in every document", func(t *testing.T) {
		vectors := tfidf.Vectorize([]string{"shared token", "shared token"})

		require.InDelta(t, 0.0, vectors[0].Norm(), 1e-9)
		require.InDelta(t, 0.0, vectors[1].Norm(), 1e-9)
	})

	t.Run("should produce zero vector for documents without terms", func(t *testing.T) {
		vectors := tfidf.Vectorize([]string{"a an the", "distinct words"})

		require.InDelta(t, 0.0, vectors[0].Norm(), 1e-9)
		require.Greater(t, vectors[1].Norm(), 0.0)
	})
}

func TestCosine(t *testing.T) {
	t.Run("should be one for identical non-zero vectors", func(t *testing.T) {
		v := tfidf.Vector{0.3, 0, 1.2, 4}
		require.InDelta(t, 1.0, tfidf.Cosine(v, v), 1e-9)
	})

	t.Run("should be zero against zero vector", func(t *testing.T) {
		v := tfidf.Vector{0.3, 0.5}
		require.InDelta(t, 0.0, tfidf.Cosine(v, tfidf.Vector{0, 0}), 1e-12)
	})

	t.Run("should be zero for orthogonal vectors", func(t *testing.T) {
		require.InDelta(t, 0.0, tfidf.Cosine(tfidf.Vector{1, 0}, tfidf.Vector{0, 1}), 1e-12)
	})

	t.Run("should panic on dimension mismatch", func(t *testing.T) {
		require.Panics(t, func() {
			tfidf.Cosine(tfidf.Vector{1, 2}, tfidf.Vector{1, 2, 3})
		})
	})

	t.Run("should give identical scores across runs", func(t *testing.T) {
		docs := []string{
			"How do I build a React component?",
			"How do I create a React component?",
			"Best pasta recipe for dinner",
		}

		first := tfidf.Vectorize(docs)
		second := tfidf.Vectorize(docs)

		require.Equal(t, tfidf.Cosine(first[0], first[1]), tfidf.Cosine(second[0], second[1]))
	})
}
