package domain

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/davidbz/repeatguard/internal/tfidf"
)

const (
	// responseThresholdFactor relaxes the threshold for the prompt-against-responses pass.
	responseThresholdFactor = 0.8

	// responseScoreWeight marks response-pass matches as a softer signal.
	responseScoreWeight = 0.9

	promptScoreWeight = 1.0
)

// pairVectors holds the two batches compared for one request. In each batch index 0
// is the current prompt and index i+1 belongs to pairs[i].
type pairVectors struct {
	prompts   []tfidf.Vector
	responses []tfidf.Vector
}

// FindSimilar ranks pairs against prompt in two passes (historical prompts at threshold,
// historical responses at a relaxed threshold with a down-weighted score), merges them
// and keeps at most maxMatches.
func FindSimilar(prompt string, pairs []PromptResponsePair, threshold float64, maxMatches int) []SimilarMatch {
	if len(pairs) == 0 {
		return []SimilarMatch{}
	}

	return rankPasses(vectorizePairs(prompt, pairs), pairs, threshold, maxMatches)
}

func vectorizePairs(prompt string, pairs []PromptResponsePair) pairVectors {
	prompts := make([]string, 0, len(pairs)+1)
	responses := make([]string, 0, len(pairs)+1)
	prompts = append(prompts, prompt)
	responses = append(responses, prompt)
	for _, pair := range pairs {
		prompts = append(prompts, pair.Prompt)
		responses = append(responses, pair.Response)
	}

	return pairVectors{
		prompts:   tfidf.Vectorize(prompts),
		responses: tfidf.Vectorize(responses),
	}
}

func rankPasses(vectors pairVectors, pairs []PromptResponsePair, threshold float64, maxMatches int) []SimilarMatch {
	promptMatches := RankMatches(vectors.prompts[0], vectors.prompts[1:], pairs, threshold, promptScoreWeight)
	responseMatches := RankMatches(
		vectors.responses[0],
		vectors.responses[1:],
		pairs,
		threshold*responseThresholdFactor,
		responseScoreWeight,
	)

	return MergeMatches(maxMatches, promptMatches, responseMatches)
}

// RankMatches keeps every pair whose cosine similarity to current reaches threshold,
// scores it as similarity*weight and sorts by descending score.
// history[i] must be the vector of pairs[i].
func RankMatches(
	current tfidf.Vector,
	history []tfidf.Vector,
	pairs []PromptResponsePair,
	threshold float64,
	weight float64,
) []SimilarMatch {
	if len(history) != len(pairs) {
		panic(fmt.Sprintf("domain: %d history vectors for %d pairs", len(history), len(pairs)))
	}

	matches := make([]SimilarMatch, 0, len(pairs))
	for i, vec := range history {
		similarity := tfidf.Cosine(current, vec)
		if similarity < threshold {
			continue
		}

		pair := pairs[i]
		matches = append(matches, SimilarMatch{
			MessageID:  pair.MessageID,
			Prompt:     pair.Prompt,
			Response:   pair.Response,
			Similarity: similarity * weight,
			JobID:      pair.JobID,
			CreatedAt:  pair.CreatedAt,
		})
	}

	sortBySimilarity(matches)

	return matches
}

// MergeMatches concatenates passes, drops repeated message ids (first occurrence wins),
// sorts by descending similarity and truncates to maxMatches.
func MergeMatches(maxMatches int, passes ...[]SimilarMatch) []SimilarMatch {
	if maxMatches <= 0 {
		return []SimilarMatch{}
	}

	seen := make(map[string]struct{})
	merged := make([]SimilarMatch, 0)
	for _, pass := range passes {
		for _, match := range pass {
			if _, dup := seen[match.MessageID]; dup {
				continue
			}
			seen[match.MessageID] = struct{}{}
			merged = append(merged, match)
		}
	}

	sortBySimilarity(merged)

	if len(merged) > maxMatches {
		merged = merged[:maxMatches]
	}

	return merged
}

func sortBySimilarity(matches []SimilarMatch) {
	slices.SortStableFunc(matches, func(a, b SimilarMatch) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
}
