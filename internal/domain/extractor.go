package domain

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// ExtractPairs pairs every user message with the assistant message that immediately
// follows it in order-index sequence. Pairs with an empty prompt or response, or a
// prompt shorter than minPromptLength characters, are skipped.
func ExtractPairs(messages []StoredMessage, minPromptLength int) []PromptResponsePair {
	ordered := slices.Clone(messages)
	slices.SortStableFunc(ordered, func(a, b StoredMessage) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})

	pairs := make([]PromptResponsePair, 0, len(ordered)/2)
	for i := 0; i+1 < len(ordered); i++ {
		current, next := ordered[i], ordered[i+1]
		if current.Role != RoleUser || next.Role != RoleAssistant {
			continue
		}

		prompt := current.Content.Text()
		response := next.Content.Text()
		if strings.TrimSpace(prompt) == "" || strings.TrimSpace(response) == "" {
			continue
		}
		if utf8.RuneCountInString(prompt) < minPromptLength {
			continue
		}

		pairs = append(pairs, PromptResponsePair{
			MessageID: current.ID,
			Prompt:    prompt,
			Response:  response,
			JobID:     current.JobID,
			CreatedAt: current.CreatedAt,
		})
	}

	return pairs
}
