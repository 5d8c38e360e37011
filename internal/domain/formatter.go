package domain

import (
	"fmt"
	"math"
	"strings"
)

const maxContextResponseRunes = 500

// FormatContext renders matches into a directive block asking the generator not to repeat
// earlier answers. It returns "" when there is nothing to inject.
func FormatContext(matches []SimilarMatch) string {
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("IMPORTANT - ANTI-REPETITION CONTEXT:\n")
	b.WriteString("The user has asked similar questions before. ")
	b.WriteString("These are the earlier requests and the answers they received:\n")

	for i, match := range matches {
		fmt.Fprintf(&b, "\nPrevious similar request #%d (%d%% similar):\n", i+1, similarityPercent(match.Similarity))
		fmt.Fprintf(&b, "User asked: %q\n", match.Prompt)
		fmt.Fprintf(&b, "You answered: %q\n", truncateRunes(match.Response, maxContextResponseRunes))
	}

	b.WriteString("\nINSTRUCTIONS:\n")
	b.WriteString("- Do NOT reuse the structure, punchlines, jokes or phrasing of the answers above.\n")
	b.WriteString("- Produce materially original content that takes a different angle.\n")
	b.WriteString("- If the request is creative (jokes, stories, poems), make it clearly different from before.\n")
	b.WriteString("- Answer the current request fully; the earlier answers are only there to be avoided.\n")

	return b.String()
}

func similarityPercent(similarity float64) int {
	return int(math.Round(similarity * 100))
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
