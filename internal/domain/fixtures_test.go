package domain_test

import (
	"fmt"
	"time"

	"github.com/davidbz/repeatguard/internal/domain"
)

const (
	reactPrompt   = "How do I create a React component?"
	reactResponse = "You can create a React component using function syntax and return JSX from it."
)

//nolint:gochecknoglobals // Test fixture
var fillerPairs = [][2]string{
	{"Recommend a good pasta recipe for dinner", "Try spaghetti carbonara with eggs, pecorino and guanciale."},
	{"Explain quantum computing basics simply", "Quantum computers use qubits that hold superpositions of states."},
	{"Translate hello into Spanish and French", "Hola in Spanish and bonjour in French."},
	{"Summarize the plot of Hamlet briefly", "A Danish prince seeks revenge for his father's murder."},
	{"Suggest names for a golden retriever puppy", "Sunny, Maple, Biscuit and Honey are popular choices."},
	{"What causes ocean tides on Earth?", "Tides are caused mainly by the gravitational pull of the moon."},
	{"Give me tips for running a marathon", "Train gradually, hydrate well and taper before race day."},
	{"Describe the history of the Roman empire", "Rome grew from a republic into an empire spanning the Mediterranean."},
	{"Write a haiku about autumn leaves", "Crimson leaves drifting, quiet wind through empty trees, autumn says goodbye."},
	{"Compare electric cars and hybrid cars", "Electric cars run on batteries alone while hybrids combine engines and motors."},
	{"Explain photosynthesis in plants", "Plants convert sunlight, water and carbon dioxide into glucose and oxygen."},
	{"Recommend science fiction novels to read", "Dune, Foundation and Hyperion are classic picks."},
	{"Convert fifty miles into kilometers", "Fifty miles is roughly eighty kilometers."},
	{"Plan a weekend trip to Lisbon", "Visit Alfama, ride tram 28 and eat pastel de nata in Belem."},
	{"Explain how vaccines train immunity", "Vaccines expose the immune system to harmless antigens so it remembers them."},
	{"Suggest exercises for lower back pain", "Gentle stretches, bridges and bird dogs help strengthen the back."},
	{"Describe the rules of chess castling", "Castling moves the king two squares toward a rook which jumps over it."},
	{"Explain inflation and interest rates", "Central banks raise interest rates to slow inflation."},
	{"Recommend houseplants for low light", "Snake plants, pothos and ZZ plants tolerate low light."},
	{"Teach me basic guitar chords", "Start with G, C, D and E minor chords."},
}

// conversation turns prompt/response texts into ordered user/assistant messages.
// The user message of pair i gets id "msg-<i>".
func conversation(jobID string, texts ...[2]string) []domain.StoredMessage {
	createdAt := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	messages := make([]domain.StoredMessage, 0, len(texts)*2)
	for i, pair := range texts {
		messages = append(messages,
			domain.StoredMessage{
				ID:         fmt.Sprintf("msg-%d", i),
				Role:       domain.RoleUser,
				Content:    domain.PlainText(pair[0]),
				JobID:      jobID,
				CreatedAt:  createdAt,
				OrderIndex: int64(i * 2),
			},
			domain.StoredMessage{
				ID:         fmt.Sprintf("reply-%d", i),
				Role:       domain.RoleAssistant,
				Content:    domain.PlainText(pair[1]),
				JobID:      jobID,
				CreatedAt:  createdAt,
				OrderIndex: int64(i*2 + 1),
			},
		)
	}
	return messages
}

// reactHistory is a realistic history in which only msg-0 is about React.
func reactHistory() []domain.StoredMessage {
	texts := append([][2]string{{reactPrompt, reactResponse}}, fillerPairs...)
	return conversation("job-1", texts...)
}

func reactPairs() []domain.PromptResponsePair {
	return domain.ExtractPairs(reactHistory(), 10)
}
