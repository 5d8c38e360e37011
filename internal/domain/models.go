package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role identifies the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// contentTextFields lists, in priority order, the structured content fields that may carry text.
//
//nolint:gochecknoglobals // Fixed lookup order
var contentTextFields = []string{"content", "text", "message", "prompt", "query"}

// MessageContent is either plain text or a structured object carrying text under a conventional field.
// The zero value is empty plain text.
type MessageContent struct {
	text       string
	fields     map[string]any
	structured bool
}

// PlainText wraps a plain text message body.
func PlainText(text string) MessageContent {
	return MessageContent{text: text}
}

// Structured wraps an object message body.
func Structured(fields map[string]any) MessageContent {
	return MessageContent{fields: fields, structured: true}
}

// IsStructured reports whether the content is an object rather than plain text.
func (c MessageContent) IsStructured() bool {
	return c.structured
}

// Text returns the message text. For structured content the first of
// content, text, message, prompt, query holding a non-empty string wins;
// anything else yields "".
func (c MessageContent) Text() string {
	if !c.structured {
		return c.text
	}

	for _, field := range contentTextFields {
		if value, ok := c.fields[field].(string); ok && value != "" {
			return value
		}
	}

	return ""
}

// MarshalJSON encodes plain text as a JSON string and structured content as an object.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.structured {
		return json.Marshal(c.fields)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts a string or an object. Any other JSON value decodes to empty text
// so that a malformed message is skipped instead of failing the whole history.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		*c = PlainText(text)
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err == nil && fields != nil {
		*c = Structured(fields)
		return nil
	}

	*c = MessageContent{}
	return nil
}

// StoredMessage is a chat message as held by the external message store.
type StoredMessage struct {
	ID         string         `json:"id"`
	Role       Role           `json:"role"`
	Content    MessageContent `json:"content"`
	JobID      string         `json:"job_id"`
	CreatedAt  time.Time      `json:"created_at"`
	OrderIndex int64          `json:"order_index"`
}

// PromptResponsePair is a user prompt together with the assistant message that answered it.
type PromptResponsePair struct {
	MessageID string    `json:"message_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SimilarMatch is a historical pair judged similar to the current prompt.
type SimilarMatch struct {
	MessageID  string    `json:"message_id"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Similarity float64   `json:"similarity"`
	JobID      string    `json:"job_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryQuery bounds a similarity history fetch.
type HistoryQuery struct {
	DaysBack     int
	Limit        int
	ExcludeJobID string
}

// ChatRequest is the part of an outgoing chat request the engine reads.
type ChatRequest struct {
	Prompt         string            `json:"prompt"`
	JobID          string            `json:"job_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// EnrichedRequest is the original request, optionally augmented with anti-repetition context.
type EnrichedRequest struct {
	ChatRequest

	SimilarityContext string         `json:"similarity_context,omitempty"`
	SimilarMatches    []SimilarMatch `json:"similar_matches,omitempty"`
}

// SimilarityCheck is the result of a binary near-duplicate gate.
type SimilarityCheck struct {
	IsSimilar bool          `json:"is_similar"`
	Match     *SimilarMatch `json:"match,omitempty"`
}

// SimilarPromptPair is one pairwise comparison reported by user stats.
type SimilarPromptPair struct {
	FirstPrompt  string  `json:"first_prompt"`
	SecondPrompt string  `json:"second_prompt"`
	Similarity   float64 `json:"similarity"`
}

// UserStats summarizes how repetitive an identity's recent prompts are.
type UserStats struct {
	TotalMessages     int                 `json:"total_messages"`
	AverageSimilarity float64             `json:"average_similarity"`
	TopSimilarPairs   []SimilarPromptPair `json:"top_similar_pairs"`
}
