package domain

import "context"

// HistoryStore reads an identity's stored chat messages.
type HistoryStore interface {
	// FetchMessagesForSimilarity returns messages within the query window, ordered by order index.
	FetchMessagesForSimilarity(ctx context.Context, identity string, query HistoryQuery) ([]StoredMessage, error)

	// FetchRecentMessages returns the newest messages within daysBack, ordered by order index.
	FetchRecentMessages(ctx context.Context, identity string, daysBack int, limit int) ([]StoredMessage, error)
}

// HistoryWriter appends messages to an identity's history.
type HistoryWriter interface {
	// Append stores msg as the identity's newest message. It always assigns the next order
	// index and fills in id and creation time when unset.
	Append(ctx context.Context, identity string, msg StoredMessage) (StoredMessage, error)
}
