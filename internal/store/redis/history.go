// Package redis stores chat history in Redis sorted sets, one per identity, scored by
// order index.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/observability"
)

const (
	defaultKeyPrefix = "history:"
	pageSize         = 100
)

// HistoryStore implements domain.HistoryStore and domain.HistoryWriter on Redis.
type HistoryStore struct {
	client    *redis.Client
	keyPrefix string
	retention time.Duration
	now       func() time.Time
}

// NewHistoryStore creates a Redis history adapter and checks the server is reachable.
// A positive retention expires an identity's history after that long without writes.
func NewHistoryStore(
	ctx context.Context,
	client *redis.Client,
	keyPrefix string,
	retention time.Duration,
) (*HistoryStore, error) {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return &HistoryStore{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
		now:       time.Now,
	}, nil
}

// FetchMessagesForSimilarity returns the newest query.Limit messages within the query window,
// skipping the excluded job, ordered by ascending order index.
func (h *HistoryStore) FetchMessagesForSimilarity(
	ctx context.Context,
	identity string,
	query domain.HistoryQuery,
) ([]domain.StoredMessage, error) {
	return h.fetch(ctx, identity, newWindow(h.now(), query.DaysBack, query.Limit, query.ExcludeJobID))
}

// FetchRecentMessages returns the newest limit messages within daysBack.
func (h *HistoryStore) FetchRecentMessages(
	ctx context.Context,
	identity string,
	daysBack int,
	limit int,
) ([]domain.StoredMessage, error) {
	return h.fetch(ctx, identity, newWindow(h.now(), daysBack, limit, ""))
}

// Append stores msg after the identity's newest message.
func (h *HistoryStore) Append(
	ctx context.Context,
	identity string,
	msg domain.StoredMessage,
) (domain.StoredMessage, error) {
	if identity == "" {
		return domain.StoredMessage{}, domain.ErrIdentityRequired
	}

	logger := observability.FromContext(ctx)

	seq, err := h.client.Incr(ctx, h.seqKey(identity)).Result()
	if err != nil {
		return domain.StoredMessage{}, fmt.Errorf("failed to allocate order index: %w", err)
	}

	msg.OrderIndex = seq - 1
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = h.now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()

	member, err := encodeMessage(msg)
	if err != nil {
		return domain.StoredMessage{}, err
	}

	pipe := h.client.Pipeline()
	pipe.ZAdd(ctx, h.historyKey(identity), redis.Z{Score: float64(msg.OrderIndex), Member: member})
	if h.retention > 0 {
		pipe.Expire(ctx, h.historyKey(identity), h.retention)
		pipe.Expire(ctx, h.seqKey(identity), h.retention)
	}

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		logger.Error("history append failed",
			observability.Error(execErr))
		return domain.StoredMessage{}, fmt.Errorf("failed to append message: %w", execErr)
	}

	return msg, nil
}

func (h *HistoryStore) fetch(ctx context.Context, identity string, w window) ([]domain.StoredMessage, error) {
	logger := observability.FromContext(ctx)
	key := h.historyKey(identity)

	messages := make([]domain.StoredMessage, 0)
	for start := int64(0); ; start += pageSize {
		members, err := h.client.ZRevRange(ctx, key, start, start+pageSize-1).Result()
		if err != nil {
			logger.Error("history range failed",
				observability.String("key", key),
				observability.Error(err))
			return nil, fmt.Errorf("failed to read history: %w", err)
		}

		var done bool
		messages, done, err = w.collect(messages, members)
		if err != nil {
			return nil, err
		}
		if done || len(members) < pageSize {
			break
		}
	}

	// collected newest first
	slices.Reverse(messages)

	logger.Debug("history loaded",
		observability.String("key", key),
		observability.Int("messages", len(messages)))

	return messages, nil
}

func (h *HistoryStore) historyKey(identity string) string {
	return h.keyPrefix + identity
}

func (h *HistoryStore) seqKey(identity string) string {
	return h.keyPrefix + identity + ":seq"
}

// window selects messages while walking a history from newest to oldest.
type window struct {
	since        time.Time
	limit        int
	excludeJobID string
}

func newWindow(now time.Time, daysBack int, limit int, excludeJobID string) window {
	w := window{since: time.Time{}, limit: limit, excludeJobID: excludeJobID}
	if daysBack > 0 {
		w.since = now.AddDate(0, 0, -daysBack)
	}
	return w
}

// collect appends the members that fall inside the window to out and reports done once the
// limit is reached. Creation times need not follow order index, so members older than the
// window are skipped rather than ending the walk.
func (w window) collect(out []domain.StoredMessage, members []string) ([]domain.StoredMessage, bool, error) {
	for _, member := range members {
		if w.limit > 0 && len(out) >= w.limit {
			return out, true, nil
		}

		msg, err := decodeMessage(member)
		if err != nil {
			return nil, false, err
		}

		if msg.CreatedAt.Before(w.since) {
			continue
		}
		if w.excludeJobID != "" && msg.JobID == w.excludeJobID {
			continue
		}

		out = append(out, msg)
	}

	return out, w.limit > 0 && len(out) >= w.limit, nil
}

func encodeMessage(msg domain.StoredMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return string(data), nil
}

func decodeMessage(member string) (domain.StoredMessage, error) {
	var msg domain.StoredMessage
	if err := json.Unmarshal([]byte(member), &msg); err != nil {
		return domain.StoredMessage{}, fmt.Errorf("failed to decode message: %w", err)
	}
	return msg, nil
}
