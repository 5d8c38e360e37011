// Package sqlite stores chat history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/observability"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	identity    TEXT NOT NULL,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	job_id      TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	order_index INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_identity_order ON messages (identity, order_index);
CREATE INDEX IF NOT EXISTS idx_messages_identity_created ON messages (identity, created_at);
`

// newest first so LIMIT keeps the most recent rows; callers get them back in ascending order.
const selectWindow = `
SELECT id, role, content, job_id, created_at, order_index
FROM messages
WHERE identity = ?
  AND created_at >= ?
  AND (? = '' OR job_id != ?)
ORDER BY order_index DESC
LIMIT ?`

// Store implements domain.HistoryStore and domain.HistoryWriter on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dbPath. Pass ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	// One connection avoids "database is locked" and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL", createMessagesTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing history db: %w", err)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchMessagesForSimilarity returns the newest query.Limit messages within the query window,
// skipping the excluded job, ordered by ascending order index.
func (s *Store) FetchMessagesForSimilarity(
	ctx context.Context,
	identity string,
	query domain.HistoryQuery,
) ([]domain.StoredMessage, error) {
	return s.fetch(ctx, identity, query.DaysBack, query.Limit, query.ExcludeJobID)
}

// FetchRecentMessages returns the newest limit messages within daysBack.
func (s *Store) FetchRecentMessages(
	ctx context.Context,
	identity string,
	daysBack int,
	limit int,
) ([]domain.StoredMessage, error) {
	return s.fetch(ctx, identity, daysBack, limit, "")
}

// Append stores msg after the identity's newest message.
func (s *Store) Append(ctx context.Context, identity string, msg domain.StoredMessage) (domain.StoredMessage, error) {
	if identity == "" {
		return domain.StoredMessage{}, domain.ErrIdentityRequired
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()

	content, err := json.Marshal(msg.Content)
	if err != nil {
		return domain.StoredMessage{}, fmt.Errorf("encoding message content: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.StoredMessage{}, fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index), -1) + 1 FROM messages WHERE identity = ?`, identity,
	).Scan(&msg.OrderIndex); err != nil {
		return domain.StoredMessage{}, fmt.Errorf("reading next order index: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, identity, role, content, job_id, created_at, order_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, identity, string(msg.Role), string(content), msg.JobID, msg.CreatedAt.UnixMilli(), msg.OrderIndex,
	); err != nil {
		return domain.StoredMessage{}, fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.StoredMessage{}, fmt.Errorf("committing append: %w", err)
	}

	return msg, nil
}

func (s *Store) fetch(
	ctx context.Context,
	identity string,
	daysBack int,
	limit int,
	excludeJobID string,
) ([]domain.StoredMessage, error) {
	logger := observability.FromContext(ctx)

	var since int64
	if daysBack > 0 {
		since = s.now().AddDate(0, 0, -daysBack).UnixMilli()
	}
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := s.db.QueryContext(ctx, selectWindow, identity, since, excludeJobID, excludeJobID, limit)
	if err != nil {
		logger.Error("history query failed",
			observability.Error(err))
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.StoredMessage, 0)
	for rows.Next() {
		msg, err := scanMessage(rows, logger)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	slices.Reverse(messages)

	logger.Debug("history loaded",
		observability.Int("messages", len(messages)),
		observability.Int("days_back", daysBack))

	return messages, nil
}

// scanMessage reads one row. Undecodable content leaves that message with empty text.
func scanMessage(rows *sql.Rows, logger *zap.Logger) (domain.StoredMessage, error) {
	var (
		msg       domain.StoredMessage
		role      string
		content   string
		createdAt int64
	)

	if err := rows.Scan(&msg.ID, &role, &content, &msg.JobID, &createdAt, &msg.OrderIndex); err != nil {
		return domain.StoredMessage{}, fmt.Errorf("scanning message: %w", err)
	}

	if err := json.Unmarshal([]byte(content), &msg.Content); err != nil {
		logger.Warn("undecodable message content, using empty text",
			observability.String("message_id", msg.ID),
			observability.Error(err))
		msg.Content = domain.MessageContent{}
	}
	msg.Role = domain.Role(role)
	msg.CreatedAt = time.UnixMilli(createdAt).UTC()

	return msg, nil
}
