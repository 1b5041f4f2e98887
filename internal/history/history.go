// Package history reads the chat application's Postgres database: the
// message log that feeds the vector index, plus the user table the bot
// registers itself in.
//
// The schema belongs to the chat app, not to this service. Quoted
// mixed-case table and column names below follow that schema verbatim.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackerchat/ragbot/internal/log"
)

var (
	// ErrNilDB indicates the store was constructed without a database.
	ErrNilDB = errors.New("database is required")

	// ErrSchemaMissing indicates the chat schema has not been migrated yet.
	ErrSchemaMissing = errors.New("chat schema missing")
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Message is one chat message joined with its channel and author names.
type Message struct {
	Content    string
	Channel    string
	Author     string
	CreatedAt  time.Time
	ThreadID   string
	ThreadName string
	FileURL    string
	FileName   string
}

// Store reads and writes the chat database.
type Store struct {
	db     DB
	logger log.Logger
}

// New builds a Store over the chat database.
func New(db DB, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}, nil
}

// FetchMessages returns every message with readable channel and author
// names, newest first. Nullable columns come back as empty strings.
func (s *Store) FetchMessages(ctx context.Context) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			COALESCE(m.content, '') AS content,
			c.name AS channel_name,
			u.name AS author_name,
			m."createdAt",
			COALESCE(m."threadId", '') AS thread_id,
			COALESCE(m."threadName", '') AS thread_name,
			COALESCE(m."fileUrl", '') AS file_url,
			COALESCE(m."fileName", '') AS file_name
		FROM "Message" m
		JOIN "Channel" c ON m."channelId" = c.id
		JOIN users u ON m."authorId" = u.id
		ORDER BY m."createdAt" DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Content, &m.Channel, &m.Author, &m.CreatedAt,
			&m.ThreadID, &m.ThreadName, &m.FileURL, &m.FileName,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	s.logger.Info("messages fetched", "count", len(messages))
	return messages, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("pinging chat database: %w", err)
	}
	return nil
}
