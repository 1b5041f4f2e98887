// Package rag maintains the vector index over chat history and serves
// similarity retrieval for the dispatch pipeline.
//
// The index lives in a single pgvector-backed table. It is rebuilt from
// scratch on startup (and on demand) from the chat history database, then
// queried per inbound event with cosine distance.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/hackerchat/ragbot/internal/dispatch"
	"github.com/hackerchat/ragbot/internal/log"
)

var (
	// ErrNilDB indicates the store was constructed without a database.
	ErrNilDB = errors.New("database is required")

	// ErrNilEmbedder indicates the store was constructed without an embedder.
	ErrNilEmbedder = errors.New("embedder is required")

	// ErrInvalidTopK indicates a non-positive retrieval depth.
	ErrInvalidTopK = errors.New("top k must be positive")
)

// Embedder produces vectors for index documents and search queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Document is one indexable chunk of chat history with its provenance.
type Document struct {
	Text      string
	Channel   string
	Author    string
	Timestamp time.Time
}

// embedBatchSize bounds how many documents go into one embedding API call.
const embedBatchSize = 32

// Store is the pgvector-backed conversation context store. It satisfies the
// dispatch.ContextStore contract and is safe for concurrent use.
type Store struct {
	db       DB
	embedder Embedder
	topK     int
	logger   log.Logger
}

// New builds a Store retrieving at most topK passages per query.
func New(db DB, embedder Embedder, topK int, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, embedder: embedder, topK: topK, logger: logger}, nil
}

// Rebuild replaces the index contents with the given documents. Embeddings
// are computed up front so the swap itself is a single short transaction and
// concurrent retrievals never observe a half-built index.
func (s *Store) Rebuild(ctx context.Context, docs []Document) error {
	started := time.Now()

	vectors := make([]pgvector.Vector, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))

		texts := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			texts = append(texts, doc.Text)
		}

		batch, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding documents %d..%d: %w", start, end-1, err)
		}
		for _, values := range batch {
			vectors = append(vectors, pgvector.NewVector(values))
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning index rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE TABLE rag_documents`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	inserts := &pgx.Batch{}
	for i, doc := range docs {
		inserts.Queue(`
			INSERT INTO rag_documents (content, channel, author, message_at, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			doc.Text, doc.Channel, doc.Author, doc.Timestamp, vectors[i],
		)
	}
	if err := tx.SendBatch(ctx, inserts).Close(); err != nil {
		return fmt.Errorf("inserting %d documents: %w", len(docs), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing index rebuild: %w", err)
	}

	s.logger.Info("vector index rebuilt",
		"documents", len(docs),
		"duration", time.Since(started),
	)
	return nil
}

// Retrieve embeds the query and returns the nearest documents by cosine
// distance, most relevant first.
func (s *Store) Retrieve(ctx context.Context, query string) ([]dispatch.Passage, error) {
	values, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := pgvector.NewVector(values)

	rows, err := s.db.Query(ctx, `
		SELECT content, channel, author, message_at
		FROM rag_documents
		ORDER BY embedding <=> $1
		LIMIT $2`,
		queryVec, s.topK,
	)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var passages []dispatch.Passage
	for rows.Next() {
		var p dispatch.Passage
		if err := rows.Scan(&p.Text, &p.Channel, &p.Author, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	s.logger.Debug("context retrieved", "passages", len(passages))
	return passages, nil
}

// Count reports how many documents the index currently holds.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM rag_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}
