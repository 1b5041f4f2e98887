package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackerchat/ragbot/db"
	"github.com/hackerchat/ragbot/internal/ai"
	"github.com/hackerchat/ragbot/internal/config"
	"github.com/hackerchat/ragbot/internal/history"
	"github.com/hackerchat/ragbot/internal/log"
	"github.com/hackerchat/ragbot/internal/rag"
)

// openPool runs migrations and opens the shared connection pool.
// The returned cleanup closes the pool.
func openPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// ragComponents is the answering half of the application: the vector store
// plus the model wrappers feeding it.
type ragComponents struct {
	store     *rag.Store
	generator *ai.Generator
	asker     *rag.Asker
	history   *history.Store
}

// buildRAG wires the Gemini client, the embedder/generator pair, the vector
// store, and the chat history reader.
func buildRAG(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger log.Logger) (*ragComponents, error) {
	client, err := ai.NewClient(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	embedder, err := ai.NewEmbedder(client, cfg.EmbedderModel, cfg.EmbedderDimension, logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	generator, err := ai.NewGenerator(client, cfg.ModelName, cfg.Temperature, cfg.PromptTemplate, logger)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	store, err := rag.New(pool, embedder, cfg.RetrievalTopK, logger)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	historyStore, err := history.New(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating history store: %w", err)
	}

	asker, err := rag.NewAsker(store, generator)
	if err != nil {
		return nil, fmt.Errorf("creating asker: %w", err)
	}

	return &ragComponents{
		store:     store,
		generator: generator,
		asker:     asker,
		history:   historyStore,
	}, nil
}

// rebuildIndex reads the full chat history, chunks it, and replaces the
// vector index contents.
func rebuildIndex(ctx context.Context, cfg *config.Config, rc *ragComponents, logger log.Logger) error {
	messages, err := rc.history.FetchMessages(ctx)
	if err != nil {
		return fmt.Errorf("fetching chat history: %w", err)
	}

	docs := history.BuildDocuments(messages)
	chunks := history.SplitDocuments(docs, history.Splitter{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	})

	logger.Info("rebuilding vector index",
		"messages", len(messages),
		"documents", len(docs),
		"chunks", len(chunks),
	)

	if err := rc.store.Rebuild(ctx, chunks); err != nil {
		return fmt.Errorf("rebuilding vector index: %w", err)
	}
	return nil
}
