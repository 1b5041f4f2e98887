package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hackerchat/ragbot/internal/config"
	"github.com/hackerchat/ragbot/internal/dispatch"
	"github.com/hackerchat/ragbot/internal/log"
)

// runAsk answers a single question against the existing vector index and
// prints the answer with its sources.
func runAsk(logger log.Logger) error {
	question := strings.TrimSpace(strings.Join(os.Args[2:], " "))
	if question == "" {
		return fmt.Errorf("usage: ragbot ask <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, closePool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePool()

	rc, err := buildRAG(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	if count, err := rc.store.Count(ctx); err == nil && count == 0 {
		fmt.Fprintln(os.Stderr, "Warning: vector index is empty; run `ragbot serve` once to build it.")
	}

	answer, passages, err := rc.asker.Answer(ctx, question)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	printAnswer(answer, passages)
	return nil
}

// printAnswer writes the answer and its retrieved sources to stdout.
func printAnswer(answer string, passages []dispatch.Passage) {
	if len(passages) > 0 {
		fmt.Println("Sources:")
		for _, p := range passages {
			fmt.Printf("  [#%s] %s (%s)\n", p.Channel, p.Author, p.Timestamp.Format("2006-01-02 15:04"))
		}
		fmt.Println()
	}
	fmt.Println(answer)
}
