package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hackerchat/ragbot/internal/config"
	"github.com/hackerchat/ragbot/internal/log"
)

// runREPL starts an interactive question loop against the vector index.
// Useful for poking the retrieval pipeline without a running chat gateway.
func runREPL(logger log.Logger) error {
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

	count, err := rc.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking vector index: %w", err)
	}
	if count == 0 {
		fmt.Fprintln(os.Stderr, "Warning: vector index is empty; run `ragbot serve` once to build it.")
	}

	fmt.Printf("ragbot %s - %d indexed chunks. Type a question, or exit/quit to leave.\n", Version, count)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, passages, err := rc.asker.Answer(ctx, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		printAnswer(answer, passages)
		fmt.Println()
	}
}
