package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hackerchat/ragbot/internal/ai"
	"github.com/hackerchat/ragbot/internal/config"
	"github.com/hackerchat/ragbot/internal/log"
	"github.com/hackerchat/ragbot/internal/seed"
)

// runSeed generates fictional chat history with Gemini and inserts it into
// the chat database. An optional positional argument overrides the message
// count.
func runSeed(logger log.Logger) error {
	count := seed.DefaultMessageCount
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid message count %q", os.Args[2])
		}
		count = n
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

	client, err := ai.NewClient(ctx, "")
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}

	seeder, err := seed.New(pool, client.Models, cfg.ModelName, count, logger)
	if err != nil {
		return fmt.Errorf("creating seeder: %w", err)
	}

	if err := seeder.Run(ctx); err != nil {
		return fmt.Errorf("seeding chat history: %w", err)
	}

	fmt.Printf("Seeded up to %d messages. Run `ragbot serve` to rebuild the index.\n", count)
	return nil
}
