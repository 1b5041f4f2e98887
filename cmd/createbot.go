package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hackerchat/ragbot/internal/config"
	"github.com/hackerchat/ragbot/internal/history"
	"github.com/hackerchat/ragbot/internal/log"
)

// runCreateBot registers the bot user in the chat database so the gateway
// accepts its messages. Safe to run repeatedly. An optional positional
// argument overrides the configured bot name.
func runCreateBot(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	name := cfg.BotName
	if len(os.Args) > 2 && os.Args[2] != "" {
		name = os.Args[2]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, closePool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePool()

	store, err := history.New(pool, logger)
	if err != nil {
		return fmt.Errorf("creating history store: %w", err)
	}

	if err := store.VerifySchema(ctx); err != nil {
		if errors.Is(err, history.ErrSchemaMissing) {
			return fmt.Errorf("chat database schema is not ready, start the chat app first: %w", err)
		}
		return fmt.Errorf("verifying schema: %w", err)
	}

	id, created, err := store.RegisterBot(ctx, name)
	if err != nil {
		return fmt.Errorf("registering bot: %w", err)
	}

	if created {
		fmt.Printf("Created bot user %q (%s)\n", name, id)
	} else {
		fmt.Printf("Bot user %q already exists (%s)\n", name, id)
	}
	if id != cfg.BotID {
		fmt.Printf("Note: set bot_id to %q in the config so the bot ignores its own messages.\n", id)
	}
	return nil
}
