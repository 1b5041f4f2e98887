// Package cmd provides CLI commands for ragbot.
//
// Commands:
//   - serve: connect to the chat gateway and answer messages
//   - ask: answer a single question from the command line
//   - repl: interactive question loop against the vector index
//   - seed: generate and insert fictional chat history
//   - create-bot: register the bot user in the chat database
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hackerchat/ragbot/internal/log"
)

// Execute is the main entry point for the ragbot CLI application.
func Execute() error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "ask":
		return runAsk(logger)
	case "repl":
		return runREPL(logger)
	case "seed":
		return runSeed(logger)
	case "create-bot":
		return runCreateBot(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("ragbot - RAG chat bot for HackerChat")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ragbot serve [addr]     Run the bot (default probe addr: 127.0.0.1:8090)")
	fmt.Println("  ragbot ask <question>   Answer one question and exit")
	fmt.Println("  ragbot repl             Interactive question loop")
	fmt.Println("  ragbot seed [count]     Seed the chat database with generated history")
	fmt.Println("  ragbot create-bot       Register the bot user in the chat database")
	fmt.Println("  ragbot --version        Show version information")
	fmt.Println("  ragbot --help           Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY          Required: Gemini API key")
	fmt.Println("  DATABASE_URL            Optional: overrides postgres_* settings")
	fmt.Println("  RAGBOT_SOCKET_URL       Optional: chat gateway websocket URL")
	fmt.Println("  RAGBOT_SOCKET_TOKEN     Optional: gateway bearer token")
	fmt.Println("  DEBUG                   Optional: enable debug logging")
}
