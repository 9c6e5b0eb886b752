// Package cmd provides the chatbot CLI commands.
//
// Commands:
//   - chat: interactive conversation (default), resuming the last session
//   - sessions: list, show, rename, and delete saved conversations
//
// All commands share one setup path: load configuration, run pending
// migrations, open the connection pool.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BhavyaNayak04/chatbot/db"
	"github.com/BhavyaNayak04/chatbot/internal/config"
	"github.com/BhavyaNayak04/chatbot/internal/log"
	"github.com/BhavyaNayak04/chatbot/internal/session"
)

// Execute is the main entry point for the chatbot CLI.
func Execute() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			runVersion()
			return nil
		case "help", "--help", "-h":
			runHelp()
			return nil
		}
	}

	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})

	if len(os.Args) < 2 {
		return runChat(logger)
	}

	switch os.Args[1] {
	case "chat":
		return runChat(logger)
	case "sessions":
		return runSessions(logger, os.Args[2:])
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func runHelp() {
	fmt.Println("chatbot - A personal Gemini chat client with durable sessions")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chatbot [chat]                    Start interactive chat (resumes last session)")
	fmt.Println("  chatbot sessions list             List saved conversations")
	fmt.Println("  chatbot sessions show <id>        Print a conversation transcript")
	fmt.Println("  chatbot sessions rename <id> <t>  Rename a conversation")
	fmt.Println("  chatbot sessions delete <id>      Delete a conversation and its messages")
	fmt.Println("  chatbot --version                 Show version information")
	fmt.Println("  chatbot --help                    Show this help")
	fmt.Println()
	fmt.Println("Chat commands (in interactive mode):")
	fmt.Println("  /new               Start a fresh conversation")
	fmt.Println("  /history           Switch to a saved conversation")
	fmt.Println("  /image <path> [q]  Send an image, with an optional question")
	fmt.Println("  /help              Show available commands")
	fmt.Println("  /exit, /quit       Exit")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* config values")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}

// openStore loads configuration, migrates the schema, and opens the
// connection pool. The returned cleanup closes the pool.
func openStore(ctx context.Context, logger log.Logger) (*config.Config, *session.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 5
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	store := session.NewStore(session.NewQuerier(pool), logger)
	return cfg, store, pool.Close, nil
}
