package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hotelbot/internal/chat"
	"hotelbot/internal/config"
	"hotelbot/internal/consolidate"
	"hotelbot/internal/llm"
	"hotelbot/internal/logger"
	"hotelbot/internal/memory"
	"hotelbot/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	userID := flag.String("user", "", "user id for long-term memory (e.g. user_1)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	user := strings.TrimSpace(*userID)
	for user == "" {
		fmt.Print("Enter your User ID (e.g. user_1): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		user = strings.TrimSpace(line)
	}

	svc, closeStores, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	sessionID := fmt.Sprintf("%s-%d", user, time.Now().Unix())
	logger.Info().
		Str("user_id", user).
		Str("provider", cfg.Model.Provider).
		Str("memory_backend", cfg.Memory.Backend).
		Msg("hotel booking assistant ready")
	fmt.Println("Ask me about booking a hotel (type 'exit' to quit).")

	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		reply, err := svc.Respond(ctx, user, sessionID, input)
		if err != nil {
			if errors.Is(err, llm.ErrRetryExhausted) {
				fmt.Println("assistant> The booking service is busy right now, please try again shortly.")
				continue
			}
			logger.Error().Err(err).Msg("turn failed")
			fmt.Println("assistant> Sorry, something went wrong with that request.")
			continue
		}
		fmt.Println("assistant>", reply)
	}
}

func buildService(ctx context.Context, cfg *config.Config) (*chat.Service, func(), error) {
	backend, err := llm.NewGenerator(ctx, cfg.Model, cfg.Secrets)
	if err != nil {
		return nil, nil, fmt.Errorf("create model backend: %w", err)
	}
	gateway := llm.NewGateway(backend, llm.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Unit:        cfg.Retry.BackoffUnit(),
	})

	var sessions session.Store
	var closers []func()
	switch cfg.Session.Backend {
	case "redis":
		redisStore, err := session.NewRedisStore(ctx, cfg.Secrets.RedisURL,
			time.Duration(cfg.Session.TTLSeconds)*time.Second)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { redisStore.Close() })
		sessions = redisStore
	default:
		sessions = session.NewMemoryStore()
	}

	var memories memory.Store
	switch cfg.Memory.Backend {
	case "sqlite":
		sqliteStore, err := memory.NewSQLiteStore(cfg.Memory.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		memories = sqliteStore
	default:
		memories = memory.NewFileStore(cfg.Memory.JSONPath)
	}
	closers = append(closers, func() { memories.Close() })

	var strategy consolidate.Strategy
	if cfg.Consolidator.Strategy == "heuristic" {
		strategy = consolidate.NewHeuristic()
	} else {
		strategy = consolidate.NewSummarizer(gateway)
	}

	svc := chat.NewService(gateway, sessions, memories, strategy,
		chat.NewComposer(cfg.Memory.ContextWindow))

	closeAll := func() {
		for _, close := range closers {
			close()
		}
	}
	return svc, closeAll, nil
}
