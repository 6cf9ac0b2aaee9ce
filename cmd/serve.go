package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/topicbridge/internal/ai"
	"github.com/nextlevelbuilder/topicbridge/internal/config"
	"github.com/nextlevelbuilder/topicbridge/internal/dispatch"
	"github.com/nextlevelbuilder/topicbridge/internal/external"
	"github.com/nextlevelbuilder/topicbridge/internal/hooks"
	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/routing"
	"github.com/nextlevelbuilder/topicbridge/internal/server"
	"github.com/nextlevelbuilder/topicbridge/internal/store"
	"github.com/nextlevelbuilder/topicbridge/internal/store/pg"
	"github.com/nextlevelbuilder/topicbridge/internal/store/sqlite"
	"github.com/nextlevelbuilder/topicbridge/internal/telegram"
	"github.com/nextlevelbuilder/topicbridge/internal/telemetry"
	"github.com/nextlevelbuilder/topicbridge/internal/vk"
)

func runServe() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	// Storage: Postgres when a DSN is present, otherwise local SQLite.
	stores, db, err := openStores(cfg)
	if err != nil {
		slog.Error("storage setup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	bot, err := telego.NewBot(cfg.Telegram.Token)
	if err != nil {
		slog.Error("create telegram bot failed", "error", err)
		os.Exit(1)
	}

	staffChatID := strconv.FormatInt(cfg.Telegram.StaffChatID, 10)
	tgClient := telegram.New(bot, cfg.Telegram.StaffChatID)

	users := map[store.Platform]relay.Client{
		store.PlatformTelegram: tgClient,
	}
	if cfg.VK.Token != "" {
		users[store.PlatformVK] = vk.New(cfg.VK.Token, cfg.VK.APIBase)
		slog.Info("vk channel enabled")
	}
	if cfg.External.Endpoint != "" {
		users[store.PlatformExternal] = external.New(cfg.External.Endpoint, cfg.External.Token)
		slog.Info("external channel enabled", "endpoint", cfg.External.Endpoint)
	}

	contactCard := &hooks.ContactCard{Staff: tgClient, StaffChatID: staffChatID}
	table := routing.NewTable(stores.Entries, tgClient, contactCard)
	rl := relay.New(table, stores.Messages, tgClient, staffChatID, users)

	var answerer hooks.Answerer
	if cfg.AI.Endpoint != "" {
		answerer = ai.New(cfg.AI.Endpoint, cfg.AI.APIKey)
		slog.Info("ai answering enabled", "endpoint", cfg.AI.Endpoint)
	}
	hk := hooks.New(table, tgClient, staffChatID, users, stores.AIState, answerer, cfg.Telegram.WelcomeMessage)

	d := dispatch.New(table, rl, hk, tgClient)
	srv := server.New(cfg, d)

	if err := srv.Start(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func openStores(cfg *config.Config) (*store.Stores, interface{ Close() error }, error) {
	if cfg.Database.PostgresDSN != "" {
		stores, db, err := pg.NewStores(cfg.Database.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		slog.Info("storage: postgres")
		return stores, db, nil
	}

	stores, db, err := sqlite.NewStores(cfg.Database.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: %w", err)
	}
	slog.Info("storage: sqlite", "path", cfg.Database.SQLitePath)
	return stores, db, nil
}
