package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akarpov/rss-courier/app/api"
	"github.com/akarpov/rss-courier/app/bot"
	"github.com/akarpov/rss-courier/app/cfg"
	"github.com/akarpov/rss-courier/app/database"
	"github.com/akarpov/rss-courier/app/delivery"
	"github.com/akarpov/rss-courier/app/feed"
	"github.com/akarpov/rss-courier/app/subscriber"
	"github.com/akarpov/rss-courier/app/tasks"
	"github.com/akarpov/rss-courier/app/telegram"
)

const sendTimeout = 10 * time.Second

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting RSS Courier", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	subscriberRepo := database.NewSubscriberRepository(db)
	ledgerRepo := database.NewLedgerRepository(db)

	store := subscriber.NewStore(subscriberRepo)
	if err := store.Reload(); err != nil {
		slog.Error("Failed to load subscribers", "error", err)
		os.Exit(1)
	}
	slog.Info("Subscribers loaded", "count", store.Count())

	ledger := feed.NewLedger(ledgerRepo)
	if err := ledger.Load(); err != nil {
		slog.Error("Failed to load processed items", "error", err)
		os.Exit(1)
	}
	slog.Info("Processed items loaded", "count", ledger.Size())

	feedConfig, err := feed.LoadConfig(appCfg.FeedFile, feed.Config{
		URL:          appCfg.FeedURL,
		PollInterval: appCfg.PollInterval,
		InitialDelay: appCfg.InitialDelay,
		FetchTimeout: appCfg.FetchTimeout,
	})
	if err != nil {
		slog.Error("Failed to load feed configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configured", "url", feedConfig.URL, "poll_interval", feedConfig.PollInterval)

	tgClient := telegram.NewClient(appCfg.BotToken, appCfg.UserAgent)
	deliverer := delivery.NewDeliverer(tgClient, sendTimeout)
	notifier := delivery.NewNotifier(tgClient, appCfg.AdminChatID)

	feedParser := feed.NewParser()
	httpClient := &http.Client{
		Timeout: time.Duration(feedConfig.FetchTimeout) * time.Second,
	}

	scheduler := tasks.NewScheduler(feedConfig, httpClient, feedParser,
		store, ledger, deliverer, notifier)
	scheduler.Start()
	defer scheduler.Stop()

	commandHandler := bot.NewHandler(store, tgClient)
	listener := bot.NewListener(tgClient, commandHandler)
	listener.Start()
	defer listener.Stop()

	apiHandler := api.NewHandler(store, ledger, scheduler, feedConfig.URL, appCfg.Version)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(apiHandler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	notifier.Notify(context.Background(),
		fmt.Sprintf("RSS Courier %s started, polling %s", appCfg.Version, feedConfig.URL))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("RSS Courier started successfully")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Listener and scheduler are stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
