// Command botd runs the quiz bot: long polling by default, or an HTTP
// webhook server behind a public URL. Configuration comes from the
// environment, with a few flag overrides for local runs.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/pflag"

	"github.com/ollashukur/testbot/internal/bot"
	"github.com/ollashukur/testbot/internal/config"
	"github.com/ollashukur/testbot/internal/db"
	"github.com/ollashukur/testbot/internal/quiz"
	"github.com/ollashukur/testbot/internal/state"
	"github.com/ollashukur/testbot/internal/telegram"
	"github.com/ollashukur/testbot/internal/users"
)

func main() {
	cfg := config.FromEnv()

	mode := pflag.String("mode", string(cfg.Mode), "update delivery: poll or webhook")
	addr := pflag.String("http-addr", cfg.HTTPAddr, "listen address (webhook mode)")
	dbDriver := pflag.String("db-driver", cfg.DBDriver, "database driver: sqlite or postgres")
	dbDSN := pflag.String("db-dsn", cfg.DBDSN, "database DSN")
	logLevel := pflag.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	pflag.Parse()
	cfg.Mode = config.Mode(*mode)
	cfg.HTTPAddr = *addr
	cfg.DBDriver = *dbDriver
	cfg.DBDSN = *dbDSN
	cfg.LogLevel = *logLevel

	log := newLogger(cfg.LogLevel)

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.Mode == config.ModeWebhook && cfg.WebhookURL == "" {
		log.Error("WEBHOOK_URL is required in webhook mode")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error("open database", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	userDir := users.NewSQLStore(sqlDB)
	quizzes := quiz.NewSQLStore(sqlDB, cfg.DBDriver)
	states := state.NewSQLStore(sqlDB)

	client, err := telegram.New(cfg.BotToken, cfg.Mode == config.ModePoll, log)
	if err != nil {
		log.Error("connect to telegram", "err", err)
		os.Exit(1)
	}
	if u := client.Username(); u != "" {
		cfg.BotUsername = u
	}

	notify := bot.NewNotifier(log, 2, 256)
	defer notify.Close()

	router := bot.NewRouter(bot.Config{
		AdminID:        cfg.AdminID,
		BotUsername:    cfg.BotUsername,
		CertificateURL: cfg.CertificateURL,
	}, client, quizzes, userDir, states, notify, log)
	client.Bind(router)

	switch cfg.Mode {
	case config.ModeWebhook:
		runWebhook(ctx, cfg, client, sqlDB, log)
	default:
		runPolling(ctx, client, log)
	}
	log.Info("shut down")
}

func runPolling(ctx context.Context, client *telegram.Client, log *slog.Logger) {
	// A leftover webhook blocks long polling.
	if err := client.DeleteWebhook(); err != nil {
		log.Warn("delete webhook", "err", err)
	}
	go func() {
		<-ctx.Done()
		client.Stop()
	}()
	log.Info("bot started", "mode", "poll")
	client.Start()
}

func runWebhook(ctx context.Context, cfg config.Config, client *telegram.Client, sqlDB *sql.DB, log *slog.Logger) {
	if err := client.SetWebhook(cfg.WebhookURL + "/telegram/webhook"); err != nil {
		log.Error("set webhook", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Post("/telegram/webhook", client.WebhookHandler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := sqlDB.PingContext(req.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("bot started", "mode", "webhook", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
