// hoopserve — basketball stats server with budget-aware tool responses.
// Entry point: wires all packages and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/api"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/auth"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/batch"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/config"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ingest"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/notify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/paginate"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/platform"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/scheduler"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/setup"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/telegram"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tools"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/webhook"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ws"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	// ── 0. Interactive setup ─────────────────────────────────────────────────
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "setup", "--setup", "-setup":
			if err := setup.Run(Version); err != nil {
				log.Fatalf("setup: %v", err)
			}
			return
		}
	}

	log.Printf("hoopserve %s starting…", Version)

	// ── 1. Load configuration ────────────────────────────────────────────────
	cfg := config.Load()
	log.Printf("Config: port=%s workDir=%s", cfg.Port, cfg.WorkDir)

	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		log.Println("⚠  No .env found — using built-in defaults (api key 'changeme', port 8080)")
		log.Println("   Run 'hoopserve setup' to configure before going to production.")
	}

	// ── 2. Ensure work directory exists ──────────────────────────────────────
	if err := platform.EnsureDir(cfg.WorkDir); err != nil {
		log.Fatalf("EnsureDir %s: %v", cfg.WorkDir, err)
	}

	// ── 3. Open database + migrate ───────────────────────────────────────────
	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db.New: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("db.Migrate: %v", err)
	}
	log.Printf("Database ready: %s", cfg.DBPath)

	// Root context — cancelled on shutdown signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 4. Seed admin API key ────────────────────────────────────────────────
	if err := auth.SeedAdminKey(ctx, database, cfg.AdminKeyName, cfg.AdminAPIKey); err != nil {
		log.Fatalf("SeedAdminKey: %v", err)
	}

	// ── 5. WebSocket hub ─────────────────────────────────────────────────────
	hub := ws.NewHub()
	go hub.Run(ctx)

	// ── 6. Telegram bot ──────────────────────────────────────────────────────
	bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, database)
	if err != nil {
		log.Printf("Telegram init error (continuing without Telegram): %v", err)
	}
	if bot != nil {
		go bot.Start(ctx)
		log.Printf("Telegram bot started (chatID=%d)", cfg.TelegramChatID)
	}

	// ── 7. Notify + Webhook dispatchers ─────────────────────────────────────
	webhookDispatcher := webhook.New(database)
	notifier := notify.New(telegramSender(bot), webhookDispatcher)

	// ── 8. Column classification ─────────────────────────────────────────────
	registry := classify.Default()
	if err := registry.LoadFile(cfg.ClassifyPath); err != nil {
		log.Fatalf("classify.LoadFile %s: %v", cfg.ClassifyPath, err)
	}

	// ── 9. Provider + paginator ──────────────────────────────────────────────
	fetcher := provider.NewSQLite(database)
	paginator := paginate.New(fetcher, registry, paginate.Config{
		PageSize:  cfg.PageSize,
		MaxRows:   cfg.MaxRows,
		MaxTokens: cfg.MaxTokens,
	})

	// ── 10. Tool registry + batch dispatcher ─────────────────────────────────
	toolRegistry := tools.DefaultRegistry(paginator, database, registry)
	dispatcher := batch.New(toolRegistry, cfg.BatchConcurrency, cfg.ItemTimeout)
	log.Printf("Tools ready: %d operations, batch concurrency %d",
		len(toolRegistry.List()), cfg.BatchConcurrency)

	// ── 11. Ingest runner ────────────────────────────────────────────────────
	runner := ingest.New(database, hub, notifier)

	// ── 12. Cron scheduler ───────────────────────────────────────────────────
	schedEngine := scheduler.New(database, runner)
	if err := schedEngine.Start(ctx); err != nil {
		log.Printf("scheduler.Start: %v", err)
	}

	// ── 13. HTTP router ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.SetupRoutes(mux, &api.Deps{
		DB:        database,
		Config:    cfg,
		Paginator: paginator,
		Registry:  toolRegistry,
		Batch:     dispatcher,
		Ingest:    runner,
		Hub:       hub,
		Webhook:   webhookDispatcher,
		Scheduler: schedEngine,
	})

	// Recovery + logging middleware.
	handler := loggingMiddleware(recoveryMiddleware(mux))

	// ── 14. Start HTTP server ────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received %s — shutting down…", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("hoopserve listening on http://0.0.0.0:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
	log.Printf("hoopserve stopped.")
}

// loggingMiddleware logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log.Printf("panic: %v", rv)
				http.Error(w, `{"success":false,"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// telegramSender wraps *telegram.Bot to implement notify.Sender.
// Returns nil if bot is nil (Telegram disabled).
func telegramSender(bot *telegram.Bot) notify.Sender {
	if bot == nil {
		return nil
	}
	return bot
}
