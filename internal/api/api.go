// Package api sets up the HTTP routes and middleware for hoopserve's REST API.
package api

import (
	"net/http"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/api/handlers"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/auth"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/batch"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/config"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ingest"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/paginate"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/scheduler"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tools"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/webhook"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ws"
)

// Deps holds all dependencies injected into the API handlers.
type Deps struct {
	DB        *db.DB
	Config    *config.Config
	Paginator *paginate.Paginator
	Registry  *tools.Registry
	Batch     *batch.Dispatcher
	Ingest    *ingest.Runner
	Hub       *ws.Hub
	Webhook   *webhook.Dispatcher
	Scheduler *scheduler.Engine
}

// SetupRoutes registers all HTTP routes on the given ServeMux.
// Uses Go 1.22 method+pattern routing syntax.
func SetupRoutes(mux *http.ServeMux, deps *Deps) {
	h := handlers.New(deps.DB, deps.Config, deps.Paginator, deps.Registry,
		deps.Batch, deps.Ingest, deps.Hub, deps.Webhook, deps.Scheduler)

	requireAuth := func(next http.Handler) http.Handler {
		return auth.RequireAPIKey(deps.DB, next)
	}

	// ── Public routes ────────────────────────────────────────────────────────
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// ── Tool surface ─────────────────────────────────────────────────────────
	mux.Handle("GET /api/v1/tools", requireAuth(http.HandlerFunc(h.ListTools)))
	mux.Handle("POST /api/v1/tools/call", requireAuth(http.HandlerFunc(h.CallTool)))
	mux.Handle("POST /api/v1/tools/batch", requireAuth(http.HandlerFunc(h.CallBatch)))

	// ── Datasets ─────────────────────────────────────────────────────────────
	mux.Handle("GET /api/v1/datasets", requireAuth(http.HandlerFunc(h.ListDatasets)))
	mux.Handle("GET /api/v1/datasets/{id}", requireAuth(http.HandlerFunc(h.DescribeDataset)))
	mux.Handle("GET /api/v1/datasets/{id}/query", requireAuth(http.HandlerFunc(h.QueryDataset)))

	// ── Ingest ───────────────────────────────────────────────────────────────
	mux.Handle("GET /api/v1/sources", requireAuth(http.HandlerFunc(h.ListSources)))
	mux.Handle("POST /api/v1/sources", requireAuth(http.HandlerFunc(h.CreateSource)))
	mux.Handle("DELETE /api/v1/sources/{id}", requireAuth(http.HandlerFunc(h.DeleteSource)))
	mux.Handle("POST /api/v1/sources/{id}/refresh", requireAuth(http.HandlerFunc(h.RefreshSource)))
	mux.Handle("GET /api/v1/ingest/runs", requireAuth(http.HandlerFunc(h.ListIngestRuns)))

	// ── Schedules ────────────────────────────────────────────────────────────
	mux.Handle("GET /api/v1/schedules", requireAuth(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/schedules", requireAuth(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", requireAuth(http.HandlerFunc(h.DeleteSchedule)))

	// ── Webhooks ─────────────────────────────────────────────────────────────
	mux.Handle("GET /api/v1/webhooks", requireAuth(http.HandlerFunc(h.ListWebhooks)))
	mux.Handle("POST /api/v1/webhooks", requireAuth(http.HandlerFunc(h.CreateWebhook)))
	mux.Handle("GET /api/v1/webhooks/{id}", requireAuth(http.HandlerFunc(h.GetWebhook)))
	mux.Handle("PUT /api/v1/webhooks/{id}", requireAuth(http.HandlerFunc(h.UpdateWebhook)))
	mux.Handle("DELETE /api/v1/webhooks/{id}", requireAuth(http.HandlerFunc(h.DeleteWebhook)))
	mux.Handle("POST /api/v1/webhooks/{id}/test", requireAuth(http.HandlerFunc(h.TestWebhook)))

	// ── Status & live updates ────────────────────────────────────────────────
	mux.Handle("GET /api/v1/status", requireAuth(http.HandlerFunc(h.Status)))
	mux.HandleFunc("GET /ws", deps.Hub.ServeWS)
}
