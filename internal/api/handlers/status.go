package handlers

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// Health handles GET /api/v1/health — unauthenticated liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok"})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var datasets, sources, schedules int
	_ = h.db.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM datasets`).Scan(&datasets)
	_ = h.db.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM sources WHERE enabled=1`).Scan(&sources)
	_ = h.db.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM refresh_schedules WHERE enabled=1`).Scan(&schedules)

	var lastRun struct {
		Dataset string
		Status  string
	}
	_ = h.db.QueryRowContext(r.Context(), `
		SELECT dataset, status FROM ingest_runs ORDER BY id DESC LIMIT 1`).
		Scan(&lastRun.Dataset, &lastRun.Status)

	ok(w, map[string]interface{}{
		"uptime_seconds":   int(time.Since(startedAt).Seconds()),
		"datasets":         datasets,
		"active_sources":   sources,
		"active_schedules": schedules,
		"ws_clients":       h.hub.ClientCount(),
		"last_ingest": map[string]string{
			"dataset": lastRun.Dataset,
			"status":  lastRun.Status,
		},
		"limits": map[string]int{
			"page_size":         h.config.PageSize,
			"max_rows":          h.config.MaxRows,
			"max_tokens":        h.config.MaxTokens,
			"batch_concurrency": h.config.BatchConcurrency,
		},
	})
}
