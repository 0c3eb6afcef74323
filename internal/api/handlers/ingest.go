package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
)

// ListSources handles GET /api/v1/sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, league, dataset, url, enabled, created_at FROM sources ORDER BY id`)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var sources []db.Source
	for rows.Next() {
		var s db.Source
		if err := rows.Scan(&s.ID, &s.League, &s.Dataset, &s.URL, &s.Enabled, &s.CreatedAt); err != nil {
			continue
		}
		sources = append(sources, s)
	}
	ok(w, sources)
}

// CreateSource handles POST /api/v1/sources.
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		League  string `json:"league"`
		Dataset string `json:"dataset"`
		URL     string `json:"url"`
		Enabled bool   `json:"enabled"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.League == "" || req.Dataset == "" || req.URL == "" {
		fail(w, http.StatusBadRequest, "league, dataset and url are required")
		return
	}
	if provider.Columns(req.Dataset) == nil {
		fail(w, http.StatusBadRequest, "unknown dataset: "+req.Dataset)
		return
	}
	enabled := 0
	if req.Enabled {
		enabled = 1
	}
	res, err := h.db.ExecContext(r.Context(), `
		INSERT INTO sources (league, dataset, url, enabled) VALUES (?,?,?,?)`,
		req.League, req.Dataset, req.URL, enabled,
	)
	if err != nil {
		fail(w, http.StatusInternalServerError, "insert: "+err.Error())
		return
	}
	id, _ := res.LastInsertId()
	ok(w, map[string]int64{"id": id})
}

// DeleteSource handles DELETE /api/v1/sources/{id}.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := h.db.ExecContext(r.Context(), `DELETE FROM sources WHERE id=?`, id); err != nil {
		fail(w, http.StatusInternalServerError, "delete: "+err.Error())
		return
	}
	ok(w, map[string]string{"status": "deleted"})
}

// RefreshSource handles POST /api/v1/sources/{id}/refresh — triggers an
// ingest run in the background and returns immediately.
func (h *Handler) RefreshSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var exists int
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM sources WHERE id=?`, id).Scan(&exists); err != nil || exists == 0 {
		fail(w, http.StatusNotFound, "source not found")
		return
	}
	go func() {
		// Detached from the request context: the run outlives the response.
		_, _ = h.ingest.RunSource(context.Background(), id)
	}()
	ok(w, map[string]string{"status": "started"})
}

// ListIngestRuns handles GET /api/v1/ingest/runs.
func (h *Handler) ListIngestRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, source_id, dataset, league, status, rows_loaded, error, started_at, finished_at
		FROM ingest_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var runs []db.IngestRun
	for rows.Next() {
		var run db.IngestRun
		if err := rows.Scan(&run.ID, &run.SourceID, &run.Dataset, &run.League,
			&run.Status, &run.RowsLoaded, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	ok(w, runs)
}
