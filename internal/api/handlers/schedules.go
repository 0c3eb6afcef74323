package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
)

// ListSchedules handles GET /api/v1/schedules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, name, cron_expr, source_id, enabled, next_run, last_run, created_at
		FROM refresh_schedules ORDER BY id`)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var schedules []db.RefreshSchedule
	for rows.Next() {
		var s db.RefreshSchedule
		if err := rows.Scan(&s.ID, &s.Name, &s.CronExpr, &s.SourceID,
			&s.Enabled, &s.NextRun, &s.LastRun, &s.CreatedAt); err != nil {
			continue
		}
		schedules = append(schedules, s)
	}
	ok(w, schedules)
}

// CreateSchedule handles POST /api/v1/schedules.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		CronExpr string `json:"cron_expr"`
		SourceID *int   `json:"source_id"`
		Enabled  bool   `json:"enabled"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.CronExpr == "" {
		fail(w, http.StatusBadRequest, "name and cron_expr are required")
		return
	}
	enabled := 0
	if req.Enabled {
		enabled = 1
	}
	var sourceID sql.NullInt64
	if req.SourceID != nil {
		sourceID = sql.NullInt64{Int64: int64(*req.SourceID), Valid: true}
	}
	res, err := h.db.ExecContext(r.Context(), `
		INSERT INTO refresh_schedules (name, cron_expr, source_id, enabled) VALUES (?,?,?,?)`,
		req.Name, req.CronExpr, sourceID, enabled,
	)
	if err != nil {
		fail(w, http.StatusInternalServerError, "insert: "+err.Error())
		return
	}
	id, _ := res.LastInsertId()

	if req.Enabled && h.scheduler != nil {
		if err := h.scheduler.AddJob(r.Context(), int(id)); err != nil {
			fail(w, http.StatusBadRequest, "register cron job: "+err.Error())
			return
		}
	}
	ok(w, map[string]int64{"id": id})
}

// DeleteSchedule handles DELETE /api/v1/schedules/{id}.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := h.db.ExecContext(r.Context(),
		`DELETE FROM refresh_schedules WHERE id=?`, id); err != nil {
		fail(w, http.StatusInternalServerError, "delete: "+err.Error())
		return
	}
	if h.scheduler != nil {
		h.scheduler.RemoveJob(id)
	}
	ok(w, map[string]string{"status": "deleted"})
}
