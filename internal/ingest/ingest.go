// Package ingest pulls upstream JSON feeds into the local stats cache.
//
// Each registered source maps one upstream URL to one dataset. A run fetches
// the feed, upserts its rows into the dataset's table, and records the outcome
// in ingest_runs so the status endpoints and the Telegram bot can report it.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/notify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ws"
)

// Notifier receives ingest lifecycle events.
type Notifier interface {
	Send(event string, payload interface{})
}

// Broadcaster streams ingest progress to WebSocket clients.
type Broadcaster interface {
	BroadcastIngest(typ, dataset string, runID int, message string)
}

// Runner executes ingest runs against registered sources.
type Runner struct {
	database *db.DB
	hub      Broadcaster
	notifier Notifier
	client   *http.Client
}

// New creates a Runner. hub and notifier may be nil.
func New(database *db.DB, hub Broadcaster, notifier Notifier) *Runner {
	return &Runner{
		database: database,
		hub:      hub,
		notifier: notifier,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// RunSource looks up a source by ID and runs an ingest against it.
func (r *Runner) RunSource(ctx context.Context, sourceID int) (*db.IngestRun, error) {
	var src db.Source
	err := r.database.QueryRowContext(ctx,
		`SELECT id, league, dataset, url, enabled FROM sources WHERE id=?`, sourceID).
		Scan(&src.ID, &src.League, &src.Dataset, &src.URL, &src.Enabled)
	if err != nil {
		return nil, fmt.Errorf("ingest.RunSource: source %d: %w", sourceID, err)
	}
	if !src.Enabled {
		return nil, fmt.Errorf("ingest.RunSource: source %d is disabled", sourceID)
	}
	return r.Run(ctx, src)
}

// RunAll runs an ingest against every enabled source, sequentially.
func (r *Runner) RunAll(ctx context.Context) {
	rows, err := r.database.QueryContext(ctx,
		`SELECT id, league, dataset, url, enabled FROM sources WHERE enabled=1 ORDER BY id`)
	if err != nil {
		log.Printf("ingest.RunAll: query sources: %v", err)
		return
	}
	var sources []db.Source
	for rows.Next() {
		var src db.Source
		if err := rows.Scan(&src.ID, &src.League, &src.Dataset, &src.URL, &src.Enabled); err == nil {
			sources = append(sources, src)
		}
	}
	rows.Close()

	for _, src := range sources {
		if _, err := r.Run(ctx, src); err != nil {
			log.Printf("ingest.RunAll: source %d (%s/%s): %v", src.ID, src.League, src.Dataset, err)
		}
	}
}

// Run executes one ingest run for a source and records it in ingest_runs.
func (r *Runner) Run(ctx context.Context, src db.Source) (*db.IngestRun, error) {
	started := time.Now()
	res, err := r.database.ExecContext(ctx,
		`INSERT INTO ingest_runs (source_id, dataset, league, status, started_at)
		 VALUES (?,?,?,'running',?)`,
		src.ID, src.Dataset, src.League, started)
	if err != nil {
		return nil, fmt.Errorf("ingest.Run: create run: %w", err)
	}
	runID64, _ := res.LastInsertId()
	runID := int(runID64)

	if r.hub != nil {
		r.hub.BroadcastIngest(ws.TypeIngestStart, src.Dataset, runID, src.URL)
	}

	loaded, runErr := r.load(ctx, src)
	finished := time.Now()

	run := &db.IngestRun{
		ID:         runID,
		SourceID:   sql.NullInt64{Int64: int64(src.ID), Valid: true},
		Dataset:    src.Dataset,
		League:     src.League,
		RowsLoaded: loaded,
		StartedAt:  started,
		FinishedAt: sql.NullTime{Time: finished, Valid: true},
	}

	if runErr != nil {
		run.Status = "failed"
		run.Error = runErr.Error()
		_, _ = r.database.Exec(
			`UPDATE ingest_runs SET status='failed', rows_loaded=?, error=?, finished_at=? WHERE id=?`,
			loaded, runErr.Error(), finished, runID)
		if r.hub != nil {
			r.hub.BroadcastIngest(ws.TypeIngestFailed, src.Dataset, runID, runErr.Error())
		}
		if r.notifier != nil {
			r.notifier.Send(notify.EventIngestFailed, map[string]interface{}{
				"dataset": src.Dataset,
				"league":  src.League,
				"error":   runErr.Error(),
			})
		}
		return run, runErr
	}

	run.Status = "ok"
	_, _ = r.database.Exec(
		`UPDATE ingest_runs SET status='ok', rows_loaded=?, finished_at=? WHERE id=?`,
		loaded, finished, runID)
	if err := r.database.TouchDataset(src.Dataset, finished); err != nil {
		log.Printf("ingest.Run: touch dataset: %v", err)
	}
	if r.hub != nil {
		r.hub.BroadcastIngest(ws.TypeIngestComplete, src.Dataset, runID,
			strconv.Itoa(loaded)+" rows")
	}
	if r.notifier != nil {
		r.notifier.Send(notify.EventIngestComplete, map[string]interface{}{
			"dataset": src.Dataset,
			"league":  src.League,
			"rows":    loaded,
		})
	}
	log.Printf("ingest: %s/%s run %d loaded %d rows in %s",
		src.League, src.Dataset, runID, loaded, finished.Sub(started).Round(time.Millisecond))
	return run, nil
}

// load fetches the feed and upserts its rows. Returns rows loaded.
func (r *Runner) load(ctx context.Context, src db.Source) (int, error) {
	rows, err := r.fetch(ctx, src.URL)
	if err != nil {
		return 0, err
	}
	switch src.Dataset {
	case "schedule":
		return r.loadGames(ctx, src, rows)
	case "play_by_play":
		return r.loadPlayByPlay(ctx, src, rows)
	case "shot_chart":
		return r.loadShots(ctx, src, rows)
	case "season_totals":
		return r.loadSeasonTotals(ctx, src, rows)
	default:
		return 0, fmt.Errorf("unknown dataset: %s", src.Dataset)
	}
}

// fetch downloads the feed URL and decodes it as a JSON array of objects.
func (r *Runner) fetch(ctx context.Context, url string) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest.fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest.fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest.fetch: upstream returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("ingest.fetch: read body: %w", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		// Some feeds wrap the array in a {"rows": [...]} envelope.
		var wrapped struct {
			Rows []map[string]interface{} `json:"rows"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil || wrapped.Rows == nil {
			return nil, fmt.Errorf("ingest.fetch: decode: %w", err)
		}
		rows = wrapped.Rows
	}
	return rows, nil
}

func (r *Runner) loadGames(ctx context.Context, src db.Source, rows []map[string]interface{}) (int, error) {
	tx, err := r.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadGames: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO games
		(game_id, league, season, game_date, home_team, away_team,
		 home_score, away_score, venue, attendance, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadGames: prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, row := range rows {
		gameID := jstr(row, "game_id")
		if gameID == "" {
			continue
		}
		status := jstr(row, "status")
		if status == "" {
			status = "final"
		}
		_, err := stmt.ExecContext(ctx,
			gameID, src.League, jstr(row, "season"), jstr(row, "game_date"),
			jstr(row, "home_team"), jstr(row, "away_team"),
			jint(row, "home_score"), jint(row, "away_score"),
			jstr(row, "venue"), jint(row, "attendance"), status)
		if err != nil {
			return n, fmt.Errorf("ingest.loadGames: row %q: %w", gameID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("ingest.loadGames: commit: %w", err)
	}
	return n, nil
}

func (r *Runner) loadPlayByPlay(ctx context.Context, src db.Source, rows []map[string]interface{}) (int, error) {
	tx, err := r.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadPlayByPlay: begin: %w", err)
	}
	defer tx.Rollback()

	// Replace events per game so a re-ingest never duplicates the stream.
	seen := map[string]bool{}
	for _, row := range rows {
		gameID := jstr(row, "game_id")
		if gameID == "" || seen[gameID] {
			continue
		}
		seen[gameID] = true
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM play_by_play WHERE game_id=? AND league=?`, gameID, src.League); err != nil {
			return 0, fmt.Errorf("ingest.loadPlayByPlay: clear %q: %w", gameID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO play_by_play
		(game_id, league, season, event_number, period, clock, event_type,
		 team, player_id, points, home_score, away_score, description)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadPlayByPlay: prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, row := range rows {
		gameID := jstr(row, "game_id")
		if gameID == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			gameID, src.League, jstr(row, "season"),
			jint(row, "event_number"), jint(row, "period"), jstr(row, "clock"),
			jstr(row, "event_type"), jstr(row, "team"), jstr(row, "player_id"),
			jint(row, "points"), jint(row, "home_score"), jint(row, "away_score"),
			jstr(row, "description"))
		if err != nil {
			return n, fmt.Errorf("ingest.loadPlayByPlay: row: %w", err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("ingest.loadPlayByPlay: commit: %w", err)
	}
	return n, nil
}

func (r *Runner) loadShots(ctx context.Context, src db.Source, rows []map[string]interface{}) (int, error) {
	tx, err := r.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadShots: begin: %w", err)
	}
	defer tx.Rollback()

	seen := map[string]bool{}
	for _, row := range rows {
		gameID := jstr(row, "game_id")
		if gameID == "" || seen[gameID] {
			continue
		}
		seen[gameID] = true
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM shots WHERE game_id=? AND league=?`, gameID, src.League); err != nil {
			return 0, fmt.Errorf("ingest.loadShots: clear %q: %w", gameID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO shots
		(game_id, league, season, player_id, team, period, clock,
		 shot_x, shot_y, distance, made, value, shot_type)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadShots: prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, row := range rows {
		gameID := jstr(row, "game_id")
		if gameID == "" {
			continue
		}
		made := 0
		if jbool(row, "made") {
			made = 1
		}
		value := jint(row, "value")
		if value == 0 {
			value = 2
		}
		_, err := stmt.ExecContext(ctx,
			gameID, src.League, jstr(row, "season"), jstr(row, "player_id"),
			jstr(row, "team"), jint(row, "period"), jstr(row, "clock"),
			jfloat(row, "shot_x"), jfloat(row, "shot_y"), jfloat(row, "distance"),
			made, value, jstr(row, "shot_type"))
		if err != nil {
			return n, fmt.Errorf("ingest.loadShots: row: %w", err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("ingest.loadShots: commit: %w", err)
	}
	return n, nil
}

func (r *Runner) loadSeasonTotals(ctx context.Context, src db.Source, rows []map[string]interface{}) (int, error) {
	tx, err := r.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadSeasonTotals: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO season_totals
		(player_id, league, season, team, games, minutes, points,
		 rebounds, assists, steals, blocks, turnovers, fouls)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(player_id, league, season, team) DO UPDATE SET
		 games=excluded.games, minutes=excluded.minutes, points=excluded.points,
		 rebounds=excluded.rebounds, assists=excluded.assists, steals=excluded.steals,
		 blocks=excluded.blocks, turnovers=excluded.turnovers, fouls=excluded.fouls`)
	if err != nil {
		return 0, fmt.Errorf("ingest.loadSeasonTotals: prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, row := range rows {
		playerID := jstr(row, "player_id")
		if playerID == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			playerID, src.League, jstr(row, "season"), jstr(row, "team"),
			jint(row, "games"), jfloat(row, "minutes"), jint(row, "points"),
			jint(row, "rebounds"), jint(row, "assists"), jint(row, "steals"),
			jint(row, "blocks"), jint(row, "turnovers"), jint(row, "fouls"))
		if err != nil {
			return n, fmt.Errorf("ingest.loadSeasonTotals: row %q: %w", playerID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("ingest.loadSeasonTotals: commit: %w", err)
	}
	return n, nil
}

// ── JSON field helpers ───────────────────────────────────────────────────────

func jstr(row map[string]interface{}, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func jint(row map[string]interface{}, key string) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func jfloat(row map[string]interface{}, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func jbool(row map[string]interface{}, key string) bool {
	switch v := row[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v == "true" || v == "1"
	}
	return false
}
