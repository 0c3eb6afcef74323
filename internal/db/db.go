// Package db provides the SQLite database wrapper and model types for the
// stats cache served by the providers.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps *sql.DB and provides migration support.
type DB struct {
	*sql.DB
}

// New opens a SQLite connection with WAL mode and foreign keys enabled.
// Driver name is "sqlite" (modernc.org/sqlite, not mattn/go-sqlite3).
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_journal=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("db.New: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db.New: ping: %w", err)
	}
	// Limit to 1 writer at a time to avoid SQLITE_BUSY in WAL mode.
	sqlDB.SetMaxOpenConns(1)
	return &DB{sqlDB}, nil
}

// Migrate runs all CREATE TABLE IF NOT EXISTS migrations exactly once per
// schema version, then seeds the dataset catalog.
func (d *DB) Migrate() error {
	// Ensure the settings table exists first (holds schema_version).
	if _, err := d.Exec(ddlSettings); err != nil {
		return fmt.Errorf("db.Migrate: settings table: %w", err)
	}

	var version int
	row := d.QueryRow(`SELECT value FROM settings WHERE key='schema_version' LIMIT 1`)
	_ = row.Scan(&version) // Row may not exist yet (version=0).

	if version < schemaVersion {
		tables := []string{
			ddlAPIKeys,
			ddlDatasets,
			ddlGames,
			ddlPlayByPlay,
			ddlShots,
			ddlSeasonTotals,
			ddlSources,
			ddlIngestRuns,
			ddlRefreshSchedules,
			ddlWebhooks,
		}
		for _, ddl := range tables {
			if _, err := d.Exec(ddl); err != nil {
				return fmt.Errorf("db.Migrate: %w", err)
			}
		}
		_, err := d.Exec(`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
			ON CONFLICT(key) DO UPDATE SET value=excluded.value`, schemaVersion)
		if err != nil {
			return fmt.Errorf("db.Migrate: schema_version upsert: %w", err)
		}
	}

	// Seed the dataset catalog. INSERT OR IGNORE is idempotent.
	catalog := []struct{ id, title, desc string }{
		{"schedule", "Game schedule", "Games with date, teams, scores, and venue per league and season."},
		{"play_by_play", "Play-by-play", "Event stream per game: period, clock, event type, actor, points."},
		{"shot_chart", "Shot chart", "Shot attempts per game with court coordinates and make/miss."},
		{"season_totals", "Season totals", "Per-player season aggregate counting stats."},
	}
	for _, c := range catalog {
		if _, err := d.Exec(`INSERT OR IGNORE INTO datasets (id, title, description) VALUES (?,?,?)`,
			c.id, c.title, c.desc); err != nil {
			return fmt.Errorf("db.Migrate: seed dataset %q: %w", c.id, err)
		}
	}
	return nil
}

const schemaVersion = 1

// ── Model Types ──────────────────────────────────────────────────────────────

// APIKey is a bcrypt-hashed bearer credential for the REST and tool APIs.
type APIKey struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Dataset is a catalog entry for one served dataset.
type Dataset struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	RefreshedAt sql.NullTime `json:"refreshed_at,omitempty"`
}

// Source identifies one upstream feed for a league and dataset.
type Source struct {
	ID        int       `json:"id"`
	League    string    `json:"league"`
	Dataset   string    `json:"dataset"`
	URL       string    `json:"url"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestRun records one refresh attempt against an upstream source.
type IngestRun struct {
	ID         int           `json:"id"`
	SourceID   sql.NullInt64 `json:"source_id,omitempty"`
	Dataset    string        `json:"dataset"`
	League     string        `json:"league"`
	Status     string        `json:"status"`
	RowsLoaded int           `json:"rows_loaded"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt sql.NullTime  `json:"finished_at,omitempty"`
}

// RefreshSchedule defines a cron-triggered ingest run.
type RefreshSchedule struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	CronExpr  string        `json:"cron_expr"`
	SourceID  sql.NullInt64 `json:"source_id,omitempty"`
	Enabled   bool          `json:"enabled"`
	NextRun   sql.NullTime  `json:"next_run,omitempty"`
	LastRun   sql.NullTime  `json:"last_run,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Webhook defines an outbound webhook subscription.
type Webhook struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	URL        string       `json:"url"`
	Events     string       `json:"events"`
	Secret     string       `json:"-"`
	Enabled    bool         `json:"enabled"`
	LastStatus int          `json:"last_status"`
	LastFired  sql.NullTime `json:"last_fired,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ── DDL Statements ───────────────────────────────────────────────────────────

const ddlSettings = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);`

const ddlAPIKeys = `CREATE TABLE IF NOT EXISTS api_keys (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL UNIQUE,
	key_hash   TEXT    NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlDatasets = `CREATE TABLE IF NOT EXISTS datasets (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	refreshed_at DATETIME
);`

const ddlGames = `CREATE TABLE IF NOT EXISTS games (
	game_id    TEXT PRIMARY KEY,
	league     TEXT NOT NULL,
	season     TEXT NOT NULL,
	game_date  TEXT NOT NULL,
	home_team  TEXT NOT NULL,
	away_team  TEXT NOT NULL,
	home_score INTEGER,
	away_score INTEGER,
	venue      TEXT NOT NULL DEFAULT '',
	attendance INTEGER,
	status     TEXT NOT NULL DEFAULT 'final'
);`

const ddlPlayByPlay = `CREATE TABLE IF NOT EXISTS play_by_play (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id      TEXT NOT NULL,
	league       TEXT NOT NULL,
	season       TEXT NOT NULL,
	event_number INTEGER NOT NULL,
	period       INTEGER NOT NULL,
	clock        TEXT NOT NULL DEFAULT '',
	event_type   TEXT NOT NULL,
	team         TEXT NOT NULL DEFAULT '',
	player_id    TEXT NOT NULL DEFAULT '',
	points       INTEGER NOT NULL DEFAULT 0,
	home_score   INTEGER NOT NULL DEFAULT 0,
	away_score   INTEGER NOT NULL DEFAULT 0,
	description  TEXT NOT NULL DEFAULT ''
);`

const ddlShots = `CREATE TABLE IF NOT EXISTS shots (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id   TEXT NOT NULL,
	league    TEXT NOT NULL,
	season    TEXT NOT NULL,
	player_id TEXT NOT NULL,
	team      TEXT NOT NULL DEFAULT '',
	period    INTEGER NOT NULL DEFAULT 0,
	clock     TEXT NOT NULL DEFAULT '',
	shot_x    REAL NOT NULL DEFAULT 0,
	shot_y    REAL NOT NULL DEFAULT 0,
	distance  REAL NOT NULL DEFAULT 0,
	made      INTEGER NOT NULL DEFAULT 0,
	value     INTEGER NOT NULL DEFAULT 2,
	shot_type TEXT NOT NULL DEFAULT ''
);`

const ddlSeasonTotals = `CREATE TABLE IF NOT EXISTS season_totals (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id TEXT NOT NULL,
	league    TEXT NOT NULL,
	season    TEXT NOT NULL,
	team      TEXT NOT NULL DEFAULT '',
	games     INTEGER NOT NULL DEFAULT 0,
	minutes   REAL NOT NULL DEFAULT 0,
	points    INTEGER NOT NULL DEFAULT 0,
	rebounds  INTEGER NOT NULL DEFAULT 0,
	assists   INTEGER NOT NULL DEFAULT 0,
	steals    INTEGER NOT NULL DEFAULT 0,
	blocks    INTEGER NOT NULL DEFAULT 0,
	turnovers INTEGER NOT NULL DEFAULT 0,
	fouls     INTEGER NOT NULL DEFAULT 0,
	UNIQUE(player_id, league, season, team)
);`

const ddlSources = `CREATE TABLE IF NOT EXISTS sources (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	league     TEXT NOT NULL,
	dataset    TEXT NOT NULL,
	url        TEXT NOT NULL,
	enabled    INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(league, dataset)
);`

const ddlIngestRuns = `CREATE TABLE IF NOT EXISTS ingest_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id   INTEGER REFERENCES sources(id) ON DELETE SET NULL,
	dataset     TEXT NOT NULL,
	league      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	rows_loaded INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME
);`

const ddlRefreshSchedules = `CREATE TABLE IF NOT EXISTS refresh_schedules (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	cron_expr  TEXT    NOT NULL,
	source_id  INTEGER REFERENCES sources(id) ON DELETE CASCADE,
	enabled    INTEGER NOT NULL DEFAULT 1,
	next_run   DATETIME,
	last_run   DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlWebhooks = `CREATE TABLE IF NOT EXISTS webhooks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	events      TEXT    NOT NULL DEFAULT '',
	secret      TEXT    NOT NULL DEFAULT '',
	enabled     INTEGER NOT NULL DEFAULT 1,
	last_status INTEGER NOT NULL DEFAULT 0,
	last_fired  DATETIME,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// ── Helpers ───────────────────────────────────────────────────────────────────

// GetSetting retrieves a settings value by key, returning fallback if not found.
func (d *DB) GetSetting(key, fallback string) string {
	var v string
	if err := d.QueryRow(`SELECT value FROM settings WHERE key=?`, key).Scan(&v); err != nil {
		return fallback
	}
	return v
}

// SetSetting upserts a settings key-value pair.
func (d *DB) SetSetting(key, value string) error {
	_, err := d.Exec(
		`INSERT INTO settings (key, value) VALUES (?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("db.SetSetting: %w", err)
	}
	return nil
}

// TouchDataset records a successful refresh time on the catalog entry.
func (d *DB) TouchDataset(id string, at time.Time) error {
	_, err := d.Exec(`UPDATE datasets SET refreshed_at=? WHERE id=?`, at, id)
	if err != nil {
		return fmt.Errorf("db.TouchDataset: %w", err)
	}
	return nil
}
