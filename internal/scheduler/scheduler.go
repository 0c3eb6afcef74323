// Package scheduler wraps robfig/cron to manage scheduled dataset refreshes.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
)

// IngestRunner can run an ingest against a registered source.
type IngestRunner interface {
	RunSource(ctx context.Context, sourceID int) (*db.IngestRun, error)
	RunAll(ctx context.Context)
}

// Engine manages the cron-driven refresh schedules.
type Engine struct {
	cron     *cron.Cron
	database *db.DB
	runner   IngestRunner
	entries  map[int]cron.EntryID
}

// New creates a new cron-based Engine.
func New(database *db.DB, runner IngestRunner) *Engine {
	return &Engine{
		cron:     cron.New(cron.WithSeconds()),
		database: database,
		runner:   runner,
		entries:  make(map[int]cron.EntryID),
	}
}

// Start begins the cron engine and loads all enabled schedules.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.LoadSchedules(ctx); err != nil {
		return fmt.Errorf("scheduler.Start: %w", err)
	}
	e.cron.Start()
	go func() {
		<-ctx.Done()
		e.cron.Stop()
	}()
	return nil
}

// LoadSchedules loads all enabled schedules from the DB and registers cron jobs.
func (e *Engine) LoadSchedules(ctx context.Context) error {
	rows, err := e.database.QueryContext(ctx,
		`SELECT id, cron_expr, source_id FROM refresh_schedules WHERE enabled=1`)
	if err != nil {
		return fmt.Errorf("scheduler.LoadSchedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s db.RefreshSchedule
		if err := rows.Scan(&s.ID, &s.CronExpr, &s.SourceID); err != nil {
			log.Printf("scheduler: scan schedule: %v", err)
			continue
		}
		if err := e.addJob(s); err != nil {
			log.Printf("scheduler: add job %d: %v", s.ID, err)
		}
	}
	return rows.Err()
}

// AddJob registers a new schedule in the cron engine.
func (e *Engine) AddJob(ctx context.Context, scheduleID int) error {
	var s db.RefreshSchedule
	err := e.database.QueryRowContext(ctx,
		`SELECT id, cron_expr, source_id FROM refresh_schedules WHERE id=?`,
		scheduleID,
	).Scan(&s.ID, &s.CronExpr, &s.SourceID)
	if err != nil {
		return fmt.Errorf("scheduler.AddJob: %w", err)
	}
	return e.addJob(s)
}

// RemoveJob deregisters a schedule from the cron engine.
func (e *Engine) RemoveJob(scheduleID int) {
	if entryID, ok := e.entries[scheduleID]; ok {
		e.cron.Remove(entryID)
		delete(e.entries, scheduleID)
	}
}

func (e *Engine) addJob(s db.RefreshSchedule) error {
	schedID := s.ID
	entryID, err := e.cron.AddFunc(s.CronExpr, func() {
		ctx := context.Background()
		if s.SourceID.Valid {
			if _, err := e.runner.RunSource(ctx, int(s.SourceID.Int64)); err != nil {
				log.Printf("scheduler: refresh for schedule %d: %v", schedID, err)
			}
		} else {
			// No source pinned: refresh everything.
			e.runner.RunAll(ctx)
		}
		_, _ = e.database.Exec(
			`UPDATE refresh_schedules SET last_run=? WHERE id=?`, time.Now(), schedID)
		e.updateNextRun(schedID)
	})
	if err != nil {
		return fmt.Errorf("scheduler.addJob: parse cron: %w", err)
	}
	e.entries[s.ID] = entryID
	e.updateNextRun(s.ID)
	return nil
}

func (e *Engine) updateNextRun(scheduleID int) {
	if entryID, ok := e.entries[scheduleID]; ok {
		entry := e.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			_, _ = e.database.Exec(
				`UPDATE refresh_schedules SET next_run=? WHERE id=?`,
				entry.Next, scheduleID,
			)
		}
	}
}
