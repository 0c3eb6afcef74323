// Package handlers provides HTTP handler implementations for the hoopserve REST API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/batch"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/config"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ingest"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/paginate"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/scheduler"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tools"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/webhook"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/ws"
)

// Handler holds all shared dependencies for API handler methods.
type Handler struct {
	db        *db.DB
	config    *config.Config
	paginator *paginate.Paginator
	registry  *tools.Registry
	batch     *batch.Dispatcher
	ingest    *ingest.Runner
	hub       *ws.Hub
	webhook   *webhook.Dispatcher
	scheduler *scheduler.Engine
}

// New creates a Handler with all dependencies.
func New(
	database *db.DB,
	cfg *config.Config,
	p *paginate.Paginator,
	registry *tools.Registry,
	dispatcher *batch.Dispatcher,
	runner *ingest.Runner,
	hub *ws.Hub,
	wh *webhook.Dispatcher,
	sched *scheduler.Engine,
) *Handler {
	return &Handler{
		db:        database,
		config:    cfg,
		paginator: p,
		registry:  registry,
		batch:     dispatcher,
		ingest:    runner,
		hub:       hub,
		webhook:   wh,
		scheduler: sched,
	}
}

// ── Response helpers ──────────────────────────────────────────────────────────

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{Success: false, Error: msg})
}

// failErr maps an error's kind to an HTTP status.
func failErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch statserr.KindOf(err) {
	case statserr.KindInvalidArgument:
		code = http.StatusBadRequest
	case statserr.KindUnknownOperation:
		code = http.StatusNotFound
	case statserr.KindTimeout:
		code = http.StatusGatewayTimeout
	case statserr.KindProvider:
		code = http.StatusBadGateway
	}
	fail(w, code, err.Error())
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) string {
	return r.PathValue(name)
}
