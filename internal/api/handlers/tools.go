package handlers

import (
	"net/http"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/batch"
)

// ListTools handles GET /api/v1/tools.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]interface{}{"tools": h.registry.List()})
}

// CallTool handles POST /api/v1/tools/call — a single tool invocation.
func (h *Handler) CallTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Op   string         `json:"op"`
		Args map[string]any `json:"args"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Op == "" {
		fail(w, http.StatusBadRequest, "op is required")
		return
	}
	handler, found := h.registry.Get(req.Op)
	if !found {
		fail(w, http.StatusNotFound, "unknown operation: "+req.Op)
		return
	}
	result, err := handler(r.Context(), req.Args)
	if err != nil {
		failErr(w, err)
		return
	}
	ok(w, result)
}

// CallBatch handles POST /api/v1/tools/batch — many invocations in one call.
// A malformed batch is rejected whole; individual item failures are reported
// in their slot and never fail the batch.
func (h *Handler) CallBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []batch.Item `json:"items"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := batch.Validate(req.Items); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	outcomes := h.batch.Run(r.Context(), req.Items)
	ok(w, map[string]interface{}{"results": outcomes})
}
