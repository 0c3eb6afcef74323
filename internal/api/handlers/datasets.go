package handlers

import (
	"net/http"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/paginate"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/shape"
)

// ListDatasets handles GET /api/v1/datasets.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, title, description, refreshed_at FROM datasets ORDER BY id`)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var datasets []db.Dataset
	for rows.Next() {
		var d db.Dataset
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.RefreshedAt); err != nil {
			continue
		}
		datasets = append(datasets, d)
	}
	ok(w, datasets)
}

// DescribeDataset handles GET /api/v1/datasets/{id}.
func (h *Handler) DescribeDataset(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	cols := provider.Columns(id)
	if cols == nil {
		fail(w, http.StatusNotFound, "unknown dataset: "+id)
		return
	}
	var d db.Dataset
	if err := h.db.QueryRowContext(r.Context(), `
		SELECT id, title, description, refreshed_at FROM datasets WHERE id=?`, id,
	).Scan(&d.ID, &d.Title, &d.Description, &d.RefreshedAt); err != nil {
		fail(w, http.StatusNotFound, "unknown dataset: "+id)
		return
	}
	ok(w, map[string]interface{}{
		"dataset":            d,
		"columns":            cols,
		"filterable_columns": provider.FilterableColumns(id),
	})
}

// QueryDataset handles GET /api/v1/datasets/{id}/query — the single-call query
// path. Query params other than shape and cursor become column filters.
func (h *Handler) QueryDataset(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	q := r.URL.Query()

	mode, err := shape.Parse(q.Get("shape"))
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	filters := provider.Filters{}
	for key, vals := range q {
		if key == "shape" || key == "cursor" || len(vals) == 0 {
			continue
		}
		filters[key] = vals[0]
	}

	env, err := h.paginator.Run(r.Context(), paginate.Request{
		Dataset: id,
		Filters: filters,
		Shape:   mode,
		Cursor:  q.Get("cursor"),
	})
	if err != nil {
		failErr(w, err)
		return
	}
	ok(w, env)
}
