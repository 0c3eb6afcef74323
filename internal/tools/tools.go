// Package tools defines the operation registry consumed by the tool-call
// endpoints and the batch dispatcher, plus the built-in dataset tools.
package tools

import (
	"context"
	"sort"
	"strconv"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/paginate"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/shape"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
)

// Handler executes one operation with named arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Registry maps operation names to handlers. Populated once at startup,
// read-only at dispatch time.
type Registry struct {
	ops map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Handler)}
}

// Register adds an operation. Last registration for a name wins.
func (r *Registry) Register(name string, h Handler) {
	r.ops[name] = h
}

// Get returns a Handler by operation name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.ops[name]
	return h, ok
}

// List returns all registered operation names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.ops))
	for n := range r.ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// datasetOps maps operation names to the dataset each serves.
var datasetOps = map[string]string{
	"get_schedule":      "schedule",
	"get_play_by_play":  "play_by_play",
	"get_shot_chart":    "shot_chart",
	"get_season_totals": "season_totals",
}

// DefaultRegistry builds the production toolset: one paginated fetch
// operation per dataset plus the catalog introspection tools.
func DefaultRegistry(p *paginate.Paginator, database *db.DB, reg *classify.Registry) *Registry {
	r := NewRegistry()
	for op, dataset := range datasetOps {
		r.Register(op, datasetHandler(p, dataset))
	}
	r.Register("list_datasets", listDatasetsHandler(database))
	r.Register("describe_dataset", describeDatasetHandler(database, reg))
	return r
}

// datasetHandler adapts the single-call paginated path to a tool handler.
// Reserved argument names carry shape and cursor; every other argument is
// a filter column.
func datasetHandler(p *paginate.Paginator, dataset string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		req := paginate.Request{Dataset: dataset, Filters: provider.Filters{}}
		for k, v := range args {
			switch k {
			case "shape":
				s, ok := v.(string)
				if !ok {
					return nil, statserr.New(statserr.KindInvalidArgument, "shape must be a string")
				}
				mode, err := shape.Parse(s)
				if err != nil {
					return nil, statserr.Wrap(statserr.KindInvalidArgument, err, "shape")
				}
				req.Shape = mode
			case "cursor":
				s, ok := v.(string)
				if !ok {
					return nil, statserr.New(statserr.KindInvalidArgument, "cursor must be a string")
				}
				req.Cursor = s
			default:
				s, err := scalarString(v)
				if err != nil {
					return nil, statserr.Wrap(statserr.KindInvalidArgument, err, "argument %q", k)
				}
				req.Filters[k] = s
			}
		}
		return p.Run(ctx, req)
	}
}

// scalarString renders a JSON scalar argument as a filter value.
func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return "", statserr.New(statserr.KindInvalidArgument, "filter values must be scalars, got %T", v)
	}
}

func listDatasetsHandler(database *db.DB) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		rows, err := database.QueryContext(ctx,
			`SELECT id, title, description, refreshed_at FROM datasets ORDER BY id`)
		if err != nil {
			return nil, statserr.Wrap(statserr.KindProvider, err, "list datasets")
		}
		defer rows.Close()

		var datasets []db.Dataset
		for rows.Next() {
			var d db.Dataset
			if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.RefreshedAt); err != nil {
				return nil, statserr.Wrap(statserr.KindProvider, err, "scan dataset")
			}
			datasets = append(datasets, d)
		}
		if err := rows.Err(); err != nil {
			return nil, statserr.Wrap(statserr.KindProvider, err, "list datasets")
		}
		return map[string]any{"datasets": datasets}, nil
	}
}

func describeDatasetHandler(database *db.DB, reg *classify.Registry) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["dataset"].(string)
		if !ok || id == "" {
			return nil, statserr.New(statserr.KindInvalidArgument, "describe_dataset requires a dataset argument")
		}
		cols := provider.Columns(id)
		if cols == nil {
			return nil, statserr.New(statserr.KindProvider, "unknown dataset: %s", id)
		}

		var d db.Dataset
		err := database.QueryRowContext(ctx,
			`SELECT id, title, description, refreshed_at FROM datasets WHERE id=?`, id,
		).Scan(&d.ID, &d.Title, &d.Description, &d.RefreshedAt)
		if err != nil {
			// Catalog row is optional metadata; the column table is authoritative.
			d = db.Dataset{ID: id}
		}

		keyCols := make([]string, 0, len(cols))
		for _, c := range cols {
			if reg != nil && reg.Classified(id) && reg.Keep(id, c) {
				keyCols = append(keyCols, c)
			}
		}
		return map[string]any{
			"dataset":            d,
			"columns":            cols,
			"filterable_columns": provider.FilterableColumns(id),
			"key_columns":        keyCols,
		}, nil
	}
}
