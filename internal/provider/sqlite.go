package provider

import (
	"context"
	"strings"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
)

// datasetSpec binds a dataset id to its backing table, served columns,
// filterable columns, and a deterministic sort for stable paging.
type datasetSpec struct {
	table      string
	columns    []string
	filterable map[string]bool
	orderBy    string
}

var datasetSpecs = map[string]datasetSpec{
	"schedule": {
		table: "games",
		columns: []string{"game_id", "league", "season", "game_date", "home_team",
			"away_team", "home_score", "away_score", "venue", "attendance", "status"},
		filterable: filterSet("league", "season", "game_id", "home_team", "away_team", "game_date"),
		orderBy:    "game_date, game_id",
	},
	"play_by_play": {
		table: "play_by_play",
		columns: []string{"game_id", "period", "clock", "event_type", "team", "player_id",
			"points", "home_score", "away_score", "event_number", "description"},
		filterable: filterSet("league", "season", "game_id", "team", "player_id", "event_type", "period"),
		orderBy:    "game_id, event_number",
	},
	"shot_chart": {
		table: "shots",
		columns: []string{"game_id", "player_id", "team", "period", "clock", "shot_x",
			"shot_y", "distance", "made", "value", "shot_type"},
		filterable: filterSet("league", "season", "game_id", "team", "player_id", "made"),
		orderBy:    "game_id, id",
	},
	"season_totals": {
		table: "season_totals",
		columns: []string{"player_id", "league", "season", "team", "games", "minutes",
			"points", "rebounds", "assists", "steals", "blocks", "turnovers", "fouls"},
		filterable: filterSet("league", "season", "player_id", "team"),
		orderBy:    "league, season, player_id",
	},
}

func filterSet(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// DatasetIDs returns the dataset ids this provider can serve.
func DatasetIDs() []string {
	ids := make([]string, 0, len(datasetSpecs))
	for id := range datasetSpecs {
		ids = append(ids, id)
	}
	return ids
}

// Columns returns the served column set for a dataset, or nil if unknown.
func Columns(dataset string) []string {
	spec, ok := datasetSpecs[dataset]
	if !ok {
		return nil
	}
	return spec.columns
}

// FilterableColumns returns the columns a dataset accepts as filters.
func FilterableColumns(dataset string) []string {
	spec, ok := datasetSpecs[dataset]
	if !ok {
		return nil
	}
	cols := make([]string, 0, len(spec.filterable))
	for _, c := range spec.columns {
		if spec.filterable[c] {
			cols = append(cols, c)
		}
	}
	// league/season are filterable on every dataset even where not served.
	for _, c := range []string{"league", "season"} {
		if spec.filterable[c] && !contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// SQLite serves datasets out of the local stats cache.
type SQLite struct {
	database *db.DB
}

// NewSQLite creates a SQLite provider.
func NewSQLite(database *db.DB) *SQLite {
	return &SQLite{database: database}
}

// Fetch returns one page of the dataset. Unknown datasets are a provider
// error; unknown filter columns are an invalid argument. Rows are ordered
// deterministically so offsets are stable across calls.
func (p *SQLite) Fetch(ctx context.Context, dataset string, filters Filters, limit, offset int) (*tabular.Result, error) {
	spec, ok := datasetSpecs[dataset]
	if !ok {
		return nil, statserr.New(statserr.KindProvider, "unknown dataset: %s", dataset)
	}
	if limit <= 0 {
		return nil, statserr.New(statserr.KindInvalidArgument, "fetch limit must be positive, got %d", limit)
	}
	if offset < 0 {
		return nil, statserr.New(statserr.KindInvalidArgument, "fetch offset must be non-negative, got %d", offset)
	}

	where := " WHERE 1=1"
	args := []any{}
	for col, val := range filters {
		if !spec.filterable[col] {
			return nil, statserr.New(statserr.KindInvalidArgument,
				"dataset %s: column %q is not filterable", dataset, col)
		}
		where += " AND " + col + "=?"
		args = append(args, val)
	}

	query := "SELECT " + strings.Join(spec.columns, ", ") + " FROM " + spec.table +
		where + " ORDER BY " + spec.orderBy + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := p.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, statserr.Wrap(statserr.KindProvider, err, "fetch %s", dataset)
	}
	defer rows.Close()

	res := tabular.New(spec.columns...)
	for rows.Next() {
		cells := make([]any, len(spec.columns))
		ptrs := make([]any, len(spec.columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, statserr.Wrap(statserr.KindProvider, err, "scan %s", dataset)
		}
		row := make(tabular.Row, len(spec.columns))
		for i, c := range spec.columns {
			row[c] = normalize(cells[i])
		}
		res.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, statserr.Wrap(statserr.KindProvider, err, "rows %s", dataset)
	}
	return res, nil
}

// normalize maps driver scan types onto the scalar set TabularResult allows.
func normalize(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	default:
		return v
	}
}

var _ Fetcher = (*SQLite)(nil)
