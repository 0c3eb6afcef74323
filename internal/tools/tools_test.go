package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/paginate"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/shape"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
)

func testToolset(t *testing.T) (*Registry, *db.DB) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "tools_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	for i := 0; i < 6; i++ {
		_, err := database.Exec(`
			INSERT INTO games (game_id, league, season, game_date, home_team, away_team, home_score, away_score)
			VALUES (?,?,?,?,?,?,?,?)`,
			fmt.Sprintf("g%03d", i), "NCAA-MBB", "2025",
			fmt.Sprintf("2025-02-%02d", i+1), "HOME", "AWAY", 80, 75)
		require.NoError(t, err)
	}

	reg := classify.Default()
	p := paginate.New(provider.NewSQLite(database), reg, paginate.Config{})
	return DefaultRegistry(p, database, reg), database
}

func TestRegistry_Operations(t *testing.T) {
	r, _ := testToolset(t)
	assert.Equal(t, []string{
		"describe_dataset", "get_play_by_play", "get_schedule",
		"get_season_totals", "get_shot_chart", "list_datasets",
	}, r.List())

	_, ok := r.Get("get_schedule")
	assert.True(t, ok)
	_, ok = r.Get("unknown_tool")
	assert.False(t, ok)
}

func TestGetSchedule(t *testing.T) {
	r, _ := testToolset(t)
	h, ok := r.Get("get_schedule")
	require.True(t, ok)

	result, err := h(context.Background(), map[string]any{"league": "NCAA-MBB", "season": "2025"})
	require.NoError(t, err)

	env, ok := result.(*paginate.Envelope)
	require.True(t, ok)
	assert.Equal(t, 6, env.RowCount)
	assert.Equal(t, shape.ModeFull, env.Shape)
	assert.Nil(t, env.NextCursor)
	assert.Equal(t, "g000", env.Data.Rows[0]["game_id"])
}

func TestGetSchedule_ShapeAndCursorArgs(t *testing.T) {
	r, _ := testToolset(t)
	h, _ := r.Get("get_schedule")

	result, err := h(context.Background(), map[string]any{"shape": "compact"})
	require.NoError(t, err)
	env := result.(*paginate.Envelope)
	assert.Equal(t, shape.ModeCompact, env.Shape)
	assert.NotContains(t, env.Data.Columns, "venue")

	_, err = h(context.Background(), map[string]any{"shape": "huge"})
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))

	_, err = h(context.Background(), map[string]any{"cursor": 12.5})
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))
}

func TestGetSchedule_NonScalarFilter(t *testing.T) {
	r, _ := testToolset(t)
	h, _ := r.Get("get_schedule")
	_, err := h(context.Background(), map[string]any{"league": []any{"NCAA-MBB"}})
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))
}

func TestGetSchedule_NumericFilterValue(t *testing.T) {
	r, database := testToolset(t)
	_, err := database.Exec(`
		INSERT INTO season_totals (player_id, league, season, team, games, points)
		VALUES ('p1', 'NCAA-MBB', '2025', 'HOME', 30, 600)`)
	require.NoError(t, err)

	h, _ := r.Get("get_season_totals")
	// JSON numbers arrive as float64; they must filter as their string form.
	result, err := h(context.Background(), map[string]any{"season": float64(2025)})
	require.NoError(t, err)
	env := result.(*paginate.Envelope)
	assert.Equal(t, 1, env.RowCount)
}

func TestListDatasets(t *testing.T) {
	r, _ := testToolset(t)
	h, _ := r.Get("list_datasets")
	result, err := h(context.Background(), nil)
	require.NoError(t, err)

	m := result.(map[string]any)
	datasets := m["datasets"].([]db.Dataset)
	require.Len(t, datasets, 4)
	assert.Equal(t, "play_by_play", datasets[0].ID)
}

func TestDescribeDataset(t *testing.T) {
	r, _ := testToolset(t)
	h, _ := r.Get("describe_dataset")

	result, err := h(context.Background(), map[string]any{"dataset": "shot_chart"})
	require.NoError(t, err)
	m := result.(map[string]any)
	assert.Contains(t, m["columns"], "shot_x")
	assert.Contains(t, m["filterable_columns"], "player_id")
	assert.Contains(t, m["key_columns"], "made")
	assert.NotContains(t, m["key_columns"], "distance")

	_, err = h(context.Background(), map[string]any{"dataset": "nope"})
	require.Error(t, err)
	assert.Equal(t, statserr.KindProvider, statserr.KindOf(err))

	_, err = h(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))
}
