package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "provider_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

func seedGames(t *testing.T, database *db.DB, league, season string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := database.Exec(`
			INSERT INTO games (game_id, league, season, game_date, home_team, away_team, home_score, away_score, venue)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			fmt.Sprintf("%s-%s-g%04d", league, season, i), league, season,
			fmt.Sprintf("2025-01-%02d", i%28+1), "HOME", "AWAY", 70+i%40, 65+i%35, "Arena")
		require.NoError(t, err)
	}
}

func TestSQLite_FetchSchedule(t *testing.T) {
	database := testDB(t)
	seedGames(t, database, "NCAA-MBB", "2025", 5)
	seedGames(t, database, "NBL", "2025", 3)

	p := NewSQLite(database)
	ctx := context.Background()

	res, err := p.Fetch(ctx, "schedule", Filters{"league": "NCAA-MBB"}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, res.RowCount())
	assert.Contains(t, res.Columns, "game_id")
	assert.Equal(t, "NCAA-MBB", res.Rows[0]["league"])
}

func TestSQLite_FetchPagingIsStable(t *testing.T) {
	database := testDB(t)
	seedGames(t, database, "NCAA-MBB", "2025", 10)

	p := NewSQLite(database)
	ctx := context.Background()

	seen := map[string]bool{}
	total := 0
	for _, offset := range []int{0, 4, 8} {
		res, err := p.Fetch(ctx, "schedule", nil, 4, offset)
		require.NoError(t, err)
		for _, row := range res.Rows {
			id, _ := row["game_id"].(string)
			assert.False(t, seen[id], "duplicate row %s at offset %d", id, offset)
			seen[id] = true
		}
		total += res.RowCount()
	}
	assert.Equal(t, 10, total)
}

func TestSQLite_UnknownDataset(t *testing.T) {
	p := NewSQLite(testDB(t))
	_, err := p.Fetch(context.Background(), "lineups", nil, 10, 0)
	require.Error(t, err)
	assert.Equal(t, statserr.KindProvider, statserr.KindOf(err))
	assert.Contains(t, err.Error(), "unknown dataset")
}

func TestSQLite_UnfilterableColumn(t *testing.T) {
	p := NewSQLite(testDB(t))
	_, err := p.Fetch(context.Background(), "schedule", Filters{"venue": "Arena"}, 10, 0)
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))
}

func TestSQLite_BadLimitOffset(t *testing.T) {
	p := NewSQLite(testDB(t))
	ctx := context.Background()

	_, err := p.Fetch(ctx, "schedule", nil, 0, 0)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))

	_, err = p.Fetch(ctx, "schedule", nil, 10, -1)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))
}

func TestDatasetCatalogHelpers(t *testing.T) {
	assert.ElementsMatch(t, []string{"schedule", "play_by_play", "shot_chart", "season_totals"}, DatasetIDs())
	assert.Contains(t, Columns("shot_chart"), "shot_x")
	assert.Nil(t, Columns("nope"))
	assert.Contains(t, FilterableColumns("season_totals"), "player_id")
	assert.NotContains(t, FilterableColumns("schedule"), "venue")
}
