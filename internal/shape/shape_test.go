package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
)

func scheduleResult() *tabular.Result {
	res := tabular.New("game_id", "home_score", "away_score", "venue")
	res.Append(
		tabular.Row{"game_id": "g1", "home_score": int64(80), "away_score": int64(72), "venue": "Hinkle"},
		tabular.Row{"game_id": "g2", "home_score": int64(95), "away_score": int64(101), "venue": "Cameron"},
		tabular.Row{"game_id": "g3", "home_score": int64(65), "away_score": int64(60), "venue": "Phog Allen"},
	)
	return res
}

func TestParse(t *testing.T) {
	m, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, ModeFull, m)

	m, err = Parse("summary")
	require.NoError(t, err)
	assert.Equal(t, ModeSummary, m)

	_, err = Parse("tiny")
	assert.Error(t, err)
}

func TestEscalate(t *testing.T) {
	assert.Equal(t, ModeCompact, Escalate(ModeFull))
	assert.Equal(t, ModeSummary, Escalate(ModeCompact))
	assert.Equal(t, ModeSummary, Escalate(ModeSummary))
}

func TestApply_FullPassthrough(t *testing.T) {
	res := scheduleResult()
	out := Apply(res, "schedule", ModeFull, classify.Default())
	assert.Equal(t, res, out)
}

func TestApply_CompactPrunes(t *testing.T) {
	reg := classify.Default()
	out := Apply(scheduleResult(), "schedule", ModeCompact, reg)
	assert.Equal(t, []string{"game_id", "home_score", "away_score"}, out.Columns)
	require.Len(t, out.Rows, 3)
	_, hasVenue := out.Rows[0]["venue"]
	assert.False(t, hasVenue)
	assert.Equal(t, "g1", out.Rows[0]["game_id"])
}

func TestApply_CompactIdempotent(t *testing.T) {
	reg := classify.Default()
	once := Apply(scheduleResult(), "schedule", ModeCompact, reg)
	twice := Apply(once, "schedule", ModeCompact, reg)
	assert.Equal(t, once.Columns, twice.Columns)
	assert.Equal(t, once.Rows, twice.Rows)
}

func TestApply_CompactFailOpen(t *testing.T) {
	// Dataset with zero registered classifications: compact == full.
	res := scheduleResult()
	out := Apply(res, "mystery_dataset", ModeCompact, classify.Default())
	assert.Equal(t, res, out)

	// Nil registry behaves the same way.
	out = Apply(res, "schedule", ModeCompact, nil)
	assert.Equal(t, res, out)
}

func TestApply_Summary(t *testing.T) {
	out := Apply(scheduleResult(), "schedule", ModeSummary, classify.Default())
	assert.Equal(t, []string{"column", "stat_min", "stat_max", "stat_mean", "row_count"}, out.Columns)

	byColumn := map[string]tabular.Row{}
	for _, row := range out.Rows {
		if c, ok := row["column"].(string); ok {
			byColumn[c] = row
		}
	}
	home := byColumn["home_score"]
	require.NotNil(t, home)
	assert.Equal(t, 65.0, home["stat_min"])
	assert.Equal(t, 95.0, home["stat_max"])
	assert.Equal(t, 80.0, home["stat_mean"])
	assert.Equal(t, int64(3), home["row_count"])

	// Non-numeric columns never appear.
	_, hasVenue := byColumn["venue"]
	assert.False(t, hasVenue)
}

func TestApply_SummaryNoNumericColumns(t *testing.T) {
	res := tabular.New("name")
	res.Append(tabular.Row{"name": "a"}, tabular.Row{"name": "b"})
	out := Apply(res, "whatever", ModeSummary, nil)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, int64(2), out.Rows[0]["row_count"])
}

func TestApply_NilResult(t *testing.T) {
	out := Apply(nil, "schedule", ModeCompact, classify.Default())
	require.NotNil(t, out)
	assert.Equal(t, 0, out.RowCount())
}
