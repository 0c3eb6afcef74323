package paginate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/shape"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
)

// fixedProvider serves `total` synthetic schedule rows in a stable order.
func fixedProvider(total int) provider.FetchFunc {
	return func(_ context.Context, _ string, _ provider.Filters, limit, offset int) (*tabular.Result, error) {
		res := tabular.New("game_id", "home_score", "away_score", "venue")
		for i := offset; i < offset+limit && i < total; i++ {
			res.Append(tabular.Row{
				"game_id":    fmt.Sprintf("g%05d", i),
				"home_score": int64(70 + i%40),
				"away_score": int64(65 + i%35),
				"venue":      "Arena",
			})
		}
		return res, nil
	}
}

func TestRun_CursorWalkReconstructsAllRows(t *testing.T) {
	const total = 5000
	p := New(fixedProvider(total), classify.Default(), Config{
		PageSize: 300, MaxRows: 700, MaxTokens: 1 << 30,
	})
	ctx := context.Background()

	seen := map[string]bool{}
	cursor := ""
	calls := 0
	for {
		env, err := p.Run(ctx, Request{Dataset: "schedule", Shape: shape.ModeFull, Cursor: cursor})
		require.NoError(t, err)
		for _, row := range env.Data.Rows {
			id := row["game_id"].(string)
			assert.False(t, seen[id], "duplicate row %s", id)
			seen[id] = true
		}
		calls++
		require.Less(t, calls, 100, "cursor walk did not terminate")
		if env.NextCursor == nil {
			break
		}
		cursor = *env.NextCursor
	}
	assert.Len(t, seen, total, "cursor walk must reconstruct the exact row set")
}

func TestRun_StopsAtRowCapWithCursor(t *testing.T) {
	// Provider has more than one page: row cap reached without a natural
	// exhaustion signal, so the cursor must be non-null.
	p := New(fixedProvider(10000), classify.Default(), Config{
		PageSize: 2000, MaxRows: 2000, MaxTokens: 1 << 30,
	})
	env, err := p.Run(context.Background(), Request{Dataset: "schedule", Shape: shape.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, 2000, env.RowCount)
	require.NotNil(t, env.NextCursor)
	assert.Equal(t, "2000", *env.NextCursor)
	assert.Equal(t, shape.ModeFull, env.Shape)
}

func TestRun_FiveThousandRowScenario(t *testing.T) {
	p := New(fixedProvider(5000), classify.Default(), Config{
		PageSize: 2000, MaxRows: 2000, MaxTokens: 1 << 30,
	})
	ctx := context.Background()

	env, err := p.Run(ctx, Request{Dataset: "schedule", Shape: shape.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, 2000, env.RowCount)
	require.NotNil(t, env.NextCursor)
	assert.Equal(t, "2000", *env.NextCursor)

	env, err = p.Run(ctx, Request{Dataset: "schedule", Shape: shape.ModeFull, Cursor: *env.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, 2000, env.RowCount)
	require.NotNil(t, env.NextCursor)
	assert.Equal(t, "4000", *env.NextCursor)

	env, err = p.Run(ctx, Request{Dataset: "schedule", Shape: shape.ModeFull, Cursor: *env.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, 1000, env.RowCount)
	assert.Nil(t, env.NextCursor)
}

func TestRun_TokenBudgetEscalatesShape(t *testing.T) {
	// 500 rows × 4 cols = 2000 tokens per call at the default calibration;
	// a budget of 100 forces escalation past compact down to summary.
	p := New(fixedProvider(5000), classify.Default(), Config{
		PageSize: 500, MaxRows: 5000, MaxTokens: 100,
	})
	env, err := p.Run(context.Background(), Request{Dataset: "schedule", Shape: shape.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, shape.ModeSummary, env.Shape)
	require.NotNil(t, env.NextCursor, "budget stop is not exhaustion")
	assert.Equal(t, "500", *env.NextCursor)
	// Summary of a 4-column result fits 100 tokens easily.
	assert.False(t, env.BudgetExceeded)
	// Accumulated estimate reflects what was fetched, not what was returned.
	assert.Equal(t, 2000, env.EstimatedTokens)
}

func TestRun_EscalationStopsAtCompactWhenItFits(t *testing.T) {
	// Compact drops venue (SUPPLEMENTARY): 100 rows × 3 cols = 300 tokens.
	p := New(fixedProvider(1000), classify.Default(), Config{
		PageSize: 100, MaxRows: 1000, MaxTokens: 390,
	})
	env, err := p.Run(context.Background(), Request{Dataset: "schedule", Shape: shape.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, shape.ModeCompact, env.Shape)
	assert.Equal(t, []string{"game_id", "home_score", "away_score"}, env.Data.Columns)
	assert.False(t, env.BudgetExceeded)
}

func TestRun_ExplicitCompactIsOneShot(t *testing.T) {
	// Caller asked for compact; over-budget result is flagged, never
	// silently reduced to summary.
	p := New(fixedProvider(1000), classify.Default(), Config{
		PageSize: 200, MaxRows: 1000, MaxTokens: 150,
	})
	env, err := p.Run(context.Background(), Request{Dataset: "schedule", Shape: shape.ModeCompact})
	require.NoError(t, err)
	assert.Equal(t, shape.ModeCompact, env.Shape)
	assert.True(t, env.BudgetExceeded)
	assert.Equal(t, 200, env.Data.RowCount())
}

func TestRun_ProviderErrorIsAtomic(t *testing.T) {
	boom := errors.New("upstream 502")
	calls := 0
	failing := provider.FetchFunc(func(ctx context.Context, dataset string, f provider.Filters, limit, offset int) (*tabular.Result, error) {
		calls++
		if offset >= 100 {
			return nil, boom
		}
		return fixedProvider(10000)(ctx, dataset, f, limit, offset)
	})
	p := New(failing, classify.Default(), Config{PageSize: 100, MaxRows: 1000, MaxTokens: 1 << 30})

	env, err := p.Run(context.Background(), Request{Dataset: "schedule", Shape: shape.ModeFull})
	require.Error(t, err)
	assert.Nil(t, env, "no partial success: accumulated pages are abandoned")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRun_InvalidCursor(t *testing.T) {
	p := New(fixedProvider(10), classify.Default(), Config{})
	_, err := p.Run(context.Background(), Request{Dataset: "schedule", Cursor: "not-a-number"})
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))

	_, err = p.Run(context.Background(), Request{Dataset: "schedule", Cursor: "-5"})
	require.Error(t, err)
	assert.Equal(t, statserr.KindInvalidArgument, statserr.KindOf(err))
}

func TestRun_EmptyDataset(t *testing.T) {
	p := New(fixedProvider(0), classify.Default(), Config{})
	env, err := p.Run(context.Background(), Request{Dataset: "schedule", Shape: shape.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, 0, env.RowCount)
	assert.Equal(t, 0, env.EstimatedTokens)
	assert.Nil(t, env.NextCursor)
}

func TestCursorRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2000, 123456} {
		got, err := ParseCursor(FormatCursor(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
	n, err := ParseCursor("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
