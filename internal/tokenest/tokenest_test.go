package tokenest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
)

func TestEstimateText(t *testing.T) {
	assert.Equal(t, 0, EstimateText(""))
	assert.Equal(t, 1, EstimateText("test"))
	assert.Equal(t, 15, EstimateText("The quick brown fox jumps over the lazy dog. This is a test."))
}

func TestEstimateTable_ZeroLaws(t *testing.T) {
	for _, c := range []int{0, 1, 10, 500} {
		assert.Equal(t, 0, EstimateTable(0, c), "zero rows")
		assert.Equal(t, 0, EstimateTable(c, 0), "zero cols")
	}
	assert.Equal(t, 0, EstimateTable(-1, 5))
}

func TestEstimateTable_Monotone(t *testing.T) {
	sizes := []int{1, 2, 5, 100, 2000}
	for _, cols := range sizes {
		prev := 0
		for _, rows := range sizes {
			est := EstimateTable(rows, cols)
			assert.GreaterOrEqual(t, est, prev, "rows=%d cols=%d", rows, cols)
			prev = est
		}
	}
	for _, rows := range sizes {
		prev := 0
		for _, cols := range sizes {
			est := EstimateTable(rows, cols)
			assert.GreaterOrEqual(t, est, prev, "rows=%d cols=%d", rows, cols)
			prev = est
		}
	}
}

func TestEstimateTable_Deterministic(t *testing.T) {
	// 2000 rows × 10 cols at 4 chars/cell = 80000 chars = 20000 tokens.
	assert.Equal(t, 20000, EstimateTable(2000, 10))
	assert.Equal(t, EstimateTable(123, 7), EstimateTable(123, 7))
}

func TestEstimateResult(t *testing.T) {
	res := tabular.New("player_id", "pts")
	res.Append(tabular.Row{"player_id": "a", "pts": 12.0})
	res.Append(tabular.Row{"player_id": "b", "pts": 31.0})
	assert.Equal(t, EstimateTable(2, 2), EstimateResult(res))
	assert.Equal(t, 0, EstimateResult(nil))
}

func TestEstimator_CustomCalibration(t *testing.T) {
	e := Estimator{CharsPerCell: 8}
	assert.Equal(t, 2*EstimateTable(100, 4), e.EstimateTable(100, 4))
	// Zero value falls back to the default calibration.
	assert.Equal(t, EstimateTable(10, 3), Estimator{}.EstimateTable(10, 3))
}
