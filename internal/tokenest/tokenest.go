// Package tokenest provides token estimation for tabular tool responses.
package tokenest

import "github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"

// DefaultCharsPerCell is the calibrated per-cell serialized size used by the
// structural estimate. Roughly 4 bytes-equivalent per cell.
const DefaultCharsPerCell = 4

// EstimateText estimates the token count of a text string.
// Uses the rule of thumb: ~4 characters per token.
func EstimateText(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateTable returns an upper-bound token estimate for a result of the
// given structural size. It never inspects cell content: the estimate is
// rows × cols × chars-per-cell converted at ~4 chars per token, which keeps
// it O(1) and deterministic. Zero rows or zero columns estimate zero.
func EstimateTable(rows, cols int) int {
	return Estimator{CharsPerCell: DefaultCharsPerCell}.EstimateTable(rows, cols)
}

// EstimateResult estimates the serialized token cost of a tabular result.
func EstimateResult(res *tabular.Result) int {
	return EstimateTable(res.RowCount(), res.ColumnCount())
}

// Estimator carries a custom per-cell calibration. The zero value behaves
// like the package-level functions.
type Estimator struct {
	CharsPerCell int
}

// EstimateTable is the structural estimate with this estimator's calibration.
func (e Estimator) EstimateTable(rows, cols int) int {
	if rows <= 0 || cols <= 0 {
		return 0
	}
	cpc := e.CharsPerCell
	if cpc <= 0 {
		cpc = DefaultCharsPerCell
	}
	chars := rows * cols * cpc
	return (chars + 3) / 4
}

// EstimateResult is the result-shaped form of EstimateTable.
func (e Estimator) EstimateResult(res *tabular.Result) int {
	return e.EstimateTable(res.RowCount(), res.ColumnCount())
}
