// Package shape converts tabular results into the wire shapes served to
// LLM clients: full rows, key-column rows, or aggregate summaries.
package shape

import (
	"fmt"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
)

// Mode is the requested level of detail for a served result.
type Mode string

const (
	// ModeFull returns all columns.
	ModeFull Mode = "full"
	// ModeCompact returns only KEY-classified columns.
	ModeCompact Mode = "compact"
	// ModeSummary returns aggregate descriptors instead of rows.
	ModeSummary Mode = "summary"
)

// Parse validates a wire-level mode string. Empty defaults to full.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeCompact:
		return ModeCompact, nil
	case ModeSummary:
		return ModeSummary, nil
	default:
		return "", fmt.Errorf("shape.Parse: unknown shape mode %q", s)
	}
}

// Escalate returns the next tighter mode: full → compact → summary.
// Summary has nowhere left to go.
func Escalate(m Mode) Mode {
	switch m {
	case ModeFull:
		return ModeCompact
	case ModeCompact:
		return ModeSummary
	default:
		return ModeSummary
	}
}

// Apply transforms a result into the requested shape. Pruning decisions
// come from the classification registry; pruning is one-shot, never
// iterative. Apply does not mutate its input.
func Apply(res *tabular.Result, dataset string, mode Mode, reg *classify.Registry) *tabular.Result {
	if res == nil {
		return &tabular.Result{}
	}
	switch mode {
	case ModeCompact:
		return compact(res, dataset, reg)
	case ModeSummary:
		return summarize(res)
	default:
		return res
	}
}

// compact retains only the columns the registry keeps for this dataset.
// Unclassified columns survive — fail open. A dataset with no registered
// classification degrades to full.
func compact(res *tabular.Result, dataset string, reg *classify.Registry) *tabular.Result {
	if reg == nil || !reg.Classified(dataset) {
		return res
	}
	var kept []string
	for _, c := range res.Columns {
		if reg.Keep(dataset, c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(res.Columns) {
		return res
	}
	out := tabular.New(kept...)
	out.Rows = make([]tabular.Row, 0, len(res.Rows))
	for _, row := range res.Rows {
		pruned := make(tabular.Row, len(kept))
		for _, c := range kept {
			pruned[c] = row[c]
		}
		out.Rows = append(out.Rows, pruned)
	}
	return out
}

// summarize replaces rows with one descriptor row per numeric column
// (min/max/mean) plus the total row count. No individual row data leaves
// this function.
func summarize(res *tabular.Result) *tabular.Result {
	out := tabular.New("column", "stat_min", "stat_max", "stat_mean", "row_count")
	n := res.RowCount()
	for _, c := range res.NumericColumns() {
		var min, max, sum float64
		count := 0
		for _, row := range res.Rows {
			v, ok := tabular.AsFloat(row[c])
			if !ok {
				continue
			}
			if count == 0 || v < min {
				min = v
			}
			if count == 0 || v > max {
				max = v
			}
			sum += v
			count++
		}
		if count == 0 {
			continue
		}
		out.Append(tabular.Row{
			"column":    c,
			"stat_min":  min,
			"stat_max":  max,
			"stat_mean": sum / float64(count),
			"row_count": int64(n),
		})
	}
	if len(out.Rows) == 0 {
		// No numeric columns: still report the row count.
		out.Append(tabular.Row{
			"column":    nil,
			"stat_min":  nil,
			"stat_max":  nil,
			"stat_mean": nil,
			"row_count": int64(n),
		})
	}
	return out
}
