// Package tabular defines the column-oriented result type returned by
// every dataset provider, plus the helpers the shaping layer needs.
package tabular

// Row maps a column name to a scalar value (string, number, bool, or nil).
type Row map[string]any

// Result is an ordered sequence of rows sharing a single column set.
// Providers return it fully materialized; callers treat it as immutable.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty Result with the given column set.
func New(columns ...string) *Result {
	return &Result{Columns: columns}
}

// RowCount returns the number of rows. Nil-safe.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ColumnCount returns the number of columns. Nil-safe.
func (r *Result) ColumnCount() int {
	if r == nil {
		return 0
	}
	return len(r.Columns)
}

// Append adds rows to the result. Rows must share the column set; this is
// the provider's contract, not re-checked per row.
func (r *Result) Append(rows ...Row) {
	r.Rows = append(r.Rows, rows...)
}

// Concat returns a new Result with the pages' rows joined in order.
// All pages must share the first page's column set.
func Concat(pages ...*Result) *Result {
	out := &Result{}
	for _, p := range pages {
		if p == nil {
			continue
		}
		if out.Columns == nil {
			out.Columns = p.Columns
		}
		out.Rows = append(out.Rows, p.Rows...)
	}
	return out
}

// NumericColumns returns the columns whose first non-nil value is numeric.
// Column type is stable across rows, so one probe per column is enough.
func (r *Result) NumericColumns() []string {
	var cols []string
	for _, c := range r.Columns {
		for _, row := range r.Rows {
			v, ok := row[c]
			if !ok || v == nil {
				continue
			}
			if _, isNum := AsFloat(v); isNum {
				cols = append(cols, c)
			}
			break
		}
	}
	return cols
}

// AsFloat converts a scalar cell value to float64 when it is numeric.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
