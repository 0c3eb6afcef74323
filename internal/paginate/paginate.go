// Package paginate wraps a dataset fetch with budget-aware iterative
// paging. It pages until a row cap or token budget is reached, escalates
// the shape mode when the budget is hit, and hands back a resumable
// cursor.
package paginate

import (
	"context"
	"strconv"
	"time"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/classify"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/provider"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/shape"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tokenest"
)

// Default caps. Overridable per Paginator via Config.
const (
	DefaultPageSize  = 2000
	DefaultMaxRows   = 2000
	DefaultMaxTokens = 8000
)

// Config bounds a paginated fetch.
type Config struct {
	PageSize     int           // rows requested per provider call
	MaxRows      int           // accumulated row cap per call
	MaxTokens    int           // accumulated token budget per call
	FetchTimeout time.Duration // per-page fetch timeout; 0 disables
	Estimator    tokenest.Estimator
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Request is one paginated fetch: a dataset, its filters, the requested
// shape, and an optional continuation cursor from a previous call.
type Request struct {
	Dataset string
	Filters provider.Filters
	Shape   shape.Mode
	Cursor  string
}

// Envelope is the single-call wire response.
type Envelope struct {
	Data            *tabular.Result `json:"data"`
	Shape           shape.Mode      `json:"shape"`
	RowCount        int             `json:"row_count"`
	EstimatedTokens int             `json:"estimated_tokens"`
	NextCursor      *string         `json:"next_cursor"`
	BudgetExceeded  bool            `json:"budget_exceeded,omitempty"`
}

// pageState tracks one invocation's progress. Never shared across calls.
type pageState struct {
	offset int
	rows   int
	tokens int
}

// Paginator drives budget-aware fetching against a single provider.
type Paginator struct {
	fetcher  provider.Fetcher
	classify *classify.Registry
	cfg      Config
}

// New creates a Paginator. Zero Config fields fall back to the defaults.
func New(fetcher provider.Fetcher, reg *classify.Registry, cfg Config) *Paginator {
	return &Paginator{fetcher: fetcher, classify: reg, cfg: cfg.withDefaults()}
}

// Run fetches pages until natural exhaustion, the row cap, or the token
// budget — whichever comes first. Caps bound continuation only: a page
// already fetched is always returned whole. A provider error on any page
// abandons the entire call, accumulated pages included.
func (p *Paginator) Run(ctx context.Context, req Request) (*Envelope, error) {
	mode, err := shape.Parse(string(req.Shape))
	if err != nil {
		return nil, statserr.Wrap(statserr.KindInvalidArgument, err, "shape")
	}
	start, err := ParseCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	st := pageState{offset: start}
	var pages []*tabular.Result
	exhausted := false
	budgetHit := false

	for {
		page, err := p.fetchPage(ctx, req, st.offset)
		if err != nil {
			return nil, err
		}

		pages = append(pages, page)
		st.offset += page.RowCount()
		st.rows += page.RowCount()
		st.tokens += p.cfg.Estimator.EstimateResult(page)

		if page.RowCount() < p.cfg.PageSize {
			exhausted = true
			break
		}
		if st.tokens >= p.cfg.MaxTokens {
			budgetHit = true
			break
		}
		if st.rows >= p.cfg.MaxRows {
			break
		}
	}

	data := tabular.Concat(pages...)

	// Budget stops escalate full toward compact/summary so the call still
	// returns something useful. Explicitly requested compact/summary is
	// one-shot: over-budget results are flagged, never pruned further.
	applied := mode
	shaped := shape.Apply(data, req.Dataset, applied, p.classify)
	if budgetHit && mode == shape.ModeFull {
		for p.cfg.Estimator.EstimateResult(shaped) > p.cfg.MaxTokens && applied != shape.ModeSummary {
			applied = shape.Escalate(applied)
			shaped = shape.Apply(data, req.Dataset, applied, p.classify)
		}
	}

	env := &Envelope{
		Data:            shaped,
		Shape:           applied,
		RowCount:        data.RowCount(),
		EstimatedTokens: st.tokens,
		BudgetExceeded:  p.cfg.Estimator.EstimateResult(shaped) > p.cfg.MaxTokens,
	}
	if !exhausted {
		c := FormatCursor(st.offset)
		env.NextCursor = &c
	}
	return env, nil
}

// fetchPage runs one provider call under the per-page timeout.
func (p *Paginator) fetchPage(ctx context.Context, req Request, offset int) (*tabular.Result, error) {
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}
	page, err := p.fetcher.Fetch(ctx, req.Dataset, req.Filters, p.cfg.PageSize, offset)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, statserr.Wrap(statserr.KindTimeout, err, "fetch %s at offset %d timed out", req.Dataset, offset)
		}
		return nil, err
	}
	return page, nil
}

// FormatCursor encodes a row offset as an opaque continuation cursor.
func FormatCursor(offset int) string {
	return strconv.Itoa(offset)
}

// ParseCursor decodes a continuation cursor. Empty means offset 0.
func ParseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, statserr.New(statserr.KindInvalidArgument, "invalid cursor %q", cursor)
	}
	return n, nil
}
