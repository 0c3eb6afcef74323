// Package batch executes an ordered list of independent tool invocations
// with bounded concurrency, isolating failures per item.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tools"
)

// Defaults for the dispatcher's execution bounds.
const (
	DefaultMaxConcurrency = 8
	DefaultItemTimeout    = 30 * time.Second
)

// Item is one requested invocation within a batch.
type Item struct {
	Op   string         `json:"op"`
	Args map[string]any `json:"args"`
}

// Outcome is the per-item result: a success carrying the operation's value
// or a failure carrying a message and an error kind. Output position i
// always corresponds to input position i.
type Outcome struct {
	OK        bool   `json:"ok"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Dispatcher fans a batch out over the tool registry. The registry is
// read-only at dispatch time; the dispatcher itself never fails because
// an individual item failed.
type Dispatcher struct {
	registry    *tools.Registry
	maxParallel int
	itemTimeout time.Duration
}

// New creates a Dispatcher. Non-positive bounds fall back to the defaults.
func New(registry *tools.Registry, maxParallel int, itemTimeout time.Duration) *Dispatcher {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxConcurrency
	}
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}
	return &Dispatcher{registry: registry, maxParallel: maxParallel, itemTimeout: itemTimeout}
}

// Run executes all items and returns one Outcome per item, in input
// order. Items run concurrently up to the configured bound; a slow or
// failing item never affects its siblings.
func (d *Dispatcher) Run(ctx context.Context, items []Item) []Outcome {
	out := make([]Outcome, len(items))
	sem := make(chan struct{}, d.maxParallel)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = d.runOne(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return out
}

// runOne executes a single item under its own timeout, converting every
// failure mode — unknown operation, handler error, timeout, panic — into
// a Failure outcome.
func (d *Dispatcher) runOne(ctx context.Context, item Item) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failure(statserr.New(statserr.KindProvider, "operation %s panicked: %v", item.Op, r))
		}
	}()

	handler, ok := d.registry.Get(item.Op)
	if !ok {
		return failure(statserr.New(statserr.KindUnknownOperation, "unknown operation: %s", item.Op))
	}

	itemCtx, cancel := context.WithTimeout(ctx, d.itemTimeout)
	defer cancel()

	result, err := handler(itemCtx, item.Args)
	if err != nil {
		if itemCtx.Err() == context.DeadlineExceeded {
			return failure(statserr.Wrap(statserr.KindTimeout, err,
				"operation %s exceeded %s", item.Op, d.itemTimeout))
		}
		return failure(err)
	}
	return Outcome{OK: true, Result: result}
}

func failure(err error) Outcome {
	return Outcome{
		OK:        false,
		Error:     err.Error(),
		ErrorKind: string(statserr.KindOf(err)),
	}
}

// Validate checks the top-level batch input. A malformed batch fails as a
// whole before any item executes.
func Validate(items []Item) error {
	if items == nil {
		return fmt.Errorf("batch.Validate: batch must be a non-nil array of items")
	}
	for i, item := range items {
		if item.Op == "" {
			return fmt.Errorf("batch.Validate: item %d has no operation name", i)
		}
	}
	return nil
}
