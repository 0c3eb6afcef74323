package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/statserr"
	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tools"
)

func testRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register("echo", func(ctx context.Context, args map[string]any) (any, error) {
		return args["v"], nil
	})
	r.Register("fail", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, statserr.New(statserr.KindInvalidArgument, "bad filter")
	})
	r.Register("boom", func(ctx context.Context, args map[string]any) (any, error) {
		panic("unexpected nil row")
	})
	r.Register("slow", func(ctx context.Context, args map[string]any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "done", nil
		}
	})
	return r
}

func TestRun_OrderingLaw(t *testing.T) {
	// Even indices succeed, odd indices fail: output must be same-length,
	// same-order, with ok exactly at the even positions.
	d := New(testRegistry(), 4, time.Second)
	var items []Item
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			items = append(items, Item{Op: "echo", Args: map[string]any{"v": fmt.Sprintf("v%d", i)}})
		} else {
			items = append(items, Item{Op: "fail"})
		}
	}

	out := d.Run(context.Background(), items)
	require.Len(t, out, 10)
	for i, o := range out {
		if i%2 == 0 {
			assert.True(t, o.OK, "index %d", i)
			assert.Equal(t, fmt.Sprintf("v%d", i), o.Result)
		} else {
			assert.False(t, o.OK, "index %d", i)
			assert.Equal(t, string(statserr.KindInvalidArgument), o.ErrorKind)
		}
	}
}

func TestRun_IsolationLaw(t *testing.T) {
	// A panicking item must not prevent siblings from completing.
	d := New(testRegistry(), 8, time.Second)
	out := d.Run(context.Background(), []Item{
		{Op: "echo", Args: map[string]any{"v": "a"}},
		{Op: "boom"},
		{Op: "echo", Args: map[string]any{"v": "b"}},
	})
	require.Len(t, out, 3)
	assert.True(t, out[0].OK)
	assert.False(t, out[1].OK)
	assert.Contains(t, out[1].Error, "panicked")
	assert.True(t, out[2].OK)
	assert.Equal(t, "b", out[2].Result)
}

func TestRun_UnknownOperation(t *testing.T) {
	d := New(testRegistry(), 8, time.Second)
	out := d.Run(context.Background(), []Item{
		{Op: "echo", Args: map[string]any{"v": "x"}},
		{Op: "unknown_tool", Args: map[string]any{}},
	})
	require.Len(t, out, 2)
	assert.True(t, out[0].OK)
	assert.False(t, out[1].OK)
	assert.Equal(t, "unknown operation: unknown_tool", out[1].Error)
	assert.Equal(t, "UnknownOperation", out[1].ErrorKind)
}

func TestRun_TimeoutKind(t *testing.T) {
	d := New(testRegistry(), 8, 50*time.Millisecond)
	out := d.Run(context.Background(), []Item{
		{Op: "slow"},
		{Op: "echo", Args: map[string]any{"v": "fast"}},
	})
	require.Len(t, out, 2)
	assert.False(t, out[0].OK)
	assert.Equal(t, string(statserr.KindTimeout), out[0].ErrorKind,
		"a timed-out item is a timeout, not a provider error")
	assert.True(t, out[1].OK)
}

func TestRun_ConcurrencyBound(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex
	r := tools.NewRegistry()
	r.Register("track", func(ctx context.Context, args map[string]any) (any, error) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil, nil
	})

	d := New(r, 3, time.Second)
	items := make([]Item, 12)
	for i := range items {
		items[i] = Item{Op: "track"}
	}
	d.Run(context.Background(), items)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(3))
	assert.Greater(t, peak, int64(0))
}

func TestRun_EmptyBatch(t *testing.T) {
	d := New(testRegistry(), 8, time.Second)
	out := d.Run(context.Background(), []Item{})
	assert.Len(t, out, 0)
}

func TestRun_HandlerErrorKinds(t *testing.T) {
	r := tools.NewRegistry()
	r.Register("plain", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("socket closed")
	})
	d := New(r, 8, time.Second)
	out := d.Run(context.Background(), []Item{{Op: "plain"}})
	require.Len(t, out, 1)
	// Unclassified handler errors default to the provider kind.
	assert.Equal(t, string(statserr.KindProvider), out[0].ErrorKind)
	assert.Equal(t, "socket closed", out[0].Error)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate([]Item{{Op: ""}}))
	assert.NoError(t, Validate([]Item{}))
	assert.NoError(t, Validate([]Item{{Op: "echo"}}))
}

func TestDefaults(t *testing.T) {
	d := New(testRegistry(), 0, 0)
	assert.Equal(t, DefaultMaxConcurrency, d.maxParallel)
	assert.Equal(t, DefaultItemTimeout, d.itemTimeout)
}
