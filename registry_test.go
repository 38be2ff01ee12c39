package toolflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return []byte(s) }

type doubleArgs struct {
	X int `json:"x"`
}

type doubleOut struct {
	Y int `json:"y"`
}

func newDoubleTool(t *testing.T, name string) Tool {
	t.Helper()
	tool, err := NewTool(name, "Double x", func(_ context.Context, a doubleArgs) (doubleOut, error) {
		return doubleOut{Y: a.X * 2}, nil
	})
	require.NoError(t, err)
	return tool
}

func TestRegistry_Register_Execute(t *testing.T) {
	reg := NewRegistry(WithDefaultTimeout(time.Second), WithRecoverPanics(true))
	require.NoError(t, reg.Register(newDoubleTool(t, "double")))
	all := reg.GetAllTools()
	require.Len(t, all, 1)
	res := reg.Execute(context.Background(), ToolCall{
		ID: "1", ToolName: "double", Args: raw(`{"x": 7}`),
	})
	require.NoError(t, res.Error)
	assert.Equal(t, "1", res.CallID)
	assert.Equal(t, "double", res.ToolName)
	var out doubleOut
	require.NoError(t, json.Unmarshal([]byte(res.Content), &out))
	assert.Equal(t, 14, out.Y)
}

func TestRegistry_GetTool(t *testing.T) {
	tool := newDoubleTool(t, "double")
	reg := NewRegistry()
	require.NoError(t, reg.Register(tool))
	got, ok := reg.GetTool("double")
	require.True(t, ok)
	require.Same(t, tool, got)
	_, ok = reg.GetTool("missing")
	require.False(t, ok)
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	reg, err := NewRegistryWith([]Tool{
		newDoubleTool(t, "zeta"),
		newDoubleTool(t, "alpha"),
		newDoubleTool(t, "mid"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, reg.Names())
	all := reg.GetAllTools()
	require.Len(t, all, 3)
	assert.Equal(t, "zeta", all[0].Name())
	assert.Equal(t, "mid", all[2].Name())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newDoubleTool(t, "same")))
	err := reg.Register(newDoubleTool(t, "same"))
	require.ErrorIs(t, err, ErrDuplicateTool)
	assert.Contains(t, err.Error(), "same")
	assert.Equal(t, []string{"same"}, reg.Names())

	_, err = NewRegistryWith([]Tool{newDoubleTool(t, "a"), newDoubleTool(t, "a")})
	require.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegistry_Register_Invalid(t *testing.T) {
	reg := NewRegistry()
	require.Error(t, reg.Register(nil))
	require.Error(t, reg.Register(minTool{}))
}

func TestRegistry_Execute_ToolNotFound(t *testing.T) {
	reg := NewRegistry()
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "missing", Args: raw("{}")})
	require.Error(t, res.Error)
	assert.ErrorIs(t, res.Error, ErrToolNotFound)
	assert.Equal(t, "Error: Tool missing not found", res.Content)
}

func TestRegistry_Execute_HandlerError(t *testing.T) {
	tool, err := NewTool("fail", "Fails", func(_ context.Context, _ doubleArgs) (string, error) {
		return "", errors.New("disk on fire")
	})
	require.NoError(t, err)
	reg := NewRegistry()
	require.NoError(t, reg.Register(tool))
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "fail", Args: raw(`{"x":1}`)})
	require.Error(t, res.Error)
	assert.Equal(t, "Error executing tool: disk on fire", res.Content)
}

func TestRegistry_Execute_InvalidArgs(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newDoubleTool(t, "double")))
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "double", Args: raw(`{"x":"seven"}`)})
	require.Error(t, res.Error)
	assert.True(t, IsClientError(res.Error))
	assert.Contains(t, res.Content, "Error executing tool: invalid tool input:")
}

func TestRegistry_Execute_PanicRecovery(t *testing.T) {
	tool, err := NewTool("panic", "Panics", func(_ context.Context, _ doubleArgs) (string, error) {
		panic("oops")
	})
	require.NoError(t, err)
	reg := NewRegistry(WithRecoverPanics(true))
	require.NoError(t, reg.Register(tool))
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "panic", Args: raw(`{"x": 1}`)})
	require.Error(t, res.Error)
	var se *SystemError
	require.ErrorAs(t, res.Error, &se)
	assert.Equal(t, "Error executing tool: internal system error during tool execution", res.Content)
}

func TestRegistry_Execute_Timeout(t *testing.T) {
	tool, err := NewTool("slow", "Slow", func(ctx context.Context, _ struct{}) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	reg := NewRegistry()
	require.NoError(t, reg.Register(tool))
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "slow", Args: raw(`{}`)})
	require.ErrorIs(t, res.Error, ErrTimeout)
	assert.Contains(t, res.Content, "Error executing tool: tool execution timeout")
}

func TestRegistry_Execute_DefaultTimeoutBoundsTimeoutMiddleware(t *testing.T) {
	tool, err := NewTool("sleepy", "Sleepy", func(ctx context.Context, _ struct{}) (string, error) {
		select {
		case <-time.After(300 * time.Millisecond):
			return "finished", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	require.NoError(t, err)
	reg, err := NewRegistryWith([]Tool{tool},
		WithDefaultTimeout(50*time.Millisecond), WithMiddleware(WithTimeoutMiddleware(time.Second)))
	require.NoError(t, err)

	start := time.Now()
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "sleepy", Args: raw(`{}`)})
	require.ErrorIs(t, res.Error, ErrTimeout)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.NotEqual(t, "finished", res.Content)
}

func TestRegistry_Execute_TimeoutMiddlewareTighterThanDefault(t *testing.T) {
	tool, err := NewTool("sleepy", "Sleepy", func(ctx context.Context, _ struct{}) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.NoError(t, err)
	reg, err := NewRegistryWith([]Tool{tool},
		WithDefaultTimeout(time.Second), WithMiddleware(WithTimeoutMiddleware(20*time.Millisecond)))
	require.NoError(t, err)

	start := time.Now()
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "sleepy", Args: raw(`{}`)})
	require.ErrorIs(t, res.Error, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRegistry_ExecuteBatch_PartialSuccess(t *testing.T) {
	reg := NewRegistry(WithDefaultTimeout(time.Second))
	require.NoError(t, reg.Register(newDoubleTool(t, "double")))
	calls := []ToolCall{
		{ID: "1", ToolName: "double", Args: raw(`{"x": 1}`)},
		{ID: "2", ToolName: "missing", Args: raw("{}")},
		{ID: "3", ToolName: "double", Args: raw(`{"x": 3}`)},
	}
	results := reg.ExecuteBatch(context.Background(), calls)
	require.Len(t, results, 3)
	require.NoError(t, results[0].Error)
	require.ErrorIs(t, results[1].Error, ErrToolNotFound)
	require.NoError(t, results[2].Error)
	for i, call := range calls {
		assert.Equal(t, call.ID, results[i].CallID)
	}
	assert.JSONEq(t, `{"y":6}`, results[2].Content)
}

func TestRegistry_ExecuteBatch_PositionalUnderReorderedLatency(t *testing.T) {
	type sleepArgs struct {
		Ms int `json:"ms"`
	}
	var finished []string
	finishedCh := make(chan string, 3)
	tool, err := NewTool("sleep", "Sleeps", func(ctx context.Context, a sleepArgs) (string, error) {
		select {
		case <-time.After(time.Duration(a.Ms) * time.Millisecond):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return "slept", nil
	})
	require.NoError(t, err)
	reg := NewRegistry(WithOnAfterExecute(func(_ context.Context, call ToolCall, _ ToolResult, _ time.Duration) {
		finishedCh <- call.ID
	}))
	require.NoError(t, reg.Register(tool))
	results := reg.ExecuteBatch(context.Background(), []ToolCall{
		{ID: "slow", ToolName: "sleep", Args: raw(`{"ms": 80}`)},
		{ID: "mid", ToolName: "sleep", Args: raw(`{"ms": 40}`)},
		{ID: "fast", ToolName: "sleep", Args: raw(`{"ms": 0}`)},
	})
	close(finishedCh)
	for id := range finishedCh {
		finished = append(finished, id)
	}
	require.Len(t, results, 3)
	assert.Equal(t, "slow", results[0].CallID)
	assert.Equal(t, "mid", results[1].CallID)
	assert.Equal(t, "fast", results[2].CallID)
	assert.Equal(t, "fast", finished[0], "completion order differs from request order")
}

func TestRegistry_Shutdown(t *testing.T) {
	reg := NewRegistry()
	nop, err := NewTool("nop", "nop", func(_ context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(nop))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = reg.Shutdown(ctx)
	require.NoError(t, err)
	res := reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "nop", Args: raw("{}")})
	assert.ErrorIs(t, res.Error, ErrShutdown)
	assert.Equal(t, "Error executing tool: registry is shutting down", res.Content)
}

func TestRegistry_Shutdown_InFlight(t *testing.T) {
	started := make(chan struct{})
	done := make(chan struct{})
	tool, err := NewTool("slow", "Slow", func(_ context.Context, _ doubleArgs) (string, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(done)
		return "", nil
	})
	require.NoError(t, err)
	reg := NewRegistry(WithDefaultTimeout(5 * time.Second))
	require.NoError(t, reg.Register(tool))
	go reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "slow", Args: raw(`{"x":1}`)})
	<-started
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = reg.Shutdown(ctx)
	require.NoError(t, err)
	select {
	case <-done:
	default:
		t.Fatal("in-flight execution should have completed before Shutdown returned")
	}
}

func TestRegistry_Execute_CancelledContext(t *testing.T) {
	reg := NewRegistry(WithDefaultTimeout(time.Second))
	require.NoError(t, reg.Register(newDoubleTool(t, "double")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := reg.Execute(ctx, ToolCall{ID: "1", ToolName: "double", Args: raw(`{"x": 1}`)})
	require.ErrorIs(t, res.Error, context.Canceled)
	assert.Equal(t, "Error executing tool: context canceled", res.Content)
}

func TestRegistry_MaxConcurrency(t *testing.T) {
	var running int32
	started := make(chan struct{}, 1)
	tool, err := NewTool("slow", "Slow", func(ctx context.Context, _ doubleArgs) (string, error) {
		atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(100 * time.Millisecond):
			return "", nil
		}
	})
	require.NoError(t, err)
	reg := NewRegistry(WithMaxConcurrency(1), WithDefaultTimeout(time.Second))
	require.NoError(t, reg.Register(tool))
	ctx := context.Background()
	first := make(chan ToolResult, 1)
	go func() {
		first <- reg.Execute(ctx, ToolCall{ID: "1", ToolName: "slow", Args: raw(`{"x": 1}`)})
	}()
	<-started
	assert.Equal(t, int32(1), atomic.LoadInt32(&running))
	res2 := reg.Execute(ctx, ToolCall{ID: "2", ToolName: "slow", Args: raw(`{"x": 2}`)})
	require.NoError(t, res2.Error)
	require.NoError(t, (<-first).Error)
}

func TestRegistry_ObservabilityHooks(t *testing.T) {
	var beforeCalls, afterCalls int
	var lastCall ToolCall
	var lastResult ToolResult
	var lastDuration time.Duration
	reg := NewRegistry(
		WithOnBeforeExecute(func(_ context.Context, call ToolCall) {
			beforeCalls++
			lastCall = call
		}),
		WithOnAfterExecute(func(_ context.Context, _ ToolCall, result ToolResult, duration time.Duration) {
			afterCalls++
			lastResult = result
			lastDuration = duration
		}),
	)
	require.NoError(t, reg.Register(newDoubleTool(t, "double")))
	res := reg.Execute(context.Background(), ToolCall{ID: "h1", ToolName: "double", Args: raw(`{"x": 10}`)})
	require.NoError(t, res.Error)
	assert.Equal(t, 1, beforeCalls)
	assert.Equal(t, 1, afterCalls)
	assert.Equal(t, "h1", lastCall.ID)
	assert.Equal(t, "double", lastCall.ToolName)
	assert.Equal(t, "h1", lastResult.CallID)
	assert.JSONEq(t, `{"y":20}`, lastResult.Content)
	assert.GreaterOrEqual(t, lastDuration, time.Duration(0))
}

func TestRegistry_ExecuteBatch_Empty(t *testing.T) {
	reg := NewRegistry()
	results := reg.ExecuteBatch(context.Background(), nil)
	assert.Empty(t, results)
	results = reg.ExecuteBatch(context.Background(), []ToolCall{})
	assert.Empty(t, results)
}

func TestRegistry_Shutdown_Idempotent(t *testing.T) {
	reg := NewRegistry()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reg.Shutdown(ctx))
	require.NoError(t, reg.Shutdown(ctx))
}

func TestRegistry_MaxConcurrency_Unlimited(t *testing.T) {
	tool := newDoubleTool(t, "double")
	for _, n := range []int{0, -1} {
		name := "Zero"
		if n < 0 {
			name = "Negative"
		}
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry(WithMaxConcurrency(n), WithDefaultTimeout(time.Second))
			require.NoError(t, reg.Register(tool))
			results := reg.ExecuteBatch(context.Background(), []ToolCall{
				{ID: "1", ToolName: "double", Args: raw(`{"x": 1}`)},
				{ID: "2", ToolName: "double", Args: raw(`{"x": 2}`)},
			})
			require.Len(t, results, 2)
			require.NoError(t, results[0].Error)
			require.NoError(t, results[1].Error)
		})
	}
}

func TestRegistry_OnAfter_ErrorPath(t *testing.T) {
	errSentinel := errors.New("tool error")
	tool, err := NewTool("fail", "Fails", func(_ context.Context, _ doubleArgs) (string, error) {
		return "", errSentinel
	})
	require.NoError(t, err)
	var afterCalls int
	var lastResult ToolResult
	reg := NewRegistry(WithOnAfterExecute(func(_ context.Context, _ ToolCall, result ToolResult, _ time.Duration) {
		afterCalls++
		lastResult = result
	}))
	require.NoError(t, reg.Register(tool))
	res := reg.Execute(context.Background(), ToolCall{ID: "e1", ToolName: "fail", Args: raw(`{"x": 1}`)})
	require.ErrorIs(t, res.Error, errSentinel)
	assert.Equal(t, 1, afterCalls)
	assert.Equal(t, "e1", lastResult.CallID)
	assert.Equal(t, "fail", lastResult.ToolName)
	assert.ErrorIs(t, lastResult.Error, errSentinel)
	assert.Equal(t, "Error executing tool: tool error", lastResult.Content)
}

func TestRegistry_OnAfter_SeesRecoveredPanic(t *testing.T) {
	tool, err := NewTool("panic", "Panics", func(_ context.Context, _ struct{}) (string, error) {
		panic("kaboom")
	})
	require.NoError(t, err)
	var seen ToolResult
	reg := NewRegistry(WithOnAfterExecute(func(_ context.Context, _ ToolCall, result ToolResult, _ time.Duration) {
		seen = result
	}))
	require.NoError(t, reg.Register(tool))
	reg.Execute(context.Background(), ToolCall{ID: "p", ToolName: "panic", Args: raw(`{}`)})
	assert.True(t, IsSystemError(seen.Error))
	assert.Contains(t, seen.Error.(*SystemError).Err.Error(), "kaboom")
}
