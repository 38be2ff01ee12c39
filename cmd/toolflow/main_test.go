package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolflow/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// fakeProvider answers chat-completions requests in-process through handler.
func fakeProvider(handler func(messages []map[string]any) map[string]any) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		var body struct {
			Messages []map[string]any `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		rec := httptest.NewRecorder()
		rec.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rec).Encode(handler(body.Messages))
		return rec.Result(), nil
	})
}

func reply(message map[string]any) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-cli",
		"object":  "chat.completion",
		"model":   "openai/gpt-3.5-turbo",
		"choices": []any{map[string]any{"index": 0, "message": message, "finish_reason": "stop"}},
	}
}

func textReply(text string) map[string]any {
	return reply(map[string]any{"role": "assistant", "content": text})
}

// contentText flattens a message content that is either a string or a list of parts.
func contentText(c any) string {
	if s, ok := c.(string); ok {
		return s
	}
	var out strings.Builder
	parts, _ := c.([]any)
	for _, p := range parts {
		if part, ok := p.(map[string]any); ok {
			if text, ok := part["text"].(string); ok {
				out.WriteString(text)
			}
		}
	}
	return out.String()
}

func isolate(t *testing.T, apiKey string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("OPENROUTER_API_KEY", apiKey)
	t.Setenv("TOOLFLOW_OPENROUTER_API_KEY", "")
	t.Setenv("TOOLFLOW_LOG_LEVEL", "error")
	return home
}

func execute(t *testing.T, transport http.RoundTripper, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), transport, args...)
}

func executeContext(t *testing.T, ctx context.Context, transport http.RoundTripper, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut, transport)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "toolflow "+version+"\n", out)
}

func TestTools(t *testing.T) {
	out, _, err := execute(t, nil, "tools")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "calculator"))
	assert.True(t, strings.HasPrefix(lines[1], "get_weather"))
	assert.True(t, strings.HasPrefix(lines[2], "string_operations"))
}

func TestRun_MissingAPIKey(t *testing.T) {
	isolate(t, "")
	_, _, err := execute(t, nil, "run", "hi")
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestRun_ToolRoundTrip(t *testing.T) {
	isolate(t, "test-key")
	transport := fakeProvider(func(msgs []map[string]any) map[string]any {
		last := msgs[len(msgs)-1]
		if last["role"] == "tool" {
			return textReply("The answer is 345.")
		}
		return reply(map[string]any{
			"role":    "assistant",
			"content": "",
			"tool_calls": []any{map[string]any{
				"id": "call_1", "type": "function",
				"function": map[string]any{"name": "calculator", "arguments": `{"operation":"multiply","a":15,"b":23}`},
			}},
		})
	})
	out, _, err := execute(t, transport, "run", "--parallel", "What is 15 multiplied by 23?")
	require.NoError(t, err)
	assert.Equal(t, "Answer: The answer is 345.\n", out)
}

func TestAsk(t *testing.T) {
	isolate(t, "test-key")
	var human string
	transport := fakeProvider(func(msgs []map[string]any) map[string]any {
		human = contentText(msgs[len(msgs)-1]["content"])
		return textReply("It is a framework.")
	})
	out, _, err := execute(t, transport, "ask", "--topic", "LangChain", "What is LangChain?")
	require.NoError(t, err)
	assert.Equal(t, "Response: It is a framework.\n", out)
	assert.Equal(t, "Topic: LangChain\n\nQuestion: What is LangChain?", human)
}

func TestDemo_Parallel(t *testing.T) {
	isolate(t, "test-key")
	var calls atomic.Int32
	transport := fakeProvider(func([]map[string]any) map[string]any {
		calls.Add(1)
		return textReply("ok")
	})
	out, _, err := execute(t, transport, "demo", "--parallel")
	require.NoError(t, err)
	assert.Contains(t, out, "Available tools: calculator, get_weather, string_operations")
	assert.Equal(t, len(parallelQuestions), strings.Count(out, "Answer: ok"))
	assert.Equal(t, int32(len(parallelQuestions)), calls.Load())
}

func TestDemo_ContinuesAfterError(t *testing.T) {
	isolate(t, "test-key")
	transport := roundTripFunc(func(*http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusInternalServerError)
		_, _ = rec.WriteString(`{"error":{"message":"upstream failure"}}`)
		return rec.Result(), nil
	})
	out, errOut, err := execute(t, transport, "demo")
	require.NoError(t, err)
	assert.Equal(t, len(toolQuestions), strings.Count(out, "Question: "))
	assert.Equal(t, len(toolQuestions), strings.Count(errOut, "Error: model generate"))
}

func TestDemo_StopsWhenCancelled(t *testing.T) {
	isolate(t, "test-key")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls atomic.Int32
	transport := fakeProvider(func([]map[string]any) map[string]any {
		calls.Add(1)
		cancel()
		return textReply("ok")
	})
	out, _, err := executeContext(t, ctx, transport, "demo")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, strings.Count(out, "Question: "))
	assert.Equal(t, int32(1), calls.Load())
}

func TestConfigFlag(t *testing.T) {
	home := isolate(t, "")
	_, _, err := execute(t, nil, "run", "--config", filepath.Join(home, "missing.yaml"), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	path := filepath.Join(home, "tf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openrouter:\n  api_key: from-file\n"), 0o600))
	transport := fakeProvider(func([]map[string]any) map[string]any { return textReply("hello") })
	out, _, err := execute(t, transport, "run", "--config", path, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Answer: hello\n", out)
}
