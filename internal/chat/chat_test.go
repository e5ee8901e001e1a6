package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/codementorx/internal/config"
)

func testConfig(baseURL string) config.ChatConfig {
	return config.ChatConfig{
		APIKey:       "sk-test",
		BaseURL:      baseURL,
		Model:        "deepseek/deepseek-r1",
		Referer:      "http://localhost:5173",
		Title:        "CODEMENTORX",
		Timeout:      2 * time.Second,
		HistoryLimit: 10,
	}
}

func TestBuildMessages_KeepsLastTurns(t *testing.T) {
	var hist []Message
	for i := 0; i < 12; i++ {
		hist = append(hist, Message{Role: "user", Content: fmt.Sprint(i)})
	}
	msgs := BuildMessages(Request{Message: "now", History: hist}, 10)

	require.Len(t, msgs, 12)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, SystemPrompt, msgs[0].Content)
	assert.Equal(t, "2", msgs[1].Content)
	assert.Equal(t, "11", msgs[10].Content)
	assert.Equal(t, Message{Role: "user", Content: "now"}, msgs[11])

	assert.Len(t, BuildMessages(Request{Message: "x", History: hist}, 0), 2)
}

func TestModes(t *testing.T) {
	ids := []string{}
	for _, m := range Modes() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"planning", "coding", "debugging", "review"}, ids)
}

func TestComplete_SendsRequest(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost:5173", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "CODEMENTORX", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"use a map"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(testConfig(srv.URL+"/"), nil)
	reply, err := c.Complete(context.Background(), Request{
		Message: "how do I dedupe?",
		History: []Message{{Role: "assistant", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "use a map", reply)

	assert.Equal(t, "deepseek/deepseek-r1", got.Model)
	assert.Equal(t, MaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.InDelta(t, 0.9, got.TopP, 1e-9)
	assert.InDelta(t, 0.1, got.FrequencyPenalty, 1e-9)
	assert.InDelta(t, 0.1, got.PresencePenalty, 1e-9)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "how do I dedupe?", got.Messages[2].Content)
}

func TestComplete_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.APIKey = ""
		_, err := NewOpenRouterClient(cfg, nil).Complete(context.Background(), Request{Message: "x"})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("upstream status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`quota`))
		}))
		defer srv.Close()
		_, err := NewOpenRouterClient(testConfig(srv.URL), nil).Complete(context.Background(), Request{Message: "x"})
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, http.StatusTooManyRequests, ue.Status)
		assert.Equal(t, "AI service error: quota", ue.Error())
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()
		_, err := NewOpenRouterClient(testConfig(srv.URL), nil).Complete(context.Background(), Request{Message: "x"})
		assert.ErrorIs(t, err, ErrNoChoices)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)
		cfg := testConfig(srv.URL)
		cfg.Timeout = 50 * time.Millisecond
		_, err := NewOpenRouterClient(cfg, nil).Complete(context.Background(), Request{Message: "x"})
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()
		_, err := NewOpenRouterClient(testConfig(url), nil).Complete(context.Background(), Request{Message: "x"})
		assert.ErrorIs(t, err, ErrNetwork)
	})
}
