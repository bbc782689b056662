package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/campo-8bit/config"
	"github.com/user/campo-8bit/internal/types"
)

func testConfig(baseURL string) config.CompletionConfig {
	return config.CompletionConfig{
		BaseURL:           baseURL,
		Model:             "deepseek-chat",
		MaxTokens:         1024,
		TimeoutSeconds:    5,
		RequestsPerMinute: 600,
	}
}

func chatReply(content string) string {
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20},
	}
	data, _ := json.Marshal(reply)
	return string(data)
}

func testMessages() []types.ChatMessage {
	return []types.ChatMessage{
		{Role: "system", Content: "narrador"},
		{Role: "user", Content: "narre o treino"},
	}
}

func TestComplete(t *testing.T) {
	// Setup: capture what the client sends
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(chatReply(`{"narrative": "ok"}`)))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), "chave-secreta", nil)

	out, err := client.Complete(context.Background(), testMessages(), types.CompletionOptions{
		Temperature: 0.85,
		MaxTokens:   512,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"narrative": "ok"}`, out.Content)

	// The request follows the OpenAI chat shape
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer chave-secreta", gotAuth)
	assert.Equal(t, "deepseek-chat", gotBody["model"])
	assert.Equal(t, 0.85, gotBody["temperature"])
	assert.Equal(t, float64(512), gotBody["max_tokens"])
	assert.Len(t, gotBody["messages"], 2)
}

func TestCompleteStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("```json\n{\"narrative\": \"ok\"}\n```")))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), "k", nil)

	out, err := client.Complete(context.Background(), testMessages(), types.CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"narrative": "ok"}`, out.Content)
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), "k", nil)

	_, err := client.Complete(context.Background(), testMessages(), types.CompletionOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), "k", nil)

	_, err := client.Complete(context.Background(), testMessages(), types.CompletionOptions{})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestCompleteContextCancelled(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0"), "k", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, testMessages(), types.CompletionOptions{})
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripCodeFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripCodeFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripCodeFences(`{"a": 1}`))
	assert.Equal(t, "", stripCodeFences("```json```"))
}
