package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chatCompletionJSON = `{
	"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o-mini",
	"choices":[{"index":0,"finish_reason":"stop","logprobs":null,
		"message":{"role":"assistant","content":"Você é um viajante do tempo 🚀🌌📚","refusal":null}}],
	"usage":{"prompt_tokens":10,"completion_tokens":20,"total_tokens":30}
}`

func newOpenAITestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:     "sk-test",
		Model:      "gpt-4o-mini",
		BaseURL:    srv.URL + "/v1/",
		HTTPClient: srv.Client(),
	}, zap.NewNop())
}

func TestOpenAIProvider_Generate(t *testing.T) {
	p := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.InDelta(t, 0.85, body.Temperature, 1e-9)
		assert.Equal(t, 250, body.MaxTokens)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "sys", body.Messages[0].Content)
			assert.Equal(t, "user", body.Messages[1].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON)
	})

	res, err := p.Generate(context.Background(), GenerateRequest{
		System: "sys", Prompt: "prompt", Temperature: 0.85, MaxOutputTokens: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, "Você é um viajante do tempo 🚀🌌📚", res.Text)
	assert.Equal(t, "gpt-4o-mini", res.Model)
}

func TestOpenAIProvider_ErrorFieldInSuccessBody(t *testing.T) {
	p := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error":{"message":"model overloaded","type":"server_error"}}`)
	})

	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.True(t, errors.Is(err, ErrProviderReported))
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	p := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)
	})

	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestOpenAIProvider_HTTPErrorStatus(t *testing.T) {
	p := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid key","type":"invalid_request_error"}}`)
	})

	_, err := p.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusCode(err))
	assert.False(t, isServiceFailure(err))
}

func TestNewOpenAIProvider_NoKey(t *testing.T) {
	assert.Nil(t, NewOpenAIProvider(OpenAIConfig{}, zap.NewNop()))
}

func TestExtractTextFromGeminiResponse_Nil(t *testing.T) {
	assert.Equal(t, "", extractTextFromGeminiResponse(nil))
}
