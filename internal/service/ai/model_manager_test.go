package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kapu/sevenlist-go/internal/util"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
	last  GenerateRequest
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req GenerateRequest) (ProviderResult, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.text, Model: f.name + "-model"}, nil
}

func (f *fakeProvider) Ping(context.Context) bool { return f.err == nil }

func TestModelManager_Primary(t *testing.T) {
	primary := &fakeProvider{name: "OpenAI", text: "olá"}
	fallback := &fakeProvider{name: "Gemini", text: "oi"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	req := GenerateRequest{System: "s", Prompt: "p", Temperature: 0.85, MaxOutputTokens: 250}
	res, err := mm.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "olá", res.Text)
	assert.Equal(t, "OpenAI", res.Provider)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, req, primary.last)
	assert.Equal(t, 0, fallback.calls)
}

func TestModelManager_Fallback(t *testing.T) {
	primary := &fakeProvider{name: "OpenAI", err: ErrEmptyResponse}
	fallback := &fakeProvider{name: "Gemini", text: "oi"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	res, err := mm.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Gemini", res.Provider)
	assert.True(t, res.UsedFallback)
}

func TestModelManager_NotConfigured(t *testing.T) {
	mm := NewModelManagerWithProviders(nil, nil, zap.NewNop())

	assert.False(t, mm.Configured())
	_, err := mm.Generate(context.Background(), GenerateRequest{Prompt: "p"})

	var cfgErr *apperrors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestModelManager_CircuitOpensOnServiceFailures(t *testing.T) {
	primary := &fakeProvider{name: "OpenAI", err: fmt.Errorf("wrapped: %w", ErrProviderReported)}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := mm.Generate(context.Background(), GenerateRequest{Prompt: "p"})
		require.Error(t, err)
	}
	assert.Equal(t, 3, primary.calls)

	_, err := mm.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, primary.calls)

	assert.True(t, mm.IsCircuitOpen())
	assert.Equal(t, util.CircuitStateOpen, mm.BreakerStatus().State)

	mm.circuitBreaker = util.NewCircuitBreaker(util.CircuitBreakerOptions{
		Name:             "text-generation",
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	}, zap.NewNop())
	primary.err = nil
	primary.text = "voltou"
	res, err := mm.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "voltou", res.Text)
}

func TestModelManager_ClientErrorsDoNotTripCircuit(t *testing.T) {
	primary := &fakeProvider{name: "OpenAI", err: errors.New("400 bad request")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := mm.Generate(context.Background(), GenerateRequest{Prompt: "p"})
		var svcErr *apperrors.ServiceError
		require.True(t, errors.As(err, &svcErr))
	}
	assert.Equal(t, 5, primary.calls)
}

func TestNewModelManager_PicksPrimaryByConfig(t *testing.T) {
	mm, err := NewModelManager(context.Background(), ModelManagerConfig{
		Primary:        "gemini",
		EnableFallback: true,
		OpenAI:         OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"},
	}, zap.NewNop())
	require.NoError(t, err)

	require.True(t, mm.Configured())
	assert.Equal(t, "OpenAI", mm.primary.Name())
	assert.Nil(t, mm.fallback)
}

func TestNewModelManager_NoKeys(t *testing.T) {
	mm, err := NewModelManager(context.Background(), ModelManagerConfig{Primary: "openai"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mm.Configured())
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("Rate limit reached")))
	assert.True(t, isRateLimitError(errors.New("quota exceeded")))
	assert.False(t, isRateLimitError(errors.New("bad request")))
}
