package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/util"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrCircuitOpen is wrapped into the error returned while generation is suspended.
var ErrCircuitOpen = errors.New("text generation suspended after repeated failures")

type ModelManager struct {
	primary        TextProvider
	fallback       TextProvider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	Primary        string
	EnableFallback bool
	OpenAI         OpenAIConfig
	Gemini         GeminiConfig
	HTTPClient     *http.Client
}

// GenerateResult describes which provider produced the text.
type GenerateResult struct {
	Text         string
	Provider     string
	Model        string
	UsedFallback bool
}

// NewModelManager builds providers for every configured key. With no key at
// all the manager is still usable but Generate returns a ConfigError.
func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	if cfg.HTTPClient != nil {
		if cfg.OpenAI.HTTPClient == nil {
			cfg.OpenAI.HTTPClient = cfg.HTTPClient
		}
		if cfg.Gemini.HTTPClient == nil {
			cfg.Gemini.HTTPClient = cfg.HTTPClient
		}
	}

	var openaiProvider, geminiProvider TextProvider
	if p := NewOpenAIProvider(cfg.OpenAI, logger); p != nil {
		openaiProvider = p
	}
	g, err := NewGeminiProvider(ctx, cfg.Gemini, logger)
	if err != nil {
		return nil, err
	}
	if g != nil {
		geminiProvider = g
	}

	primary, secondary := openaiProvider, geminiProvider
	if cfg.Primary == "gemini" {
		primary, secondary = geminiProvider, openaiProvider
	}
	if primary == nil {
		primary, secondary = secondary, nil
	}

	var fallback TextProvider
	if cfg.EnableFallback && secondary != nil {
		fallback = secondary
	}

	switch {
	case primary == nil:
		logger.Warn("No text provider configured, persona generation disabled")
	case fallback != nil:
		logger.Info("Text providers ready",
			zap.String("primary", primary.Name()),
			zap.String("fallback", fallback.Name()),
		)
	default:
		logger.Info("Text provider ready", zap.String("primary", primary.Name()))
	}

	return NewModelManagerWithProviders(primary, fallback, logger), nil
}

// NewModelManagerWithProviders wires explicit providers; either may be nil.
func NewModelManagerWithProviders(primary, fallback TextProvider, logger *zap.Logger) *ModelManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(util.CircuitBreakerOptions{
		Name:                "text-generation",
		FailureThreshold:    constants.CircuitBreakerConfig.FailureThreshold,
		ResetTimeout:        constants.CircuitBreakerConfig.ResetTimeout,
		HealthCheckInterval: constants.CircuitBreakerConfig.HealthCheckInterval,
		HealthCheck:         mm.healthCheckPing,
	}, logger)
	return mm
}

// Configured reports whether any provider is available.
func (mm *ModelManager) Configured() bool {
	return mm.primary != nil
}

func (mm *ModelManager) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if mm.primary == nil {
		return nil, apperrors.NewConfigError("no text provider configured", "OPENAI_API_KEY")
	}

	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.Status()
		mm.logger.Warn("Text generation unavailable (circuit open)",
			zap.Int("failure_count", status.FailureCount),
		)
		return nil, apperrors.NewServiceError("text generation unavailable", "ai", "generate", ErrCircuitOpen)
	}

	primaryResult, primaryErr := mm.primary.Generate(ctx, req)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return &GenerateResult{
			Text:     primaryResult.Text,
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if mm.fallback != nil {
		mm.logger.Info("Primary text provider failed, trying fallback",
			zap.String("primary", mm.primary.Name()),
			zap.Error(primaryErr),
		)
		fallbackResult, fallbackErr := mm.fallback.Generate(ctx, req)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return &GenerateResult{
				Text:         fallbackResult.Text,
				Provider:     mm.fallback.Name(),
				Model:        fallbackResult.Model,
				UsedFallback: true,
			}, nil
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		return nil, apperrors.NewServiceError("text generation failed", "ai", "generate",
			fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr))
	}

	mm.recordFailure(primaryErr)
	return nil, apperrors.NewServiceError("text generation failed", "ai", "generate", primaryErr)
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	healthy := false
	for _, p := range []TextProvider{mm.primary, mm.fallback} {
		if p != nil && p.Ping(ctx) {
			healthy = true
			break
		}
	}

	mm.logger.Info("Health Check: text providers", zap.Bool("healthy", healthy))
	return healthy
}

// Name identifies the text generation breaker in health reports.
func (mm *ModelManager) Name() string {
	return "text-generation"
}

func (mm *ModelManager) IsCircuitOpen() bool {
	return !mm.circuitBreaker.CanExecute()
}

func (mm *ModelManager) BreakerStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.Status()
}

// statusCode extracts the upstream HTTP status from SDK errors, or 0.
func statusCode(err error) int {
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return oaErr.StatusCode
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		return gErrPtr.Code
	}
	return 0
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrProviderReported) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	code := statusCode(err)
	if code == http.StatusTooManyRequests || code >= 500 {
		return true
	}
	return code == 0 && strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota")
}
