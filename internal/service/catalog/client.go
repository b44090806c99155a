package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/util"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

// Requester is the shared HTTP path for catalog upstreams: per-request
// timeout, bounded retry with backoff on retryable failures, and a circuit
// breaker per upstream.
type Requester struct {
	name        string
	httpClient  *http.Client
	breaker     *util.CircuitBreaker
	logger      *zap.Logger
	maxAttempts int
	baseDelay   time.Duration
	jitter      time.Duration
	userAgent   string
}

type RequesterOption func(*Requester)

// WithMaxAttempts sets the total attempt budget (1 disables retry).
func WithMaxAttempts(n int) RequesterOption {
	return func(r *Requester) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithUserAgent sets a User-Agent on every request.
func WithUserAgent(ua string) RequesterOption {
	return func(r *Requester) {
		r.userAgent = ua
	}
}


func NewRequester(name string, httpClient *http.Client, logger *zap.Logger, opts ...RequesterOption) *Requester {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.APIConfig.CatalogTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Requester{
		name:        name,
		httpClient:  httpClient,
		logger:      logger.With(zap.String("upstream", name)),
		maxAttempts: constants.RetryConfig.MaxAttempts,
		baseDelay:   constants.RetryConfig.BaseDelay,
		jitter:      constants.RetryConfig.Jitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.breaker == nil {
		r.breaker = util.NewCircuitBreaker(util.CircuitBreakerOptions{
			Name:             name,
			FailureThreshold: constants.CircuitBreakerConfig.FailureThreshold,
			ResetTimeout:     constants.CircuitBreakerConfig.ResetTimeout,
		}, logger)
	}
	return r
}

func (r *Requester) Name() string {
	return r.name
}

func (r *Requester) IsCircuitOpen() bool {
	return !r.breaker.CanExecute()
}

func (r *Requester) BreakerStatus() util.CircuitBreakerStatus {
	return r.breaker.Status()
}

// Call runs fn under the breaker and retry policy. fn should return an
// *errors.APIError for upstream HTTP failures so retryability can be judged.
func (r *Requester) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.breaker.CanExecute() {
		r.logger.Warn("Circuit breaker is open")
		return apperrors.NewAPIError("circuit breaker open", 503, map[string]any{
			"upstream": r.name,
		})
	}

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			r.breaker.RecordSuccess()
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isRetryable(err) {
			return err
		}

		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			r.breaker.RecordFailure(constants.CircuitBreakerConfig.RateLimitTimeout)
			return err
		}
		r.breaker.RecordFailure(0)

		if attempt == r.maxAttempts-1 || !r.breaker.CanExecute() {
			break
		}

		delay := r.computeDelay(attempt)
		r.logger.Debug("Request failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// Get issues a GET and returns the body of a 2xx response.
func (r *Requester) Get(ctx context.Context, rawURL string, params url.Values, header http.Header) ([]byte, error) {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body []byte
	err := r.Call(ctx, func(ctx context.Context) error {
		b, err := r.do(ctx, http.MethodGet, reqURL, header)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (r *Requester) do(ctx context.Context, method, reqURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", r.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewAPIError(r.name+" request failed", 0, nil).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewAPIError(r.name+" read failed", 0, nil).WithCause(err)
	}

	if resp.StatusCode >= 400 {
		return nil, apperrors.NewAPIError(fmt.Sprintf("%s responded %d", r.name, resp.StatusCode), resp.StatusCode, map[string]any{
			"body": util.TruncateString(string(body), 200),
		})
	}

	return body, nil
}

func (r *Requester) computeDelay(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if r.jitter <= 0 {
		return base
	}
	return base + time.Duration(rand.Float64()*float64(r.jitter))
}

func isRetryable(err error) bool {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
