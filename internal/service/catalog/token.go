package catalog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// ExchangeFunc fetches a fresh access token from the authorization server.
type ExchangeFunc func(ctx context.Context) (*oauth2.Token, error)

// TokenCache holds one client-credentials access token and refreshes it
// only once the cached expiry has passed. Concurrent refreshes collapse
// into a single exchange.
type TokenCache struct {
	exchange ExchangeFunc
	skew     time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

type TokenCacheOption func(*TokenCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) { c.now = now }
}

func NewTokenCache(exchange ExchangeFunc, logger *zap.Logger, opts ...TokenCacheOption) *TokenCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &TokenCache{
		exchange: exchange,
		skew:     constants.TokenConfig.ExpirySkew,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientCredentialsConfig describes an OAuth2 client-credentials grant.
type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewClientCredentialsExchange builds an ExchangeFunc that posts
// grant_type=client_credentials with HTTP Basic client authentication.
func NewClientCredentialsExchange(cfg ClientCredentialsConfig, httpClient *http.Client) ExchangeFunc {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return func(context.Context) (*oauth2.Token, error) {
			return nil, errors.NewConfigError("client credentials are not configured", "SPOTIFY_CLIENT_ID")
		}
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return func(ctx context.Context) (*oauth2.Token, error) {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		tok, err := conf.Token(ctx)
		if err != nil {
			var status int
			if re, ok := err.(*oauth2.RetrieveError); ok && re.Response != nil {
				status = re.Response.StatusCode
			}
			return nil, errors.NewAPIError("token exchange failed", status, nil).WithCause(err)
		}
		return tok, nil
	}
}

// Token returns the cached access token, exchanging a new one when the
// cached one has expired.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan("token", func() (any, error) {
		// Another caller may have refreshed while this one waited.
		c.mu.Lock()
		if c.token != "" && c.now().Before(c.expiresAt) {
			tok := c.token
			c.mu.Unlock()
			return tok, nil
		}
		c.mu.Unlock()

		// Detached from the first caller's cancellation so waiters are not
		// failed by it.
		tok, err := c.exchange(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}

		issued := c.now()
		expiresAt := issued.Add(lifetime(tok, issued) - c.skew)

		c.mu.Lock()
		c.token = tok.AccessToken
		c.expiresAt = expiresAt
		c.mu.Unlock()

		c.logger.Debug("Access token refreshed", zap.Time("expires_at", expiresAt))
		return tok.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call exchanges again.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

func lifetime(tok *oauth2.Token, issued time.Time) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(issued)
	}
	return 0
}
