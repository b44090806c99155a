package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

type contextKey string

const contextKeyUserID contextKey = "user_id"

// UserIDFromContext returns the authenticated account id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKeyUserID).(string)
	return id, ok && id != ""
}

// NewAuthMiddleware accepts HS256 bearer tokens signed with secret whose
// subject is the account id. Failures answer 401 without detail.
func NewAuthMiddleware(secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	auth := newTokenAuthenticator(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.authenticate(extractBearer(r))
			if err != nil {
				logger.Debug("Rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type tokenAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

func newTokenAuthenticator(secret []byte) *tokenAuthenticator {
	return &tokenAuthenticator{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// authenticate returns the token subject or an *errors.AuthError.
func (a *tokenAuthenticator) authenticate(token string) (string, error) {
	if len(a.secret) == 0 {
		return "", apperrors.NewAuthError("auth secret not configured", nil)
	}
	if token == "" {
		return "", apperrors.NewAuthError("missing bearer token", nil)
	}

	claims := &jwt.RegisteredClaims{}
	keyFunc := func(*jwt.Token) (any, error) { return a.secret, nil }
	if _, err := a.parser.ParseWithClaims(token, claims, keyFunc); err != nil {
		return "", apperrors.NewAuthError("invalid bearer token", err)
	}
	if claims.Subject == "" {
		return "", apperrors.NewAuthError("token has no subject", nil)
	}
	return claims.Subject, nil
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if token, ok := strings.CutPrefix(auth, "bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
