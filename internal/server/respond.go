package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kapu/sevenlist-go/internal/constants"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, constants.ServerConfig.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is empty", "body", nil)
		}
		return apperrors.NewValidationError("invalid request body", "body", err.Error())
	}
	return nil
}

// writeServiceError maps internal errors to a status without leaking details.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		valErr  *apperrors.ValidationError
		authErr *apperrors.AuthError
		cfgErr  *apperrors.ConfigError
	)
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, valErr.Message)
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.As(err, &cfgErr):
		s.logger.Error("Server misconfigured", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server configuration error")
	default:
		s.logger.Error("Request failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
