package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/persona"
	"github.com/kapu/sevenlist-go/internal/util"
	"go.uber.org/zap"
)

// Searcher is satisfied by *search.Router.
type Searcher interface {
	Search(ctx context.Context, query string, category domain.Category) []domain.SearchResult
}

// PersonaGenerator is satisfied by *persona.Generator.
type PersonaGenerator interface {
	Configured() bool
	GenerateFromTitles(ctx context.Context, titles domain.ShelfTitles) persona.Result
}

// ProfileStore is satisfied by *store.ProfileRepository.
type ProfileStore interface {
	FindByHandle(ctx context.Context, handle string) (*domain.UserProfile, error)
	Update(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.UserProfile, error)
	Explore(ctx context.Context, filter domain.ExploreFilter) ([]*domain.UserProfile, error)
}

// ShelfStore is satisfied by *store.ShelfRepository.
type ShelfStore interface {
	Get(ctx context.Context, userID string) (*domain.Shelf, error)
	Save(ctx context.Context, userID string, shelf *domain.Shelf) error
}

// RankingReader is satisfied by *store.RankingService.
type RankingReader interface {
	Top(ctx context.Context, category domain.Category, country string, limit int) ([]domain.RankingEntry, error)
	Countries(ctx context.Context) ([]string, error)
	Invalidate(ctx context.Context)
}

// BreakerReporter is satisfied by *catalog.Requester and *ai.ModelManager.
type BreakerReporter interface {
	Name() string
	IsCircuitOpen() bool
	BreakerStatus() util.CircuitBreakerStatus
}

// Dependencies are the services behind the HTTP surface. Storage-backed
// routes answer 503 when their store is nil.
type Dependencies struct {
	Search   Searcher
	Persona  PersonaGenerator
	Profiles ProfileStore
	Shelves  ShelfStore
	Rankings RankingReader
	Links    domain.LinkBuilder
	Breakers []BreakerReporter
}

type Options struct {
	AllowedOrigins []string
	JWTSecret      string
	RequestTimeout time.Duration
}

type Server struct {
	router chi.Router
	deps   Dependencies
	logger *zap.Logger
}

func New(deps Dependencies, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.ServerConfig.RequestTimeout
	}
	if opts.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set; authenticated routes will reject every request")
	}

	s := &Server{
		router: chi.NewRouter(),
		deps:   deps,
		logger: logger,
	}
	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	r := s.router

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.Timeout(opts.RequestTimeout))

	r.Get("/health", s.handleHealth)

	auth := NewAuthMiddleware([]byte(opts.JWTSecret), s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search/{category}", s.handleSearch)
		r.Get("/profiles/{handle}", s.handleGetProfile)
		r.Get("/explore", s.handleExplore)
		r.Get("/rankings", s.handleRankings)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/analyze", s.handleAnalyze)
			r.Put("/me/profile", s.handleUpdateProfile)
			r.Put("/me/shelf/{category}/{slot}", s.handlePutShelfItem)
			r.Delete("/me/shelf/{category}/{slot}", s.handleDeleteShelfItem)
		})
	})
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an http.Server bound to port.
func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  constants.ServerConfig.ReadTimeout,
		WriteTimeout: constants.ServerConfig.WriteTimeout,
	}
}

type healthResponse struct {
	Status   string                      `json:"status"`
	Breakers []util.CircuitBreakerStatus `json:"breakers"`
}

// handleHealth reports "degraded" when any breaker is open. The status code stays 200.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Breakers: make([]util.CircuitBreakerStatus, 0, len(s.deps.Breakers))}
	for _, b := range s.deps.Breakers {
		if b.IsCircuitOpen() {
			resp.Status = "degraded"
		}
		status := b.BreakerStatus()
		if status.Name == "" {
			status.Name = b.Name()
		}
		resp.Breakers = append(resp.Breakers, status)
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
		})
	}
}
