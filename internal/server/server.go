// Package server provides the HTTP server and routing for the fund engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantfold/vault/internal/events"
	"github.com/quantfold/vault/internal/fund"
	historyhandlers "github.com/quantfold/vault/internal/modules/history/handlers"
	"github.com/quantfold/vault/internal/token"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool

	Fund    *fund.Fund
	Asset   *token.Token
	Custody string

	Journal *events.Journal
	Hub     *events.Hub

	HistoryHandlers *historyhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	devMode bool

	fundHandlers    *FundHandlers
	systemHandlers  *SystemHandlers
	eventHandlers   *EventHandlers
	historyHandlers *historyhandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		devMode:         cfg.DevMode,
		fundHandlers:    NewFundHandlers(cfg.Fund, cfg.Asset, cfg.Custody, cfg.DevMode, cfg.Log),
		systemHandlers:  NewSystemHandlers(cfg.Fund, cfg.Hub, cfg.Log),
		eventHandlers:   NewEventHandlers(cfg.Journal, cfg.Hub, cfg.Log),
		historyHandlers: cfg.HistoryHandlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Websocket event stream stays outside the timeout middleware
		r.Get("/events/stream", s.eventHandlers.HandleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			s.fundHandlers.RegisterRoutes(r)
			r.Get("/events", s.eventHandlers.HandleRecent)
			if s.historyHandlers != nil {
				s.historyHandlers.RegisterRoutes(r)
			}
			r.Get("/system/health", s.systemHandlers.HandleSystemHealth)
		})
	})
}

// Start begins serving requests. Blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Router exposes the chi router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
