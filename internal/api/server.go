// Package api provides the HTTP API server and handlers for the TagNest application.
package api

import (
	"net/http"

	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tagnestapp/tagnest-server/internal/config"
	"github.com/tagnestapp/tagnest-server/internal/ratelimit"
	"github.com/tagnestapp/tagnest-server/internal/store"
)

// Auth endpoint rate limit: 30 requests per minute per IP with a small burst.
const (
	authRateLimitRPS   = 0.5
	authRateLimitBurst = 10
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       store.Store
	services    Services
	cfg         *config.Config
	router      *chi.Mux
	api         huma.API
	authLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store store.Store, services Services, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		store:       store,
		services:    services,
		cfg:         cfg,
		router:      chi.NewRouter(),
		authLimiter: ratelimit.New(authRateLimitRPS, authRateLimitBurst),
		logger:      logger,
	}

	s.setupMiddleware()

	humaCfg := huma.DefaultConfig("TagNest API", "1.0.0")
	// Envelope every JSON response; no $schema injection.
	humaCfg.CreateHooks = nil
	humaCfg.Transformers = []huma.Transformer{EnvelopeTransformer}

	RegisterErrorHandler()
	s.api = humachi.New(s.router, humaCfg)

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerPublicRoutes()
	s.registerClientRoutes()
	s.registerTagRoutes()
	s.registerAdminRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stop releases background resources held by the server.
func (s *Server) Stop() {
	s.authLimiter.Stop()
}

// setupMiddleware configures the middleware stack. Middleware must be in
// place before huma registers any route on the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type", "Authorization",
			"X-Client-Name", "X-Client-Password", "X-Admin-Token",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(s.rateLimitAuthEndpoints)
}
