package api

import (
	"net/http"

	"github.com/deckforge/deckforge/internal/api/handler"
	customMiddleware "github.com/deckforge/deckforge/internal/api/middleware"
	"github.com/deckforge/deckforge/internal/config"
	"github.com/deckforge/deckforge/internal/generator"
	"github.com/deckforge/deckforge/internal/generator/gemini"
	"github.com/deckforge/deckforge/internal/generator/ollama"
	"github.com/deckforge/deckforge/internal/generator/openai"
	"github.com/deckforge/deckforge/internal/renderer"
	"github.com/deckforge/deckforge/internal/repository/postgres"
	"github.com/deckforge/deckforge/internal/repository/redis"
	"github.com/deckforge/deckforge/internal/security"
	"github.com/deckforge/deckforge/internal/service"
	"github.com/deckforge/deckforge/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Deps carries the long-lived components the router wires together. The
// coordinator is exposed so main can run startup reconciliation and the
// retention sweeper on it.
type Deps struct {
	Coordinator *service.JobCoordinator
	Handler     http.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) *Deps {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	deckRepo := postgres.NewDeckRepository(db)
	versionRepo := postgres.NewVersionRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	jobRepo := postgres.NewJobRepository(db)
	permRepo := postgres.NewPermissionRepository(db)

	// Redis-backed stores
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	verifyCache := redis.NewVerificationCache(redisClient)
	groupCache := redis.NewGroupCache(redisClient, cfg.Groups.CacheTTL)

	// Generation providers
	generators := generator.NewRouter(cfg.Generator.DefaultProvider)

	log.Info().Str("default", cfg.Generator.DefaultProvider).Msg("initializing generation providers")
	if cfg.Generator.Gemini.APIKey != "" {
		generators.RegisterProvider(gemini.NewProvider(cfg.Generator.Gemini))
	} else {
		log.Warn().Msg("Gemini API key is empty, skipping registration")
	}
	if cfg.Generator.OpenAI.APIKey != "" {
		generators.RegisterProvider(openai.NewProvider(cfg.Generator.OpenAI.APIKey, cfg.Generator.OpenAI.Model))
	}
	if cfg.Generator.Ollama.Host != "" {
		log.Info().Str("host", cfg.Generator.Ollama.Host).Msg("registering Ollama provider")
		generators.RegisterProvider(ollama.NewProvider(cfg.Generator.Ollama.Host, cfg.Generator.Ollama.DefaultModel))
	}

	// Services
	locks := session.NewLocks()
	directory := service.NewStaticGroupDirectory(cfg.Groups.Static)
	resolver := service.NewPermissionResolver(permRepo, directory, groupCache)
	authService := service.NewAuthService(userRepo, jwtManager)
	sessionService := service.NewSessionService(sessionRepo, deckRepo, messageRepo, resolver, locks)
	versionService := service.NewVersionService(sessionRepo, versionRepo, resolver, locks)
	coordinator := service.NewJobCoordinator(
		jobRepo,
		sessionRepo,
		deckRepo,
		messageRepo,
		versionRepo,
		resolver,
		locks,
		generators,
		renderer.NewHTTPRenderer(cfg.Renderer.Endpoint, cfg.Renderer.Timeout),
		generator.NopVerifier{},
		verifyCache,
		cfg.Jobs.WorkerTimeout,
		cfg.Jobs.Retention,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	versionHandler := handler.NewVersionHandler(versionService)
	jobHandler := handler.NewJobHandler(coordinator)
	permissionHandler := handler.NewPermissionHandler(sessionRepo, resolver)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/providers", handler.ListProviders(generators))

			// Job polling
			r.Get("/jobs/{requestID}", jobHandler.Poll)

			// Session routes
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Create)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Use(customMiddleware.SessionContext)

					r.Get("/", sessionHandler.Get)
					r.Patch("/", sessionHandler.Rename)
					r.Delete("/", sessionHandler.Delete)

					r.Get("/deck", sessionHandler.GetDeck)
					r.Get("/transcript", sessionHandler.GetTranscript)

					// Async operations
					r.Post("/edit/async", jobHandler.SubmitEdit)
					r.Post("/export/async", jobHandler.SubmitExport)

					// Save points
					r.Route("/versions", func(r chi.Router) {
						r.Get("/", versionHandler.List)
						r.Get("/{versionNumber}/preview", versionHandler.Preview)
						r.Post("/{versionNumber}/restore", versionHandler.Restore)
					})

					// Sharing
					r.Route("/permissions", func(r chi.Router) {
						r.Get("/", permissionHandler.List)
						r.Post("/", permissionHandler.Grant)
						r.Delete("/", permissionHandler.Revoke)
						r.Patch("/visibility", sessionHandler.SetVisibility)
					})
				})
			})
		})
	})

	return &Deps{
		Coordinator: coordinator,
		Handler:     r,
	}
}
