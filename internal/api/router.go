package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/taskboard/internal/api/handler"
	customMiddleware "github.com/Rrens/taskboard/internal/api/middleware"
	"github.com/Rrens/taskboard/internal/config"
	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
	"github.com/Rrens/taskboard/internal/repository/redis"
	"github.com/Rrens/taskboard/internal/security"
	"github.com/Rrens/taskboard/internal/service"
)

// Dependencies are the long-lived resources the router wires into services
type Dependencies struct {
	Store domain.Store
	// Redis is nil when redis is disabled
	Redis *redis.Client
	Hub   *realtime.Hub
	// Publisher fans events out; the hub itself or a redis bus feeding it
	Publisher realtime.Publisher
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Realtime.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// User cache and rate limiter need redis
	var (
		userCache   service.UserCache
		rateLimiter *redis.RateLimiter
		redisPinger handler.Pinger
	)
	if deps.Redis != nil {
		userCache = redis.NewUserCache(deps.Redis, cfg.Cache.UserTTL)
		rateLimiter = redis.NewRateLimiter(
			deps.Redis,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
		redisPinger = deps.Redis
	} else {
		log.Info().Msg("Redis disabled: rate limiting and user cache are off")
	}

	// Initialize services
	directory := service.NewUserDirectory(deps.Store.Users(), userCache)
	recorder := service.NewRecorder(deps.Store, deps.Publisher)

	passwords := security.NewPasswordHasher(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(deps.Store.Users(), directory, jwtManager, passwords)
	workspaceService := service.NewWorkspaceService(deps.Store, recorder)
	boardService := service.NewBoardService(deps.Store, recorder, directory)
	listService := service.NewListService(deps.Store, recorder)
	cardService := service.NewCardService(deps.Store, recorder, directory)
	contentService := service.NewContentService(deps.Store, recorder)
	checklistService := service.NewChecklistService(deps.Store, recorder)
	notificationService := service.NewNotificationService(deps.Store)
	roomGate := service.NewRoomGate(deps.Store)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService)
	boardHandler := handler.NewBoardHandler(boardService)
	listHandler := handler.NewListHandler(listService)
	cardHandler := handler.NewCardHandler(cardService)
	contentHandler := handler.NewContentHandler(contentService, checklistService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	wsHandler := realtime.NewHandler(
		deps.Hub,
		socketAuthenticator(authService),
		roomGate.Authorize,
		cfg.Realtime.AllowedOrigins,
		cfg.Realtime.PingInterval,
	)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(authService)

	// Websocket connections outlive the request timeout
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Store, redisPinger))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMiddleware.Authenticate).Get("/me", authHandler.Me)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			if rateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(rateLimiter).Limit)
			}

			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.List)
				r.Post("/", workspaceHandler.Create)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Get("/", workspaceHandler.Get)
					r.Put("/", workspaceHandler.Update)
					r.Delete("/", workspaceHandler.Delete)
					r.Get("/boards", workspaceHandler.Boards)
				})
			})

			r.Route("/boards", func(r chi.Router) {
				r.Get("/", boardHandler.List)
				r.Post("/", boardHandler.Create)

				r.Route("/{boardID}", func(r chi.Router) {
					r.Get("/", boardHandler.Get)
					r.Put("/", boardHandler.Update)
					r.Delete("/", boardHandler.Delete)
					r.Post("/members", boardHandler.InviteMember)
					r.Delete("/members/{userID}", boardHandler.RemoveMember)
					r.Get("/activities", boardHandler.Activities)
				})
			})

			r.Route("/lists", func(r chi.Router) {
				r.Post("/", listHandler.Create)
				r.Get("/board/{boardID}", listHandler.BoardLists)
				r.Put("/board/{boardID}/list-order", listHandler.UpdateListOrder)
				r.Put("/card-order/{listID}", listHandler.UpdateCardOrder)

				r.Route("/{listID}", func(r chi.Router) {
					r.Get("/", listHandler.Get)
					r.Put("/", listHandler.Update)
					r.Delete("/", listHandler.Delete)
				})
			})

			r.Route("/cards", func(r chi.Router) {
				r.Post("/", cardHandler.Create)
				r.Get("/list/{listID}", cardHandler.ListCards)

				r.Route("/{cardID}", func(r chi.Router) {
					r.Get("/", cardHandler.Get)
					r.Put("/", cardHandler.Update)
					r.Delete("/", cardHandler.Delete)
					r.Put("/move", cardHandler.Move)
					r.Post("/members", cardHandler.AddMember)
					r.Delete("/members/{userID}", cardHandler.RemoveMember)
					r.Get("/activities", cardHandler.Activities)

					r.Post("/comments", contentHandler.AddComment)
					r.Delete("/comments/{commentID}", contentHandler.HideComment)
					r.Post("/notes", contentHandler.AddNote)
					r.Delete("/notes/{noteID}", contentHandler.HideNote)

					r.Route("/checklists", func(r chi.Router) {
						r.Post("/", contentHandler.AddChecklist)

						r.Route("/{checklistID}", func(r chi.Router) {
							r.Put("/", contentHandler.EditChecklist)
							r.Delete("/", contentHandler.DeleteChecklist)
							r.Post("/items", contentHandler.AddChecklistItem)
							r.Put("/items/{itemID}", contentHandler.EditChecklistItem)
							r.Put("/items/{itemID}/toggle", contentHandler.ToggleChecklistItem)
							r.Delete("/items/{itemID}", contentHandler.DeleteChecklistItem)
						})
					})
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Put("/read-all", notificationHandler.MarkAllRead)
				r.Put("/{notificationID}/read", notificationHandler.MarkRead)
				r.Put("/{notificationID}/hide", notificationHandler.Hide)
			})
		})
	})

	return r
}

// socketAuthenticator reads the access token from the "token" query parameter,
// falling back to the Authorization header.
func socketAuthenticator(auth customMiddleware.TokenAuthenticator) realtime.Authenticator {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get("token")
		if token == "" {
			var ok bool
			if token, ok = customMiddleware.BearerToken(r); !ok {
				return "", domain.Unauthenticated("missing token")
			}
		}
		actor, err := auth.Authenticate(r.Context(), token)
		if err != nil {
			return "", err
		}
		return actor.ID.Hex(), nil
	}
}
