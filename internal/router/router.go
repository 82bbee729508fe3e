package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-contacts-api/internal/access"
	"go-contacts-api/internal/config"
	"go-contacts-api/internal/handler"
	"go-contacts-api/internal/middleware"
	"go-contacts-api/internal/websocket"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	contactHandler *handler.ContactHandler,
	auditHandler *handler.AuditHandler,
	docsHandler *handler.DocsHandler,
	healthHandler *handler.HealthHandler,
	hub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Locale(cfg.DefaultLocale))
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", healthHandler.Health)
	r.Get("/openapi.yaml", docsHandler.OpenAPI)
	r.Get("/swagger", docsHandler.SwaggerUI)

	// Long-lived connections stay outside the request timeout.
	if hub != nil {
		r.With(authMiddleware.RequireAuthOrQueryToken, authMiddleware.RequireAction(access.ActionEventsSubscribe)).Get("/ws", hub.ServeWS)
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/contacts", func(contacts chi.Router) {
			contacts.Use(authMiddleware.RequireAuth)

			contacts.With(authMiddleware.RequireAction(access.ActionContactCreate)).Post("/", contactHandler.Create)
			contacts.With(authMiddleware.RequireAction(access.ActionContactList)).Get("/", contactHandler.List)
			contacts.With(authMiddleware.RequireAction(access.ActionContactSearch)).Get("/searchByPhoneNumber", contactHandler.SearchByPhone)
			contacts.With(authMiddleware.RequireAction(access.ActionContactUpdate)).Put("/{id}", contactHandler.Update)
			contacts.With(authMiddleware.RequireAction(access.ActionContactDelete)).Delete("/{id}", contactHandler.Delete)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireAction(access.ActionAuditList)).Get("/audit", auditHandler.List)
	})

	return r
}
