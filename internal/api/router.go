package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/taskhive/taskhive-be/internal/api/handlers"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
	"github.com/taskhive/taskhive-be/internal/services"
	"github.com/taskhive/taskhive-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router. The guard is the
// single entry point for authentication: every task route runs behind
// it, and nothing downstream reads identity from the client.
func NewRouter(guard *auth.Guard, userService services.UserServiceProvider, taskService services.TaskServiceProvider, hub *websocket.Hub, tokens *auth.TokenService, corsOrigin string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	taskHandler := handlers.NewTaskHandler(taskService)
	wsHandler := handlers.NewWebSocketHandler(hub, guard)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(guard.Require).Get("/me", authHandler.Me)
	})

	// Browsers cannot set headers on websocket upgrades, so this route
	// takes optional auth and falls back to a query-parameter token.
	r.With(guard.Optional).Get("/ws", wsHandler.Serve)

	r.Route("/tasks", func(r chi.Router) {
		r.Use(guard.Require)

		r.Post("/", taskHandler.Create)
		r.Get("/me", taskHandler.ListMine)
		r.With(auth.RequireRole(models.RoleAdmin)).Get("/all", taskHandler.ListAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.Get)
			r.Put("/", taskHandler.Update)
			r.Put("/toggle", taskHandler.Toggle)
			r.Delete("/", taskHandler.Delete)
		})
	})

	return r
}
