package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chatdock-backend/internal/handlers"
	"chatdock-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	chatHandler *handlers.ChatHandler,
	uploadHandler *handlers.UploadHandler,
	clientURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(clientURL))

	// API rate limiter (120 req/min per IP)
	apiLimiter := middleware.NewRateLimiter(120, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)

		// Upload signing is the one route the dashboard may call before the
		// identity provider has issued a token.
		r.Get("/upload", uploadHandler.AuthParams)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Post("/chats", chatHandler.Create)
			r.Get("/chats/{id}", chatHandler.Get)
			r.Put("/chats/{id}", chatHandler.Append)

			r.Get("/userchats", chatHandler.List)
			r.Delete("/userchats/{chatId}", chatHandler.Delete)

			r.Post("/maintenance/reconcile", chatHandler.Reconcile)
		})
	})

	return r
}
