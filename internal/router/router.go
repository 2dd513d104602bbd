package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-secondhand-market/internal/api/auth"
	"github.com/FACorreiaa/go-secondhand-market/internal/api/offer"
)

// Config contains the handlers and middleware needed for the router setup.
type Config struct {
	AuthHandler            auth.Handler
	OfferHandler           offer.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter wires the marketplace routes. Server-wide middleware (request
// id, logger, recoverer) are applied before mounting this router in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Marketplace API up"))
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Public routes
	r.Group(func(r chi.Router) {
		r.Post("/user/signup", cfg.AuthHandler.Signup)
		r.Post("/user/login", cfg.AuthHandler.Login)
		r.Get("/offers", cfg.OfferHandler.List)
		r.Get("/offer/{id}", cfg.OfferHandler.Get)
	})

	// Routes requiring a resolved bearer token
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		r.Post("/offer/publish", cfg.OfferHandler.Publish)
		r.Put("/offer/update", cfg.OfferHandler.Update)
		r.Delete("/offer/delete", cfg.OfferHandler.Delete)
	})

	return r
}
