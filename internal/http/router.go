package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/oficina/internal/http/auth"
	"github.com/MrJamesThe3rd/oficina/internal/http/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/http/order"
	"github.com/MrJamesThe3rd/oficina/internal/http/registry"
	"github.com/MrJamesThe3rd/oficina/internal/http/remote"
)

type Options struct {
	AuthSecret     string
	Timeout        time.Duration
	AllowedOrigins []string
}

func New(
	ordersV1 *order.Handler,
	ledgerV1 *ledger.Handler,
	registryV1 *registry.Handler,
	remoteV1 *remote.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:1420", "http://localhost:5173"}
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.AuthSecret))
		r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))

		r.Route("/orders", ordersV1.Routes)
		r.Route("/ledger", ledgerV1.Routes)
		r.Route("/registry", registryV1.Routes)
		r.Route("/remote", remoteV1.Routes)
	})

	return router
}
