package api

import (
	"log/slog"
	"net/http"

	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter creates and configures the HTTP router.
func SetupRouter(store *cache.Store, httpc *httpclient.Client, creds pipeline.Credentials, logger *slog.Logger, enableSwagger bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(Logger(logger))
	r.Use(ContentType)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := NewHandler(store, httpc, creds, logger)

	r.Route("/v1/briefs", func(r chi.Router) {
		r.Post("/", h.CreateBrief)
	})
	r.Get("/healthz", h.Health)

	// Swagger UI, access at http://localhost:8080/docs when enabled.
	if enableSwagger {
		r.Get("/docs/*", httpSwagger.Handler(
			httpSwagger.URL("doc.json"),
		))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
