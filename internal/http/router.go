package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docprompt/internal/handlers"
	"docprompt/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ProjectID string
	Engine    handlers.CompletionEngine
	Trainer   handlers.Trainer
	Index     handlers.SourceIndex
	Sources   storage.SourceStore
	Queries   storage.QueryStore
	Health    http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	sourcesHandler := handlers.NewSourcesHandler(deps.ProjectID, deps.Sources, deps.Index, deps.Trainer)
	trainHandler := handlers.NewTrainHandler(deps.Trainer)

	r.Route("/api", func(r chi.Router) {
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", deps.Health)
		}

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/completions", handlers.NewCompletionHandler(deps.Engine, false))

			r.Get("/sources", sourcesHandler.List)
			r.Post("/sources", sourcesHandler.Create)
			r.Route("/sources/{sourceID}", func(r chi.Router) {
				r.Get("/", sourcesHandler.Get)
				r.Delete("/", sourcesHandler.Delete)
				r.Get("/stats", sourcesHandler.Stats)
				r.Post("/train", sourcesHandler.Train)
			})

			r.Post("/train", trainHandler.Start)
			r.Post("/train/cancel", trainHandler.Cancel)
			r.Get("/train/state", trainHandler.State)

			r.Method(http.MethodGet, "/queries", handlers.NewQueriesHandler(deps.ProjectID, deps.Queries))
		})
	})

	r.Route("/internal/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/completions", handlers.NewCompletionHandler(deps.Engine, true))
	})

	return r
}
