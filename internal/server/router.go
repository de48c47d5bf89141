package server

import (
	"net/http"

	"github.com/igad-hub/hubwriter/internal/api"
	"github.com/igad-hub/hubwriter/internal/api/handlers"
	"github.com/igad-hub/hubwriter/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator    middleware.AuthValidator
	PromptHandler    *handlers.PromptHandler
	GenerateHandler  *handlers.GenerateHandler
	VectorHandler    *handlers.VectorHandler
	RetrievalHandler *handlers.RetrievalHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.AuthValidator))

		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", cfg.PromptHandler.Create)
			r.Get("/", cfg.PromptHandler.List)
			r.Get("/resolve", cfg.PromptHandler.Resolve)
			r.Get("/{id}", cfg.PromptHandler.Get)
			r.Put("/{id}", cfg.PromptHandler.Update)
			r.Delete("/{id}", cfg.PromptHandler.Delete)
			r.Post("/{id}/publish", cfg.PromptHandler.Publish)
			r.Post("/{id}/toggle-active", cfg.PromptHandler.ToggleActive)
			r.Get("/{id}/history", cfg.PromptHandler.History)
		})

		r.Post("/generate", cfg.GenerateHandler.Generate)
		r.Post("/generate/preview", cfg.GenerateHandler.Preview)

		r.Route("/vectors/{ownerID}", func(r chi.Router) {
			r.Post("/", cfg.VectorHandler.Store)
			r.Post("/query", cfg.VectorHandler.Query)
			r.Post("/context", cfg.VectorHandler.BuildContext)
			r.Delete("/", cfg.VectorHandler.DeleteAll)
			r.Get("/stats", cfg.VectorHandler.Statistics)
		})

		r.Post("/retrieve", cfg.RetrievalHandler.Retrieve)
		r.Post("/retrieve/plan", cfg.RetrievalHandler.Plan)
		r.Post("/kb/ingest", cfg.RetrievalHandler.Ingest)
	})

	return r
}
