package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/memology/memology-api/internal/api/middleware"
)

// RouterDeps bundles the handlers wired into the HTTP router.
type RouterDeps struct {
	Memes       *MemeHandler
	Memegen     *MemegenHandler
	Upload      *UploadHandler
	Health      *HealthHandler
	WorkerToken string
}

// NewRouter builds the chi router with the full route table and the
// standard middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/memes", func(r chi.Router) {
		r.Post("/generate", deps.Memes.Generate)
		r.Get("/task/{task_id}", deps.Memes.Status)
		r.Get("/task/{task_id}/result", deps.Memes.Result)
		r.Get("/styles", deps.Memes.Styles)
		r.Post("/memegen", deps.Memegen.Generate)
	})

	workerAuth := middleware.NewWorkerAuthMiddleware(deps.WorkerToken)
	r.Route("/internal", func(r chi.Router) {
		r.Use(workerAuth.Authenticate)
		r.Post("/upload/{task_id}", deps.Upload.Upload)
	})

	r.Get("/health", deps.Health.Live)
	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)
	r.Get("/health/services", deps.Health.Services)

	return r
}
