package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"codefour-rag/internal/handlers"
	"codefour-rag/internal/retrieval"
	"codefour-rag/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine      retrieval.Engine
	VectorStore vectorstore.VectorStore
	LLM         handlers.Pinger
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Request-scoped logger and CORS
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	queryHandler := handlers.NewQueryHandler(deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.LLM, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
