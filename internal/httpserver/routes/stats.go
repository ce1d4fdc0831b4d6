package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/handlers"
)

func init() { Register("stats", registerStats, middleware.NoCache) }

func registerStats(r chi.Router, d deps.Deps) {
	r.Get("/api/stats", handlers.Stats(d))
}
