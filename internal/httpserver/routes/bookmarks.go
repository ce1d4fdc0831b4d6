package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/handlers"
)

func init() {
	Register("bookmarks", registerBookmarks,
		middleware.NoCache,
		middleware.AllowContentType("application/json"),
	)
}

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.CreateBookmark(d))
		r.Get("/{id}", handlers.GetBookmark(d))
		r.Put("/{id}", handlers.UpdateBookmark(d))
		r.Delete("/{id}", handlers.DeleteBookmark(d))
	})
}
