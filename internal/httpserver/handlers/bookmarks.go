package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// maxFormBytes bounds the bookmark form body.
const maxFormBytes = 64 << 10

type bookmarkView struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Date    time.Time `json:"date"`
	Favicon string    `json:"favicon"`
}

type snapshotResponse struct {
	Bookmarks  []bookmarkView `json:"bookmarks"`
	Total      int            `json:"total"`
	AddedToday int            `json:"added_today"`
	Error      string         `json:"error,omitempty"`
}

type bookmarkForm struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func toView(d deps.Deps, b domain.Bookmark) bookmarkView {
	return bookmarkView{
		ID:      b.ID,
		Name:    b.Name,
		URL:     b.URL,
		Date:    b.Date,
		Favicon: d.Favicons.URL(b.URL),
	}
}

// snapshot renders a collection in display order (most recent first).
func snapshot(d deps.Deps, coll domain.Collection) snapshotResponse {
	sorted := coll.ByRecent()
	views := make([]bookmarkView, 0, len(sorted))
	for _, b := range sorted {
		views = append(views, toView(d, b))
	}
	return snapshotResponse{
		Bookmarks:  views,
		Total:      len(coll),
		AddedToday: coll.AddedOn(d.Today()),
	}
}

// writeMutation answers a store mutation. A persistence failure still
// returns the applied snapshot, with a 500 status and the error.
func writeMutation(w http.ResponseWriter, r *http.Request, d deps.Deps, okStatus int, coll domain.Collection, err error) {
	switch {
	case err == nil:
		writeJSON(w, d, okStatus, snapshot(d, coll))
	case errors.Is(err, bookmarks.ErrNotFound):
		writeError(w, d, http.StatusNotFound, "bookmark not found")
	case errors.Is(err, bookmarks.ErrUnavailable):
		writeUnavailable(w, d, err)
	case bookmarks.IsPersistenceError(err):
		d.Logger.Error("bookmark change not persisted",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		resp := snapshot(d, coll)
		resp.Error = "changes could not be saved"
		writeJSON(w, d, http.StatusInternalServerError, resp)
	default:
		d.Logger.Error("bookmark operation failed", logger.Error(err))
		writeError(w, d, http.StatusInternalServerError, "internal error")
	}
}

// writeUnavailable answers while the slot cannot be read. Nothing was written.
func writeUnavailable(w http.ResponseWriter, d deps.Deps, err error) {
	d.Logger.Warn("bookmark slot unavailable", logger.Error(err))
	w.Header().Set("Retry-After", "5")
	writeError(w, d, http.StatusServiceUnavailable, "storage unavailable, try again")
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// decodeForm reads a bookmark form. Both fields are required, as in the UI form.
func decodeForm(w http.ResponseWriter, r *http.Request) (bookmarkForm, string) {
	var form bookmarkForm
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err := dec.Decode(&form); err != nil {
		return form, "invalid JSON body"
	}
	form.Name = strings.TrimSpace(form.Name)
	form.URL = strings.TrimSpace(form.URL)
	switch {
	case form.Name == "":
		return form, "name is required"
	case form.URL == "":
		return form, "url is required"
	}
	return form, ""
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d, http.StatusOK, snapshot(d, d.Store.List(r.Context())))
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, d, http.StatusBadRequest, "invalid bookmark id")
			return
		}

		b, err := d.Store.Get(r.Context(), id)
		switch {
		case errors.Is(err, bookmarks.ErrUnavailable):
			writeUnavailable(w, d, err)
			return
		case err != nil:
			writeError(w, d, http.StatusNotFound, "bookmark not found")
			return
		}
		writeJSON(w, d, http.StatusOK, toView(d, b))
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, problem := decodeForm(w, r)
		if problem != "" {
			writeError(w, d, http.StatusBadRequest, problem)
			return
		}

		coll, err := d.Store.Create(r.Context(), form.Name, form.URL)
		writeMutation(w, r, d, http.StatusCreated, coll, err)
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, d, http.StatusBadRequest, "invalid bookmark id")
			return
		}
		form, problem := decodeForm(w, r)
		if problem != "" {
			writeError(w, d, http.StatusBadRequest, problem)
			return
		}

		coll, err := d.Store.Update(r.Context(), id, form.Name, form.URL)
		writeMutation(w, r, d, http.StatusOK, coll, err)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, d, http.StatusBadRequest, "invalid bookmark id")
			return
		}

		coll, err := d.Store.Delete(r.Context(), id)
		writeMutation(w, r, d, http.StatusOK, coll, err)
	}
}
