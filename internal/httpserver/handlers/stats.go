package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
)

type statsResponse struct {
	Total      int    `json:"total"`
	AddedToday int    `json:"added_today"`
	Day        string `json:"day"`
	Timezone   string `json:"timezone"`
}

func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := d.Today()
		coll := d.Store.List(r.Context())

		writeJSON(w, d, http.StatusOK, statsResponse{
			Total:      len(coll),
			AddedToday: coll.AddedOn(today),
			Day:        today.Format("2006-01-02"),
			Timezone:   today.Location().String(),
		})
	}
}
