package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
	Storage       string  `json:"storage,omitempty"`
	SlotKey       string  `json:"slot_key,omitempty"`
	Timezone      string  `json:"timezone,omitempty"`
}

// Healthz is the liveness check. It never touches the slot.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	resp := healthzResponse{
		Status:    "ok",
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
		Storage:   d.StorageBackend,
		Timezone:  d.Today().Location().String(),
	}
	if d.Store != nil {
		resp.SlotKey = d.Store.Key()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		out := resp
		out.UptimeSeconds = time.Since(start).Seconds()
		writeJSON(w, d, http.StatusOK, out)
	}
}
