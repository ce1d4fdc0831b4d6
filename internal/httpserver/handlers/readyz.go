package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Storage string `json:"storage,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: true, Storage: d.StorageBackend}

		if p, ok := d.Slot.(slot.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := p.Ping(ctx); err != nil {
				d.Logger.Warn("storage not ready", logger.Error(err))
				resp.Ready = false
				resp.Error = "storage unreachable"
				writeJSON(w, d, http.StatusServiceUnavailable, resp)
				return
			}
		}

		writeJSON(w, d, http.StatusOK, resp)
	}
}
