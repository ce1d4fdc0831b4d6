package deps

import (
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/favicon"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time  // for testing, defaults to time.Now
	Location       *time.Location    // zone deciding what "today" means
	Store          *bookmarks.Store  // the bookmark collection owner
	Slot           slot.Slot         // backing slot, pinged by /readyz
	Favicons       *favicon.Resolver // favicon address builder
	StorageBackend string            // "memory" | "sqlite" | "redis"
	AllowedOrigins []string          // CORS origins for the browser UI, empty = any
	TrustProxy     bool              // resolve client IPs from proxy headers
}

// Today returns the current time in the configured zone.
func (d Deps) Today() time.Time {
	now := time.Now
	if d.TimeNow != nil {
		now = d.TimeNow
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}
