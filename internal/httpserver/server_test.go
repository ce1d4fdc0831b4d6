package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/favicon"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/slot/memory"
)

type bookmarkJSON struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Date    time.Time `json:"date"`
	Favicon string    `json:"favicon"`
}

type snapshotJSON struct {
	Bookmarks  []bookmarkJSON `json:"bookmarks"`
	Total      int            `json:"total"`
	AddedToday int            `json:"added_today"`
	Error      string         `json:"error"`
}

type testEnv struct {
	handler http.Handler
	slot    *memory.Slot
	store   *bookmarks.Store
	now     time.Time
}

func newTestEnv(t *testing.T, opts ...func(*deps.Deps)) *testEnv {
	t.Helper()

	log := logger.New("error", false)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	sl := memory.New()
	store := bookmarks.New(sl,
		bookmarks.WithLogger(log),
		bookmarks.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)

	d := deps.Deps{
		Logger:         log,
		StartTime:      now,
		Version:        "test",
		TimeNow:        func() time.Time { return now },
		Location:       time.UTC,
		Store:          store,
		Slot:           sl,
		Favicons:       favicon.NewResolver(""),
		StorageBackend: "memory",
	}
	for _, opt := range opts {
		opt(&d)
	}

	return &testEnv{
		handler: NewRouter(log, d),
		slot:    sl,
		store:   store,
		now:     now,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) snapshotJSON {
	t.Helper()
	var snap snapshotJSON
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return snap
}

func TestListEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/bookmarks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/bookmarks status = %d", rec.Code)
	}
	snap := decodeSnapshot(t, rec)
	if snap.Bookmarks == nil || len(snap.Bookmarks) != 0 || snap.Total != 0 {
		t.Errorf("empty list = %+v", snap)
	}
}

func TestCreateListsMostRecentFirst(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/bookmarks", `{"name":"A","url":"https://a.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/bookmarks", `{"name":" B ","url":"not a url"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d", rec.Code)
	}

	snap := decodeSnapshot(t, env.do(t, http.MethodGet, "/api/bookmarks", ""))
	if snap.Total != 2 || snap.AddedToday != 2 {
		t.Fatalf("snapshot totals = %d/%d, want 2/2", snap.Total, snap.AddedToday)
	}
	if snap.Bookmarks[0].Name != "B" || snap.Bookmarks[1].Name != "A" {
		t.Errorf("display order = %q, %q; want B, A", snap.Bookmarks[0].Name, snap.Bookmarks[1].Name)
	}
	if snap.Bookmarks[0].Favicon != "https://www.google.com/s2/favicons?domain=default" {
		t.Errorf("fallback favicon = %q", snap.Bookmarks[0].Favicon)
	}
	if snap.Bookmarks[1].Favicon != "https://www.google.com/s2/favicons?domain=a.com" {
		t.Errorf("favicon = %q", snap.Bookmarks[1].Favicon)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing name", body: `{"url":"https://a.com"}`},
		{name: "blank name", body: `{"name":"   ","url":"https://a.com"}`},
		{name: "missing url", body: `{"name":"A"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/bookmarks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST %s status = %d, want 400", tt.body, rec.Code)
			}
			if env.slot.Writes() != 0 {
				t.Error("rejected form must not be persisted")
			}
		})
	}
}

func TestCreateRejectsNonJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader("name=A&url=https://a.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("POST form status = %d, want 415", rec.Code)
	}
	if env.slot.Writes() != 0 {
		t.Error("rejected request must not be persisted")
	}
}

func TestGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	coll, err := env.store.Create(ctx, "Old", "https://old.example")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	id := strconv.FormatInt(coll[0].ID, 10)

	rec := env.do(t, http.MethodGet, "/api/bookmarks/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/bookmarks/"+id, `{"name":"New","url":"https://new.example"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	snap := decodeSnapshot(t, rec)
	if len(snap.Bookmarks) != 1 || snap.Bookmarks[0].Name != "New" || snap.Bookmarks[0].ID != coll[0].ID {
		t.Errorf("PUT snapshot = %+v", snap)
	}

	rec = env.do(t, http.MethodDelete, "/api/bookmarks/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if snap := decodeSnapshot(t, rec); snap.Total != 0 {
		t.Errorf("DELETE snapshot total = %d, want 0", snap.Total)
	}

	// Deleting again is not an error.
	if rec := env.do(t, http.MethodDelete, "/api/bookmarks/"+id, ""); rec.Code != http.StatusOK {
		t.Errorf("second DELETE status = %d, want 200", rec.Code)
	}
}

func TestNotFoundAndBadIDs(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/bookmarks/42", "", http.StatusNotFound},
		{http.MethodPut, "/api/bookmarks/42", `{"name":"A","url":"https://a.com"}`, http.StatusNotFound},
		{http.MethodGet, "/api/bookmarks/abc", "", http.StatusBadRequest},
		{http.MethodPut, "/api/bookmarks/abc", `{"name":"A","url":"https://a.com"}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/bookmarks/abc", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rec := env.do(t, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPersistenceFailureReturnsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.slot.FailWrites(errors.New("quota exceeded"))

	rec := env.do(t, http.MethodPost, "/api/bookmarks", `{"name":"A","url":"https://a.com"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("POST status = %d, want 500", rec.Code)
	}
	snap := decodeSnapshot(t, rec)
	if snap.Error == "" {
		t.Error("response should carry an error message")
	}
	if snap.Total != 1 {
		t.Errorf("snapshot total = %d, want 1 (no rollback)", snap.Total)
	}
}

func TestSlotOutageReturnsUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coll, err := env.store.Create(ctx, "A", "https://a.com")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	id := strconv.FormatInt(coll[0].ID, 10)
	writes := env.slot.Writes()

	env.slot.FailReads(errors.New("connection refused"))
	_ = env.store.Load(ctx)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/bookmarks", `{"name":"B","url":"https://b.com"}`},
		{http.MethodPut, "/api/bookmarks/" + id, `{"name":"A2","url":"https://a2.com"}`},
		{http.MethodDelete, "/api/bookmarks/" + id, ""},
		{http.MethodGet, "/api/bookmarks/" + id, ""},
	}
	for _, tt := range tests {
		rec := env.do(t, tt.method, tt.path, tt.body)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s status = %d, want 503", tt.method, tt.path, rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Errorf("%s %s missing Retry-After", tt.method, tt.path)
		}
	}
	if env.slot.Writes() != writes {
		t.Error("no write may happen while the slot cannot be read")
	}

	env.slot.FailReads(nil)
	snap := decodeSnapshot(t, env.do(t, http.MethodGet, "/api/bookmarks", ""))
	if snap.Total != 1 {
		t.Errorf("after recovery total = %d, want 1", snap.Total)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _ = env.store.Create(ctx, "A", "https://a.com")

	rec := env.do(t, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats status = %d", rec.Code)
	}

	var stats struct {
		Total      int    `json:"total"`
		AddedToday int    `json:"added_today"`
		Day        string `json:"day"`
		Timezone   string `json:"timezone"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 || stats.AddedToday != 1 || stats.Day != "2024-05-01" || stats.Timezone != "UTC" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheControlSetOnce(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/bookmarks", "/api/stats", "/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, path, "")
			values := rec.Header().Values("Cache-Control")
			if len(values) != 1 {
				t.Fatalf("Cache-Control values = %q, want exactly one", values)
			}
			if !strings.Contains(values[0], "no-store") {
				t.Errorf("Cache-Control = %q, want no-store", values[0])
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"storage":"memory"`) || !strings.Contains(body, `"slot_key":"bookmarks"`) {
		t.Errorf("healthz body = %s", body)
	}

	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("healthz Cache-Control = %q", cc)
	}

	rec = env.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /readyz status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ready":true`) {
		t.Errorf("readyz body = %s", rec.Body.String())
	}
}

func preflight(env *testEnv, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/bookmarks", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.AllowedOrigins = []string{"http://localhost:5173"}
	})

	rec := preflight(env, "http://localhost:5173")
	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 2xx", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST", got)
	}
	if env.slot.Writes() != 0 {
		t.Error("preflight must not reach the handlers")
	}

	rec = preflight(env, "https://evil.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}
