package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dailybrief/internal/brief"
	"dailybrief/internal/config"
	appLog "dailybrief/internal/log"
	"dailybrief/internal/model"
)

// briefingCacheTTL bounds how long /api/briefing serves a cached result.
const briefingCacheTTL = 30 * time.Second

// BuildFunc produces a fresh briefing.
type BuildFunc func(ctx context.Context) brief.Briefing

// Server provides the HTTP API for the latest briefing.
type Server struct {
	auth  config.BasicAuthConfig
	build BuildFunc
	r     chi.Router
	now   func() time.Time

	// Scheduled runs publish here too, so the API shows what was spoken.
	cacheMu sync.RWMutex
	cache   *briefingCache
}

type briefingCache struct {
	resp      briefingResponse
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(auth config.BasicAuthConfig, build BuildFunc) *Server {
	s := &Server{
		auth:  auth,
		build: build,
		r:     chi.NewRouter(),
		now:   time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.r)
	if s.auth.Enabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Publish replaces the cached briefing.
func (s *Server) Publish(br brief.Briefing) {
	s.cacheMu.Lock()
	s.cache = &briefingCache{resp: toResponse(br), updatedAt: s.now()}
	s.cacheMu.Unlock()
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.auth.Username
	password := s.auth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="DailyBrief", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.r.Use(middleware.Recoverer)
	s.r.Get("/health", s.handleHealth)
	s.r.Get("/api/briefing", s.handleBriefing)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleBriefing returns the latest briefing.
//
// GET /api/briefing?refresh=1
//   - refresh: bypass the cache and rebuild now
func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "1"

	if !refresh {
		s.cacheMu.RLock()
		bc := s.cache
		s.cacheMu.RUnlock()
		if bc != nil && s.now().Sub(bc.updatedAt) < briefingCacheTTL {
			writeJSON(w, http.StatusOK, bc.resp)
			return
		}
	}

	appLog.Info("api briefing request", "refresh", refresh)
	br := s.build(r.Context())
	if err := r.Context().Err(); err != nil {
		appLog.Warn("api briefing: client went away", "error", err)
		return
	}
	s.Publish(br)

	s.cacheMu.RLock()
	resp := s.cache.resp
	s.cacheMu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

// briefingResponse is the JSON response shape for /api/briefing.
type briefingResponse struct {
	GeneratedAt time.Time `json:"generated_at"`
	UserName    string    `json:"user_name,omitempty"`
	Today       dayDTO    `json:"today"`
	Tomorrow    *dayDTO   `json:"tomorrow,omitempty"`
	Summary     string    `json:"summary"`
	Warnings    []string  `json:"warnings,omitempty"`
}

type dayDTO struct {
	Date   string     `json:"date"`
	Events []eventDTO `json:"events"`
}

// eventDTO is a JSON-friendly view of a calendar event.
type eventDTO struct {
	Subject      string    `json:"subject"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AllDay       bool      `json:"all_day"`
	Location     string    `json:"location,omitempty"`
	Organizer    string    `json:"organizer,omitempty"`
	Categories   []string  `json:"categories,omitempty"`
	Duration     string    `json:"duration"`
	MeetingType  string    `json:"meeting_type"`
	Online       bool      `json:"online"`
	HighPriority bool      `json:"high_priority"`
	Recurring    bool      `json:"recurring"`
	ReminderSet  bool      `json:"reminder_set"`
}

func toResponse(br brief.Briefing) briefingResponse {
	resp := briefingResponse{
		GeneratedAt: br.GeneratedAt,
		UserName:    br.UserName,
		Today:       toDay(br.Today),
		Summary:     br.Summary,
		Warnings:    br.Warnings,
	}
	if br.Tomorrow != nil {
		d := toDay(*br.Tomorrow)
		resp.Tomorrow = &d
	}
	return resp
}

func toDay(d model.Day) dayDTO {
	events := make([]eventDTO, 0, len(d.Events))
	for _, ev := range d.Events {
		events = append(events, eventDTO{
			Subject:      ev.Subject,
			Start:        ev.Start,
			End:          ev.End,
			AllDay:       ev.AllDay,
			Location:     ev.Location,
			Organizer:    brief.DisplayOrganizer(ev.Organizer),
			Categories:   ev.Categories,
			Duration:     ev.Duration(),
			MeetingType:  ev.MeetingType(),
			Online:       ev.IsOnline(),
			HighPriority: ev.HighPriority(),
			Recurring:    ev.IsRecurring,
			ReminderSet:  ev.ReminderSet,
		})
	}
	return dayDTO{Date: d.Date.Format(time.DateOnly), Events: events}
}

// Serve runs the HTTP server on listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen, "basic_auth", s.auth.Enabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}
