// Package http exposes the tracker's JSON API: session auth, entry CRUD,
// summaries, the calendar grid, CSV export and saved options.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/noobzdxz-gif/Tracking-App/internal/cache"
	"github.com/noobzdxz-gif/Tracking-App/internal/config"
	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/middleware/trace"
	"github.com/noobzdxz-gif/Tracking-App/internal/services"
)

// EntryService is the slice of the service layer the handlers need. Tests
// swap in a fake.
type EntryService interface {
	CreateTime(ctx context.Context, date core.Date, task, rangeText string) (services.Entry, error)
	CreateExpense(ctx context.Context, date core.Date, description, amountText string) (services.Entry, error)
	UpdateTime(ctx context.Context, id int64, date core.Date, task, rangeText string) (services.Entry, error)
	UpdateExpense(ctx context.Context, id int64, date core.Date, description, amountText string) (services.Entry, error)
	Delete(ctx context.Context, id int64) error
	BucketsForRange(ctx context.Context, r core.DateRange) (map[string]core.DayBucket, error)
	Summarize(ctx context.Context, r core.DateRange) (core.AggregationResult, error)
	CalendarGrid(ctx context.Context, anchor core.Date) ([]core.GridCell, error)
	Options(ctx context.Context, kind string) ([]string, error)
}

type Server struct {
	http.Server

	service      EntryService
	sessions     *sessionStore
	authEnabled  bool
	authEmail    string
	authPassword string
	logger       *log.Logger

	rateLimiter *rateLimiter

	// Summary and grid responses are cheap to rebuild but hit on every
	// page load, so they sit in small TTL caches that mutations purge.
	summaryCache *cache.LRUCache[core.AggregationResult]
	gridCache    *cache.LRUCache[[]core.GridCell]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(cfg *config.Config, service EntryService, logger *log.Logger) *Server {
	s := &Server{
		service:      service,
		sessions:     newSessionStore(cfg.SessionTTL),
		authEnabled:  cfg.AuthEnabled(),
		authEmail:    cfg.AuthEmail,
		authPassword: cfg.AuthPassword,
		logger:       logger.WithComponent("http"),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[core.AggregationResult](64, 5*time.Minute),
		gridCache:    cache.NewLRUCache[[]core.GridCell](32, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.gridCache)
	s.cacheManager.Register(s.sessions)
	s.cacheManager.StartCleanup(10 * time.Minute)

	traceMW := trace.NewMiddleware(clientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/entries/time", s.handleCreateTime)
	api.HandleFunc("POST /api/entries/expense", s.handleCreateExpense)
	api.HandleFunc("PUT /api/entries/time/{id}", s.handleUpdateTime)
	api.HandleFunc("PUT /api/entries/expense/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	api.HandleFunc("GET /api/entries", s.handleListEntries)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/calendar", s.handleCalendar)
	api.HandleFunc("GET /api/export", s.handleExport)
	api.HandleFunc("GET /api/options", s.handleOptions)
	mux.Handle("/api/", s.requireSession(api))

	s.Addr = ":" + cfg.Port
	s.Handler = traceMW.Middleware(s.rateLimit(mux))
	s.ReadHeaderTimeout = 10 * time.Second

	return s
}

// rateLimit rejects clients that exceed the per-IP budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// invalidateViews drops cached summaries and grids after any mutation.
func (s *Server) invalidateViews() {
	s.summaryCache.Purge()
	s.gridCache.Purge()
}

// Shutdown stops the cleanup goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// clientIP strips the port from the peer address.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i != -1 {
		return addr[:i]
	}
	return addr
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	var id int64
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil || id < 1 {
		return 0, fmt.Errorf("invalid entry id %q", raw)
	}
	return id, nil
}
