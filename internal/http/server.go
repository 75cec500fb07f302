// Package http serves the ledger UI: HTMX partials over embedded templates,
// the print view and the document downloads.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/barthos4/ma-caisse/internal/cache"
	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/export"
	applog "github.com/barthos4/ma-caisse/internal/log"
	"github.com/barthos4/ma-caisse/internal/services"
	appweb "github.com/barthos4/ma-caisse/web"
)

type Server struct {
	http.Server
	templates *template.Template

	transactions *services.TransactionService
	categories   *services.CategoryService
	budgets      *services.BudgetService
	settings     *services.SettingsService
	reports      *services.ReportService
	pdf          *export.PDFRenderer

	defaultOwnerID string
	rateLimiter    *rateLimiter

	statementCache *cache.LRUCache[core.Statement]
	settingsCache  *cache.LRUCache[core.Settings]

	unsubscribe      func()
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Deps carries everything the server needs. The hub is optional; without it
// caches only expire by TTL.
type Deps struct {
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Settings     *services.SettingsService
	Reports      *services.ReportService
	PDF          *export.PDFRenderer
	Hub          *core.Hub

	DefaultOwnerID string
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		transactions:     deps.Transactions,
		categories:       deps.Categories,
		budgets:          deps.Budgets,
		settings:         deps.Settings,
		reports:          deps.Reports,
		pdf:              deps.PDF,
		defaultOwnerID:   deps.DefaultOwnerID,
		rateLimiter:      newRateLimiter(),
		statementCache:   cache.NewLRUCache[core.Statement](100, 5*time.Minute),
		settingsCache:    cache.NewLRUCache[core.Settings](50, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}
	if s.pdf == nil {
		s.pdf = export.NewPDFRenderer(nil)
	}

	// Writes elsewhere invalidate the derived-state caches.
	if deps.Hub != nil {
		s.unsubscribe = deps.Hub.Subscribe(func(e core.ChangeEvent) {
			switch e.Topic {
			case core.TopicSettings:
				s.settingsCache.Delete(e.OwnerID)
			default:
				s.statementCache.Purge()
			}
		})
	}

	go s.startCacheCleanup()

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("/transactions/update", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.handleDeleteTransaction))
	mux.HandleFunc("/categories", s.withSecurityHeaders(s.handleCreateCategory))
	mux.HandleFunc("/categories/update", s.withSecurityHeaders(s.handleUpdateCategory))
	mux.HandleFunc("/categories/delete", s.withSecurityHeaders(s.handleDeleteCategory))
	mux.HandleFunc("/budgets/edit", s.withSecurityHeaders(s.handleEditBudget))
	mux.HandleFunc("/settings", s.withSecurityHeaders(s.handleSaveSettings))

	// UI partials
	mux.HandleFunc("/ui/report", s.withSecurityHeaders(s.handleReportPartial))
	mux.HandleFunc("/ui/transactions", s.withSecurityHeaders(s.handleTransactionsPartial))
	mux.HandleFunc("/ui/categories", s.withSecurityHeaders(s.handleCategoriesPartial))

	// Print view and document downloads
	mux.HandleFunc("/print", s.withSecurityHeaders(s.handlePrintView))
	mux.HandleFunc("/download/report.pdf", s.withSecurityHeaders(s.handleReportPDF))
	mux.HandleFunc("/download/report.xlsx", s.withSecurityHeaders(s.handleReportXLSX))
	mux.HandleFunc("/download/journal.pdf", s.withSecurityHeaders(s.handleJournalPDF))
	mux.HandleFunc("/download/journal.csv", s.withSecurityHeaders(s.handleJournalCSV))

	return s
}

// ownerID resolves the acting owner. The X-Owner-ID header overrides the
// configured default; there is no session layer in front of this server.
func (s *Server) ownerID(r *http.Request) string {
	if v := r.Header.Get("X-Owner-ID"); v != "" {
		return v
	}
	return s.defaultOwnerID
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.statementCache.CleanExpired() + s.settingsCache.CleanExpired()
			if removed > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", removed)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, POST rate limiting and request
// logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// cachedStatement builds the statement through the LRU cache. Overlay-free
// only: pending budget edits never reach a cached entry.
func (s *Server) cachedStatement(ctx context.Context, ownerID string, period core.Period) (core.Statement, error) {
	key := ownerID + "|" + period.From.Format("2006-01-02") + "|" + period.To.Format("2006-01-02")
	if st, ok := s.statementCache.Get(key); ok {
		slog.DebugContext(ctx, "Statement cache hit", "key", key)
		// The figures are cacheable, the generation stamp is not: exports
		// derive their "Généré le" line and filename from it.
		st.GeneratedAt = time.Now()
		return st, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	st, err := s.reports.BuildStatement(cctx, ownerID, period, nil, nil)
	if err != nil {
		return core.Statement{}, err
	}
	s.statementCache.Set(key, st)
	return st, nil
}

// cachedSettings loads settings through the LRU cache. ErrSettingsNotLoaded
// is not cached.
func (s *Server) cachedSettings(ctx context.Context, ownerID string) (core.Settings, error) {
	if st, ok := s.settingsCache.Get(ownerID); ok {
		return st, nil
	}
	st, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return core.Settings{}, err
	}
	s.settingsCache.Set(ownerID, st)
	return st, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":   func(m core.Money) string { return m.Format() },
		"amount":  func(m core.Money) string { return m.Decimal() },
		"percent": core.FormatPercent,
		"date":    core.FormatDate,
	}
}
