// Package httpserver serves the localized report form and the export
// endpoints over HTTP.
package httpserver

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/butthurt/reportform/internal/analytics"
	"github.com/butthurt/reportform/internal/export"
	"github.com/butthurt/reportform/internal/form"
	"github.com/butthurt/reportform/internal/i18n"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// languageCookie stores the visitor's language preference.
const languageCookie = "butthurt_lang"

// Exporter is the part of the pipeline the server needs.
type Exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

// Server handles the form UI and exports.
type Server struct {
	catalog     *i18n.Catalog
	exporter    Exporter
	rec         analytics.Recorder
	log         *zap.Logger
	tmpl        *template.Template
	router      chi.Router
	defaultLang string
}

// New builds a server with the standard middleware stack. A nil recorder
// discards events; an empty defaultLang falls back to English.
func New(catalog *i18n.Catalog, exporter Exporter, rec analytics.Recorder, log *zap.Logger, defaultLang string) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = analytics.Nop{}
	}
	s := &Server{
		catalog:     catalog,
		exporter:    exporter,
		rec:         rec,
		log:         log,
		tmpl:        tmpl,
		defaultLang: defaultLang,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/", s.handleIndex)
	r.Get("/export", s.handleExport)
	r.Post("/export", s.handleExport)

	s.router = r
	return s, nil
}

// Handler exposes the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// resolveLanguage applies the query, cookie, Accept-Language priority and
// refreshes the cookie when the query names a language explicitly.
func (s *Server) resolveLanguage(w http.ResponseWriter, r *http.Request) string {
	requested := r.URL.Query().Get(form.ParamLanguage)
	stored := ""
	if c, err := r.Cookie(languageCookie); err == nil {
		stored = c.Value
	}
	lang := s.catalog.ResolveWithDefault(requested, stored, r.Header.Get("Accept-Language"), s.defaultLang)
	if requested != "" && lang != stored {
		http.SetCookie(w, &http.Cookie{
			Name:     languageCookie,
			Value:    lang,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		s.rec.Record(analytics.Event{Name: "language_changed", Language: lang})
	}
	return lang
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
