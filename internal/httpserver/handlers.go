package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/butthurt/reportform/internal/analytics"
	"github.com/butthurt/reportform/internal/export"
	"github.com/butthurt/reportform/internal/form"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	lang := s.resolveLanguage(w, r)
	res := form.ParseQuery(r.URL.Query())
	if !res.State.Equal(form.NewState()) {
		s.rec.Record(analytics.Event{Name: "form_hydrated", Language: lang})
	}

	// A deep link with an export format downloads immediately.
	if res.Export != form.ExportNone {
		s.serveExport(w, r, res.State, lang, res.Export)
		return
	}

	data := s.viewData(res.State, lang)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "form.html.tmpl", data); err != nil {
		s.log.Error("render form", zap.Error(err))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed form body", http.StatusBadRequest)
			return
		}
		lang := s.resolveLanguage(w, r)
		res := form.ParseQuery(r.PostForm)
		format := res.Export
		if format == form.ExportNone {
			format = form.ExportPDF
		}
		s.serveExport(w, r, res.State, lang, format)
		return
	}

	lang := s.resolveLanguage(w, r)
	res := form.ParseQuery(r.URL.Query())
	format := res.Export
	if format == form.ExportNone {
		format = form.ExportPDF
	}
	s.serveExport(w, r, res.State, lang, format)
}

// serveExport runs the pipeline and streams the result. A user-initiated
// request always forces a run; unchanged-state suppression applies to
// internal re-triggers only.
func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, st *form.State, lang string, format form.ExportFormat) {
	res, err := s.exporter.Export(r.Context(), export.Request{
		State:    st,
		Language: lang,
		Format:   format,
		Force:    true,
	})
	if err != nil {
		s.exportError(w, lang, err)
		return
	}

	name, data, err := res.Archive()
	if err != nil {
		s.log.Error("package export", zap.Error(err))
		http.Error(w, "export packaging failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}

func (s *Server) exportError(w http.ResponseWriter, lang string, err error) {
	var verr *export.ValidationError
	switch {
	case errors.As(err, &verr):
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "%s: %s\n", f.Field, f.Message)
		}
	case errors.Is(err, export.ErrBusy):
		http.Error(w, "an export is already running", http.StatusConflict)
	case errors.Is(err, export.ErrUnchanged):
		w.WriteHeader(http.StatusNoContent)
	default:
		s.log.Error("export failed", zap.String("language", lang), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".jpg"):
		return "image/jpeg"
	case strings.HasSuffix(name, ".zip"):
		return "application/zip"
	}
	return "application/octet-stream"
}
