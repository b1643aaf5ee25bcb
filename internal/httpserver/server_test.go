package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/butthurt/reportform/internal/analytics"
	"github.com/butthurt/reportform/internal/export"
	"github.com/butthurt/reportform/internal/form"
	"github.com/butthurt/reportform/internal/i18n"
)

const testCSV = `id,en,de
1,HURT FEELINGS REPORT,BERICHT
7,PART I,TEIL I
8,A. WHINER'S NAME,A. NAME
20,WHICH EAR?,WELCHES OHR?
21,LEFT,LINKS
22,RIGHT,RECHTS
23,BOTH,BEIDE
32,I am thin skinned,Ich bin dünnhäutig
`

type fakeExporter struct {
	req  *export.Request
	res  *export.Result
	err  error
}

func (f *fakeExporter) Export(_ context.Context, req export.Request) (*export.Result, error) {
	f.req = &req
	return f.res, f.err
}

type eventRecorder struct {
	events []analytics.Event
}

func (e *eventRecorder) Record(ev analytics.Event) { e.events = append(e.events, ev) }

func (e *eventRecorder) names() []string {
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Name
	}
	return out
}

func testServer(t *testing.T, ex Exporter) *Server {
	t.Helper()
	return testServerWith(t, ex, nil, "")
}

func testServerWith(t *testing.T, ex Exporter, rec analytics.Recorder, defaultLang string) *Server {
	t.Helper()
	cat, err := i18n.ParseCatalog(strings.NewReader(testCSV))
	require.NoError(t, err)
	s, err := New(cat, ex, rec, zap.NewNop(), defaultLang)
	require.NoError(t, err)
	return s
}

func TestHealthz(t *testing.T) {
	s := testServer(t, &fakeExporter{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIndexRendersHydratedForm(t *testing.T) {
	s := testServer(t, &fakeExporter{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?p1a=Jane+Doe&p41=1&language=de", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "BERICHT", "localized title")
	assert.Contains(t, body, `value="Jane Doe"`)
	assert.Contains(t, body, `name="p41" value="1" checked`)
	assert.Contains(t, body, `lang="de"`)
	assert.Contains(t, body, "language=de&amp;p1a=Jane+Doe", "permalink carries canonical encoding")
}

func TestIndexSetsLanguageCookie(t *testing.T) {
	s := testServer(t, &fakeExporter{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?language=de", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, languageCookie, cookies[0].Name)
	assert.Equal(t, "de", cookies[0].Value)
}

func TestLanguageFromCookieAndHeader(t *testing.T) {
	s := testServer(t, &fakeExporter{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: languageCookie, Value: "de"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `lang="de"`, "cookie wins without a query param")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-CH;q=0.9, fr;q=0.8")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `lang="de"`, "Accept-Language base tag matches")
}

func TestConfiguredDefaultLanguage(t *testing.T) {
	s := testServerWith(t, &fakeExporter{}, nil, "de")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), `lang="de"`,
		"the configured language is the fallback when the client states no preference")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `lang="en"`, "client preferences still win")
}

func TestAnalyticsEvents(t *testing.T) {
	rec := &eventRecorder{}
	s := testServerWith(t, &fakeExporter{}, rec, "")

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.events, "a bare page view records nothing")

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?language=de&p1a=Jane", nil))
	assert.Equal(t, []string{"language_changed", "form_hydrated"}, rec.names())
	assert.Equal(t, "de", rec.events[0].Language)
}

func TestExportServesPDF(t *testing.T) {
	ex := &fakeExporter{res: &export.Result{
		Format:   form.ExportPDF,
		BaseName: "butthurt_en_x",
		Files:    []export.File{{Name: "butthurt_en_x.pdf", Data: []byte("%PDF")}},
	}}
	s := testServer(t, ex)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export?p1a=Jane&p5a=Jane&p2d=Roe", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "butthurt_en_x.pdf")
	assert.Equal(t, "%PDF", rec.Body.String())

	require.NotNil(t, ex.req)
	assert.Equal(t, form.ExportPDF, ex.req.Format, "pdf is the default format")
	assert.True(t, ex.req.Force, "a pressed button always downloads")
	assert.Equal(t, "Jane", ex.req.State.Get(form.FieldWhinerName))
}

func TestExportJPEGZip(t *testing.T) {
	ex := &fakeExporter{res: &export.Result{
		Format:   form.ExportJPEG,
		BaseName: "butthurt_en_x",
		Files: []export.File{
			{Name: "p1.jpg", Data: []byte("1")},
			{Name: "p2.jpg", Data: []byte("2")},
		},
	}}
	s := testServer(t, ex)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export?export=jpg", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "butthurt_en_x.zip")
	assert.Equal(t, form.ExportJPEG, ex.req.Format)
}

func TestAutoExportDeepLinkForces(t *testing.T) {
	ex := &fakeExporter{res: &export.Result{
		BaseName: "b",
		Files:    []export.File{{Name: "b.pdf", Data: []byte("x")}},
	}}
	s := testServer(t, ex)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?p1a=Jane&export=pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.NotNil(t, ex.req)
	assert.True(t, ex.req.Force, "deep links always produce a download")
}

func TestExportErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &export.ValidationError{Fields: []form.FieldError{
			{Field: form.FieldWhinerName, Message: "This field is required"},
		}}, http.StatusUnprocessableEntity},
		{"busy", export.ErrBusy, http.StatusConflict},
		{"unchanged", export.ErrUnchanged, http.StatusNoContent},
		{"other", assertError("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, &fakeExporter{err: tt.err})
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusUnprocessableEntity {
				assert.Contains(t, rec.Body.String(), "This field is required")
			}
		})
	}
}

func TestExportPost(t *testing.T) {
	ex := &fakeExporter{res: &export.Result{
		BaseName: "b",
		Files:    []export.File{{Name: "b.pdf", Data: []byte("x")}},
	}}
	s := testServer(t, ex)

	body := url.Values{"p1a": {"Jane"}, "export": {"pdf"}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane", ex.req.State.Get(form.FieldWhinerName))
}

type assertError string

func (e assertError) Error() string { return string(e) }
