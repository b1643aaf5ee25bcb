// Package export runs the full report pipeline: validate the form state,
// fill the blank template, flatten it and produce the requested download,
// either a single PDF or one JPEG per page.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/butthurt/reportform/internal/analytics"
	"github.com/butthurt/reportform/internal/assets"
	"github.com/butthurt/reportform/internal/form"
	"github.com/butthurt/reportform/internal/i18n"
	"github.com/butthurt/reportform/internal/pdffill"
	"github.com/butthurt/reportform/internal/raster"
	"github.com/butthurt/reportform/internal/sig"
)

// Phase is the externally visible pipeline state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseBlocked    Phase = "blocked"
	PhaseRunning    Phase = "running"
)

var (
	// ErrBusy is returned while another export holds the pipeline.
	ErrBusy = errors.New("export already in progress")

	// ErrUnchanged signals that the state, language and format are
	// identical to the last completed export and nothing was produced.
	ErrUnchanged = errors.New("nothing changed since the last export")
)

// ValidationError carries every field failure of a blocked export.
type ValidationError struct {
	Fields []form.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Request describes one export run.
type Request struct {
	State    *form.State
	Language string
	Format   form.ExportFormat

	// Force skips the unchanged-state suppression.
	Force bool
}

// File is one produced artifact.
type File struct {
	Name string
	Data []byte
}

// Result is a completed export.
type Result struct {
	Format   form.ExportFormat
	BaseName string
	Files    []File
}

// Options configure a Pipeline.
type Options struct {
	Workers       int
	Raster        raster.Options
	SignatureSize float64
}

// Pipeline orchestrates exports. One export runs at a time; concurrent
// requests fail fast with ErrBusy.
type Pipeline struct {
	store    *assets.Store
	catalog  *i18n.Catalog
	onValues form.OnValueMap
	renderer raster.PageRenderer
	rec      analytics.Recorder
	log      *zap.Logger
	opts     Options

	signature *sig.Renderer

	// seams for tests
	fill      func(ctx context.Context, language string, st *form.State) ([]byte, error)
	pageCount func(pdfData []byte) (int, error)
	now       func() time.Time

	runMu sync.Mutex

	mu       sync.Mutex
	phase    Phase
	lastHash string
}

// New wires a pipeline. The signature renderer is optional: without the
// script font, signatures fall back to plain text stamps.
func New(store *assets.Store, catalog *i18n.Catalog, onValues form.OnValueMap, renderer raster.PageRenderer, rec analytics.Recorder, log *zap.Logger, opts Options) *Pipeline {
	if rec == nil {
		rec = analytics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		store:     store,
		catalog:   catalog,
		onValues:  onValues,
		renderer:  renderer,
		rec:       rec,
		log:       log,
		opts:      opts,
		pageCount: raster.PageCount,
		now:       time.Now,
		phase:     PhaseIdle,
	}
	p.fill = p.fillFlatten

	if fontData, err := store.SignatureFont(); err == nil {
		if r, err := sig.NewRenderer(fontData); err == nil {
			p.signature = r
		} else {
			log.Warn("signature font unusable", zap.Error(err))
		}
	} else {
		log.Warn("signature font missing", zap.Error(err))
	}
	return p
}

// Phase reports the current pipeline state.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

func (p *Pipeline) setPhase(ph Phase) {
	p.mu.Lock()
	p.phase = ph
	p.mu.Unlock()
}

// Export runs the pipeline for one request.
func (p *Pipeline) Export(ctx context.Context, req Request) (*Result, error) {
	if !p.runMu.TryLock() {
		return nil, ErrBusy
	}
	defer p.runMu.Unlock()
	defer p.setPhase(PhaseIdle)

	start := p.now()
	language := req.Language
	if language == "" {
		language = i18n.DefaultLanguage
	}

	p.setPhase(PhaseValidating)
	v := &form.Validator{EmbeddedFont: assets.HasEmbeddedFont}
	if fieldErrs := v.Validate(req.State, language); len(fieldErrs) > 0 {
		p.setPhase(PhaseBlocked)
		err := &ValidationError{Fields: fieldErrs}
		p.record(req, language, 0, p.now().Sub(start), err)
		return nil, err
	}

	hash := exportHash(req.State, language, req.Format)
	if !req.Force && p.unchanged(hash) {
		return nil, ErrUnchanged
	}

	p.setPhase(PhaseRunning)
	pdfData, err := p.fill(ctx, language, req.State)
	if err != nil {
		p.record(req, language, 0, p.now().Sub(start), err)
		return nil, err
	}

	res := &Result{Format: req.Format, BaseName: p.baseName(language)}
	switch req.Format {
	case form.ExportJPEG:
		pages, err := p.pageCount(pdfData)
		if err != nil {
			p.record(req, language, 0, p.now().Sub(start), err)
			return nil, err
		}
		jpegs, err := raster.RenderAll(ctx, p.renderer, pdfData, pages, p.opts.Raster,
			raster.StrategyFor(language), p.opts.Workers)
		if err != nil {
			p.record(req, language, pages, p.now().Sub(start), err)
			return nil, err
		}
		for i, data := range jpegs {
			name := res.BaseName + ".jpg"
			if len(jpegs) > 1 {
				name = fmt.Sprintf("%s_page-%02d.jpg", res.BaseName, i+1)
			}
			res.Files = append(res.Files, File{Name: name, Data: data})
		}
	default:
		res.Files = []File{{Name: res.BaseName + ".pdf", Data: pdfData}}
	}

	p.remember(hash)
	p.record(req, language, len(res.Files), p.now().Sub(start), nil)
	return res, nil
}

func (p *Pipeline) baseName(language string) string {
	return fmt.Sprintf("butthurt_%s_%s", language, p.now().Format("20060102_150405"))
}

func (p *Pipeline) unchanged(hash string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return hash == p.lastHash
}

func (p *Pipeline) remember(hash string) {
	p.mu.Lock()
	p.lastHash = hash
	p.mu.Unlock()
}

func (p *Pipeline) record(req Request, language string, pages int, d time.Duration, err error) {
	e := analytics.Event{
		Name:     "export_completed",
		Language: language,
		Format:   string(req.Format),
		Pages:    pages,
		Duration: d,
	}
	if err != nil {
		e.Name = "export_failed"
		e.Error = err.Error()
	}
	p.rec.Record(e)
}

// exportHash fingerprints a request for no-op suppression. The canonical
// serialization already excludes the signature; the signature text is added
// back so a re-signed form exports again.
func exportHash(st *form.State, language string, format form.ExportFormat) string {
	return form.Serialize(st, language) + "|sig=" + st.Get(form.FieldSignature) + "|" + string(format)
}

// fillFlatten is the production fill step.
func (p *Pipeline) fillFlatten(ctx context.Context, language string, st *form.State) ([]byte, error) {
	template, templatePath, err := p.store.Template(language)
	if err != nil {
		return nil, err
	}
	p.log.Debug("template resolved", zap.String("path", templatePath), zap.String("language", language))

	idx, err := pdffill.ReadWidgets(template)
	if err != nil {
		return nil, fmt.Errorf("index template widgets: %w", err)
	}

	planOpts := pdffill.PlanOptions{ExportValues: p.exportValues(language)}
	if render, err := p.textRasterizer(language); err != nil {
		return nil, err
	} else if render != nil {
		planOpts.RenderText = render
	}

	st = st.Clone()
	p.prepareSignature(idx, st, language, &planOpts)

	stamps, missing, err := pdffill.BuildStamps(idx, st, planOpts)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		p.log.Warn("template lacks widgets", zap.Strings("fields", missing))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := pdffill.FillFlatten(template, stamps)
	if err != nil {
		return nil, fmt.Errorf("fill template: %w", err)
	}
	return out, nil
}

// prepareSignature renders the signature image when the script font is
// available. When the font is missing or rasterization fails the signature
// stays in the state and is stamped as plain text like any other field.
func (p *Pipeline) prepareSignature(idx *pdffill.WidgetIndex, st *form.State, language string, planOpts *pdffill.PlanOptions) {
	text := st.Get(form.FieldSignature)
	if text == "" {
		return
	}
	w, ok := idx.Get(form.FieldSignature)
	if !ok {
		return
	}

	renderer := p.signature
	if assets.HasEmbeddedFont(language) {
		// The script face has no CJK glyphs; use the language's text font.
		r, err := p.languageRenderer(language)
		if err != nil {
			p.log.Warn("signature falls back to text", zap.Error(err))
			return
		}
		renderer = r
	}
	if renderer == nil {
		return
	}

	size := p.opts.SignatureSize
	if size <= 0 {
		size = sig.DefaultPointSize
	}
	img, err := renderer.Render(text, sig.Options{
		Width:     int(w.Rect.Width()),
		Height:    int(w.Rect.Height()),
		Scale:     stampScale,
		PointSize: size,
	})
	if err != nil {
		p.log.Warn("signature falls back to text", zap.Error(err))
		return
	}
	data, err := sig.EncodePNG(img)
	if err != nil {
		p.log.Warn("signature falls back to text", zap.Error(err))
		return
	}
	planOpts.SignaturePNG = data
	st.Set(form.FieldSignature, "")
}

// stampScale oversamples raster stamps for print quality.
const stampScale = 3.0

// textRasterizer returns the raster text renderer for languages whose glyphs
// need an embedded font, nil for everything else.
func (p *Pipeline) textRasterizer(language string) (func(string, float64, float64) ([]byte, error), error) {
	if !assets.HasEmbeddedFont(language) {
		return nil, nil
	}
	r, err := p.languageRenderer(language)
	if err != nil {
		return nil, err
	}
	return func(text string, widthPt, heightPt float64) ([]byte, error) {
		img, err := r.Render(text, sig.Options{
			Width:     int(widthPt),
			Height:    int(heightPt),
			Scale:     stampScale,
			PointSize: 10,
		})
		if err != nil {
			return nil, err
		}
		return sig.EncodePNG(img)
	}, nil
}

func (p *Pipeline) languageRenderer(language string) (*sig.Renderer, error) {
	profile := assets.FontProfiles[language]
	fontData, err := p.store.Font(profile.RegularFile)
	if err != nil {
		return nil, fmt.Errorf("font for %s: %w", language, err)
	}
	r, err := sig.NewRenderer(fontData)
	if err != nil {
		return nil, fmt.Errorf("font for %s: %w", language, err)
	}
	return r, nil
}

// exportValues resolves the radio widget on-values for every choice group.
func (p *Pipeline) exportValues(language string) map[string]map[string]string {
	var label func(string) string
	if p.catalog != nil && p.catalog.Has(language) {
		tr := p.catalog.Translator(language)
		label = tr.Text
	}
	out := make(map[string]map[string]string, len(form.RadioGroups))
	for _, g := range form.RadioGroups {
		out[g.Field] = form.ExportValues(p.onValues, label, language, g)
	}
	return out
}
