// Package assets locates the on-disk artifacts the service needs at runtime:
// the blank PDF templates, the fonts used for CJK text and signatures, the
// translation table and the radio on-value overrides. Small text tables ship
// embedded so a bare binary still works; templates and fonts are loaded from
// the assets directory because they are large and replaceable.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/butthurt/reportform/internal/fallback"
	"github.com/butthurt/reportform/internal/form"
	"github.com/butthurt/reportform/internal/i18n"
)

//go:embed data/i18n.csv
var embeddedTranslations []byte

//go:embed data/on_values.yaml
var embeddedOnValues []byte

// FontProfile describes the embedded font a language needs. Languages absent
// from the table render with the template's Latin base fonts.
type FontProfile struct {
	Language    string
	RegularName string
	RegularFile string
	BoldName    string
	BoldFile    string
}

// FontProfiles keys CJK languages to their font files under fonts/.
var FontProfiles = map[string]FontProfile{
	"zh": {
		Language:    "zh",
		RegularName: "SourceHanSansSC-Regular",
		RegularFile: "SourceHanSansSC-Regular.otf",
		BoldName:    "SourceHanSansSC-Bold",
		BoldFile:    "SourceHanSansSC-Bold.otf",
	},
	"ja": {
		Language:    "ja",
		RegularName: "NotoSansCJKjp-Regular",
		RegularFile: "NotoSansCJKjp-Regular.otf",
		BoldName:    "NotoSansCJKjp-Bold",
		BoldFile:    "NotoSansCJKjp-Bold.otf",
	},
	"ko": {
		Language:    "ko",
		RegularName: "NotoSansCJKkr-Regular",
		RegularFile: "NotoSansCJKkr-Regular.otf",
		BoldName:    "NotoSansCJKkr-Bold",
		BoldFile:    "NotoSansCJKkr-Bold.otf",
	},
}

// SignatureFontFile is the script face signatures render in, under fonts/.
const SignatureFontFile = "GreatVibes-Regular.ttf"

// HasEmbeddedFont reports whether exports for a language embed a full font.
func HasEmbeddedFont(language string) bool {
	_, ok := FontProfiles[language]
	return ok
}

// Store serves assets from a directory tree:
//
//	<dir>/pdf/blank_form[_<lang>].pdf
//	<dir>/fonts/<file>
//	<dir>/i18n.csv        (optional, overrides the embedded table)
//	<dir>/on_values.yaml  (optional, overrides the embedded table)
type Store struct {
	dir string

	mu    sync.Mutex
	fonts map[string][]byte
}

// NewStore opens an asset directory. The directory must exist; missing
// individual assets surface when first requested.
func NewStore(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("assets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets directory %s: not a directory", dir)
	}
	return &Store{dir: dir, fonts: make(map[string][]byte)}, nil
}

// TemplateCandidates lists the template paths tried for a language, most
// specific first: the localized template, the default language's, then the
// unsuffixed fallback.
func (s *Store) TemplateCandidates(language string) []string {
	return fallback.Dedupe([]string{
		filepath.Join(s.dir, "pdf", fmt.Sprintf("blank_form_%s.pdf", language)),
		filepath.Join(s.dir, "pdf", fmt.Sprintf("blank_form_%s.pdf", i18n.DefaultLanguage)),
		filepath.Join(s.dir, "pdf", "blank_form.pdf"),
	})
}

// Template loads the blank PDF for a language, falling back to the default
// template when no localized one exists. It returns the bytes and the path
// that won.
func (s *Store) Template(language string) ([]byte, string, error) {
	data, path, err := fallback.Resolve(s.TemplateCandidates(language), os.ReadFile)
	if err != nil {
		return nil, "", fmt.Errorf("template for %q: %w", language, err)
	}
	return data, path, nil
}

// Font loads a font file from fonts/, caching the bytes. Fonts are immutable
// for the life of the process.
func (s *Store) Font(file string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.fonts[file]; ok {
		return data, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, "fonts", file))
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", file, err)
	}
	s.fonts[file] = data
	return data, nil
}

// SignatureFont loads the script face used to render typed signatures.
func (s *Store) SignatureFont() ([]byte, error) {
	return s.Font(SignatureFontFile)
}

// Translations loads the translation catalog, preferring an i18n.csv in the
// asset directory over the embedded copy.
func (s *Store) Translations() (*i18n.Catalog, error) {
	if data, err := os.ReadFile(filepath.Join(s.dir, "i18n.csv")); err == nil {
		return i18n.ParseCatalog(bytes.NewReader(data))
	}
	return i18n.ParseCatalog(bytes.NewReader(embeddedTranslations))
}

// OnValues loads the radio on-value overrides, preferring an on_values.yaml
// in the asset directory over the embedded copy.
func (s *Store) OnValues() (form.OnValueMap, error) {
	if data, err := os.ReadFile(filepath.Join(s.dir, "on_values.yaml")); err == nil {
		return form.LoadOnValues(bytes.NewReader(data))
	}
	return form.LoadOnValues(bytes.NewReader(embeddedOnValues))
}
