package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butthurt/reportform/internal/i18n"
)

func writeAsset(t *testing.T, dir, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestNewStoreRequiresDirectory(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewStore(file)
	assert.Error(t, err)
}

func TestTemplateFallback(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "pdf/blank_form.pdf", []byte("default"))
	writeAsset(t, dir, "pdf/blank_form_de.pdf", []byte("german"))

	s, err := NewStore(dir)
	require.NoError(t, err)

	data, path, err := s.Template("de")
	require.NoError(t, err)
	assert.Equal(t, "german", string(data))
	assert.Equal(t, filepath.Join(dir, "pdf", "blank_form_de.pdf"), path)

	data, path, err = s.Template("fr")
	require.NoError(t, err)
	assert.Equal(t, "default", string(data))
	assert.Equal(t, filepath.Join(dir, "pdf", "blank_form.pdf"), path)

	// The default language's template outranks the unsuffixed fallback.
	writeAsset(t, dir, "pdf/blank_form_en.pdf", []byte("english"))
	data, path, err = s.Template("fr")
	require.NoError(t, err)
	assert.Equal(t, "english", string(data))
	assert.Equal(t, filepath.Join(dir, "pdf", "blank_form_en.pdf"), path)

	assert.Equal(t, []string{
		filepath.Join(dir, "pdf", "blank_form_fr.pdf"),
		filepath.Join(dir, "pdf", "blank_form_en.pdf"),
		filepath.Join(dir, "pdf", "blank_form.pdf"),
	}, s.TemplateCandidates("fr"))
	assert.Len(t, s.TemplateCandidates("en"), 2, "the default language dedupes")
}

func TestTemplateMissingEverything(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Template("en")
	assert.Error(t, err)
}

func TestFontCaching(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "fonts/"+SignatureFontFile, []byte("v1"))

	s, err := NewStore(dir)
	require.NoError(t, err)

	data, err := s.SignatureFont()
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	writeAsset(t, dir, "fonts/"+SignatureFontFile, []byte("v2"))
	data, err = s.SignatureFont()
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "fonts are read once")
}

func TestEmbeddedTranslationsCoverAllKeys(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cat, err := s.Translations()
	require.NoError(t, err)
	assert.Contains(t, cat.Languages(), i18n.DefaultLanguage)

	tr := cat.Translator(i18n.DefaultLanguage)
	for key := range i18n.Keys {
		assert.NotEqual(t, key, tr.Text(key), "key %q has no English text", key)
	}
}

func TestTranslationsOverrideFromDisk(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "i18n.csv", []byte("id,en\n1,CUSTOM TITLE\n"))

	s, err := NewStore(dir)
	require.NoError(t, err)

	cat, err := s.Translations()
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM TITLE", cat.Translator("en").Text("title"))
}

func TestEmbeddedOnValues(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	m, err := s.OnValues()
	require.NoError(t, err)
	assert.NotEmpty(t, m["en"])
}

func TestHasEmbeddedFont(t *testing.T) {
	assert.True(t, HasEmbeddedFont("zh"))
	assert.True(t, HasEmbeddedFont("ja"))
	assert.True(t, HasEmbeddedFont("ko"))
	assert.False(t, HasEmbeddedFont("en"))
	assert.False(t, HasEmbeddedFont("de"))
}
