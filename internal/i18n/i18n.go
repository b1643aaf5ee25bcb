// Package i18n loads the translation catalog and resolves the active
// language for a request. The catalog is a CSV table with an "id" column and
// one column per language code; form labels address rows through stable
// symbolic keys.
package i18n

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// DefaultLanguage is the language every lookup falls back to.
const DefaultLanguage = "en"

// Keys maps symbolic label keys to row ids in the translation table.
var Keys = map[string]string{
	"title":                         "1",
	"privacy_statement":             "2",
	"principal_purpose_label":       "3",
	"principal_purpose_text":        "4",
	"routine_uses_label":            "5",
	"routine_uses_text":             "6",
	"part_i_header":                 "7",
	"admin_whiner_name_label":       "8",
	"admin_social_security_label":   "9",
	"admin_report_date_label":       "10",
	"admin_organization_label":      "11",
	"admin_preparer_label":          "12",
	"part_ii_header":                "13",
	"incident_date_label":           "14",
	"incident_time_label":           "15",
	"incident_location_label":       "16",
	"incident_offender_name_label":  "17",
	"incident_offender_org_label":   "18",
	"part_iii_header":               "19",
	"injury_question1":              "20",
	"left":                          "21",
	"right":                         "22",
	"both":                          "23",
	"injury_question2":              "24",
	"yes":                           "25",
	"no":                            "26",
	"maybe":                         "27",
	"injury_question3":              "28",
	"multiple":                      "29",
	"injury_question4":              "30",
	"part_iv_header":                "31",
	"reason_thin_skinned":           "32",
	"reason_fix_problems":           "33",
	"reason_two_beers":              "34",
	"reason_wimp":                   "35",
	"reason_easily_hurt":            "36",
	"reason_hands_pockets":          "37",
	"reason_hormones":               "38",
	"reason_not_signed_up":          "39",
	"reason_not_offered_post_brief": "40",
	"reason_crybaby":                "41",
	"reason_not_hero":               "42",
	"reason_requested_post_brief":   "43",
	"reason_want_mommy":             "44",
	"reason_weather":                "45",
	"reason_all_above":              "46",
	"part_v_header":                 "47",
	"part_vi_header":                "48",
	"auth_whiner_name_label":        "49",
	"auth_signature_label":          "50",
}

// Catalog holds all translations keyed by language and row id.
type Catalog struct {
	translations map[string]map[string]string
	languages    []string
}

// LoadCatalog reads a translation CSV from disk.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open i18n table: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog reads a translation CSV. The header must contain an "id"
// column; every other column names a language.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read i18n header: %w", err)
	}

	idIndex := -1
	langs := make(map[int]string)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "id" {
			idIndex = i
			continue
		}
		if name != "" {
			langs[i] = name
		}
	}
	if idIndex < 0 {
		return nil, fmt.Errorf("i18n table has no 'id' column")
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("i18n table has no language columns")
	}

	c := &Catalog{translations: make(map[string]map[string]string, len(langs))}
	for _, lang := range langs {
		c.translations[lang] = make(map[string]string)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read i18n row: %w", err)
		}
		if idIndex >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idIndex])
		if id == "" {
			continue
		}
		for i, lang := range langs {
			if i < len(row) {
				c.translations[lang][id] = strings.TrimSpace(row[i])
			}
		}
	}

	if _, ok := c.translations[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("i18n table is missing the default language %q", DefaultLanguage)
	}

	for lang := range c.translations {
		c.languages = append(c.languages, lang)
	}
	sort.Strings(c.languages)

	return c, nil
}

// Languages returns the sorted list of available language codes.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.languages))
	copy(out, c.languages)
	return out
}

// Has reports whether the catalog carries the given language.
func (c *Catalog) Has(lang string) bool {
	_, ok := c.translations[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// Translator returns a translator for lang. Unknown languages fall back to
// the default language entirely.
func (c *Catalog) Translator(lang string) *Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	selected, ok := c.translations[lang]
	if !ok {
		lang = DefaultLanguage
		selected = c.translations[DefaultLanguage]
	}
	return &Translator{
		Language: lang,
		selected: selected,
		fallback: c.translations[DefaultLanguage],
	}
}

// Translator resolves symbolic keys to strings for one language, falling back
// to the default language for missing entries.
type Translator struct {
	Language string
	selected map[string]string
	fallback map[string]string
}

// Text returns the translation for a symbolic key. Unknown keys return the
// key itself so broken labels are visible rather than blank.
func (t *Translator) Text(key string) string {
	id, ok := Keys[key]
	if !ok {
		return key
	}
	if v := t.selected[id]; v != "" {
		return v
	}
	if v := t.fallback[id]; v != "" {
		return v
	}
	return key
}

// Resolve picks the active language from the sources the client supplies, in
// priority order: explicit request (query parameter), stored preference
// (cookie), Accept-Language header, default.
func (c *Catalog) Resolve(requested, stored, acceptLanguage string) string {
	return c.ResolveWithDefault(requested, stored, acceptLanguage, "")
}

// ResolveWithDefault is Resolve with a configurable final fallback, for
// deployments that pin a default language other than English. An unknown or
// empty fallback still lands on DefaultLanguage.
func (c *Catalog) ResolveWithDefault(requested, stored, acceptLanguage, def string) string {
	if lang := c.normalize(requested); lang != "" {
		return lang
	}
	if lang := c.normalize(stored); lang != "" {
		return lang
	}
	if lang := c.resolveAccept(acceptLanguage); lang != "" {
		return lang
	}
	if lang := c.normalize(def); lang != "" {
		return lang
	}
	return DefaultLanguage
}

// normalize maps a raw language tag onto a supported code, trying the base
// language when the full tag is unknown ("pt-BR" matches "pt").
func (c *Catalog) normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if c.Has(raw) {
		return raw
	}
	if dash := strings.IndexByte(raw, '-'); dash > 0 && c.Has(raw[:dash]) {
		return raw[:dash]
	}
	return ""
}

func (c *Catalog) resolveAccept(header string) string {
	type pref struct {
		lang string
		q    float64
		pos  int
	}
	var prefs []pref
	for i, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		q := 1.0
		if sc := strings.IndexByte(part, ';'); sc != -1 {
			params := strings.TrimSpace(part[sc+1:])
			part = strings.TrimSpace(part[:sc])
			if strings.HasPrefix(params, "q=") {
				if v, err := strconv.ParseFloat(strings.TrimPrefix(params, "q="), 64); err == nil {
					q = v
				}
			}
		}
		prefs = append(prefs, pref{lang: part, q: q, pos: i})
	}
	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].q == prefs[j].q {
			return prefs[i].pos < prefs[j].pos
		}
		return prefs[i].q > prefs[j].q
	})
	for _, p := range prefs {
		if lang := c.normalize(p.lang); lang != "" {
			return lang
		}
	}
	return ""
}
