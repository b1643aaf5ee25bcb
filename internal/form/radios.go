package form

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/butthurt/reportform/internal/fallback"
)

// RadioOption is one selectable answer of an injury question. Value is the
// stable token stored in state and deep links, LabelKey names its translation.
type RadioOption struct {
	Value    string `yaml:"value"`
	LabelKey string `yaml:"label"`
}

// RadioGroup describes the options of one choice field.
type RadioGroup struct {
	Field   string        `yaml:"field"`
	Options []RadioOption `yaml:"options"`
}

// RadioGroups lists the four injury questions with their answers, in form
// order.
var RadioGroups = []RadioGroup{
	{
		Field: "injury_question1",
		Options: []RadioOption{
			{Value: "left", LabelKey: "left"},
			{Value: "right", LabelKey: "right"},
			{Value: "both", LabelKey: "both"},
		},
	},
	{
		Field: "injury_question2",
		Options: []RadioOption{
			{Value: "yes", LabelKey: "yes"},
			{Value: "no", LabelKey: "no"},
			{Value: "maybe", LabelKey: "maybe"},
		},
	},
	{
		Field: "injury_question3",
		Options: []RadioOption{
			{Value: "yes", LabelKey: "yes"},
			{Value: "no", LabelKey: "no"},
			{Value: "multiple", LabelKey: "multiple"},
		},
	},
	{
		Field: "injury_question4",
		Options: []RadioOption{
			{Value: "yes", LabelKey: "yes"},
			{Value: "no", LabelKey: "no"},
			{Value: "maybe", LabelKey: "maybe"},
		},
	},
}

// RadioGroupFor returns the group owning a choice field.
func RadioGroupFor(field string) (RadioGroup, bool) {
	for _, g := range RadioGroups {
		if g.Field == field {
			return g, true
		}
	}
	return RadioGroup{}, false
}

// OnValueMap overrides the export value a PDF radio widget uses for a given
// option, per language. Keys are language, then field id, then option value.
// Templates localized by hand sometimes carry translated widget on-values,
// which this map captures.
type OnValueMap map[string]map[string]map[string]string

// LoadOnValues parses the YAML on-value table.
func LoadOnValues(r io.Reader) (OnValueMap, error) {
	var m OnValueMap
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return OnValueMap{}, nil
		}
		return nil, fmt.Errorf("parse on-value table: %w", err)
	}
	return m, nil
}

func (m OnValueMap) lookup(language, field, option string) (string, bool) {
	byField, ok := m[language]
	if !ok {
		return "", false
	}
	byOption, ok := byField[field]
	if !ok {
		return "", false
	}
	v, ok := byOption[option]
	return v, ok
}

var exportSanitizer = regexp.MustCompile(`[^A-Za-z0-9]+`)

// SanitizeExportValue turns an arbitrary label into a token a PDF name object
// accepts: runs of anything outside [A-Za-z0-9] become single underscores and
// leading or trailing underscores are dropped. An all-symbol input yields
// "Option".
func SanitizeExportValue(s string) string {
	out := strings.Trim(exportSanitizer.ReplaceAllString(s, "_"), "_")
	if out == "" {
		return "Option"
	}
	return out
}

// ResolveOnValue picks the widget export value for one radio option. The
// chain tries the language-specific override, then the default-language
// override, then the sanitized translated label, and finally the option token
// itself. label translates a LabelKey for the active language and may be nil.
func ResolveOnValue(m OnValueMap, label func(key string) string, language, field string, opt RadioOption) string {
	candidates := fallback.Dedupe([]string{"lang:" + language, "lang:" + DefaultOnValueLanguage, "label", "literal"})
	v, _, err := fallback.Resolve(candidates, func(candidate string) (string, error) {
		switch {
		case strings.HasPrefix(candidate, "lang:"):
			if v, ok := m.lookup(strings.TrimPrefix(candidate, "lang:"), field, opt.Value); ok {
				return v, nil
			}
			return "", fmt.Errorf("no override for %s/%s", field, opt.Value)
		case candidate == "label":
			if label == nil {
				return "", fmt.Errorf("no label source")
			}
			if t := label(opt.LabelKey); t != "" && t != opt.LabelKey {
				return SanitizeExportValue(t), nil
			}
			return "", fmt.Errorf("no translation for %s", opt.LabelKey)
		default:
			return SanitizeExportValue(opt.Value), nil
		}
	})
	if err != nil {
		return SanitizeExportValue(opt.Value)
	}
	return v
}

// DefaultOnValueLanguage is the fallback column of the on-value table.
const DefaultOnValueLanguage = "en"

// ExportValues returns the widget export value of every option in a group,
// uniquified in order: a collision gets a numeric suffix so two options never
// share an on-value.
func ExportValues(m OnValueMap, label func(key string) string, language string, g RadioGroup) map[string]string {
	out := make(map[string]string, len(g.Options))
	seen := make(map[string]bool, len(g.Options))
	for _, opt := range g.Options {
		v := ResolveOnValue(m, label, language, g.Field, opt)
		base, n := v, 1
		for seen[v] {
			v = fmt.Sprintf("%s_%d", base, n)
			n++
		}
		seen[v] = true
		out[opt.Value] = v
	}
	return out
}
