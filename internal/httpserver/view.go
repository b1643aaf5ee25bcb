package httpserver

import (
	"github.com/butthurt/reportform/internal/form"
	"github.com/butthurt/reportform/internal/i18n"
)

type fieldView struct {
	Param string
	Type  string
	Label string
	Value string
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type radioView struct {
	Param    string
	Question string
	Options  []optionView
}

type reasonView struct {
	Param   string
	Label   string
	Checked bool
}

type viewData struct {
	Language  string
	Languages []string
	Labels    map[string]string

	Part1   []fieldView
	Part2   []fieldView
	Radios  []radioView
	Reasons []reasonView

	Narrative      string
	AuthorizedName string
	Signature      string

	Permalink string
}

// labelKeys maps text fields to their translation keys. Fields following the
// "<id>_label" convention are omitted.
var labelKeys = map[string]string{
	form.FieldPreparerName: "admin_preparer_label",
}

func labelKeyFor(field string) string {
	if key, ok := labelKeys[field]; ok {
		return key
	}
	return field + "_label"
}

var (
	part1Types = map[string]string{form.FieldReportDate: "date"}
	part2Types = map[string]string{
		form.FieldIncidentDate: "date",
		form.FieldIncidentTime: "time",
	}
)

func (s *Server) viewData(st *form.State, lang string) viewData {
	tr := s.catalog.Translator(lang)

	labels := make(map[string]string, len(i18n.Keys))
	for key := range i18n.Keys {
		labels[key] = tr.Text(key)
	}

	data := viewData{
		Language:       lang,
		Languages:      s.catalog.Languages(),
		Labels:         labels,
		Narrative:      st.Get(form.FieldNarrative),
		AuthorizedName: st.Get(form.FieldAuthorizedName),
		Signature:      st.Get(form.FieldSignature),
		Permalink:      "/?" + form.Serialize(st, lang),
	}

	part1 := []string{
		form.FieldWhinerName, form.FieldSocialSecurity, form.FieldReportDate,
		form.FieldOrganization, form.FieldPreparerName,
	}
	for _, f := range part1 {
		data.Part1 = append(data.Part1, fieldView{
			Param: form.PreferredAlias(f),
			Type:  orText(part1Types[f]),
			Label: tr.Text(labelKeyFor(f)),
			Value: st.Get(f),
		})
	}
	part2 := []string{
		form.FieldIncidentDate, form.FieldIncidentTime, form.FieldLocation,
		form.FieldOffenderName, form.FieldOffenderOrg,
	}
	for _, f := range part2 {
		data.Part2 = append(data.Part2, fieldView{
			Param: form.PreferredAlias(f),
			Type:  orText(part2Types[f]),
			Label: tr.Text(labelKeyFor(f)),
			Value: st.Get(f),
		})
	}

	for _, g := range form.RadioGroups {
		rv := radioView{
			Param:    form.PreferredAlias(g.Field),
			Question: tr.Text(g.Field),
		}
		selected := st.Get(g.Field)
		for _, opt := range g.Options {
			rv.Options = append(rv.Options, optionView{
				Value:    opt.Value,
				Label:    tr.Text(opt.LabelKey),
				Selected: opt.Value == selected,
			})
		}
		data.Radios = append(data.Radios, rv)
	}

	for i, key := range form.ReasonLabelKeys {
		n := i + 1
		data.Reasons = append(data.Reasons, reasonView{
			Param:   form.PreferredAlias(form.ReasonFieldID(n)),
			Label:   tr.Text(key),
			Checked: st.Checked(form.ReasonFieldID(n)),
		})
	}
	return data
}

func orText(t string) string {
	if t == "" {
		return "text"
	}
	return t
}
