package form

import (
	"net/url"
	"sort"
	"strings"
)

// ExportFormat selects the output of an auto-export deep link.
type ExportFormat string

const (
	ExportNone ExportFormat = ""
	ExportPDF  ExportFormat = "pdf"
	ExportJPEG ExportFormat = "jpg"
)

// ParseExportFormat validates the export parameter. Unknown values are
// reported so the caller can refuse the request instead of guessing.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch ExportFormat(strings.ToLower(s)) {
	case ExportNone:
		return ExportNone, true
	case ExportPDF:
		return ExportPDF, true
	case ExportJPEG:
		return ExportJPEG, true
	}
	return ExportNone, false
}

// ParseResult is the outcome of decoding a deep link.
type ParseResult struct {
	State    *State
	Language string
	Export   ExportFormat
}

// ParseQuery decodes a deep-link query into form state. Aliases and canonical
// field ids are both accepted; when several parameters target the same field
// the keys are applied in sorted order, so the outcome is deterministic.
// Unknown keys are kept verbatim for forward compatibility. The submit
// parameter is dropped.
func ParseQuery(values url.Values) ParseResult {
	res := ParseResult{State: NewState()}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	explicitSignature := false
	for _, k := range keys {
		vs := values[k]
		v := vs[len(vs)-1]
		switch strings.ToLower(k) {
		case ParamSubmit:
			continue
		case ParamLanguage:
			res.Language = v
			continue
		case ParamExport:
			if f, ok := ParseExportFormat(v); ok {
				res.Export = f
			}
			continue
		}
		field, known := ResolveAlias(k)
		if !known {
			res.State.Set(k, v)
			continue
		}
		if f, _ := FieldByID(field); f.Kind == KindBool {
			res.State.SetChecked(field, v == "1")
			continue
		}
		res.State.Set(field, v)
		if field == FieldSignature && v != "" {
			explicitSignature = true
		}
	}

	reconcileNames(res.State)
	if explicitSignature {
		res.State.SignatureProvenance = ProvenanceExplicit
	} else {
		res.State.Set(FieldSignature, DeriveSignature(res.State.Get(FieldAuthorizedName)))
		res.State.SignatureProvenance = ProvenanceDerived
	}
	return res
}

// reconcileNames enforces the single-name invariant after decoding. The
// declared name wins when both are present; otherwise whichever side is set
// fills the other.
func reconcileNames(s *State) {
	declared := s.Get(FieldWhinerName)
	authorized := s.Get(FieldAuthorizedName)
	switch {
	case declared != "":
		s.Set(FieldAuthorizedName, declared)
	case authorized != "":
		s.Set(FieldWhinerName, authorized)
	}
}

// Serialize encodes state into the canonical deep-link query string. The
// active language comes first, then every non-empty canonical field under its
// preferred alias in form order, then passthrough keys sorted by name. The
// signature is never serialized, whatever its provenance.
func Serialize(s *State, language string) string {
	var b strings.Builder
	add := func(k, v string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}

	if language != "" {
		add(ParamLanguage, language)
	}
	for _, f := range Fields {
		if f.ID == FieldSignature {
			continue
		}
		if v := s.Get(f.ID); v != "" {
			add(PreferredAlias(f.ID), v)
		}
	}

	var extra []string
	for k := range s.Values {
		if _, known := FieldByID(k); !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		add(k, s.Values[k])
	}
	return b.String()
}
