package pdffill

import (
	"fmt"

	"github.com/butthurt/reportform/internal/form"
)

const (
	textPointSize      = 10.0
	narrativePointSize = 9.0

	// checkMarkFraction sizes the X mark relative to the box height.
	checkMarkFraction = 0.7
)

// Stamp is one piece of content placed on the page. Image stamps carry PNG
// bytes; everything else is text.
type Stamp struct {
	Page      int
	Rect      Rect
	Text      string
	PointSize float64
	Image     []byte
}

// PlanOptions parameterize stamp planning.
type PlanOptions struct {
	// ExportValues maps choice fields to option-token-to-widget-export-value
	// tables, as resolved for the active language.
	ExportValues map[string]map[string]string

	// SignaturePNG is the rendered signature, stamped at the signature
	// widget. Nil leaves the signature box empty.
	SignaturePNG []byte

	// RenderText rasterizes a value into a transparent PNG sized for the
	// given box in points. Set for languages whose glyphs the template's
	// base fonts cannot show; nil keeps values as native text stamps.
	RenderText func(text string, widthPt, heightPt float64) ([]byte, error)
}

// BuildStamps plans the content for every non-empty field. Field names
// missing from the template are collected rather than failing the export, so
// a slightly older template still produces a usable document.
func BuildStamps(idx *WidgetIndex, st *form.State, opts PlanOptions) ([]Stamp, []string, error) {
	var stamps []Stamp
	var missing []string

	for _, f := range form.Fields {
		value := st.Get(f.ID)
		if f.ID == form.FieldSignature && len(opts.SignaturePNG) > 0 {
			// The rendered image supersedes the raw text. Without an image
			// the signature falls through and is stamped as text.
			continue
		}
		if value == "" {
			continue
		}
		w, ok := idx.Get(f.ID)
		if !ok {
			missing = append(missing, f.ID)
			continue
		}
		switch f.Kind {
		case form.KindBool:
			stamps = append(stamps, checkStamp(w.Page, w.Rect))
		case form.KindChoice:
			rect, ok := choiceRect(w, opts.ExportValues[f.ID], value)
			if !ok {
				missing = append(missing, fmt.Sprintf("%s=%s", f.ID, value))
				continue
			}
			stamps = append(stamps, checkStamp(w.Page, rect))
		default:
			s, err := textStamp(w, f.ID, value, opts.RenderText)
			if err != nil {
				return nil, nil, err
			}
			stamps = append(stamps, s)
		}
	}

	if len(opts.SignaturePNG) > 0 {
		if w, ok := idx.Get(form.FieldSignature); ok {
			stamps = append(stamps, Stamp{Page: w.Page, Rect: w.Rect, Image: opts.SignaturePNG})
		} else {
			missing = append(missing, form.FieldSignature)
		}
	}
	return stamps, missing, nil
}

// choiceRect finds the rectangle of the radio button carrying the selected
// option. The group rectangle is the fallback when the template's export
// values do not line up with the resolved table.
func choiceRect(w Widget, exports map[string]string, option string) (Rect, bool) {
	if exportValue, ok := exports[option]; ok {
		if rect, ok := w.States[exportValue]; ok {
			return rect, true
		}
	}
	if rect, ok := w.States[option]; ok {
		return rect, true
	}
	if w.Rect != (Rect{}) {
		return w.Rect, true
	}
	return Rect{}, false
}

func checkStamp(page int, rect Rect) Stamp {
	return Stamp{
		Page:      page,
		Rect:      rect,
		Text:      "X",
		PointSize: rect.Height() * checkMarkFraction,
	}
}

func textStamp(w Widget, field, value string, render func(string, float64, float64) ([]byte, error)) (Stamp, error) {
	if render != nil {
		img, err := render(value, w.Rect.Width(), w.Rect.Height())
		if err != nil {
			return Stamp{}, fmt.Errorf("render %s: %w", field, err)
		}
		return Stamp{Page: w.Page, Rect: w.Rect, Image: img}, nil
	}
	pt := textPointSize
	if field == form.FieldNarrative {
		pt = narrativePointSize
	}
	return Stamp{Page: w.Page, Rect: w.Rect, Text: value, PointSize: pt}, nil
}
