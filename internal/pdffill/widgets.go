// Package pdffill turns a blank report template and a form state into a
// filled, flattened PDF. Values are stamped into the page content at the
// widget rectangles and the interactive form is stripped afterwards, so the
// output cannot be edited and never depends on viewer-side appearance
// generation.
package pdffill

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// WidgetKind classifies a form widget.
type WidgetKind int

const (
	WidgetUnknown WidgetKind = iota
	WidgetText
	WidgetCheckbox
	WidgetRadio
)

// Rect is a PDF rectangle in points, origin at the page's bottom left.
type Rect struct {
	LLX, LLY, URX, URY float64
}

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Widget is one named field of the template's interactive form.
type Widget struct {
	Name string
	Kind WidgetKind
	Rect Rect
	Page int

	// States maps a radio group's export values to the rectangle of the
	// button carrying that value. Empty for other kinds.
	States map[string]Rect
}

// WidgetIndex holds every widget of a template keyed by field name.
type WidgetIndex struct {
	widgets map[string]Widget
	order   []string
}

// NewWidgetIndex builds an index from widgets in the given order. Templates
// are indexed with ReadWidgets; this is for callers that already hold the
// widget list.
func NewWidgetIndex(widgets []Widget) *WidgetIndex {
	idx := &WidgetIndex{widgets: make(map[string]Widget, len(widgets))}
	for _, w := range widgets {
		if _, ok := idx.widgets[w.Name]; !ok {
			idx.order = append(idx.order, w.Name)
		}
		idx.widgets[w.Name] = w
	}
	return idx
}

// Get looks a widget up by its field name.
func (x *WidgetIndex) Get(name string) (Widget, bool) {
	w, ok := x.widgets[name]
	return w, ok
}

// Names lists field names in document order.
func (x *WidgetIndex) Names() []string {
	return append([]string(nil), x.order...)
}

// Len returns the widget count.
func (x *WidgetIndex) Len() int { return len(x.order) }

func relaxedConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func newContext(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), relaxedConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	return ctx, nil
}

// ReadWidgets indexes the AcroForm of a template. A template without a form
// yields an empty index.
func ReadWidgets(data []byte) (*WidgetIndex, error) {
	ctx, err := newContext(data)
	if err != nil {
		return nil, err
	}

	idx := &WidgetIndex{widgets: make(map[string]Widget)}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return idx, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return idx, nil
	}
	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return idx, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("dereference Fields: %w", err)
	}

	for i, fieldRef := range fieldsArray {
		w, err := readWidget(ctx, fieldRef)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if w == nil || w.Name == "" {
			continue
		}
		if _, dup := idx.widgets[w.Name]; !dup {
			idx.order = append(idx.order, w.Name)
		}
		idx.widgets[w.Name] = *w
	}
	return idx, nil
}

func readWidget(ctx *model.Context, fieldObj types.Object) (*Widget, error) {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil {
		return nil, err
	}
	if fieldDict == nil {
		return nil, nil
	}

	w := &Widget{Page: 1, States: make(map[string]Rect)}

	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			w.Name = name
		}
	}
	w.Kind = widgetKind(ctx, fieldDict)

	if rect, ok := widgetRect(ctx, fieldDict); ok {
		w.Rect = rect
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kidRef := range kidsArray {
				kidDict, err := ctx.DereferenceDict(kidRef)
				if err != nil || kidDict == nil {
					continue
				}
				kidRect, ok := widgetRect(ctx, kidDict)
				if !ok {
					continue
				}
				if w.Rect == (Rect{}) {
					w.Rect = kidRect
				}
				for _, state := range appearanceStates(ctx, kidDict) {
					w.States[state] = kidRect
				}
			}
		}
	}
	if len(w.States) == 0 {
		for _, state := range appearanceStates(ctx, fieldDict) {
			w.States[state] = w.Rect
		}
	}
	return w, nil
}

// widgetKind resolves FT, walking Parent for inherited types, and splits Btn
// into checkbox and radio on the field flags.
func widgetKind(ctx *model.Context, fieldDict types.Dict) WidgetKind {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return widgetKind(ctx, parentDict)
			}
		}
		return WidgetUnknown
	}
	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return WidgetUnknown
	}
	switch ftName {
	case "Btn":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				if (*flags & (1 << 15)) != 0 {
					return WidgetRadio
				}
			}
		}
		return WidgetCheckbox
	case "Tx":
		return WidgetText
	default:
		return WidgetUnknown
	}
}

func widgetRect(ctx *model.Context, dict types.Dict) (Rect, bool) {
	rectObj, found := dict.Find("Rect")
	if !found {
		return Rect{}, false
	}
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return Rect{}, false
	}
	coords := make([]float64, 4)
	for i, coord := range rectArray {
		f, err := ctx.DereferenceNumber(coord)
		if err != nil {
			return Rect{}, false
		}
		coords[i] = f
	}
	return Rect{LLX: coords[0], LLY: coords[1], URX: coords[2], URY: coords[3]}, true
}

// appearanceStates lists the non-Off names of a widget's normal appearance,
// which are the export values a button can take.
func appearanceStates(ctx *model.Context, dict types.Dict) []string {
	apObj, found := dict.Find("AP")
	if !found {
		return nil
	}
	apDict, err := ctx.DereferenceDict(apObj)
	if err != nil || apDict == nil {
		return nil
	}
	nObj, found := apDict.Find("N")
	if !found {
		return nil
	}
	nDict, err := ctx.DereferenceDict(nObj)
	if err != nil || nDict == nil {
		return nil
	}
	var states []string
	for name := range nDict {
		if name != "Off" {
			states = append(states, name)
		}
	}
	return states
}
