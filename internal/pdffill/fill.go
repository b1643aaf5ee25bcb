package pdffill

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const textInset = 2.0

// Apply stamps content onto a template, one watermark pass per stamp. The
// input bytes are never modified.
func Apply(template []byte, stamps []Stamp) ([]byte, error) {
	conf := relaxedConfiguration()
	current := template
	for i, s := range stamps {
		wm, cleanup, err := watermarkFor(s)
		if err != nil {
			return nil, fmt.Errorf("stamp %d: %w", i, err)
		}
		var buf bytes.Buffer
		pages := []string{strconv.Itoa(s.Page)}
		err = api.AddWatermarks(bytes.NewReader(current), &buf, pages, wm, conf)
		cleanup()
		if err != nil {
			return nil, fmt.Errorf("stamp %d: %w", i, err)
		}
		current = buf.Bytes()
	}
	return current, nil
}

func watermarkFor(s Stamp) (wm *model.Watermark, cleanup func(), err error) {
	if len(s.Image) > 0 {
		return imageWatermark(s)
	}
	return textWatermark(s)
}

func textWatermark(s Stamp) (*model.Watermark, func(), error) {
	pt := s.PointSize
	if pt <= 0 {
		pt = textPointSize
	}
	desc := fmt.Sprintf("font:Helvetica, points:%.1f, scale:1 abs, pos:bl, rot:0, op:1, color:#000000", pt)
	wm, err := pdfcpu.ParseTextWatermarkDetails(s.Text, desc, true, types.POINTS)
	if err != nil {
		return nil, nil, fmt.Errorf("text watermark: %w", err)
	}
	wm.Dx = s.Rect.LLX + textInset
	wm.Dy = s.Rect.LLY + verticalInset(s.Rect.Height(), pt)
	return wm, func() {}, nil
}

func imageWatermark(s Stamp) (*model.Watermark, func(), error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(s.Image))
	if err != nil {
		return nil, nil, fmt.Errorf("decode stamp image: %w", err)
	}
	if cfg.Width <= 0 {
		return nil, nil, fmt.Errorf("stamp image has no width")
	}

	tmp, err := os.CreateTemp("", "reportform-stamp-*.png")
	if err != nil {
		return nil, nil, fmt.Errorf("temp stamp file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}
	if _, err := tmp.Write(s.Image); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("write stamp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("close stamp image: %w", err)
	}

	scale := s.Rect.Width() / float64(cfg.Width)
	desc := fmt.Sprintf("scale:%.4f abs, pos:bl, rot:0, op:1", scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(tmp.Name(), desc, true, types.POINTS)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("image watermark: %w", err)
	}
	wm.Dx = s.Rect.LLX
	wm.Dy = s.Rect.LLY
	return wm, cleanup, nil
}

// verticalInset centers a line of the given size in a box, clamped so short
// boxes still get a small baseline lift.
func verticalInset(boxHeight, pointSize float64) float64 {
	inset := (boxHeight - pointSize) / 2
	if inset < textInset {
		return textInset
	}
	return inset
}

// StripForm removes the interactive form from a document: the catalog's
// AcroForm and every widget annotation on the pages. Leftover widgets would
// keep painting their appearance streams over the stamped content, so the page
// stamps must become the only representation of the data.
func StripForm(data []byte) ([]byte, error) {
	ctx, err := newContext(data)
	if err != nil {
		return nil, err
	}
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	rootDict.Delete("AcroForm")
	if err := stripPageWidgets(ctx, rootDict); err != nil {
		return nil, fmt.Errorf("strip widget annotations: %w", err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func stripPageWidgets(ctx *model.Context, rootDict types.Dict) error {
	pagesObj, found := rootDict.Find("Pages")
	if !found {
		return nil
	}
	return stripNodeWidgets(ctx, pagesObj)
}

// stripNodeWidgets walks the page tree and drops widget annotations from each
// page's Annots, keeping links and other annotation kinds intact.
func stripNodeWidgets(ctx *model.Context, nodeObj types.Object) error {
	nodeDict, err := ctx.DereferenceDict(nodeObj)
	if err != nil {
		return err
	}
	if nodeDict == nil {
		return nil
	}
	if kidsObj, found := nodeDict.Find("Kids"); found {
		kids, err := ctx.DereferenceArray(kidsObj)
		if err != nil {
			return err
		}
		for _, kid := range kids {
			if err := stripNodeWidgets(ctx, kid); err != nil {
				return err
			}
		}
		return nil
	}

	annotsObj, found := nodeDict.Find("Annots")
	if !found {
		return nil
	}
	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		return err
	}
	kept := types.Array{}
	for _, a := range annots {
		if !isWidgetAnnot(ctx, a) {
			kept = append(kept, a)
		}
	}
	nodeDict.Delete("Annots")
	if len(kept) > 0 {
		nodeDict.Insert("Annots", kept)
	}
	return nil
}

func isWidgetAnnot(ctx *model.Context, obj types.Object) bool {
	d, err := ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		return false
	}
	subObj, found := d.Find("Subtype")
	if !found {
		return false
	}
	name, err := ctx.DereferenceName(subObj, model.V10, nil)
	return err == nil && name == "Widget"
}

// FillFlatten stamps every planned value and strips the form in one call.
func FillFlatten(template []byte, stamps []Stamp) ([]byte, error) {
	filled, err := Apply(template, stamps)
	if err != nil {
		return nil, err
	}
	return StripForm(filled)
}
