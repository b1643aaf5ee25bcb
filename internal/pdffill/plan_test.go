package pdffill

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butthurt/reportform/internal/form"
)

func testIndex() *WidgetIndex {
	return NewWidgetIndex([]Widget{
		{Name: form.FieldWhinerName, Kind: WidgetText, Page: 1,
			Rect: Rect{LLX: 40, LLY: 700, URX: 300, URY: 720}},
		{Name: form.FieldNarrative, Kind: WidgetText, Page: 1,
			Rect: Rect{LLX: 40, LLY: 200, URX: 560, URY: 400}},
		{Name: "reason_filing_6", Kind: WidgetCheckbox, Page: 1,
			Rect: Rect{LLX: 50, LLY: 500, URX: 60, URY: 510}},
		{Name: "injury_question2", Kind: WidgetRadio, Page: 1,
			Rect: Rect{LLX: 100, LLY: 600, URX: 200, URY: 612},
			States: map[string]Rect{
				"YES":   {LLX: 100, LLY: 600, URX: 110, URY: 612},
				"NO":    {LLX: 130, LLY: 600, URX: 140, URY: 612},
				"MAYBE": {LLX: 160, LLY: 600, URX: 170, URY: 612},
			}},
		{Name: form.FieldSignature, Kind: WidgetText, Page: 1,
			Rect: Rect{LLX: 320, LLY: 80, URX: 560, URY: 130}},
	})
}

func TestBuildStampsText(t *testing.T) {
	st := form.NewState()
	st.Set(form.FieldWhinerName, "Jane Doe")
	st.Set(form.FieldNarrative, "a long story")

	stamps, missing, err := BuildStamps(testIndex(), st, PlanOptions{})
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, stamps, 2)

	assert.Equal(t, "Jane Doe", stamps[0].Text)
	assert.Equal(t, textPointSize, stamps[0].PointSize)
	assert.Equal(t, "a long story", stamps[1].Text)
	assert.Equal(t, narrativePointSize, stamps[1].PointSize, "narrative uses the smaller size")
}

func TestBuildStampsChecksAndRadios(t *testing.T) {
	st := form.NewState()
	st.SetChecked("reason_filing_6", true)
	st.Set("injury_question2", "maybe")

	opts := PlanOptions{ExportValues: map[string]map[string]string{
		"injury_question2": {"yes": "YES", "no": "NO", "maybe": "MAYBE"},
	}}
	stamps, missing, err := BuildStamps(testIndex(), st, opts)
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, stamps, 2)

	assert.Equal(t, "X", stamps[0].Text)
	assert.Equal(t, Rect{LLX: 160, LLY: 600, URX: 170, URY: 612}, stamps[0].Rect,
		"the mark lands on the selected button")
	assert.InDelta(t, 12*checkMarkFraction, stamps[0].PointSize, 0.001)

	assert.Equal(t, "X", stamps[1].Text)
	assert.InDelta(t, 10*checkMarkFraction, stamps[1].PointSize, 0.001)
}

func TestBuildStampsMissingWidgets(t *testing.T) {
	st := form.NewState()
	st.Set(form.FieldOffenderName, "John Roe")

	stamps, missing, err := BuildStamps(testIndex(), st, PlanOptions{})
	require.NoError(t, err)
	assert.Empty(t, stamps)
	assert.Equal(t, []string{form.FieldOffenderName}, missing)
}

func TestBuildStampsSignature(t *testing.T) {
	st := form.NewState()
	png := []byte{0x89, 'P', 'N', 'G'}

	stamps, missing, err := BuildStamps(testIndex(), st, PlanOptions{SignaturePNG: png})
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, stamps, 1)
	assert.Equal(t, png, stamps[0].Image)
	assert.Equal(t, Rect{LLX: 320, LLY: 80, URX: 560, URY: 130}, stamps[0].Rect)
}

func TestBuildStampsSignatureTextFallback(t *testing.T) {
	st := form.NewState()
	st.Set(form.FieldSignature, "Jane Doe")

	// No rendered image: the signature text still lands in the box.
	stamps, missing, err := BuildStamps(testIndex(), st, PlanOptions{})
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, stamps, 1)
	assert.Equal(t, "Jane Doe", stamps[0].Text)
	assert.Empty(t, stamps[0].Image)
	assert.Equal(t, Rect{LLX: 320, LLY: 80, URX: 560, URY: 130}, stamps[0].Rect)

	// With an image the text is not stamped twice.
	png := []byte{0x89, 'P', 'N', 'G'}
	stamps, _, err = BuildStamps(testIndex(), st, PlanOptions{SignaturePNG: png})
	require.NoError(t, err)
	require.Len(t, stamps, 1)
	assert.Equal(t, png, stamps[0].Image)
	assert.Empty(t, stamps[0].Text)
}

func TestBuildStampsRenderText(t *testing.T) {
	st := form.NewState()
	st.Set(form.FieldWhinerName, "山田 太郎")

	rendered := [][]float64{}
	opts := PlanOptions{RenderText: func(text string, w, h float64) ([]byte, error) {
		rendered = append(rendered, []float64{w, h})
		return []byte("png"), nil
	}}
	stamps, _, err := BuildStamps(testIndex(), st, opts)
	require.NoError(t, err)
	require.Len(t, stamps, 1)
	assert.Equal(t, []byte("png"), stamps[0].Image)
	assert.Equal(t, [][]float64{{260, 20}}, rendered, "box size is passed in points")

	fail := PlanOptions{RenderText: func(string, float64, float64) ([]byte, error) {
		return nil, errors.New("boom")
	}}
	_, _, err = BuildStamps(testIndex(), st, fail)
	assert.Error(t, err)
}

func TestChoiceRectFallbacks(t *testing.T) {
	w := Widget{
		Rect:   Rect{LLX: 1, LLY: 2, URX: 3, URY: 4},
		States: map[string]Rect{"maybe": {LLX: 9, LLY: 9, URX: 10, URY: 10}},
	}

	rect, ok := choiceRect(w, nil, "maybe")
	assert.True(t, ok)
	assert.Equal(t, 9.0, rect.LLX, "raw option token matches a state")

	rect, ok = choiceRect(w, map[string]string{"maybe": "unknown"}, "maybe")
	assert.True(t, ok)
	assert.Equal(t, 9.0, rect.LLX, "token fallback still applies after a bad export value")

	rect, ok = choiceRect(w, nil, "other")
	assert.True(t, ok)
	assert.Equal(t, w.Rect, rect, "group rect is the last resort")

	_, ok = choiceRect(Widget{}, nil, "x")
	assert.False(t, ok)
}

func TestVerticalInset(t *testing.T) {
	assert.Equal(t, 5.0, verticalInset(20, 10))
	assert.Equal(t, textInset, verticalInset(10, 10), "short boxes clamp to the minimum")
}
