package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cjkAware(language string) bool {
	switch language {
	case "zh", "ja", "ko":
		return true
	}
	return false
}

func validState() *State {
	st := NewState()
	y := NewSynchronizer(st)
	y.SetDeclaredName("Jane Doe")
	st.Set(FieldOffenderName, "John Roe")
	return st
}

func fieldsWithErrors(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateRequiredFields(t *testing.T) {
	v := &Validator{EmbeddedFont: cjkAware}

	errs := v.Validate(NewState(), "en")
	got := fieldsWithErrors(errs)
	assert.Contains(t, got, FieldWhinerName)
	assert.Contains(t, got, FieldAuthorizedName)
	assert.Contains(t, got, FieldOffenderName)

	assert.Empty(t, v.Validate(validState(), "en"))
}

func TestValidateNameMismatch(t *testing.T) {
	v := &Validator{EmbeddedFont: cjkAware}
	st := validState()
	st.Set(FieldAuthorizedName, "Somebody Else")

	errs := v.Validate(st, "en")
	assert.Equal(t, []string{FieldAuthorizedName}, fieldsWithErrors(errs))
	assert.Equal(t, "Name must match the name entered in Part I", errs[0].Message)
}

func TestValidateSocialSecurity(t *testing.T) {
	tests := []struct {
		ssn  string
		want bool
	}{
		{"", true},
		{"123456789", true},
		{"12345678", false},
		{"1234567890", false},
		{"12345678a", false},
		{"123-45-6789", false},
	}
	v := &Validator{EmbeddedFont: cjkAware}
	for _, tt := range tests {
		st := validState()
		st.Set(FieldSocialSecurity, tt.ssn)
		errs := v.Validate(st, "en")
		if tt.want {
			assert.Empty(t, errs, "ssn %q", tt.ssn)
		} else {
			assert.Equal(t, []string{FieldSocialSecurity}, fieldsWithErrors(errs), "ssn %q", tt.ssn)
			assert.Equal(t, "Social Security Number must be exactly 9 digits", errs[0].Message)
		}
	}
}

func TestValidateEncoding(t *testing.T) {
	v := &Validator{EmbeddedFont: cjkAware}

	st := validState()
	st.Set(FieldNarrative, "café, naïve, Zürich")
	assert.Empty(t, v.Validate(st, "en"), "Latin-1 repertoire passes")

	st.Set(FieldNarrative, "痛い")
	assert.Equal(t, []string{FieldNarrative}, fieldsWithErrors(v.Validate(st, "en")))
	assert.Empty(t, v.Validate(st, "ja"), "embedded fonts lift the restriction")

	sig := validState()
	NewSynchronizer(sig).SetSignature("山田")
	assert.Equal(t, []string{FieldSignature}, fieldsWithErrors(v.Validate(sig, "en")),
		"the signature is checked too")

	nilFont := &Validator{}
	assert.NotEmpty(t, nilFont.Validate(st, "ja"), "nil lookup means no embedded fonts")
}
