package form

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// FieldError points a validation failure at the field that caused it.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var ssnPattern = regexp.MustCompile(`^[0-9]{9}$`)

// Validator checks a form state before export. EmbeddedFont reports whether
// the output PDF carries a full font for the given language; when it returns
// false every textual value must survive Windows-1252 so the template's base
// fonts can render it. A nil func means no language has an embedded font.
type Validator struct {
	EmbeddedFont func(language string) bool
}

// Validate returns every failure found, one FieldError per offending field.
// An empty slice means the state is exportable.
func (v *Validator) Validate(s *State, language string) []FieldError {
	var errs []FieldError

	for _, field := range []string{FieldWhinerName, FieldAuthorizedName, FieldOffenderName} {
		if strings.TrimSpace(s.Get(field)) == "" {
			errs = append(errs, FieldError{field, "This field is required"})
		}
	}

	declared := strings.TrimSpace(s.Get(FieldWhinerName))
	authorized := strings.TrimSpace(s.Get(FieldAuthorizedName))
	if declared != "" && authorized != "" && declared != authorized {
		errs = append(errs, FieldError{FieldAuthorizedName,
			"Name must match the name entered in Part I"})
	}

	if ssn := s.Get(FieldSocialSecurity); ssn != "" && !ssnPattern.MatchString(ssn) {
		errs = append(errs, FieldError{FieldSocialSecurity,
			"Social Security Number must be exactly 9 digits"})
	}

	if v.EmbeddedFont == nil || !v.EmbeddedFont(language) {
		errs = append(errs, v.checkEncoding(s)...)
	}
	return errs
}

// checkEncoding rejects characters the template's Latin base fonts cannot
// show. Every canonical textual field is checked, the signature included.
func (v *Validator) checkEncoding(s *State) []FieldError {
	var errs []FieldError
	for _, f := range Fields {
		if f.Kind == KindBool {
			continue
		}
		value := s.Get(f.ID)
		if r, ok := firstUnencodable(value); !ok {
			errs = append(errs, FieldError{f.ID,
				fmt.Sprintf("Character %q cannot be printed on this form", r)})
		}
	}
	return errs
}

func firstUnencodable(value string) (rune, bool) {
	for _, r := range value {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return r, false
		}
	}
	return 0, true
}
