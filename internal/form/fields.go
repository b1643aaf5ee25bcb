// Package form implements the canonical field model of the hurt-feelings
// report, the query-string codec with its legacy aliases, the cross-field
// synchronization rules, and form validation.
package form

import "fmt"

// Kind describes the value type of a canonical field.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindTime
	KindBool
	KindChoice
)

// Canonical field identifiers. These match the widget names of the PDF
// template, so the fill plan can address widgets directly.
const (
	FieldWhinerName     = "admin_whiner_name"
	FieldSocialSecurity = "admin_social_security"
	FieldReportDate     = "admin_report_date"
	FieldOrganization   = "admin_organization"
	FieldPreparerName   = "admin_preparer_name"
	FieldIncidentDate   = "incident_date"
	FieldIncidentTime   = "incident_time"
	FieldLocation       = "incident_location"
	FieldOffenderName   = "incident_offender_name"
	FieldOffenderOrg    = "incident_offender_org"
	FieldNarrative      = "narrative_text"
	FieldAuthorizedName = "auth_whiner_name"
	FieldSignature      = "auth_whiner_signature"
)

// ReasonCount is the number of independent "reason for filing" flags.
const ReasonCount = 15

// Field is a static descriptor for one logical form datum.
type Field struct {
	ID   string
	Kind Kind
}

// Fields lists every canonical field in form order. Serialization walks this
// list, so the canonical query string is stable.
var Fields = buildFields()

func buildFields() []Field {
	fields := []Field{
		{FieldWhinerName, KindText},
		{FieldSocialSecurity, KindText},
		{FieldReportDate, KindDate},
		{FieldOrganization, KindText},
		{FieldPreparerName, KindText},
		{FieldIncidentDate, KindDate},
		{FieldIncidentTime, KindTime},
		{FieldLocation, KindText},
		{FieldOffenderName, KindText},
		{FieldOffenderOrg, KindText},
		{"injury_question1", KindChoice},
		{"injury_question2", KindChoice},
		{"injury_question3", KindChoice},
		{"injury_question4", KindChoice},
	}
	for i := 1; i <= ReasonCount; i++ {
		fields = append(fields, Field{ReasonFieldID(i), KindBool})
	}
	return append(fields,
		Field{FieldNarrative, KindText},
		Field{FieldAuthorizedName, KindText},
		Field{FieldSignature, KindText},
	)
}

// ReasonFieldID maps the reason index (1-based, the order reasons appear on
// screen and in the p4N parameters) to the template's checkbox widget name.
// The template numbers its checkbox widgets in the same order it draws the
// labels, left to right within each row, so the mapping is identity.
func ReasonFieldID(n int) string {
	if n < 1 || n > ReasonCount {
		panic(fmt.Sprintf("reason index out of range: %d", n))
	}
	return fmt.Sprintf("reason_filing_%d", n)
}

// FieldByID returns the descriptor for a canonical field id.
func FieldByID(id string) (Field, bool) {
	for _, f := range Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// ReasonLabelKeys lists the translation keys of the 15 reasons in row-major
// (on-screen) order.
var ReasonLabelKeys = []string{
	"reason_thin_skinned",
	"reason_fix_problems",
	"reason_two_beers",
	"reason_wimp",
	"reason_easily_hurt",
	"reason_hands_pockets",
	"reason_hormones",
	"reason_not_signed_up",
	"reason_not_offered_post_brief",
	"reason_crybaby",
	"reason_not_hero",
	"reason_requested_post_brief",
	"reason_want_mommy",
	"reason_weather",
	"reason_all_above",
}
