package form

import (
	"fmt"
	"strings"
)

// Reserved query parameters that are not field aliases.
const (
	ParamLanguage = "language"
	ParamExport   = "export"
	ParamSubmit   = "submit"
)

// Alias binds a query-string parameter name to a canonical field. Exactly one
// alias per field is Preferred; serialization emits that one, parsing accepts
// all of them.
type Alias struct {
	Name      string
	Field     string
	Preferred bool
}

// Aliases is the full alias table, short names first, legacy long names last.
var Aliases = buildAliases()

func buildAliases() []Alias {
	aliases := []Alias{
		{"p1a", FieldWhinerName, true},
		{"p1b", FieldSocialSecurity, true},
		{"p1c", FieldReportDate, true},
		{"p1d", FieldOrganization, true},
		{"p1e", FieldPreparerName, true},
		{"p2a", FieldIncidentDate, true},
		{"p2b", FieldIncidentTime, true},
		{"p2c", FieldLocation, true},
		{"p2d", FieldOffenderName, true},
		{"p2e", FieldOffenderOrg, true},
		{"p31", "injury_question1", true},
		{"p32", "injury_question2", true},
		{"p33", "injury_question3", true},
		{"p34", "injury_question4", true},
	}
	for i := 1; i <= ReasonCount; i++ {
		aliases = append(aliases, Alias{fmt.Sprintf("p4%d", i), ReasonFieldID(i), true})
	}
	return append(aliases,
		Alias{"p5", FieldNarrative, true},
		Alias{"p5a", FieldAuthorizedName, true},
		Alias{"p4a", FieldAuthorizedName, false},
		Alias{"part_1_a", FieldWhinerName, false},
		Alias{"part_4_a", FieldAuthorizedName, false},
		Alias{"part_4_b", FieldSignature, true},
	)
}

var (
	aliasByName    map[string]Alias
	preferredAlias map[string]string
)

func init() {
	var err error
	aliasByName, preferredAlias, err = indexAliases(Aliases)
	if err != nil {
		panic(err)
	}
}

// indexAliases builds the lookup maps and rejects malformed tables: duplicate
// alias names (case-insensitive), aliases shadowing reserved parameters or
// canonical field ids, aliases for unknown fields, and fields with zero or
// more than one preferred alias.
func indexAliases(aliases []Alias) (byName map[string]Alias, preferred map[string]string, err error) {
	byName = make(map[string]Alias, len(aliases))
	preferred = make(map[string]string, len(Fields))
	for _, a := range aliases {
		lower := strings.ToLower(a.Name)
		if lower == ParamLanguage || lower == ParamExport || lower == ParamSubmit {
			return nil, nil, fmt.Errorf("alias %q shadows a reserved parameter", a.Name)
		}
		if _, dup := byName[lower]; dup {
			return nil, nil, fmt.Errorf("duplicate alias %q", a.Name)
		}
		if _, known := FieldByID(a.Field); !known {
			return nil, nil, fmt.Errorf("alias %q targets unknown field %q", a.Name, a.Field)
		}
		byName[lower] = a
		if a.Preferred {
			if prev, have := preferred[a.Field]; have {
				return nil, nil, fmt.Errorf("field %q has preferred aliases %q and %q", a.Field, prev, a.Name)
			}
			preferred[a.Field] = a.Name
		}
	}
	for _, f := range Fields {
		if lower := strings.ToLower(f.ID); byName[lower] != (Alias{}) && byName[lower].Field != f.ID {
			return nil, nil, fmt.Errorf("alias %q shadows field id", f.ID)
		}
		if _, have := preferred[f.ID]; !have {
			return nil, nil, fmt.Errorf("field %q has no preferred alias", f.ID)
		}
	}
	return byName, preferred, nil
}

// ResolveAlias maps a query parameter name to its canonical field. Canonical
// field ids resolve to themselves, so long-form links keep working.
func ResolveAlias(name string) (field string, ok bool) {
	if a, hit := aliasByName[strings.ToLower(name)]; hit {
		return a.Field, true
	}
	if _, known := FieldByID(name); known {
		return name, true
	}
	return "", false
}

// PreferredAlias returns the short name serialization uses for a field.
func PreferredAlias(field string) string {
	return preferredAlias[field]
}
