package form

import "strings"

// Provenance records how the signature value came to be. A derived signature
// tracks the authorized name; an explicit one was typed or drawn by the user
// and survives name edits.
type Provenance int

const (
	ProvenanceDerived Provenance = iota
	ProvenanceExplicit
)

func (p Provenance) String() string {
	if p == ProvenanceExplicit {
		return "explicit"
	}
	return "derived"
}

// State is the full logical content of one report form.
type State struct {
	// Values maps canonical field ids to raw string values. Booleans are
	// present with value "1" when checked and absent otherwise. Unknown
	// query keys are carried here too, under their raw name.
	Values map[string]string

	// SignatureProvenance applies to Values[FieldSignature].
	SignatureProvenance Provenance
}

// NewState returns an empty form state.
func NewState() *State {
	return &State{Values: make(map[string]string)}
}

// Get returns the value of a field, "" when unset.
func (s *State) Get(field string) string {
	return s.Values[field]
}

// Set stores a value, deleting the entry when the value is empty so that
// empty and absent stay indistinguishable.
func (s *State) Set(field, value string) {
	if value == "" {
		delete(s.Values, field)
		return
	}
	s.Values[field] = value
}

// Checked reports whether a boolean field is set.
func (s *State) Checked(field string) bool {
	return s.Values[field] == "1"
}

// SetChecked stores or clears a boolean field.
func (s *State) SetChecked(field string, on bool) {
	if on {
		s.Values[field] = "1"
	} else {
		delete(s.Values, field)
	}
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Values:              make(map[string]string, len(s.Values)),
		SignatureProvenance: s.SignatureProvenance,
	}
	for k, v := range s.Values {
		c.Values[k] = v
	}
	return c
}

// Equal reports whether two states carry the same values and signature
// provenance.
func (s *State) Equal(o *State) bool {
	if len(s.Values) != len(o.Values) || s.SignatureProvenance != o.SignatureProvenance {
		return false
	}
	for k, v := range s.Values {
		if o.Values[k] != v {
			return false
		}
	}
	return true
}

// DeriveSignature normalizes a name into its derived signature text:
// whitespace runs collapse to single spaces and the ends are trimmed.
func DeriveSignature(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
