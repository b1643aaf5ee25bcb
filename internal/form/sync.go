package form

import "strings"

// Synchronizer applies the cross-field update rules that keep the two name
// fields mirrored and the signature in step with them. All mutation of
// FieldWhinerName, FieldAuthorizedName and FieldSignature should go through
// it; direct writes bypass the invariants.
type Synchronizer struct {
	state *State
}

// NewSynchronizer wraps an existing state.
func NewSynchronizer(s *State) *Synchronizer {
	return &Synchronizer{state: s}
}

// SetDeclaredName updates the Part I name, mirrors it into the authorization
// block and refreshes a derived signature. An explicit signature is left
// alone unless the name is being cleared, which wipes the signature and
// returns it to derived tracking.
func (y *Synchronizer) SetDeclaredName(v string) {
	y.setName(v)
}

// SetAuthorizedName updates the Part V name. The rules are symmetric with
// SetDeclaredName.
func (y *Synchronizer) SetAuthorizedName(v string) {
	y.setName(v)
}

func (y *Synchronizer) setName(v string) {
	y.state.Set(FieldWhinerName, v)
	y.state.Set(FieldAuthorizedName, v)
	if strings.TrimSpace(v) == "" {
		y.state.Set(FieldSignature, "")
		y.state.SignatureProvenance = ProvenanceDerived
		return
	}
	if y.state.SignatureProvenance == ProvenanceDerived {
		y.state.Set(FieldSignature, DeriveSignature(v))
	}
}

// SetSignature records a user-provided signature. A non-empty value pins the
// signature as explicit; clearing it hands control back to derivation.
func (y *Synchronizer) SetSignature(v string) {
	if v == "" {
		y.state.SignatureProvenance = ProvenanceDerived
		y.state.Set(FieldSignature, DeriveSignature(y.state.Get(FieldAuthorizedName)))
		return
	}
	y.state.Set(FieldSignature, v)
	y.state.SignatureProvenance = ProvenanceExplicit
}
