package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynchronizerMirrorsNames(t *testing.T) {
	st := NewState()
	y := NewSynchronizer(st)

	y.SetDeclaredName("Jane Doe")
	assert.Equal(t, "Jane Doe", st.Get(FieldWhinerName))
	assert.Equal(t, "Jane Doe", st.Get(FieldAuthorizedName))
	assert.Equal(t, "Jane Doe", st.Get(FieldSignature))
	assert.Equal(t, ProvenanceDerived, st.SignatureProvenance)

	y.SetAuthorizedName("Janet Doe")
	assert.Equal(t, "Janet Doe", st.Get(FieldWhinerName), "edit from either side mirrors")
	assert.Equal(t, "Janet Doe", st.Get(FieldSignature))
}

func TestSynchronizerDerivedSignatureNormalizes(t *testing.T) {
	st := NewState()
	y := NewSynchronizer(st)

	y.SetDeclaredName("  Jane   Q.   Doe ")
	assert.Equal(t, "Jane Q. Doe", st.Get(FieldSignature))
	assert.Equal(t, "  Jane   Q.   Doe ", st.Get(FieldWhinerName), "name keeps its spacing")
}

func TestSynchronizerExplicitSignatureSurvivesNameEdits(t *testing.T) {
	st := NewState()
	y := NewSynchronizer(st)

	y.SetDeclaredName("Jane Doe")
	y.SetSignature("JD flourish")
	assert.Equal(t, ProvenanceExplicit, st.SignatureProvenance)

	y.SetDeclaredName("Someone Else")
	assert.Equal(t, "JD flourish", st.Get(FieldSignature), "explicit signature is pinned")
	assert.Equal(t, "Someone Else", st.Get(FieldAuthorizedName))
}

func TestSynchronizerClearingNameResetsSignature(t *testing.T) {
	st := NewState()
	y := NewSynchronizer(st)

	y.SetDeclaredName("Jane Doe")
	y.SetSignature("JD flourish")
	y.SetAuthorizedName("   ")
	assert.Empty(t, st.Get(FieldSignature))
	assert.Equal(t, ProvenanceDerived, st.SignatureProvenance)

	y.SetDeclaredName("Back Again")
	assert.Equal(t, "Back Again", st.Get(FieldSignature), "derivation resumes after the reset")
}

func TestSynchronizerClearingSignatureResumesDerivation(t *testing.T) {
	st := NewState()
	y := NewSynchronizer(st)

	y.SetDeclaredName("Jane Doe")
	y.SetSignature("JD flourish")
	y.SetSignature("")
	assert.Equal(t, "Jane Doe", st.Get(FieldSignature))
	assert.Equal(t, ProvenanceDerived, st.SignatureProvenance)
}
