// Package peptide implements the peptide-ion chemistry layer: validated
// sequences, precursor and product ions, fragment-ion series and the
// association of externally predicted fragment intensities.
package peptide

import (
	"fmt"

	"github.com/tkemmer/rustims/internal/chem"
)

// Sequence is a validated amino-acid sequence with optional inline
// modification tags ([UNIMOD:id]). Immutable once built.
type Sequence struct {
	raw string
}

// NewSequence validates raw and returns it as a Sequence. Every character
// outside a modification tag must be a known amino acid and every tag a
// known UNIMOD entry.
func NewSequence(raw string) (Sequence, error) {
	stripped := chem.StripModifications(raw)
	for _, r := range stripped {
		if !chem.IsAminoAcid(r) {
			return Sequence{}, fmt.Errorf("peptide: invalid amino acid %q in sequence %q", r, raw)
		}
	}
	if _, err := chem.ModificationMasses(raw); err != nil {
		return Sequence{}, err
	}
	return Sequence{raw: raw}, nil
}

// mustSequence wraps a string that is known valid, e.g. a slice of tokens
// of an already validated sequence.
func mustSequence(raw string) Sequence {
	return Sequence{raw: raw}
}

// String returns the raw sequence including modification tags.
func (s Sequence) String() string { return s.raw }

// Stripped returns the sequence without modification tags.
func (s Sequence) Stripped() string { return chem.StripModifications(s.raw) }

// MonoisotopicMass is the neutral monoisotopic mass: residue masses plus
// one water plus all inline modification masses.
func (s Sequence) MonoisotopicMass() float64 {
	mass := chem.MassWater
	for _, r := range s.Stripped() {
		m, _ := chem.ResidueMass(r)
		mass += m
	}
	mods, _ := chem.ModificationMasses(s.raw)
	for _, m := range mods {
		mass += m
	}
	return mass
}

// AtomicComposition is the elemental composition of the neutral peptide,
// water included. Modifications with a known elemental composition
// contribute atoms; others only contribute mass via MonoisotopicMass.
func (s Sequence) AtomicComposition() chem.Composition {
	comp := chem.Composition{"H": 2, "O": 1}
	for _, r := range s.Stripped() {
		rc, _ := chem.ResidueComposition(r)
		comp.Add(rc)
	}
	return comp
}

// Tokens splits the sequence into residue tokens; with grouping, a
// modification tag stays attached to its residue.
func (s Sequence) Tokens(groupModifications bool) []string {
	return chem.Tokenize(s.raw, groupModifications)
}

// AminoAcidCount is the number of residues, modifications not counted.
func (s Sequence) AminoAcidCount() int {
	return len(s.Tokens(true))
}
