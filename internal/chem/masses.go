// Package chem provides the chemistry primitives for peptide simulation:
// monoisotopic masses, atomic compositions, UNIMOD modifications and
// isotope envelope generation.
package chem

// Monoisotopic element masses
const (
	MassH  = 1.0078250319
	MassC  = 12.0000000000
	MassN  = 14.0030740052
	MassO  = 15.9949146221
	MassS  = 31.9720706900
	MassP  = 30.9737615100
	MassSe = 79.9165218000

	MassProton = 1.007276466879
	MassWater  = 18.0105646863
)

// Masses of amino acid residues (minus H2O)
var residueMass = map[rune]float64{
	'A': 71.0371138,
	'C': 103.0091848,
	'D': 115.0269430,
	'E': 129.0425931,
	'F': 147.0684139,
	'G': 57.0214637,
	'H': 137.0589119,
	'I': 113.0840640,
	'K': 128.0949630,
	'L': 113.0840640,
	'M': 131.0404849,
	'N': 114.0429274,
	'P': 97.0527638,
	'O': 237.1477269, // Pyrrolysine
	'Q': 128.0585775,
	'R': 156.1011110,
	'S': 87.0320284,
	'T': 101.0476785,
	'U': 150.9536334, // Selenocysteine
	'V': 99.0684139,
	'W': 186.0793129,
	'Y': 163.0633285,
}

// Composition counts atoms per element, e.g. {"C": 2, "H": 3, "N": 1, "O": 1}
// for a glycine residue. The zero value is the empty composition.
type Composition map[string]int

// Elemental compositions of amino acid residues (minus H2O)
var residueComposition = map[rune]Composition{
	'A': {"C": 3, "H": 5, "N": 1, "O": 1},
	'C': {"C": 3, "H": 5, "N": 1, "O": 1, "S": 1},
	'D': {"C": 4, "H": 5, "N": 1, "O": 3},
	'E': {"C": 5, "H": 7, "N": 1, "O": 3},
	'F': {"C": 9, "H": 9, "N": 1, "O": 1},
	'G': {"C": 2, "H": 3, "N": 1, "O": 1},
	'H': {"C": 6, "H": 7, "N": 3, "O": 1},
	'I': {"C": 6, "H": 11, "N": 1, "O": 1},
	'K': {"C": 6, "H": 12, "N": 2, "O": 1},
	'L': {"C": 6, "H": 11, "N": 1, "O": 1},
	'M': {"C": 5, "H": 9, "N": 1, "O": 1, "S": 1},
	'N': {"C": 4, "H": 6, "N": 2, "O": 2},
	'P': {"C": 5, "H": 7, "N": 1, "O": 1},
	'O': {"C": 12, "H": 19, "N": 3, "O": 2},
	'Q': {"C": 5, "H": 8, "N": 2, "O": 2},
	'R': {"C": 6, "H": 12, "N": 4, "O": 1},
	'S': {"C": 3, "H": 5, "N": 1, "O": 2},
	'T': {"C": 4, "H": 7, "N": 1, "O": 2},
	'U': {"C": 3, "H": 5, "N": 1, "O": 1, "Se": 1},
	'V': {"C": 5, "H": 9, "N": 1, "O": 1},
	'W': {"C": 11, "H": 10, "N": 2, "O": 1},
	'Y': {"C": 9, "H": 9, "N": 1, "O": 2},
}

// IsAminoAcid reports whether r is one of the residues the simulation
// understands (the 20 standard amino acids plus selenocysteine and
// pyrrolysine).
func IsAminoAcid(r rune) bool {
	_, ok := residueMass[r]
	return ok
}

// ResidueMass returns the monoisotopic residue mass (without water) of r.
func ResidueMass(r rune) (float64, bool) {
	m, ok := residueMass[r]
	return m, ok
}

// ResidueComposition returns a copy of the elemental composition of r.
func ResidueComposition(r rune) (Composition, bool) {
	c, ok := residueComposition[r]
	if !ok {
		return nil, false
	}
	out := make(Composition, len(c))
	for el, n := range c {
		out[el] = n
	}
	return out, true
}

// Add accumulates other into c.
func (c Composition) Add(other Composition) {
	for el, n := range other {
		c[el] += n
	}
}

// MonoisotopicMass sums the element masses of the composition.
func (c Composition) MonoisotopicMass() float64 {
	var m float64
	for el, n := range c {
		m += elementMass[el] * float64(n)
	}
	return m
}

var elementMass = map[string]float64{
	"H":  MassH,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"S":  MassS,
	"P":  MassP,
	"Se": MassSe,
}

// Mz converts a neutral monoisotopic mass to the m/z of the given charge
// state by proton addition.
func Mz(monoMass float64, charge int) float64 {
	z := float64(charge)
	return (monoMass + z*MassProton) / z
}
