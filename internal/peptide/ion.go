package peptide

import (
	"github.com/tkemmer/rustims/internal/chem"
	"github.com/tkemmer/rustims/internal/spectra"
)

// Ion is a peptide sequence at a charge state with a relative intensity.
type Ion struct {
	Sequence  Sequence
	Charge    int
	Intensity float64
}

// NewIon validates the sequence and builds an ion.
func NewIon(sequence string, charge int, intensity float64) (Ion, error) {
	seq, err := NewSequence(sequence)
	if err != nil {
		return Ion{}, err
	}
	return Ion{Sequence: seq, Charge: charge, Intensity: intensity}, nil
}

// Mz is the mass-to-charge ratio of the ion.
func (i Ion) Mz() float64 {
	return chem.Mz(i.Sequence.MonoisotopicMass(), i.Charge)
}

// IsotopeDistribution generates the ion's isotope envelope as m/z-abundance
// pairs: envelope peaks merged within massTolerance, cut at
// abundanceThreshold and maxResult, then filtered by intensityMin.
func (i Ion) IsotopeDistribution(massTolerance, abundanceThreshold float64, maxResult int, intensityMin float64) spectra.MzSpectrum {
	return isotopeSpectrum(i.Sequence.AtomicComposition(), i.Charge, massTolerance, abundanceThreshold, maxResult, intensityMin)
}

func isotopeSpectrum(composition chem.Composition, charge int, massTolerance, abundanceThreshold float64, maxResult int, intensityMin float64) spectra.MzSpectrum {
	dist := chem.IsotopeDistribution(composition, massTolerance, abundanceThreshold, maxResult)
	var spec spectra.MzSpectrum
	for _, p := range dist {
		if p.Abundance <= intensityMin {
			continue
		}
		spec.Mz = append(spec.Mz, chem.Mz(p.Mass, charge))
		spec.Intensity = append(spec.Intensity, p.Abundance)
	}
	return spec
}

// FragmentType is one of the six product-ion series.
type FragmentType int

const (
	FragmentA FragmentType = iota
	FragmentB
	FragmentC
	FragmentX
	FragmentY
	FragmentZ
)

func (t FragmentType) String() string {
	switch t {
	case FragmentA:
		return "a"
	case FragmentB:
		return "b"
	case FragmentC:
		return "c"
	case FragmentX:
		return "x"
	case FragmentY:
		return "y"
	case FragmentZ:
		return "z"
	default:
		return "?"
	}
}

// ParseFragmentType maps a series letter (either case) to its FragmentType.
func ParseFragmentType(s string) (FragmentType, bool) {
	switch s {
	case "a", "A":
		return FragmentA, true
	case "b", "B":
		return FragmentB, true
	case "c", "C":
		return FragmentC, true
	case "x", "X":
		return FragmentX, true
	case "y", "Y":
		return FragmentY, true
	case "z", "Z":
		return FragmentZ, true
	}
	return 0, false
}

// nTerminalKind returns the series type emitted on the N-terminal side when
// the given series is requested, and cTerminalKind its C-terminal partner.
// The pairing is the fixed correspondence A<->X, B<->Y, C<->Z.
func nTerminalKind(t FragmentType) FragmentType {
	switch t {
	case FragmentX:
		return FragmentA
	case FragmentY:
		return FragmentB
	case FragmentZ:
		return FragmentC
	default:
		return t
	}
}

func cTerminalKind(t FragmentType) FragmentType {
	switch t {
	case FragmentA:
		return FragmentX
	case FragmentB:
		return FragmentY
	case FragmentC:
		return FragmentZ
	default:
		return t
	}
}

// ProductIon is a fragment of one of the six series.
type ProductIon struct {
	Kind FragmentType
	Ion  Ion
}

// NewProductIon validates the sequence and builds a product ion.
func NewProductIon(kind FragmentType, sequence string, charge int, intensity float64) (ProductIon, error) {
	ion, err := NewIon(sequence, charge, intensity)
	if err != nil {
		return ProductIon{}, err
	}
	return ProductIon{Kind: kind, Ion: ion}, nil
}

// Fixed composition adjustments per ion series, applied to the composition
// of the fragment's full (water-terminated) sequence.
func (p ProductIon) compositionOffset() chem.Composition {
	switch p.Kind {
	case FragmentA:
		return chem.Composition{"H": -2, "O": -2, "C": -1}
	case FragmentB:
		return chem.Composition{"H": -2, "O": -1}
	case FragmentC:
		return chem.Composition{"H": 1, "N": 1, "O": -1}
	case FragmentX:
		return chem.Composition{"C": 1, "O": 1}
	case FragmentY:
		return chem.Composition{}
	case FragmentZ:
		return chem.Composition{"H": -1, "N": -3}
	default:
		return chem.Composition{}
	}
}

// AtomicComposition is the fragment's elemental composition: the full
// sequence composition adjusted by the series offset.
func (p ProductIon) AtomicComposition() chem.Composition {
	comp := p.Ion.Sequence.AtomicComposition()
	comp.Add(p.compositionOffset())
	return comp
}

// MonoisotopicMass derives the fragment mass from the adjusted composition
// plus any modification masses carried by the fragment sequence.
func (p ProductIon) MonoisotopicMass() float64 {
	mass := p.Ion.Sequence.MonoisotopicMass()
	mass += p.compositionOffset().MonoisotopicMass()
	return mass
}

// Mz is the fragment's mass-to-charge ratio.
func (p ProductIon) Mz() float64 {
	return chem.Mz(p.MonoisotopicMass(), p.Ion.Charge)
}

// IsotopeDistribution generates the fragment's isotope envelope; see
// Ion.IsotopeDistribution for the parameters.
func (p ProductIon) IsotopeDistribution(massTolerance, abundanceThreshold float64, maxResult int, intensityMin float64) spectra.MzSpectrum {
	return isotopeSpectrum(p.AtomicComposition(), p.Ion.Charge, massTolerance, abundanceThreshold, maxResult, intensityMin)
}
