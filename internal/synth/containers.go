// Package synth builds simulated TimsTOF frames from a database of
// synthetic peptides, ions and acquisition-window settings. It contains the
// data handle over the backing store, the quadrupole transmission and
// collision-energy models, and the precursor and DIA fragment frame
// builders.
package synth

import (
	"math"

	"github.com/tkemmer/rustims/internal/spectra"
)

// PeptideSim is one row of the peptides table. FrameOccurrence and
// FrameAbundance are parallel, index-aligned sequences.
type PeptideSim struct {
	PeptideID       int
	Sequence        string
	Proteins        string
	Decoy           bool
	MissedCleavages int
	NTerm           *bool
	CTerm           *bool
	MonoMass        float64
	RetentionTime   float64
	Events          float64
	FrameOccurrence []int
	FrameAbundance  []float64
}

// IonSim is one row of the ions table. ScanOccurrence and ScanAbundance are
// parallel, index-aligned sequences over scan numbers.
type IonSim struct {
	PeptideID         int
	Mz                float64
	MonoMass          float64
	Charge            int
	RelativeAbundance float64
	Mobility          float64
	Spectrum          spectra.MzSpectrum
	ScanOccurrence    []int
	ScanAbundance     []float64
}

// ScanSim maps a scan number to its inverse ion mobility.
type ScanSim struct {
	Scan     int
	Mobility float64
}

// FrameSim is one row of the frames table.
type FrameSim struct {
	FrameID int
	Time    float64
	MsType  int64
}

// ParseMsType decodes the raw acquisition-type code of the frame.
func (f FrameSim) ParseMsType() spectra.MsType {
	return spectra.ParseMsType(f.MsType)
}

// WindowGroupSettingSim is one DIA isolation window: a scan range with an
// isolation center, width and collision energy.
type WindowGroupSettingSim struct {
	WindowGroup     int
	ScanStart       int
	ScanEnd         int
	IsolationMz     float64
	IsolationWidth  float64
	CollisionEnergy float64
}

// FrameToWindowGroupSim assigns a fragment frame to its window group.
type FrameToWindowGroupSim struct {
	FrameID     int
	WindowGroup int
}

// FragmentIonSeries is one precomputed fragment-ion intensity series,
// stored as a simulated spectrum with optional per-peak provenance.
type FragmentIonSeries struct {
	Mz          []float64 `json:"mz"`
	Intensity   []float64 `json:"intensity"`
	Annotations []string  `json:"annotations,omitempty"`
}

// ToMzSpectrum returns the series as a plain spectrum.
func (s FragmentIonSeries) ToMzSpectrum() spectra.MzSpectrum {
	return spectra.MzSpectrum{Mz: s.Mz, Intensity: s.Intensity}
}

// FragmentIonSim is one row of the fragment_ions table: the fragment-ion
// series predicted for a peptide at a charge and collision energy.
type FragmentIonSim struct {
	PeptideID           int
	Charge              int
	CollisionEnergy     float64
	FragmentIntensities []FragmentIonSeries
}

// FragmentKey addresses the fragment-ion index. Collision energies are
// quantized to a signed byte; close energies collapsing to one bucket is
// accepted in exchange for a small lookup table.
type FragmentKey struct {
	PeptideID int
	Charge    int
	Energy    int8
}

// QuantizeEnergy buckets a collision energy: scaled by 1000, rounded, then
// saturated at the signed byte bounds. Energies beyond +-0.127 all land on
// the nearest bound; keys still match because both sides of a lookup
// quantize identically.
func QuantizeEnergy(collisionEnergy float64) int8 {
	q := math.Round(collisionEnergy * 1e3)
	if q > math.MaxInt8 {
		return math.MaxInt8
	}
	if q < math.MinInt8 {
		return math.MinInt8
	}
	return int8(q)
}
