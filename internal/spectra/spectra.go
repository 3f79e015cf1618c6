// Package spectra holds the mass-spectrum and frame value types shared by
// the simulation builders: flat m/z spectra, mobility-resolved spectra and
// full instrument frames.
package spectra

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// MsType classifies a frame by its acquisition mode.
type MsType int

const (
	MsTypeUnknown MsType = iota
	MsTypePrecursor
	MsTypeFragmentDDA
	MsTypeFragmentDIA
)

// Raw acquisition-type codes as stored in the frames table
const (
	rawPrecursor   = 0
	rawFragmentDDA = 8
	rawFragmentDIA = 9
)

// ParseMsType maps a raw acquisition-type code to an MsType.
func ParseMsType(code int64) MsType {
	switch code {
	case rawPrecursor:
		return MsTypePrecursor
	case rawFragmentDDA:
		return MsTypeFragmentDDA
	case rawFragmentDIA:
		return MsTypeFragmentDIA
	default:
		return MsTypeUnknown
	}
}

// RawCode is the inverse of ParseMsType; unknown types map to -1.
func (t MsType) RawCode() int64 {
	switch t {
	case MsTypePrecursor:
		return rawPrecursor
	case MsTypeFragmentDDA:
		return rawFragmentDDA
	case MsTypeFragmentDIA:
		return rawFragmentDIA
	default:
		return -1
	}
}

func (t MsType) String() string {
	switch t {
	case MsTypePrecursor:
		return "precursor"
	case MsTypeFragmentDDA:
		return "fragment-dda"
	case MsTypeFragmentDIA:
		return "fragment-dia"
	default:
		return "unknown"
	}
}

// MzSpectrum is a flat spectrum of parallel m/z and intensity arrays.
type MzSpectrum struct {
	Mz        []float64 `json:"mz"`
	Intensity []float64 `json:"intensity"`
}

// Scaled returns a copy of the spectrum with all intensities multiplied
// by factor.
func (s MzSpectrum) Scaled(factor float64) MzSpectrum {
	intensity := make([]float64, len(s.Intensity))
	copy(intensity, s.Intensity)
	floats.Scale(factor, intensity)
	mz := make([]float64, len(s.Mz))
	copy(mz, s.Mz)
	return MzSpectrum{Mz: mz, Intensity: intensity}
}

// Filtered returns the peaks with mz in [mzMin, mzMax] and intensity in
// [intensityMin, intensityMax].
func (s MzSpectrum) Filtered(mzMin, mzMax, intensityMin, intensityMax float64) MzSpectrum {
	var out MzSpectrum
	for i, mz := range s.Mz {
		if mz < mzMin || mz > mzMax {
			continue
		}
		if s.Intensity[i] < intensityMin || s.Intensity[i] > intensityMax {
			continue
		}
		out.Mz = append(out.Mz, mz)
		out.Intensity = append(out.Intensity, s.Intensity[i])
	}
	return out
}

// TotalIntensity sums all peak intensities.
func (s MzSpectrum) TotalIntensity() float64 {
	return floats.Sum(s.Intensity)
}

// TimsSpectrum is one mobility-resolved sub-spectrum: the peaks observed in
// a single scan of a single frame.
type TimsSpectrum struct {
	FrameID       int
	Scan          int
	RetentionTime float64
	Mobility      float64
	MsType        MsType
	Spectrum      MzSpectrum
}

// Frame is one full acquisition cycle: parallel arrays over all peaks of
// all scans, ordered by (scan, mz).
type Frame struct {
	FrameID       int
	MsType        MsType
	RetentionTime float64
	Scan          []int
	Tof           []int
	Mz            []float64
	Intensity     []float64
	InvMobility   []float64
}

// Peaks with m/z values matching after quantization to this precision are
// accumulated into one detector bin.
const mzBinScale = 1e6

// FrameFromSpectra merges sub-spectra into one frame, accumulating the
// intensities of peaks that fall into the same (scan, mz) bin. Frame ID,
// retention time and MS type are taken from the first spectrum. Time-of-
// flight indices are not simulated and stay zero.
func FrameFromSpectra(spectra []TimsSpectrum) Frame {
	var frame Frame
	if len(spectra) == 0 {
		return frame
	}
	frame.FrameID = spectra[0].FrameID
	frame.MsType = spectra[0].MsType
	frame.RetentionTime = spectra[0].RetentionTime

	type bin struct {
		scan int
		key  int64
	}
	intensities := make(map[bin]float64)
	mzOf := make(map[bin]float64)
	mobilityOf := make(map[int]float64)

	for _, ts := range spectra {
		mobilityOf[ts.Scan] = ts.Mobility
		for i, mz := range ts.Spectrum.Mz {
			b := bin{scan: ts.Scan, key: int64(math.Round(mz * mzBinScale))}
			intensities[b] += ts.Spectrum.Intensity[i]
			mzOf[b] = mz
		}
	}

	bins := make([]bin, 0, len(intensities))
	for b := range intensities {
		bins = append(bins, b)
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].scan != bins[j].scan {
			return bins[i].scan < bins[j].scan
		}
		return bins[i].key < bins[j].key
	})

	frame.Scan = make([]int, len(bins))
	frame.Tof = make([]int, len(bins))
	frame.Mz = make([]float64, len(bins))
	frame.Intensity = make([]float64, len(bins))
	frame.InvMobility = make([]float64, len(bins))
	for i, b := range bins {
		frame.Scan[i] = b.scan
		frame.Mz[i] = mzOf[b]
		frame.Intensity[i] = intensities[b]
		frame.InvMobility[i] = mobilityOf[b.scan]
	}
	return frame
}

// FilterRanged returns a copy of the frame restricted to the given m/z,
// scan, mobility and intensity windows (all bounds inclusive).
func (f Frame) FilterRanged(mzMin, mzMax float64, scanMin, scanMax int, mobilityMin, mobilityMax, intensityMin, intensityMax float64) Frame {
	out := Frame{FrameID: f.FrameID, MsType: f.MsType, RetentionTime: f.RetentionTime}
	for i := range f.Mz {
		if f.Mz[i] < mzMin || f.Mz[i] > mzMax {
			continue
		}
		if f.Scan[i] < scanMin || f.Scan[i] > scanMax {
			continue
		}
		if f.InvMobility[i] < mobilityMin || f.InvMobility[i] > mobilityMax {
			continue
		}
		if f.Intensity[i] < intensityMin || f.Intensity[i] > intensityMax {
			continue
		}
		out.Scan = append(out.Scan, f.Scan[i])
		out.Tof = append(out.Tof, f.Tof[i])
		out.Mz = append(out.Mz, f.Mz[i])
		out.Intensity = append(out.Intensity, f.Intensity[i])
		out.InvMobility = append(out.InvMobility, f.InvMobility[i])
	}
	return out
}

// RoundIntensities quantizes accumulated intensities to whole detector
// counts, in place.
func (f Frame) RoundIntensities() {
	for i, in := range f.Intensity {
		f.Intensity[i] = math.Round(in)
	}
}

// NumPeaks returns the number of peaks in the frame.
func (f Frame) NumPeaks() int {
	return len(f.Mz)
}
