package synth

import (
	"errors"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tkemmer/rustims/internal/spectra"
)

// FrameBuilderDIA assembles frames for a DIA acquisition scheme. Precursor
// frames are delegated to the embedded MS1 builder; fragment frames pass the
// precursor envelopes through the quadrupole model and substitute the
// predicted fragment-ion series at the active collision energy.
type FrameBuilderDIA struct {
	Precursor       *PrecursorFrameBuilder
	Transmission    *TransmissionDIA
	CollisionEnergy *CollisionEnergyDIA
	FragmentIons    map[FragmentKey][]FragmentIonSeries
	Peptides        map[int]PeptideSim

	// FragmentNoise, when non-nil, perturbs fragment m/z values. Precursor
	// frames use the MS1 builder's own noise.
	FragmentNoise *MzNoise

	fragmentFrameIDs []int
}

// NewFrameBuilderDIA loads all tables needed for DIA frame assembly.
func NewFrameBuilderDIA(h *DataHandle) (*FrameBuilderDIA, error) {
	precursor, err := NewPrecursorFrameBuilder(h)
	if err != nil {
		return nil, err
	}
	mapping, err := h.ReadFrameToWindowGroup()
	if err != nil {
		return nil, err
	}
	settings, err := h.ReadWindowGroupSettings()
	if err != nil {
		return nil, err
	}
	fragmentIons, err := h.ReadFragmentIons()
	if err != nil {
		return nil, err
	}
	peptides, err := h.ReadPeptides()
	if err != nil {
		return nil, err
	}

	fragmentFrameIDs := make([]int, 0, len(mapping))
	for _, fw := range mapping {
		fragmentFrameIDs = append(fragmentFrameIDs, fw.FrameID)
	}
	sort.Ints(fragmentFrameIDs)

	return &FrameBuilderDIA{
		Precursor:        precursor,
		Transmission:     NewTransmissionDIA(mapping, settings),
		CollisionEnergy:  NewCollisionEnergyDIA(mapping, settings),
		FragmentIons:     BuildFragmentIonIndex(fragmentIons),
		Peptides:         BuildPeptideMap(peptides),
		fragmentFrameIDs: fragmentFrameIDs,
	}, nil
}

// FragmentFrameIDs returns the ids of all fragment frames of the scheme in
// ascending order.
func (b *FrameBuilderDIA) FragmentFrameIDs() []int {
	ids := make([]int, len(b.fragmentFrameIDs))
	copy(ids, b.fragmentFrameIDs)
	return ids
}

// BuildFrame assembles the frame for one frame id. Precursor frames yield
// MS1 content. For fragment frames, fragment selects between true
// fragmentation via the predicted ion series and a quadrupole-filtered copy
// of the precursor signal (no fragmentation, transmission only).
func (b *FrameBuilderDIA) BuildFrame(frameID int, fragment bool) (spectra.Frame, error) {
	if _, ok := b.Precursor.PrecursorFrameIDs[frameID]; ok {
		return b.Precursor.BuildPrecursorFrame(frameID)
	}
	if !fragment {
		return b.buildTransmittedFrame(frameID)
	}
	return b.buildFragmentFrame(frameID, b.FragmentNoise.fork(uint64(frameID)*seedMix))
}

// buildTransmittedFrame passes the MS1 signal through the quadrupole without
// fragmenting, keeping only transmitted peaks and retagging the frame.
func (b *FrameBuilderDIA) buildTransmittedFrame(frameID int) (spectra.Frame, error) {
	frame, err := b.Precursor.BuildPrecursorFrame(frameID)
	if err != nil {
		return spectra.Frame{}, err
	}
	out := spectra.Frame{
		FrameID:       frame.FrameID,
		MsType:        spectra.MsTypeFragmentDIA,
		RetentionTime: frame.RetentionTime,
	}
	for i, mz := range frame.Mz {
		if !b.Transmission.IsTransmitted(frameID, frame.Scan[i], mz) {
			continue
		}
		out.Scan = append(out.Scan, frame.Scan[i])
		out.Tof = append(out.Tof, frame.Tof[i])
		out.Mz = append(out.Mz, mz)
		out.Intensity = append(out.Intensity, frame.Intensity[i])
		out.InvMobility = append(out.InvMobility, frame.InvMobility[i])
	}
	return out, nil
}

func (b *FrameBuilderDIA) buildFragmentFrame(frameID int, noise *MzNoise) (spectra.Frame, error) {
	rt, ok := b.Precursor.FrameToRT[frameID]
	if !ok {
		return spectra.Frame{}, errUnknownFrameID(frameID)
	}

	empty := spectra.Frame{FrameID: frameID, MsType: spectra.MsTypeFragmentDIA, RetentionTime: rt}

	abundances, ok := b.Precursor.FrameToAbundances[frameID]
	if !ok {
		return empty, nil
	}

	var timsSpectra []spectra.TimsSpectrum
	for i, peptideID := range abundances.PeptideIDs {
		frameAbundance := abundances.Abundances[i]
		ions, ok := b.Precursor.PeptideToIons[peptideID]
		if !ok {
			continue
		}
		totalEvents := b.Precursor.PeptideToEvents[peptideID]

		for ionIdx, ionAbundance := range ions.Abundances {
			envelope := ions.Spectra[ionIdx]
			charge := ions.Charges[ionIdx]
			scanOccurrence := ions.ScanOccurrences[ionIdx]
			scanAbundance := ions.ScanAbundances[ionIdx]

			for s, scan := range scanOccurrence {
				if !b.Transmission.AnyTransmitted(frameID, scan, envelope.Mz) {
					continue
				}
				key := FragmentKey{
					PeptideID: peptideID,
					Charge:    charge,
					Energy:    QuantizeEnergy(b.CollisionEnergy.Get(frameID, scan)),
				}
				seriesList, ok := b.FragmentIons[key]
				if !ok {
					continue
				}
				fractionEvents := frameAbundance * scanAbundance[s] * ionAbundance * totalEvents
				for _, series := range seriesList {
					scaled := series.ToMzSpectrum().Scaled(fractionEvents)
					if noise != nil {
						scaled.Mz = noise.ApplyAll(scaled.Mz)
					}
					timsSpectra = append(timsSpectra, spectra.TimsSpectrum{
						FrameID:       frameID,
						Scan:          scan,
						RetentionTime: rt,
						Mobility:      b.Precursor.ScanToMobility[scan],
						MsType:        spectra.MsTypeFragmentDIA,
						Spectrum:      scaled,
					})
				}
			}
		}
	}

	if len(timsSpectra) == 0 {
		return empty, nil
	}

	frame := spectra.FrameFromSpectra(timsSpectra)
	frame.MsType = spectra.MsTypeFragmentDIA
	frame = frame.FilterRanged(frameMzMin, frameMzMax, frameScanMin, frameScanMax,
		frameMobilityMin, frameMobilityMax, frameIntensityMin, frameIntensityMax)
	frame.RoundIntensities()
	return frame, nil
}

// BuildFrames assembles many frames on a bounded worker pool. Results are
// sorted by ascending frame id; per-frame errors are collected and joined
// instead of aborting the batch.
func (b *FrameBuilderDIA) BuildFrames(frameIDs []int, fragment bool, numThreads int) ([]spectra.Frame, error) {
	frames, errs := buildConcurrently(frameIDs, numThreads, func(id int) (spectra.Frame, error) {
		return b.BuildFrame(id, fragment)
	})
	return frames, errors.Join(errs...)
}

// GetCollisionEnergy returns the collision energy at a (frame, scan)
// coordinate, 0 outside any configured window.
func (b *FrameBuilderDIA) GetCollisionEnergy(frameID, scan int) float64 {
	return b.CollisionEnergy.Get(frameID, scan)
}

// GetCollisionEnergies returns the collision energies for all pairs of the
// given frames and scans, in row-major frame order.
func (b *FrameBuilderDIA) GetCollisionEnergies(frameIDs, scans []int) []float64 {
	energies := make([]float64, 0, len(frameIDs)*len(scans))
	for _, frameID := range frameIDs {
		for _, scan := range scans {
			energies = append(energies, b.CollisionEnergy.Get(frameID, scan))
		}
	}
	return energies
}

// TransmittedIon identifies one (peptide, charge) transmitted in one
// fragment frame together with the collision energy it was fragmented at.
type TransmittedIon struct {
	FrameID         int
	PeptideID       int
	Sequence        string
	Charge          int
	CollisionEnergy float64
}

type transmittedKey struct {
	frameID   int
	peptideID int
	charge    int
	energy    int
}

// GetTransmittedIons scans all fragment frames and returns every
// (frame, peptide, charge) combination whose precursor envelope passes the
// quadrupole, deduplicated with collision energies bucketed to 0.1 and
// sorted by frame, peptide, charge and collision energy.
func (b *FrameBuilderDIA) GetTransmittedIons(numThreads int) []TransmittedIon {
	if numThreads < 1 {
		numThreads = 1
	}

	var mu sync.Mutex
	seen := make(map[transmittedKey]TransmittedIon)

	var g errgroup.Group
	g.SetLimit(numThreads)
	for _, frameID := range b.fragmentFrameIDs {
		frameID := frameID
		g.Go(func() error {
			local := b.transmittedInFrame(frameID)
			mu.Lock()
			for k, v := range local {
				seen[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	ions := make([]TransmittedIon, 0, len(seen))
	for _, ion := range seen {
		ions = append(ions, ion)
	}
	sort.Slice(ions, func(i, j int) bool {
		if ions[i].FrameID != ions[j].FrameID {
			return ions[i].FrameID < ions[j].FrameID
		}
		if ions[i].PeptideID != ions[j].PeptideID {
			return ions[i].PeptideID < ions[j].PeptideID
		}
		if ions[i].Charge != ions[j].Charge {
			return ions[i].Charge < ions[j].Charge
		}
		return ions[i].CollisionEnergy < ions[j].CollisionEnergy
	})
	return ions
}

func (b *FrameBuilderDIA) transmittedInFrame(frameID int) map[transmittedKey]TransmittedIon {
	local := make(map[transmittedKey]TransmittedIon)
	abundances, ok := b.Precursor.FrameToAbundances[frameID]
	if !ok {
		return local
	}
	for _, peptideID := range abundances.PeptideIDs {
		ions, ok := b.Precursor.PeptideToIons[peptideID]
		if !ok {
			continue
		}
		sequence := b.Peptides[peptideID].Sequence
		for ionIdx := range ions.Abundances {
			envelope := ions.Spectra[ionIdx]
			charge := ions.Charges[ionIdx]
			for _, scan := range ions.ScanOccurrences[ionIdx] {
				if !b.Transmission.AnyTransmitted(frameID, scan, envelope.Mz) {
					continue
				}
				energy := b.CollisionEnergy.Get(frameID, scan)
				key := transmittedKey{
					frameID:   frameID,
					peptideID: peptideID,
					charge:    charge,
					energy:    int(math.Round(energy * 10)),
				}
				if _, ok := local[key]; ok {
					continue
				}
				local[key] = TransmittedIon{
					FrameID:         frameID,
					PeptideID:       peptideID,
					Sequence:        sequence,
					Charge:          charge,
					CollisionEnergy: energy,
				}
			}
		}
	}
	return local
}
