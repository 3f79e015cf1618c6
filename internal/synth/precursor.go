package synth

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tkemmer/rustims/internal/spectra"
)

// ErrUnknownFrame is returned when a requested frame id has no row in the
// frames table.
var ErrUnknownFrame = errors.New("synth: unknown frame id")

func errUnknownFrameID(frameID int) error {
	return fmt.Errorf("%w: %d", ErrUnknownFrame, frameID)
}

// Final range filter applied to every built frame
const (
	frameMzMin        = 100.0
	frameMzMax        = 1700.0
	frameScanMin      = 0
	frameScanMax      = 1000
	frameMobilityMin  = 0.0
	frameMobilityMax  = 10.0
	frameIntensityMin = 1.0
	frameIntensityMax = 1e9
)

// Mixing constant for deriving per-frame noise seeds
const seedMix = 0x9e3779b97f4a7c15

// PrecursorFrameBuilder assembles MS1 frames from the per-ion abundance
// profiles. All lookup tables are built once at construction and read-only
// afterwards, so concurrent builds need no locking.
type PrecursorFrameBuilder struct {
	PrecursorFrameIDs map[int]struct{}
	FrameToAbundances map[int]FrameAbundances
	PeptideToIons     map[int]IonsOfPeptide
	PeptideToEvents   map[int]float64
	FrameToRT         map[int]float64
	ScanToMobility    map[int]float64

	// Noise, when non-nil, perturbs precursor m/z values. Each frame
	// derives its own deterministic source from the frame id.
	Noise *MzNoise
}

// NewPrecursorFrameBuilder loads all tables needed for MS1 assembly and
// builds the derived lookups.
func NewPrecursorFrameBuilder(h *DataHandle) (*PrecursorFrameBuilder, error) {
	frames, err := h.ReadFrames()
	if err != nil {
		return nil, err
	}
	scans, err := h.ReadScans()
	if err != nil {
		return nil, err
	}
	peptides, err := h.ReadPeptides()
	if err != nil {
		return nil, err
	}
	ions, err := h.ReadIons()
	if err != nil {
		return nil, err
	}

	return &PrecursorFrameBuilder{
		PrecursorFrameIDs: BuildPrecursorFrameIDSet(frames),
		FrameToAbundances: BuildFrameToAbundances(peptides),
		PeptideToIons:     BuildPeptideToIons(ions),
		PeptideToEvents:   BuildPeptideToEvents(peptides),
		FrameToRT:         BuildFrameToRT(frames),
		ScanToMobility:    BuildScanToMobility(scans),
	}, nil
}

// BuildPrecursorFrame assembles the MS1 frame for one frame id. A frame in
// which no peptide elutes is a valid, empty result.
func (b *PrecursorFrameBuilder) BuildPrecursorFrame(frameID int) (spectra.Frame, error) {
	return b.buildPrecursorFrame(frameID, b.Noise.fork(uint64(frameID)*seedMix))
}

func (b *PrecursorFrameBuilder) buildPrecursorFrame(frameID int, noise *MzNoise) (spectra.Frame, error) {
	rt, ok := b.FrameToRT[frameID]
	if !ok {
		return spectra.Frame{}, errUnknownFrameID(frameID)
	}

	empty := spectra.Frame{FrameID: frameID, MsType: spectra.MsTypePrecursor, RetentionTime: rt}

	abundances, ok := b.FrameToAbundances[frameID]
	if !ok {
		return empty, nil
	}

	var timsSpectra []spectra.TimsSpectrum
	for i, peptideID := range abundances.PeptideIDs {
		frameAbundance := abundances.Abundances[i]
		ions, ok := b.PeptideToIons[peptideID]
		if !ok {
			continue
		}
		totalEvents := b.PeptideToEvents[peptideID]

		for ionIdx, ionAbundance := range ions.Abundances {
			spectrum := ions.Spectra[ionIdx]
			scanOccurrence := ions.ScanOccurrences[ionIdx]
			scanAbundance := ions.ScanAbundances[ionIdx]

			for s, scan := range scanOccurrence {
				fractionEvents := frameAbundance * scanAbundance[s] * ionAbundance * totalEvents
				scaled := spectrum.Scaled(fractionEvents)
				if noise != nil {
					scaled.Mz = noise.ApplyAll(scaled.Mz)
				}
				timsSpectra = append(timsSpectra, spectra.TimsSpectrum{
					FrameID:       frameID,
					Scan:          scan,
					RetentionTime: rt,
					Mobility:      b.ScanToMobility[scan],
					MsType:        spectra.MsTypePrecursor,
					Spectrum:      scaled,
				})
			}
		}
	}

	if len(timsSpectra) == 0 {
		return empty, nil
	}

	frame := spectra.FrameFromSpectra(timsSpectra)
	frame = frame.FilterRanged(frameMzMin, frameMzMax, frameScanMin, frameScanMax,
		frameMobilityMin, frameMobilityMax, frameIntensityMin, frameIntensityMax)
	frame.RoundIntensities()
	return frame, nil
}

// BuildPrecursorFrames assembles many MS1 frames on a bounded worker pool.
// Results are sorted by ascending frame id; a failing frame does not abort
// its siblings, all per-frame errors are collected and joined.
func (b *PrecursorFrameBuilder) BuildPrecursorFrames(frameIDs []int, numThreads int) ([]spectra.Frame, error) {
	frames, errs := buildConcurrently(frameIDs, numThreads, b.BuildPrecursorFrame)
	return frames, errors.Join(errs...)
}

// buildConcurrently runs build for every id on a bounded pool, drops failed
// items and returns the successes sorted by frame id plus the collected
// errors.
func buildConcurrently(frameIDs []int, numThreads int, build func(int) (spectra.Frame, error)) ([]spectra.Frame, []error) {
	if numThreads < 1 {
		numThreads = 1
	}
	results := make([]*spectra.Frame, len(frameIDs))
	buildErrs := make([]error, len(frameIDs))

	var g errgroup.Group
	g.SetLimit(numThreads)
	for i, id := range frameIDs {
		i, id := i, id
		g.Go(func() error {
			frame, err := build(id)
			if err != nil {
				buildErrs[i] = err
				return nil
			}
			results[i] = &frame
			return nil
		})
	}
	g.Wait()

	frames := make([]spectra.Frame, 0, len(frameIDs))
	for _, f := range results {
		if f != nil {
			frames = append(frames, *f)
		}
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].FrameID < frames[j].FrameID })

	var errs []error
	for _, err := range buildErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return frames, errs
}
