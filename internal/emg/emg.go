// Package emg models chromatographic elution and ion-mobility drift peaks
// as exponentially modified Gaussian (EMG) densities and maps them onto the
// discrete frame/scan raster of the instrument.
package emg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// Span of the discretized search space used by BoundsForTarget, in units
// of sigma around the peak center.
const (
	lowerSearchSigma = 20.0
	upperSearchSigma = 60.0
)

// Gauss-Legendre node count per quadrature panel. A single 64-node panel
// only resolves a sigma-wide peak over spans up to a few tens of sigma, so
// wider intervals are split into panels of at most panelSigmaSpan sigma
// each. Panel boundaries depend only on the inputs, so results stay
// bit-identical for identical inputs; accuracy is ~1e-10 for the peak
// shapes used in simulation (sigma >= 0.01, lambda <= 10).
const (
	quadratureNodes = 64
	panelSigmaSpan  = 20.0
)

// Density evaluates the EMG probability density at x for peak center mu,
// width sigma and skew lambda.
func Density(x, mu, sigma, lambda float64) float64 {
	prefactor := lambda / 2 * math.Exp(lambda/2*(2*mu+lambda*sigma*sigma-2*x))
	return prefactor * math.Erfc((mu+lambda*sigma*sigma-x)/(math.Sqrt2*sigma))
}

// CdfRange integrates the EMG density over [lo, hi] using fixed-order
// Gauss-Legendre quadrature over panels of at most panelSigmaSpan sigma.
func CdfRange(lo, hi, mu, sigma, lambda float64) float64 {
	if hi <= lo {
		return 0
	}
	f := func(x float64) float64 {
		return Density(x, mu, sigma, lambda)
	}
	panels := 1
	if maxPanel := panelSigmaSpan * sigma; maxPanel > 0 {
		panels = int(math.Ceil((hi - lo) / maxPanel))
		if panels < 1 {
			panels = 1
		}
	}
	width := (hi - lo) / float64(panels)
	var sum float64
	for i := 0; i < panels; i++ {
		a := lo + float64(i)*width
		b := a + width
		if i == panels-1 {
			b = hi
		}
		sum += quad.Fixed(f, a, b, quadratureNodes, nil, 0)
	}
	return sum
}

// BoundsForTarget finds the narrowest interval around mu whose EMG
// probability mass reaches targetProbability, searching a grid of the given
// step size spanning [mu-20*sigma, mu+60*sigma]. A target outside [0, 1] is
// a programming error and panics.
func BoundsForTarget(mu, sigma, lambda, targetProbability, step float64) (float64, float64) {
	if targetProbability < 0 || targetProbability > 1 {
		panic(fmt.Sprintf("emg: target probability must be in [0, 1], got %g", targetProbability))
	}

	lowerInitial := mu - lowerSearchSigma*sigma
	upperInitial := mu + upperSearchSigma*sigma
	steps := int(math.Round((upperInitial - lowerInitial) / step))
	searchSpace := make([]float64, steps+1)
	for i := range searchSpace {
		searchSpace[i] = lowerInitial + float64(i)*step
	}

	calcCdf := func(low, high int) float64 {
		return CdfRange(searchSpace[low], searchSpace[high], mu, sigma, lambda)
	}

	// Smallest upper index whose cumulative mass from the start reaches
	// the target
	low, high := 0, steps
	for low < high {
		mid := low + (high-low)/2
		if calcCdf(0, mid) < targetProbability {
			low = mid + 1
		} else {
			high = mid
		}
	}
	upperCutoff := low

	// Largest lower index that still carries the target mass up to the
	// upper cutoff
	low, high = 0, upperCutoff
	for low < high {
		mid := high - (high-low)/2
		if calcCdf(mid, upperCutoff) < targetProbability {
			high = mid - 1
		} else {
			low = mid
		}
	}
	lowerCutoff := high

	return searchSpace[lowerCutoff], searchSpace[upperCutoff]
}

// OccurrenceFrames converts the EMG interval holding targetProbability of
// the peak mass into a contiguous inclusive range of 1-based frame indices.
// Each bound maps to the frame whose retention time is nearest, ties going
// to the lower index.
func OccurrenceFrames(retentionTimes []float64, rt, sigma, lambda, targetProbability, step float64) []int {
	rtMin, rtMax := BoundsForTarget(rt, sigma, lambda, targetProbability, step)

	firstFrame := nearestIndex(retentionTimes, rtMin) + 1
	lastFrame := nearestIndex(retentionTimes, rtMax) + 1
	if lastFrame < firstFrame {
		// Non-monotonic retention times can map the upper bound to an
		// earlier frame than the lower bound
		return nil
	}

	frames := make([]int, 0, lastFrame-firstFrame+1)
	for f := firstFrame; f <= lastFrame; f++ {
		frames = append(frames, f)
	}
	return frames
}

// nearestIndex returns the index of the value closest to x, preferring the
// lower index on ties. Returns -1 for an empty slice.
func nearestIndex(values []float64, x float64) int {
	best := -1
	bestDiff := math.Inf(1)
	for i, v := range values {
		diff := math.Abs(v - x)
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// FrameAbundances integrates the EMG density over each occurrence frame's
// acquisition window [time-cycleLength, time]. Frames missing from the
// retention-time map are skipped. The weights are not normalized; callers
// combine them multiplicatively with ion and scan level weights.
func FrameAbundances(frameToRT map[int]float64, occurrenceFrames []int, rt, sigma, lambda, cycleLength float64) []float64 {
	abundances := make([]float64, 0, len(occurrenceFrames))
	for _, frame := range occurrenceFrames {
		time, ok := frameToRT[frame]
		if !ok {
			continue
		}
		abundances = append(abundances, CdfRange(time-cycleLength, time, rt, sigma, lambda))
	}
	return abundances
}

// CdfNormal is the cumulative distribution of a normal density, used by the
// Gaussian mobility-peak model.
func CdfNormal(x, mean, stdDev float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: stdDev}.CDF(x)
}

// AccumulatedIntensityCdfNormal integrates a normal density over
// [sampleStart, sampleEnd].
func AccumulatedIntensityCdfNormal(sampleStart, sampleEnd, mean, stdDev float64) float64 {
	return CdfNormal(sampleEnd, mean, stdDev) - CdfNormal(sampleStart, mean, stdDev)
}

// BoundsNormal returns the symmetric interval of a normal distribution for
// the given z-score.
func BoundsNormal(mean, stdDev, zScore float64) (float64, float64) {
	return mean - zScore*stdDev, mean + zScore*stdDev
}
