package emg

import (
	"golang.org/x/sync/errgroup"
)

// OccurrenceFramesPar computes OccurrenceFrames for each (rt, sigma, lambda)
// triple on a bounded worker pool. Results are positionally aligned with the
// inputs regardless of scheduling order.
func OccurrenceFramesPar(retentionTimes []float64, rts, sigmas, lambdas []float64, targetProbability, step float64, numThreads int) [][]int {
	results := make([][]int, len(rts))
	var g errgroup.Group
	g.SetLimit(workers(numThreads))
	for i := range rts {
		i := i
		g.Go(func() error {
			results[i] = OccurrenceFrames(retentionTimes, rts[i], sigmas[i], lambdas[i], targetProbability, step)
			return nil
		})
	}
	g.Wait()
	return results
}

// FrameAbundancesPar computes FrameAbundances for each peak on a bounded
// worker pool, preserving input order.
func FrameAbundancesPar(frameToRT map[int]float64, occurrences [][]int, rts, sigmas, lambdas []float64, cycleLength float64, numThreads int) [][]float64 {
	results := make([][]float64, len(rts))
	var g errgroup.Group
	g.SetLimit(workers(numThreads))
	for i := range rts {
		i := i
		g.Go(func() error {
			results[i] = FrameAbundances(frameToRT, occurrences[i], rts[i], sigmas[i], lambdas[i], cycleLength)
			return nil
		})
	}
	g.Wait()
	return results
}

func workers(numThreads int) int {
	if numThreads < 1 {
		return 1
	}
	return numThreads
}
