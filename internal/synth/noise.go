package synth

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// NoiseModel selects the distribution of the multiplicative m/z error.
type NoiseModel int

const (
	// NoiseUniform draws relative errors uniformly from [-ppm, ppm]
	// (or [0, ppm] with the directional bias).
	NoiseUniform NoiseModel = iota
	// NoiseNormal draws relative errors from N(0, ppm/3), so 3 sigma
	// equals the configured magnitude.
	NoiseNormal
)

// MzNoise perturbs m/z values multiplicatively to model mass-measurement
// error. A nil *MzNoise means no noise. Not safe for concurrent use; frame
// builders derive one source per task.
type MzNoise struct {
	model   NoiseModel
	ppm     float64
	uniform distuv.Uniform
	normal  distuv.Normal
}

// NewMzNoise builds a noise model of the given magnitude in parts per
// million. With rightBias set (uniform model only), errors only ever
// increase the m/z. The seed makes draws reproducible.
func NewMzNoise(model NoiseModel, ppm float64, rightBias bool, seed uint64) *MzNoise {
	src := rand.NewSource(seed)
	lo := -ppm
	if rightBias {
		lo = 0
	}
	return &MzNoise{
		model:   model,
		ppm:     ppm,
		uniform: distuv.Uniform{Min: lo, Max: ppm, Src: src},
		normal:  distuv.Normal{Mu: 0, Sigma: ppm / 3, Src: src},
	}
}

// Apply returns mz shifted by one random relative error draw.
func (n *MzNoise) Apply(mz float64) float64 {
	var relPpm float64
	switch n.model {
	case NoiseNormal:
		relPpm = n.normal.Rand()
	default:
		relPpm = n.uniform.Rand()
	}
	return mz * (1 + relPpm/1e6)
}

// ApplyAll returns a copy of mzs with noise applied to each value.
func (n *MzNoise) ApplyAll(mzs []float64) []float64 {
	out := make([]float64, len(mzs))
	for i, mz := range mzs {
		out[i] = n.Apply(mz)
	}
	return out
}

// fork derives an independently seeded copy for one worker task, keeping
// parallel builds free of shared mutable state.
func (n *MzNoise) fork(taskSeed uint64) *MzNoise {
	if n == nil {
		return nil
	}
	rightBias := n.uniform.Min == 0
	return NewMzNoise(n.model, n.ppm, rightBias, taskSeed)
}
