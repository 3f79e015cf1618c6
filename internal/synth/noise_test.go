package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMzNoiseUniform(t *testing.T) {
	noise := NewMzNoise(NoiseUniform, 5.0, false, 42)

	// Errors stay within the configured ppm band
	for i := 0; i < 1000; i++ {
		mz := noise.Apply(1000.0)
		assert.InDelta(t, 1000.0, mz, 1000.0*5.0/1e6+1e-9)
	}
}

func TestMzNoiseUniformRightBias(t *testing.T) {
	noise := NewMzNoise(NoiseUniform, 5.0, true, 42)

	// With the bias, errors never decrease the m/z
	for i := 0; i < 1000; i++ {
		mz := noise.Apply(1000.0)
		assert.GreaterOrEqual(t, mz, 1000.0)
		assert.LessOrEqual(t, mz, 1000.0*(1+5.0/1e6)+1e-9)
	}
}

func TestMzNoiseNormal(t *testing.T) {
	noise := NewMzNoise(NoiseNormal, 6.0, false, 42)

	// The empirical mean error stays near zero
	var sum float64
	const n = 10000
	for i := 0; i < n; i++ {
		sum += noise.Apply(1000.0) - 1000.0
	}
	mean := sum / n
	// Standard error of the mean is sigma/sqrt(n) = 2e-3/100
	assert.InDelta(t, 0.0, mean, 1e-3)
}

func TestMzNoiseDeterminism(t *testing.T) {
	a := NewMzNoise(NoiseUniform, 5.0, false, 7)
	b := NewMzNoise(NoiseUniform, 5.0, false, 7)

	mzs := []float64{500.0, 600.0, 700.0}
	assert.Equal(t, a.ApplyAll(mzs), b.ApplyAll(mzs))

	// A different seed produces different draws
	c := NewMzNoise(NoiseUniform, 5.0, false, 8)
	assert.NotEqual(t, a.ApplyAll(mzs), c.ApplyAll(mzs))
}

func TestMzNoiseApplyAll(t *testing.T) {
	noise := NewMzNoise(NoiseUniform, 5.0, false, 42)
	in := []float64{500.0, 600.0}
	out := noise.ApplyAll(in)

	assert.Len(t, out, 2)
	// The input is untouched
	assert.Equal(t, []float64{500.0, 600.0}, in)
	for i := range out {
		assert.False(t, math.IsNaN(out[i]))
	}
}

func TestMzNoiseFork(t *testing.T) {
	// A nil noise model forks to nil
	var none *MzNoise
	assert.Nil(t, none.fork(1))

	// Forks with the same task seed draw identically
	noise := NewMzNoise(NoiseUniform, 5.0, false, 42)
	a := noise.fork(9)
	b := noise.fork(9)
	assert.Equal(t, a.Apply(1000.0), b.Apply(1000.0))
}
