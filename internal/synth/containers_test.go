package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tkemmer/rustims/internal/spectra"
)

func TestQuantizeEnergy(t *testing.T) {
	// Small energies stay in range
	assert.Equal(t, int8(30), QuantizeEnergy(0.03))
	assert.Equal(t, int8(-2), QuantizeEnergy(-0.002))
	assert.Equal(t, int8(0), QuantizeEnergy(0.0))

	// Rounding before saturation
	assert.Equal(t, int8(35), QuantizeEnergy(0.0345))

	// Values beyond the signed byte range saturate instead of wrapping, so
	// typical collision energies all share the upper bucket
	assert.Equal(t, int8(127), QuantizeEnergy(30.0))
	assert.Equal(t, int8(127), QuantizeEnergy(30.1))
	assert.Equal(t, int8(127), QuantizeEnergy(0.128))
	assert.Equal(t, int8(-128), QuantizeEnergy(-5.0))
	assert.Equal(t, int8(-128), QuantizeEnergy(-0.129))
}

func TestFrameSimParseMsType(t *testing.T) {
	assert.Equal(t, spectra.MsTypePrecursor, FrameSim{MsType: 0}.ParseMsType())
	assert.Equal(t, spectra.MsTypeFragmentDIA, FrameSim{MsType: 9}.ParseMsType())
	assert.Equal(t, spectra.MsTypeUnknown, FrameSim{MsType: 5}.ParseMsType())
}

func TestFragmentIonSeriesToMzSpectrum(t *testing.T) {
	series := FragmentIonSeries{
		Mz:        []float64{200.1, 300.2},
		Intensity: []float64{0.7, 0.3},
	}
	spec := series.ToMzSpectrum()
	assert.Equal(t, series.Mz, spec.Mz)
	assert.Equal(t, series.Intensity, spec.Intensity)
}
