package dsp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rf-tools/iqpipe/dsp"
)

func TestIQCoefficientStoreDefaultsToIdentity(t *testing.T) {
	store := dsp.NewIQCoefficientStore()
	c := store.Load()
	assert.Equal(t, float32(1), c.GainRatio)
	assert.Equal(t, float32(0), c.PhaseSkew)
}

func TestIQCorrectorIdentityIsNoop(t *testing.T) {
	store := dsp.NewIQCoefficientStore()
	corrector := dsp.NewIQCorrector(store)

	buf := []complex64{complex(1, 2), complex(-3, 4)}
	want := append([]complex64{}, buf...)

	corrector.Process(buf)

	assert.Equal(t, want, buf)
}

func TestIQCorrectorAppliesGainRatio(t *testing.T) {
	store := dsp.NewIQCoefficientStore()
	store.Store(dsp.IQCoefficient{GainRatio: 2, PhaseSkew: 0})
	corrector := dsp.NewIQCorrector(store)

	buf := []complex64{complex(1, 1)}
	corrector.Process(buf)

	assert.InDelta(t, 1, real(buf[0]), 1e-6)
	assert.InDelta(t, 2, imag(buf[0]), 1e-6)
}

func TestIQOptimizerConvergesGainRatio(t *testing.T) {
	store := dsp.NewIQCoefficientStore()
	optimizer := dsp.NewIQOptimizer(store, 0.5)

	buf := make([]complex64, 4096)
	for i := range buf {
		theta := 2 * math.Pi * float64(i) / 32
		buf[i] = complex(float32(math.Cos(theta)), float32(2*math.Sin(theta)))
	}

	for i := 0; i < 200; i++ {
		optimizer.Measure(buf)
	}

	c := store.Load()
	assert.InDelta(t, 0.5, c.GainRatio, 0.05)
}
