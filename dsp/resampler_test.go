package dsp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rf-tools/iqpipe/dsp"
)

func TestResamplerRejectsRatioOutOfBounds(t *testing.T) {
	_, err := dsp.NewResampler(dsp.MaxAcceptableRatio * 2)
	assert.Error(t, err)

	_, err = dsp.NewResampler(dsp.MinAcceptableRatio / 2)
	assert.Error(t, err)

	_, err = dsp.NewResampler(1.0)
	assert.NoError(t, err)
}

func TestResamplerUnityRatioPreservesLength(t *testing.T) {
	r, err := dsp.NewResampler(1.0)
	require.NoError(t, err)

	in := make([]complex64, 1000)
	for i := range in {
		in[i] = complex(float32(i), 0)
	}
	out := make([]complex64, r.MaxOutputLen(len(in)))

	n := r.Process(in, out)
	assert.InDelta(t, 1000, n, 2)
}

func TestResamplerUpsampleDoublesLength(t *testing.T) {
	r, err := dsp.NewResampler(2.0)
	require.NoError(t, err)

	in := make([]complex64, 500)
	for i := range in {
		in[i] = complex(float32(i), 0)
	}
	out := make([]complex64, r.MaxOutputLen(len(in)))

	n := r.Process(in, out)
	assert.InDelta(t, 1000, n, 4)
}

func TestResamplerDownsampleHalvesLength(t *testing.T) {
	r, err := dsp.NewResampler(0.5)
	require.NoError(t, err)

	in := make([]complex64, 1000)
	for i := range in {
		in[i] = complex(float32(i), 0)
	}
	out := make([]complex64, r.MaxOutputLen(len(in)))

	n := r.Process(in, out)
	assert.InDelta(t, 500, n, 2)
}

func TestResamplerResetDropsContinuity(t *testing.T) {
	r, err := dsp.NewResampler(1.5)
	require.NoError(t, err)

	in := make([]complex64, 10)
	out := make([]complex64, r.MaxOutputLen(len(in)))
	r.Process(in, out)

	r.Reset()

	in2 := make([]complex64, 10)
	out2 := make([]complex64, r.MaxOutputLen(len(in2)))
	n := r.Process(in2, out2)
	assert.Greater(t, n, 0)
}
