package iqfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripI16C(t *testing.T) {
	raw := make([]byte, FormatI16C.BytesPerPair()*2)
	in := []complex64{complex(0.5, -0.25), complex(-1, 1)}
	require.NoError(t, FromComplex64(FormatI16C, in, 2, raw))

	out := make([]complex64, 2)
	require.NoError(t, ToComplex64(FormatI16C, raw, out, 2))

	assert.InDelta(t, real(in[0]), real(out[0]), 1e-4)
	assert.InDelta(t, imag(in[0]), imag(out[0]), 1e-4)
	assert.InDelta(t, real(in[1]), real(out[1]), 1e-4)
	assert.InDelta(t, imag(in[1]), imag(out[1]), 1e-4)
}

func TestU8MidpointBias(t *testing.T) {
	raw := []byte{127, 128}
	out := make([]complex64, 1)
	require.NoError(t, ToComplex64(FormatU8C, raw, out, 1))
	assert.InDelta(t, -0.5/127.5, real(out[0]), 1e-6)
	assert.InDelta(t, 0.5/127.5, imag(out[0]), 1e-6)
}

func TestSaturationClampsAndRoundsHalfAwayFromZero(t *testing.T) {
	raw := make([]byte, FormatI8C.BytesPerPair())
	in := []complex64{complex(2.0, -2.0)}
	require.NoError(t, FromComplex64(FormatI8C, in, 1, raw))
	assert.Equal(t, int8(127), int8(raw[0]))
	assert.Equal(t, int8(-128), int8(raw[1]))
}

func TestUnknownFormatErrors(t *testing.T) {
	var bad Format = 250
	assert.False(t, bad.Valid())
	err := ToComplex64(bad, nil, nil, 1)
	var target ErrUnknownFormat
	assert.ErrorAs(t, err, &target)
}

func TestNuandQ4_11Scale(t *testing.T) {
	raw := make([]byte, FormatNuandQ4_11.BytesPerPair())
	in := []complex64{complex(0.25, -0.25)}
	require.NoError(t, FromComplex64(FormatNuandQ4_11, in, 1, raw))
	out := make([]complex64, 1)
	require.NoError(t, ToComplex64(FormatNuandQ4_11, raw, out, 1))
	assert.InDelta(t, 0.25, real(out[0]), 1e-3)
	assert.InDelta(t, -0.25, imag(out[0]), 1e-3)
}
