package iqfmt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a byte slice passed to ToComplex64 or
// FromComplex64 isn't large enough to hold the requested number of frames
// in the given Format.
var ErrShortBuffer = fmt.Errorf("iqfmt: short buffer")

// ToComplex64 decodes n frames of raw wire bytes in format f into out,
// normalizing every component to [-1, 1]. I-only formats populate the
// imaginary component with 0.
func ToComplex64(f Format, raw []byte, out []complex64, n int) error {
	e, ok := table[f]
	if !ok {
		return ErrUnknownFormat{f}
	}
	if len(out) < n {
		return ErrShortBuffer
	}
	stride := f.BytesPerPair()
	if len(raw) < stride*n {
		return ErrShortBuffer
	}

	readScalar := scalarReader(f, e)

	off := 0
	for i := 0; i < n; i++ {
		iVal := readScalar(raw[off:])
		off += e.bytesPerScalar
		var qVal float32
		if e.complex {
			qVal = readScalar(raw[off:])
			off += e.bytesPerScalar
		}
		out[i] = complex((iVal-e.bias)/e.scale, (qVal-e.bias)/e.scale)
	}
	return nil
}

// FromComplex64 encodes n frames of in into raw wire bytes in format f,
// scaling by the integer max (or the Q4.11 fixed-point scale) and
// saturating + rounding half-away-from-zero. I-only formats discard the
// imaginary component.
func FromComplex64(f Format, in []complex64, n int, raw []byte) error {
	e, ok := table[f]
	if !ok {
		return ErrUnknownFormat{f}
	}
	if len(in) < n {
		return ErrShortBuffer
	}
	stride := f.BytesPerPair()
	if len(raw) < stride*n {
		return ErrShortBuffer
	}

	writeScalar := scalarWriter(f, e)

	off := 0
	for i := 0; i < n; i++ {
		c := in[i]
		writeScalar(raw[off:], saturate(real(c)*e.scale+e.bias, e))
		off += e.bytesPerScalar
		if e.complex {
			writeScalar(raw[off:], saturate(imag(c)*e.scale+e.bias, e))
			off += e.bytesPerScalar
		}
	}
	return nil
}

// roundHalfAwayFromZero rounds x to the nearest integer, ties away from
// zero (matching spec's complex->integer conversion rule).
func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}

func saturate(v float32, e entry) float32 {
	if e.float {
		return v
	}
	bits := uint(8 * e.bytesPerScalar)
	max := float64(uint64(1)<<bits - 1)
	min := 0.0
	if e.signed {
		max = float64(uint64(1)<<(bits-1) - 1)
		min = -max - 1
	}
	r := roundHalfAwayFromZero(float64(v))
	if r > max {
		r = max
	}
	if r < min {
		r = min
	}
	return float32(r)
}

func scalarReader(f Format, e entry) func([]byte) float32 {
	if f == FormatF32 || f == FormatF32C {
		return func(b []byte) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	}
	switch e.bytesPerScalar {
	case 1:
		if e.signed {
			return func(b []byte) float32 { return float32(int8(b[0])) }
		}
		return func(b []byte) float32 { return float32(b[0]) }
	case 2:
		if e.signed {
			return func(b []byte) float32 { return float32(int16(binary.LittleEndian.Uint16(b))) }
		}
		return func(b []byte) float32 { return float32(binary.LittleEndian.Uint16(b)) }
	case 4:
		if e.signed {
			return func(b []byte) float32 { return float32(int32(binary.LittleEndian.Uint32(b))) }
		}
		return func(b []byte) float32 { return float32(binary.LittleEndian.Uint32(b)) }
	}
	return func(b []byte) float32 { return 0 }
}

func scalarWriter(f Format, e entry) func([]byte, float32) {
	if f == FormatF32 || f == FormatF32C {
		return func(b []byte, v float32) {
			binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		}
	}
	switch e.bytesPerScalar {
	case 1:
		if e.signed {
			return func(b []byte, v float32) { b[0] = byte(int8(v)) }
		}
		return func(b []byte, v float32) { b[0] = byte(uint8(v)) }
	case 2:
		if e.signed {
			return func(b []byte, v float32) { binary.LittleEndian.PutUint16(b, uint16(int16(v))) }
		}
		return func(b []byte, v float32) { binary.LittleEndian.PutUint16(b, uint16(v)) }
	case 4:
		if e.signed {
			return func(b []byte, v float32) { binary.LittleEndian.PutUint32(b, uint32(int32(v))) }
		}
		return func(b []byte, v float32) { binary.LittleEndian.PutUint32(b, uint32(v)) }
	}
	return func(b []byte, v float32) {}
}
