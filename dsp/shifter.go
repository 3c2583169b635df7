package dsp

import (
	"math"
	"math/cmplx"

	"hz.tools/rf"
)

const tau = math.Pi * 2

// Shifter applies a numerically-controlled-oscillator (NCO) frequency shift
// to a complex baseband stream, moving every component up by the configured
// offset, so a carrier at minus the offset lands at DC. Modeled on stream.ShiftReader's phase-accumulator
// recurrence (cmplx.Exp(complex(0, phase))) but accumulates and wraps phase
// directly in radians instead of the teacher's seconds-wrapped-by-tau
// variable, which is the textbook-correct form of the same idea.
type Shifter struct {
	shiftHz    float64
	sampleRate float64
	phaseInc   float64
	phase      float64
}

// NewShifter constructs a Shifter for the given frequency offset and sample
// rate.
func NewShifter(shift rf.Hz, sampleRate uint) *Shifter {
	s := &Shifter{
		shiftHz:    float64(shift),
		sampleRate: float64(sampleRate),
	}
	s.recompute()
	return s
}

func (s *Shifter) recompute() {
	if s.sampleRate == 0 {
		s.phaseInc = 0
		return
	}
	s.phaseInc = tau * s.shiftHz / s.sampleRate
}

// SetShift changes the shift frequency without resetting phase continuity.
func (s *Shifter) SetShift(shift rf.Hz) {
	s.shiftHz = float64(shift)
	s.recompute()
}

// Reset implements Stage, zeroing the oscillator's accumulated phase.
func (s *Shifter) Reset() {
	s.phase = 0
}

// Process multiplies buf in place by the rotating unit-magnitude phasor.
func (s *Shifter) Process(buf []complex64) {
	phase := s.phase
	for i, x := range buf {
		buf[i] = x * complex64(cmplx.Exp(complex(0, phase)))
		phase += s.phaseInc
		if phase > tau {
			phase -= tau
		} else if phase < -tau {
			phase += tau
		}
	}
	s.phase = phase
}
