package dsp

import "math"

// AGC is a feed-forward automatic gain control: it tracks the input RMS
// level with separate attack/release time constants and scales samples in
// place toward a target output RMS.
type AGC struct {
	TargetRMS float32
	Attack    float32 // 0..1, per-sample smoothing coefficient when level is rising
	Release   float32 // 0..1, per-sample smoothing coefficient when level is falling

	level float32 // tracked RMS estimate
	gain  float32
}

// NewAGC constructs an AGC targeting targetRMS with the given attack/release
// smoothing coefficients (closer to 1 reacts faster).
func NewAGC(targetRMS, attack, release float32) *AGC {
	return &AGC{
		TargetRMS: targetRMS,
		Attack:    attack,
		Release:   release,
		gain:      1,
	}
}

// Reset implements Stage, returning the AGC to unity gain and a zeroed
// level estimate.
func (a *AGC) Reset() {
	a.level = 0
	a.gain = 1
}

// Process scales buf in place toward TargetRMS.
func (a *AGC) Process(buf []complex64) {
	for i, x := range buf {
		mag := float32(math.Hypot(float64(real(x)), float64(imag(x))))
		if mag > a.level {
			a.level += a.Attack * (mag - a.level)
		} else {
			a.level += a.Release * (mag - a.level)
		}

		if a.level > 1e-9 {
			target := a.TargetRMS / a.level
			a.gain += 0.01 * (target - a.gain)
		}

		buf[i] = complex(real(x)*a.gain, imag(x)*a.gain)
	}
}
