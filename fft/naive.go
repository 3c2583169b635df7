// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2020
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package fft

import (
	"math"
	"math/cmplx"

	"github.com/rf-tools/iqpipe"
)

// NaivePlanner is a direct O(n^2) discrete Fourier transform satisfying the
// Planner interface. The teacher repo specifies the Planner/Plan contract
// but ships no concrete implementation (any real deployment is expected to
// plug in a vendored FFT library); since no such library appears anywhere
// in the example corpus, dsp.Filter's FFT overlap-save path is backed by
// this direct-DFT planner instead of inventing a fake dependency. It is
// correct for any block length, not just powers of two.
type naivePlan struct {
	iq        sdr.SamplesC64
	frequency []complex64
	direction Direction
}

// NaivePlanner implements Planner.
func NaivePlanner(iq sdr.SamplesC64, frequency []complex64, direction Direction) (Plan, error) {
	if direction == Forward && len(frequency) < iq.Length() {
		return nil, sdr.ErrDstTooSmall
	}
	if direction == Backward && iq.Length() < len(frequency) {
		return nil, sdr.ErrDstTooSmall
	}
	return &naivePlan{iq: iq, frequency: frequency, direction: direction}, nil
}

func (p *naivePlan) Transform() error {
	if p.direction == Forward {
		dft(p.iq, p.frequency, -1)
	} else {
		dft(p.frequency, p.iq, 1)
		n := complex(float64(len(p.iq)), 0)
		for i := range p.iq {
			p.iq[i] = complex64(complex128(p.iq[i]) / n)
		}
	}
	return nil
}

func (p *naivePlan) Close() error {
	return nil
}

// dft computes out[k] = sum_n in[n] * exp(sign * 2*pi*i*k*n/N) for k in
// 0..len(out). sign is -1 for the forward transform, +1 for the inverse
// (the inverse's 1/N scaling is applied by the caller).
func dft(in, out []complex64, sign float64) {
	n := len(in)
	if n == 0 {
		return
	}
	for k := range out {
		var sum complex128
		for t, x := range in {
			theta := sign * 2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += complex128(x) * cmplx.Exp(complex(0, theta))
		}
		out[k] = complex64(sum)
	}
}

// vim: foldmethod=marker
