package dsp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rf-tools/iqpipe/dsp"
)

func TestDCBlockRemovesConstantOffset(t *testing.T) {
	blk := dsp.NewDCBlock(0.95)

	buf := make([]complex64, 2048)
	for i := range buf {
		buf[i] = complex(1.0, 1.0)
	}

	blk.Process(buf)

	tail := buf[len(buf)-64:]
	var sum complex64
	for _, x := range tail {
		sum += x
	}
	mean := sum / complex64(complex(float64(len(tail)), 0))

	assert.InDelta(t, 0, real(mean), 0.05)
	assert.InDelta(t, 0, imag(mean), 0.05)
}

func TestDCBlockResetClearsState(t *testing.T) {
	blk := dsp.NewDCBlock(0.95)

	warm := make([]complex64, 256)
	for i := range warm {
		warm[i] = complex(1, 0)
	}
	blk.Process(warm)

	blk.Reset()

	buf := []complex64{0, 0, 0}
	blk.Process(buf)
	for _, x := range buf {
		assert.Equal(t, complex64(0), x)
	}
}
