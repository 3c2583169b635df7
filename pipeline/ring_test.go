package pipeline_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/rf-tools/iqpipe/pipeline"
)

func TestRingBufferWriteRead(t *testing.T) {
	rb := pipeline.NewRingBuffer(16)

	n := rb.Write([]byte{1, 2, 3, 4})
	assert.Equal(t, 4, n)

	buf := make([]byte, 4)
	n = rb.Read(buf)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestRingBufferWriteShortOnOverrun(t *testing.T) {
	rb := pipeline.NewRingBuffer(4) // 3 usable bytes, one sentinel reserved

	n := rb.Write([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 3, n, "write should be truncated to the available space")
}

func TestRingBufferReadBlocksUntilData(t *testing.T) {
	rb := pipeline.NewRingBuffer(64)

	var wg sync.WaitGroup
	wg.Add(1)
	buf := make([]byte, 3)
	var n int
	go func() {
		defer wg.Done()
		n = rb.Read(buf)
	}()

	rb.Write([]byte{9, 8, 7})
	wg.Wait()

	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{9, 8, 7}, buf)
}

func TestRingBufferEndOfStreamDrainsThenZero(t *testing.T) {
	rb := pipeline.NewRingBuffer(64)
	rb.Write([]byte{1, 2, 3})
	rb.SignalEndOfStream()

	buf := make([]byte, 8)
	n := rb.Read(buf)
	assert.Equal(t, 3, n, "remaining bytes must still be drained after end-of-stream")

	n = rb.Read(buf)
	assert.Equal(t, 0, n, "a drained end-of-stream ring reads 0 forever after")
}

func TestRingBufferShutdownWakesBlockedReader(t *testing.T) {
	rb := pipeline.NewRingBuffer(64)

	var wg sync.WaitGroup
	wg.Add(1)
	var n int
	go func() {
		defer wg.Done()
		n = rb.Read(make([]byte, 8))
	}()

	rb.SignalShutdown()
	wg.Wait()

	assert.Equal(t, 0, n, "shutdown returns 0 even with no data ever written")
}

// TestRingBufferProperty checks that a single write smaller than the
// ring's capacity is read back byte-for-byte in order, regardless of how
// the reads are chunked.
func TestRingBufferProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(8, 256).Draw(t, "capacity")
		rb := pipeline.NewRingBuffer(capacity)

		// Keep each write under the usable capacity so every byte is
		// guaranteed to fit without triggering the overrun-truncation
		// path this property isn't exercising.
		data := rapid.SliceOfN(rapid.Byte(), 0, capacity-1).Draw(t, "data")

		n := rb.Write(data)
		assert.Equal(t, len(data), n)

		readChunk := rapid.IntRange(1, capacity).Draw(t, "readChunk")
		got := make([]byte, 0, len(data))
		buf := make([]byte, readChunk)
		for len(got) < len(data) {
			n := rb.Read(buf)
			got = append(got, buf[:n]...)
		}

		assert.Equal(t, data, got)
	})
}
