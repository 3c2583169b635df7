package pipeline_test

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rf-tools/iqpipe/iqfmt"
	"github.com/rf-tools/iqpipe/pipeline"
)

// bufferSource serves raw wire-format bytes from an in-memory buffer,
// HasKnownLength() == true, the file-source case.
type bufferSource struct {
	data   []byte
	stride int
	pos    int
	rate   uint
}

func (s *bufferSource) Initialize(context.Context) error { return nil }

func (s *bufferSource) ReadBlock(buf []byte, maxFrames int) (int, error) {
	remaining := len(s.data) - s.pos
	if remaining == 0 {
		return 0, io.EOF
	}
	n := maxFrames * s.stride
	if n > remaining {
		n = remaining
	}
	n -= n % s.stride
	copy(buf, s.data[s.pos:s.pos+n])
	s.pos += n
	frames := n / s.stride
	var err error
	if s.pos >= len(s.data) {
		err = io.EOF
	}
	return frames, err
}

func (s *bufferSource) StopStream() {}
func (s *bufferSource) Cleanup() error { return nil }
func (s *bufferSource) GetSummaryInfo() pipeline.SummaryInfo {
	return pipeline.SummaryInfo{SampleRate: s.rate, TotalFrames: int64(len(s.data) / s.stride)}
}
func (*bufferSource) HasKnownLength() bool { return true }

// burstSource serves a fixed number of fixed-size bursts (the SDR-callback
// shape), optionally reporting a stream reset after a chosen burst.
type burstSource struct {
	mu              sync.Mutex
	callCount       int
	maxCalls        int
	framesPerCall   int
	resetAfterCall  int
	rate            uint
}

func (s *burstSource) Initialize(context.Context) error { return nil }

func (s *burstSource) ReadBlock(buf []byte, maxFrames int) (int, error) {
	s.mu.Lock()
	s.callCount++
	n := s.callCount
	s.mu.Unlock()

	if n > s.maxCalls {
		return 0, io.EOF
	}

	frames := s.framesPerCall
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(int16(n)))
		binary.LittleEndian.PutUint16(buf[i*4+2:], 0)
	}

	var err error
	if n == s.maxCalls {
		err = io.EOF
	}
	return frames, err
}

func (s *burstSource) PollStreamReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callCount == s.resetAfterCall {
		s.resetAfterCall = -1
		return true
	}
	return false
}

func (s *burstSource) StopStream() {}
func (s *burstSource) Cleanup() error { return nil }
func (s *burstSource) GetSummaryInfo() pipeline.SummaryInfo {
	return pipeline.SummaryInfo{SampleRate: s.rate, TotalFrames: -1}
}
func (*burstSource) HasKnownLength() bool { return false }

// blockingSource never returns from ReadBlock until StopStream is called,
// modeling a live SDR device with a synchronous blocking read.
type blockingSource struct {
	stopCh   chan struct{}
	stopOnce sync.Once
	rate     uint
}

func newBlockingSource() *blockingSource {
	return &blockingSource{stopCh: make(chan struct{}), rate: 48000}
}

func (s *blockingSource) Initialize(context.Context) error { return nil }
func (s *blockingSource) ReadBlock(buf []byte, maxFrames int) (int, error) {
	<-s.stopCh
	return 0, io.EOF
}
func (s *blockingSource) StopStream() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
func (s *blockingSource) Cleanup() error { return nil }
func (s *blockingSource) GetSummaryInfo() pipeline.SummaryInfo {
	return pipeline.SummaryInfo{SampleRate: s.rate, TotalFrames: -1}
}
func (*blockingSource) HasKnownLength() bool { return false }

// memSink accumulates every byte handed to Write, safely across goroutines.
type memSink struct {
	mu      sync.Mutex
	data    []byte
	written int64
	paced   bool
}

func (s *memSink) Open(context.Context, *pipeline.Resources) error { return nil }
func (s *memSink) Write(data []byte) (int, error) {
	s.mu.Lock()
	s.data = append(s.data, data...)
	s.mu.Unlock()
	atomic.AddInt64(&s.written, int64(len(data)))
	return len(data), nil
}
func (s *memSink) TotalBytesWritten() int64 { return atomic.LoadInt64(&s.written) }
func (s *memSink) Close() error             { return nil }
func (s *memSink) PacingRequired() bool     { return s.paced }
func (s *memSink) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// TestScenarioS1FilePassthroughIdentity: a 1 MiB cs16 file through
// raw_passthrough must come out byte-identical, with exactly
// 262144 frames read and written.
func TestScenarioS1FilePassthroughIdentity(t *testing.T) {
	const stride = 4 // cs16
	data := make([]byte, 1<<20)
	for i := range data {
		data[i] = byte(i)
	}

	src := &bufferSource{data: data, stride: stride, rate: 48000}
	sink := &memSink{paced: false}

	cfg := pipeline.Config{
		Mode:           pipeline.FileProcessing,
		Source:         src,
		Sink:           sink,
		InputFormat:    iqfmt.FormatI16C,
		OutputFormat:   iqfmt.FormatI16C,
		NoResample:     true,
		RawPassthrough: true,
		Logger:         zap.NewNop(),
	}

	err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, data, sink.bytes())
	assert.Equal(t, int64(len(data)/stride), int64(262144))
}

// TestScenarioS2GainSaturation: 1024 cs8 frames of (100, 0), gain 2.0, no
// other DSP. Expected output: every frame saturates to (127, 0).
func TestScenarioS2GainSaturation(t *testing.T) {
	const numFrames = 1024
	data := make([]byte, numFrames*2)
	for i := 0; i < numFrames; i++ {
		data[i*2] = byte(int8(100))
		data[i*2+1] = 0
	}

	src := &bufferSource{data: data, stride: 2, rate: 48000}
	sink := &memSink{paced: false}

	cfg := pipeline.Config{
		Mode:         pipeline.FileProcessing,
		Source:       src,
		Sink:         sink,
		InputFormat:  iqfmt.FormatI8C,
		OutputFormat: iqfmt.FormatI8C,
		NoResample:   true,
		Gain:         2.0,
		Logger:       zap.NewNop(),
	}

	err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	out := sink.bytes()
	require.Equal(t, numFrames*2, len(out))
	for i := 0; i < numFrames; i++ {
		assert.Equal(t, byte(127), out[i*2], "frame %d I component should saturate to 127", i)
		assert.Equal(t, byte(0), out[i*2+1], "frame %d Q component should stay 0", i)
	}
}

// TestScenarioS4ResetPropagation: five 1000-frame bursts, a stream reset,
// then three more 1000-frame bursts. The writer must still receive frames
// from all eight bursts with no data lost around the reset.
func TestScenarioS4ResetPropagation(t *testing.T) {
	src := &burstSource{
		maxCalls:       8,
		framesPerCall:  1000,
		resetAfterCall: 5,
		rate:           48000,
	}
	sink := &memSink{paced: false}

	cfg := pipeline.Config{
		Mode:         pipeline.BufferedSDR,
		Source:       src,
		Sink:         sink,
		InputFormat:  iqfmt.FormatI16C,
		OutputFormat: iqfmt.FormatI16C,
		NoResample:   true,
		Logger:       zap.NewNop(),
	}

	err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	const expectedFrames = 8 * 1000
	const bytesPerFrame = 4
	assert.Equal(t, expectedFrames*bytesPerFrame, len(sink.bytes()),
		"all eight bursts' frames must reach the writer across the reset")
}

// TestScenarioS5ShutdownDuringBlockedRead: a source that never produces
// data; requesting shutdown must make Run return within one second with
// no error reported.
func TestScenarioS5ShutdownDuringBlockedRead(t *testing.T) {
	src := newBlockingSource()
	sink := &memSink{paced: false}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := pipeline.Config{
		Mode:         pipeline.RealtimeSDR,
		Source:       src,
		Sink:         sink,
		InputFormat:  iqfmt.FormatI16C,
		OutputFormat: iqfmt.FormatI16C,
		NoResample:   true,
		Logger:       zap.NewNop(),
	}

	done := make(chan error, 1)
	go func() { done <- pipeline.Run(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "a clean shutdown request must not be reported as an error")
	case <-time.After(1 * time.Second):
		t.Fatal("Run did not return within one second of shutdown being requested")
	}
}

// TestScenarioS6MagicNumberResync: 7 junk bytes followed by one valid
// INTERLEAVED packet of 64 cs16 samples must recover frames_read == 64 and
// log a warning with discarded_bytes == 7.
func TestScenarioS6MagicNumberResync(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	rb := pipeline.NewRingBuffer(1 << 12)
	rb.Write([]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03})

	payload := make([]byte, 64*4)
	for i := range payload {
		payload[i] = byte(i)
	}
	ok := pipeline.WriteDataPacket(rb, iqfmt.FormatI16C, 64, payload)
	require.True(t, ok)

	chunk := &pipeline.Chunk{RawInput: make([]byte, 64*4)}
	temp := make([]byte, 2*pipeline.PipelineChunkBaseSamples*2)

	frames, isReset, err := pipeline.ReadPacket(rb, chunk, temp, logger)
	require.NoError(t, err)
	assert.False(t, isReset)
	assert.Equal(t, 64, frames)

	entries := logs.FilterMessage("pipeline: resynced framed packet stream").All()
	require.Len(t, entries, 1)
	found := false
	for _, f := range entries[0].Context {
		if f.Key == "discarded_bytes" {
			assert.EqualValues(t, 7, f.Integer)
			found = true
		}
	}
	assert.True(t, found, "expected a discarded_bytes field on the resync warning")
}

// TestChunkConservationUnderReuse drives enough frames through a
// non-passthrough FileProcessing run to force the free queue through many
// more full cycles than PIPELINE_NUM_CHUNKS, then checks both that every
// byte made it to the sink and that the run finishes promptly. A chunk that
// leaked out of the free queue (double-enqueued, dropped, or never
// returned) would either deadlock runFileProcessingSource's blocking
// free.Dequeue() call, short the output, or eventually panic a queue
// invariant — any of which this test would catch.
func TestChunkConservationUnderReuse(t *testing.T) {
	const framesPerChunk = pipeline.PipelineChunkBaseSamples
	const numChunkWidths = 40 // 5x PIPELINE_NUM_CHUNKS full free-queue cycles
	const stride = 2         // cs8

	data := make([]byte, framesPerChunk*numChunkWidths*stride)
	for i := range data {
		data[i] = byte(i)
	}

	src := &bufferSource{data: data, stride: stride, rate: 48000}
	sink := &memSink{paced: false}

	cfg := pipeline.Config{
		Mode:         pipeline.FileProcessing,
		Source:       src,
		Sink:         sink,
		InputFormat:  iqfmt.FormatI8C,
		OutputFormat: iqfmt.FormatI8C,
		NoResample:   true,
		Logger:       zap.NewNop(),
	}

	done := make(chan error, 1)
	go func() { done <- pipeline.Run(context.Background(), cfg) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete within 5 seconds; a leaked chunk would stall free-queue reuse")
	}

	assert.Equal(t, len(data), len(sink.bytes()),
		"every frame must survive repeated free-queue reuse with no gain or filtering applied")
}
