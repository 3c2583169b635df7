// Package wavfile implements pipeline.SinkModule as a stereo 16-bit PCM WAV
// container (I on the left channel, Q on the right), via go-audio/wav —
// SPEC_FULL.md §6's container-format sink, paired with source/wavfile.
package wavfile

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rf-tools/iqpipe/pipeline"
)

const (
	bitDepth    = 16
	numChans    = 2
	audioFormat = 1 // PCM
)

// Sink writes raw little-endian I16C bytes out as a stereo WAV file.
// SampleRate must be set before Open (it becomes the WAV header's rate).
type Sink struct {
	path       string
	sampleRate int

	f       *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	written int64
}

// New returns a Sink that will create path at Open, tagged with the given
// sample rate.
func New(path string, sampleRate int) *Sink {
	return &Sink{path: path, sampleRate: sampleRate}
}

// Open implements pipeline.SinkModule.
func (s *Sink) Open(ctx context.Context, res *pipeline.Resources) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("wavfile sink: create %s: %w", s.path, err)
	}
	s.f = f
	s.enc = wav.NewEncoder(f, s.sampleRate, bitDepth, numChans, audioFormat)
	s.buf = &audio.IntBuffer{
		Format: &audio.Format{SampleRate: s.sampleRate, NumChannels: numChans},
	}
	return nil
}

// Write implements pipeline.SinkModule. data must hold whole I16C frames
// (4 bytes each); a partial trailing frame is an error, not silently
// dropped, since WAV has no concept of a partial sample.
func (s *Sink) Write(data []byte) (int, error) {
	if len(data)%4 != 0 {
		return 0, fmt.Errorf("wavfile sink: write: %d bytes is not a whole number of I16C frames", len(data))
	}
	frames := len(data) / 4
	if cap(s.buf.Data) < frames*2 {
		s.buf.Data = make([]int, frames*2)
	}
	s.buf.Data = s.buf.Data[:frames*2]
	for i := 0; i < frames; i++ {
		s.buf.Data[i*2] = int(int16(binary.LittleEndian.Uint16(data[i*4:])))
		s.buf.Data[i*2+1] = int(int16(binary.LittleEndian.Uint16(data[i*4+2:])))
	}

	if err := s.enc.Write(s.buf); err != nil {
		return 0, fmt.Errorf("wavfile sink: encode: %w", err)
	}
	atomic.AddInt64(&s.written, int64(len(data)))
	return len(data), nil
}

// TotalBytesWritten implements pipeline.SinkModule.
func (s *Sink) TotalBytesWritten() int64 {
	return atomic.LoadInt64(&s.written)
}

// Close implements pipeline.SinkModule: the WAV encoder patches its header
// sizes on Close, which requires the underlying file still be open.
func (s *Sink) Close() error {
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			s.f.Close()
			return fmt.Errorf("wavfile sink: close encoder: %w", err)
		}
	}
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// PacingRequired implements pipeline.SinkModule.
func (*Sink) PacingRequired() bool {
	return true
}
