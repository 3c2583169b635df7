// Package rawfile implements pipeline.SinkModule over a raw I/Q byte file.
package rawfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rf-tools/iqpipe/pipeline"
)

// Sink writes raw interleaved I/Q samples to a file, buffered.
type Sink struct {
	path string

	f       *os.File
	w       *bufio.Writer
	written int64
}

// New returns a Sink that will create/truncate path at Open.
func New(path string) *Sink {
	return &Sink{path: path}
}

// Open implements pipeline.SinkModule.
func (s *Sink) Open(ctx context.Context, res *pipeline.Resources) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("rawfile sink: create %s: %w", s.path, err)
	}
	s.f = f
	s.w = bufio.NewWriterSize(f, pipeline.IOOutputWriterChunkSize)
	return nil
}

// Write implements pipeline.SinkModule.
func (s *Sink) Write(data []byte) (int, error) {
	n, err := s.w.Write(data)
	atomic.AddInt64(&s.written, int64(n))
	if err != nil {
		return n, fmt.Errorf("rawfile sink: write: %w", err)
	}
	return n, nil
}

// TotalBytesWritten implements pipeline.SinkModule.
func (s *Sink) TotalBytesWritten() int64 {
	return atomic.LoadInt64(&s.written)
}

// Close implements pipeline.SinkModule.
func (s *Sink) Close() error {
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			s.f.Close()
			return fmt.Errorf("rawfile sink: flush: %w", err)
		}
	}
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// PacingRequired implements pipeline.SinkModule: a bounded file needs the
// sink-side ring to decouple the DSP chain's rate from disk I/O.
func (*Sink) PacingRequired() bool {
	return true
}
