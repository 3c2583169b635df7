// Package stdout implements pipeline.SinkModule over an unpaced
// byte-stream io.Writer (os.Stdout by default), SPEC_FULL.md §6's
// pacing_is_required=false sink used for REALTIME_SDR mode.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/rf-tools/iqpipe/pipeline"
)

// Sink writes directly to an io.Writer with no internal buffering: each
// Write call is handed straight through, matching a pipe's or socket's
// natural back-pressure.
type Sink struct {
	w       io.Writer
	written int64
}

// New wraps w (typically os.Stdout) as a sink. w is never closed by Close.
func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Default returns a Sink wrapping os.Stdout.
func Default() *Sink {
	return New(os.Stdout)
}

// Open implements pipeline.SinkModule; there is nothing to prepare.
func (*Sink) Open(ctx context.Context, res *pipeline.Resources) error {
	return nil
}

// Write implements pipeline.SinkModule. A short write here is the
// "downstream reader closed the pipe" case spec.md §7 calls out as an
// orderly shutdown, not a fatal error — the caller (the chunk-direct
// writer worker) is responsible for drawing that distinction.
func (s *Sink) Write(data []byte) (int, error) {
	n, err := s.w.Write(data)
	atomic.AddInt64(&s.written, int64(n))
	if err != nil {
		return n, fmt.Errorf("stdout sink: write: %w", err)
	}
	return n, nil
}

// TotalBytesWritten implements pipeline.SinkModule.
func (s *Sink) TotalBytesWritten() int64 {
	return atomic.LoadInt64(&s.written)
}

// Close implements pipeline.SinkModule; stdout is never closed.
func (*Sink) Close() error {
	return nil
}

// PacingRequired implements pipeline.SinkModule.
func (*Sink) PacingRequired() bool {
	return false
}
