// Package rawfile implements pipeline.SourceModule over a raw I/Q byte file,
// the FILE_PROCESSING source SPEC_FULL.md §6 names first.
package rawfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rf-tools/iqpipe/iqfmt"
	"github.com/rf-tools/iqpipe/pipeline"
)

// Source reads raw interleaved I/Q samples from a file, with a known total
// frame count derived from the file size.
type Source struct {
	path       string
	format     iqfmt.Format
	sampleRate uint

	f           *os.File
	totalFrames int64
}

// New opens path lazily (at Initialize) for reading in format at
// sampleRate. sampleRate only affects GetSummaryInfo: a raw file carries no
// rate of its own.
func New(path string, format iqfmt.Format, sampleRate uint) *Source {
	return &Source{path: path, format: format, sampleRate: sampleRate}
}

// Initialize implements pipeline.SourceModule.
func (s *Source) Initialize(ctx context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("rawfile: open %s: %w", s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("rawfile: stat %s: %w", s.path, err)
	}

	bytesPerPair := s.format.BytesPerPair()
	s.f = f
	s.totalFrames = info.Size() / int64(bytesPerPair)
	return nil
}

// ReadBlock implements pipeline.SourceModule.
func (s *Source) ReadBlock(buf []byte, maxFrames int) (int, error) {
	want := maxFrames * s.format.BytesPerPair()
	if want > len(buf) {
		want = len(buf)
	}
	n, err := io.ReadFull(s.f, buf[:want])
	frames := n / s.format.BytesPerPair()
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return frames, io.EOF
	}
	if err != nil {
		return frames, fmt.Errorf("rawfile: read: %w", err)
	}
	return frames, nil
}

// StopStream implements pipeline.SourceModule. Raw file reads are
// synchronous and local; nothing needs unblocking.
func (*Source) StopStream() {}

// Cleanup implements pipeline.SourceModule.
func (s *Source) Cleanup() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// GetSummaryInfo implements pipeline.SourceModule.
func (s *Source) GetSummaryInfo() pipeline.SummaryInfo {
	return pipeline.SummaryInfo{SampleRate: s.sampleRate, TotalFrames: s.totalFrames}
}

// HasKnownLength implements pipeline.SourceModule.
func (*Source) HasKnownLength() bool {
	return true
}
