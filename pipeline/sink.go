package pipeline

import "context"

// SinkModule is the output-writer vtable spec.md §6 describes. Concrete
// implementations: sink/rawfile, sink/wavfile, sink/stdout.
type SinkModule interface {
	// Open prepares the sink to accept Write calls (creates a file, writes
	// a WAV header placeholder, etc).
	Open(ctx context.Context, res *Resources) error

	// Write hands n bytes of encoded output to the sink, returning the
	// number of bytes actually written. A short write (n2 < n, err == nil)
	// is a fatal external I/O error in paced mode, and an orderly-shutdown
	// signal in chunk-direct mode (spec.md §7).
	Write(data []byte) (int, error)

	// TotalBytesWritten reports the cumulative byte count Write has
	// accepted, for progress reporting.
	TotalBytesWritten() int64

	// Close finalizes the sink (flushes headers, closes the file handle).
	Close() error

	// PacingRequired reports whether this sink needs the sink-side ring
	// buffer to decouple the DSP pipeline's rate from the sink's rate
	// (spec.md §6: true for bounded files, false for byte-stream sinks).
	PacingRequired() bool
}
