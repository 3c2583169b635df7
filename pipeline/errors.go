package pipeline

import "fmt"

// ErrDriverStalled is the watchdog's fatal error when an SDR source goes
// silent past its heartbeat threshold (spec.md §4.11).
var ErrDriverStalled = fmt.Errorf("pipeline: SDR driver stalled, no heartbeat")

// ErrInitializeTimeout is returned when a source's Initialize call doesn't
// return within SDRInitializeTimeout (spec.md §5).
var ErrInitializeTimeout = fmt.Errorf("pipeline: source initialize timed out")
