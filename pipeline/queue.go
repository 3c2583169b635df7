package pipeline

import "context"

// ChunkQueue is a bounded FIFO of *Chunk with shutdown broadcast, the
// blocking-queue contract spec.md §4.2 describes. It is grounded on
// stream/bufpipe.go's channel-plus-context idiom: a buffered channel gives
// FIFO ordering and blocking enqueue/dequeue for free, and a context
// cancellation plays the role of "signal_shutdown [setting] shutting_down
// and broadcast[ing] both condition variables" without a hand-rolled
// condvar pair.
type ChunkQueue struct {
	ch     chan *Chunk
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChunkQueue constructs a queue of the given capacity. parent governs
// cancellation alongside this queue's own SignalShutdown.
func NewChunkQueue(parent context.Context, capacity int) *ChunkQueue {
	ctx, cancel := context.WithCancel(parent)
	return &ChunkQueue{
		ch:     make(chan *Chunk, capacity),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enqueue blocks until either space is available or shutdown is signaled.
// Returns false if shutdown won the race.
func (q *ChunkQueue) Enqueue(c *Chunk) bool {
	select {
	case q.ch <- c:
		return true
	case <-q.ctx.Done():
		return false
	}
}

// Dequeue blocks until either an item is available or shutdown is
// signaled. Returns (nil, false) on shutdown.
func (q *ChunkQueue) Dequeue() (*Chunk, bool) {
	select {
	case c := <-q.ch:
		return c, true
	case <-q.ctx.Done():
		// Drain without blocking: a chunk enqueued just before shutdown
		// must still be observed rather than leaked.
		select {
		case c := <-q.ch:
			return c, true
		default:
			return nil, false
		}
	}
}

// TryDequeue is the non-blocking form: it returns (nil, false) immediately
// if no item is ready.
func (q *ChunkQueue) TryDequeue() (*Chunk, bool) {
	select {
	case c := <-q.ch:
		return c, true
	default:
		return nil, false
	}
}

// Len reports the number of chunks currently queued, for chunk-conservation
// accounting in tests.
func (q *ChunkQueue) Len() int {
	return len(q.ch)
}

// SignalShutdown marks the queue shutting down: blocked Enqueue and Dequeue
// calls return promptly. Dequeue still hands out chunks that were already
// queued before it returns (nil, false), and an Enqueue that finds room in
// the queue may still succeed.
func (q *ChunkQueue) SignalShutdown() {
	q.cancel()
}
