package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Queue plays utterances through a Synthesizer strictly one at a time:
// each item's completion starts the next queued item, so spoken output
// never overlaps. CancelAll drops everything pending and interrupts the
// in-flight item, which the dialogue engine uses to stop talking the
// moment the user starts speaking again.
type Queue struct {
	synth  Synthesizer
	logger *slog.Logger

	mu       sync.Mutex
	pending  []string
	speaking bool
	gen      uint64
	cancel   context.CancelFunc
}

// NewQueue returns an idle playback queue.
func NewQueue(synth Synthesizer, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		synth:  synth,
		logger: logger.With("component", "speech.queue"),
	}
}

// Enqueue appends text to the playback queue and starts playback if the
// queue was idle. Blank text is ignored.
func (q *Queue) Enqueue(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, text)
	if !q.speaking {
		q.speaking = true
		q.startNextLocked()
	}
}

// CancelAll drops all pending utterances and interrupts the one being
// spoken, if any.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	q.pending = nil
	q.speaking = false
	q.gen++
	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Speaking reports whether an utterance is currently being played.
func (q *Queue) Speaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

// startNextLocked pops the head of the queue and plays it on its own
// goroutine. The generation counter ties the completion callback to the
// chain it belongs to, so a chain interrupted by CancelAll cannot revive
// itself after a new one has started.
func (q *Queue) startNextLocked() {
	next := q.pending[0]
	q.pending = q.pending[1:]
	gen := q.gen
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	go func() {
		err := q.synth.Speak(ctx, next)
		cancel()
		if err != nil && ctx.Err() == nil {
			q.logger.Warn("playback failed, continuing with next item", "error", err)
		}

		q.mu.Lock()
		defer q.mu.Unlock()
		if q.gen != gen {
			return
		}
		q.cancel = nil
		if len(q.pending) > 0 {
			q.startNextLocked()
			return
		}
		q.speaking = false
	}()
}
