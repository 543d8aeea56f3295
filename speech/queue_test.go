package speech

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// recordingSynth records the order utterances finish in and optionally
// blocks until released.
type recordingSynth struct {
	mu      sync.Mutex
	spoken  []string
	started chan string
	release chan struct{}
}

func newRecordingSynth(buffered int) *recordingSynth {
	return &recordingSynth{
		started: make(chan string, buffered),
		release: make(chan struct{}),
	}
}

func (s *recordingSynth) Speak(ctx context.Context, text string) error {
	select {
	case s.started <- text:
	default:
	}
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	return nil
}

func (s *recordingSynth) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueSpeaksInOrder(t *testing.T) {
	synth := newRecordingSynth(4)
	close(synth.release)
	q := NewQueue(synth, testLogger())

	q.Enqueue("first")
	q.Enqueue("second")
	q.Enqueue("third")

	deadline := time.After(2 * time.Second)
	for {
		if got := synth.snapshot(); len(got) == 3 {
			if got[0] != "first" || got[1] != "second" || got[2] != "third" {
				t.Fatalf("spoken order = %v", got)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out, spoken so far: %v", synth.snapshot())
		case <-time.After(5 * time.Millisecond):
		}
	}

	deadline = time.After(2 * time.Second)
	for q.Speaking() {
		select {
		case <-deadline:
			t.Fatal("queue still speaking after all items played")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestQueueIgnoresBlank(t *testing.T) {
	synth := newRecordingSynth(1)
	close(synth.release)
	q := NewQueue(synth, testLogger())

	q.Enqueue("   ")
	q.Enqueue("")
	if q.Speaking() {
		t.Error("queue speaking after blank enqueues")
	}
}

func TestCancelAllDropsPendingAndInterrupts(t *testing.T) {
	synth := newRecordingSynth(1)
	q := NewQueue(synth, testLogger())

	q.Enqueue("in flight")
	q.Enqueue("never spoken")

	select {
	case <-synth.started:
	case <-time.After(2 * time.Second):
		t.Fatal("playback never started")
	}

	q.CancelAll()
	if q.Speaking() {
		t.Error("queue speaking after CancelAll")
	}

	// Release the synthesizer; the cancelled chain must not revive.
	close(synth.release)
	time.Sleep(20 * time.Millisecond)
	if got := synth.snapshot(); len(got) != 0 {
		t.Errorf("spoken after cancel = %v, want none", got)
	}
	if q.Speaking() {
		t.Error("cancelled chain restarted playback")
	}
}

func TestEnqueueAfterCancelStartsFresh(t *testing.T) {
	synth := newRecordingSynth(2)
	q := NewQueue(synth, testLogger())

	q.Enqueue("old")
	select {
	case <-synth.started:
	case <-time.After(2 * time.Second):
		t.Fatal("playback never started")
	}
	q.CancelAll()

	close(synth.release)
	q.Enqueue("new")

	deadline := time.After(2 * time.Second)
	for {
		got := synth.snapshot()
		if len(got) == 1 && got[0] == "new" {
			return
		}
		if len(got) > 1 {
			t.Fatalf("spoken = %v", got)
		}
		select {
		case <-deadline:
			t.Fatalf("timed out, spoken: %v", synth.snapshot())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
