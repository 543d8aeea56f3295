// Package speech defines the assistant's audio boundary. Capture and
// synthesis backends are external collaborators; this package only fixes
// their contracts and provides the playback queue that keeps spoken
// output strictly sequential.
package speech

import (
	"context"
	"errors"
)

// ErrUnsupported is reported by capture implementations running in an
// environment without speech recognition, as opposed to a runtime error
// during capture.
var ErrUnsupported = errors.New("speech recognition not supported")

// Capture produces transcripts from microphone input. Stop finalizes
// whatever transcript exists at that instant; no partial utterance
// survives a stop/start cycle.
type Capture interface {
	// Start begins listening in the given BCP 47 language tag.
	Start(languageTag string) error

	// Stop ends the capture and returns the finalized transcript.
	Stop() (string, error)

	// Supported reports whether this environment can capture speech.
	Supported() bool
}

// Synthesizer vocalizes one utterance. Speak blocks until playback
// finishes or ctx is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}
