// Package speech bridges text and audio through two independent
// capabilities: synthesis (text to audio) and transcription (audio to
// text). Each can fail independently of the other and of the dialogue
// model; every failure carries a Kind so callers dispatch on the kind
// rather than on error message text.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a speech failure.
type Kind int

const (
	// KindEmptyInput: blank or whitespace-only synthesis text. Rejected
	// before any network call.
	KindEmptyInput Kind = iota + 1
	// KindEmptyAudio: zero-length audio buffer. Rejected before any
	// network call.
	KindEmptyAudio
	// KindConfiguration: missing or invalid credentials/region. Fatal for
	// the capability in the current deployment, never retried.
	KindConfiguration
	// KindSynthesisFailed: vendor-side synthesis failure. Callers must be
	// able to continue in text-only mode.
	KindSynthesisFailed
	// KindDecodeFailed: the audio container/codec could not be decoded
	// into PCM samples.
	KindDecodeFailed
	// KindNoSpeechDetected: decoding succeeded but the recognizer found no
	// intelligible speech.
	KindNoSpeechDetected
	// KindNotRecognized: recognition finished with no confident match.
	KindNotRecognized
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty input"
	case KindEmptyAudio:
		return "empty audio"
	case KindConfiguration:
		return "configuration error"
	case KindSynthesisFailed:
		return "synthesis failed"
	case KindDecodeFailed:
		return "decode failed"
	case KindNoSpeechDetected:
		return "no speech detected"
	case KindNotRecognized:
		return "not recognized"
	default:
		return "unknown"
	}
}

// Error is a speech failure tagged with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("speech: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind of a speech error, or zero if err is not one.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsKind reports whether err is a speech error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Synthesizer produces spoken audio for a piece of interviewer text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber converts a candidate's voice recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
