package genai

import (
	"errors"
	"fmt"
)

// ErrMalformedEnvelope indicates the response envelope was missing the
// candidate/content/part nesting the generated text lives in.
var ErrMalformedEnvelope = errors.New("malformed generation envelope")

// NetworkError wraps a transport-level failure (connect failure, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("generation request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError is a non-2xx response from the generation backend.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend returned %d: %s", e.StatusCode, e.Message)
}

// BlockedContentError means the backend refused the prompt on safety grounds.
// Callers should surface it distinctly ("content was filtered") rather than
// as a generic failure.
type BlockedContentError struct {
	Reason string
}

func (e *BlockedContentError) Error() string {
	return fmt.Sprintf("content blocked by backend: %s", e.Reason)
}

// IncompleteContentError means generation stopped abnormally (safety,
// recitation, etc) before producing a usable payload.
type IncompleteContentError struct {
	Reason string
}

func (e *IncompleteContentError) Error() string {
	return fmt.Sprintf("generation finished abnormally: %s", e.Reason)
}

// UnparsableContentError means the generated text carried no JSON array,
// with or without markdown fences.
type UnparsableContentError struct {
	RawText string
}

func (e *UnparsableContentError) Error() string {
	return fmt.Sprintf("generated text is not a JSON array: %.80q", e.RawText)
}
