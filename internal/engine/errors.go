package engine

import (
	"errors"

	"llmbridge/internal/runtime"
)

// notInitializedError signals Generate before a successful Init.
type notInitializedError struct{}

func (notInitializedError) Error() string { return "bridge not initialized" }

// ErrNotInitialized constructs a notInitializedError.
func ErrNotInitialized() error { return notInitializedError{} }

// IsNotInitialized reports whether err indicates a missing model/context.
func IsNotInitialized(err error) bool {
	var e notInitializedError
	return errors.As(err, &e)
}

// invalidModelPathError signals an empty or unreadable model path.
type invalidModelPathError struct{ path string }

func (e invalidModelPathError) Error() string {
	if e.path == "" {
		return "invalid model path: empty"
	}
	return "invalid model path: " + e.path
}

// ErrInvalidModelPath constructs an invalidModelPathError.
func ErrInvalidModelPath(path string) error { return invalidModelPathError{path: path} }

// IsInvalidModelPath reports whether err indicates a bad model path.
func IsInvalidModelPath(err error) bool {
	var e invalidModelPathError
	return errors.As(err, &e)
}

// tooBusyError signals the in-flight slot could not be acquired in time.
type tooBusyError struct{}

func (tooBusyError) Error() string { return "bridge busy: generation in flight" }

// ErrTooBusy constructs a tooBusyError.
func ErrTooBusy() error { return tooBusyError{} }

// IsTooBusy reports whether err indicates backpressure (HTTP 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// promptTooLongError signals a prompt that cannot fit the context window.
type promptTooLongError struct {
	tokens     int
	contextLen int
}

func (e promptTooLongError) Error() string {
	return "prompt exceeds context window"
}

// ErrPromptTooLong constructs a promptTooLongError.
func ErrPromptTooLong(tokens, contextLen int) error {
	return promptTooLongError{tokens: tokens, contextLen: contextLen}
}

// IsPromptTooLong reports whether err indicates an oversized prompt.
func IsPromptTooLong(err error) bool {
	var e promptTooLongError
	return errors.As(err, &e)
}

// prefillError wraps a tokenize or prompt-decode failure; fatal to the call.
type prefillError struct{ cause error }

func (e prefillError) Error() string { return "prefill: " + e.cause.Error() }
func (e prefillError) Unwrap() error { return e.cause }

// IsPrefillFailed reports whether err indicates a failed prompt decode.
func IsPrefillFailed(err error) bool {
	var e prefillError
	return errors.As(err, &e)
}

// samplingFailedError wraps a sampling failure on the very first step.
type samplingFailedError struct{ cause error }

func (e samplingFailedError) Error() string { return "sampling: " + e.cause.Error() }
func (e samplingFailedError) Unwrap() error { return e.cause }

// IsSamplingFailed reports whether err indicates first-step sampling failure.
func IsSamplingFailed(err error) bool {
	var e samplingFailedError
	return errors.As(err, &e)
}

// IsModelLoadFailed reports whether err came from the runtime's model loader.
func IsModelLoadFailed(err error) bool {
	var le *runtime.LoadError
	return errors.As(err, &le) || errors.Is(err, runtime.ErrRuntimeUnavailable)
}

// IsContextFailed reports whether err came from context creation.
func IsContextFailed(err error) bool {
	var ce *runtime.ContextError
	return errors.As(err, &ce)
}
