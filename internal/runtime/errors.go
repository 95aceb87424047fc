package runtime

import (
	"errors"
	"fmt"
)

// ErrRuntimeUnavailable signals that no native model runtime is compiled into
// this binary (missing 'llamacpp' build tag).
var ErrRuntimeUnavailable = errors.New("model runtime not built (missing 'llamacpp' build tag)")

// LoadError reports a model load failure with its path.
type LoadError struct {
	Path   string
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %q: %s", e.Path, e.Reason)
}

// ContextError reports an inference-context creation failure.
type ContextError struct {
	Reason string
}

func (e *ContextError) Error() string {
	return "create context: " + e.Reason
}

// DecodeError reports a failed decode call.
type DecodeError struct {
	Tokens int
	Code   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d token(s): runtime status %d", e.Tokens, e.Code)
}
