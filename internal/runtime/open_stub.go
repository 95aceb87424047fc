//go:build !llamacpp

package runtime

// This file provides a no-CGO stub compiled when the 'llamacpp' build tag is
// NOT set, keeping default builds and CI CGO-free. The real binding lives in
// llamacpp.go (tagged 'llamacpp').

// Available reports whether a native model runtime is compiled in.
func Available() bool { return false }

// Open returns the process model runtime, or ErrRuntimeUnavailable in
// builds without native support. No mocked behavior: callers must handle
// the error rather than receive a fake runtime.
func Open() (Runtime, error) {
	return nil, ErrRuntimeUnavailable
}
