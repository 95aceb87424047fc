package engine

import (
	"os"

	"llmbridge/internal/runtime"
)

// SanityReport describes environment checks for the model runtime.
type SanityReport struct {
	RuntimeAvailable bool   `json:"runtime_available"`
	ModelPath        string `json:"model_path,omitempty"`
	ModelReadable    bool   `json:"model_readable"`
	Error            string `json:"error,omitempty"`
}

// SanityCheck validates that the native runtime is linked in and that the
// given model path (optional) points at a readable file. It does not mutate
// state and is safe to call at any time.
func SanityCheck(modelPath string) SanityReport {
	r := SanityReport{RuntimeAvailable: runtime.Available()}
	if !r.RuntimeAvailable {
		r.Error = runtime.ErrRuntimeUnavailable.Error()
	}
	if modelPath == "" {
		return r
	}
	r.ModelPath = modelPath
	fi, err := os.Stat(modelPath)
	switch {
	case err != nil:
		r.Error = err.Error()
	case fi.IsDir():
		r.Error = "model path is a directory"
	default:
		r.ModelReadable = true
	}
	return r
}
