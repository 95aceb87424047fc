// Package bridge exposes the three-operation boundary (Init, Generate,
// Dispose) with integer status codes, for callers that cannot consume Go
// errors directly, such as gomobile bindings or C ABI shims. The richer Go
// API lives in internal/engine; this package adapts it to the flat contract:
// statuses instead of errors, caller-owned output buffers, blocking calls.
package bridge

import (
	"context"

	"llmbridge/internal/engine"
	"llmbridge/internal/params"
	"llmbridge/internal/runtime"
)

// Status codes returned by Init and Generate. Zero means success; failures
// are negative and distinct per cause so callers can branch without parsing
// messages.
const (
	StatusOK               = 0
	StatusModelLoadFailed  = -1
	StatusContextFailed    = -2
	StatusInvalidModelPath = -3
	StatusNotInitialized   = -10
	StatusPrefillFailed    = -20
	StatusInvalidBuffer    = -30
	StatusPromptTooLong    = -40
	StatusSamplingFailed   = -50
	StatusBusy             = -60
)

// Bridge wraps an engine over the boundary contract. All methods are safe
// for concurrent use; operations serialize on the underlying engine's
// single in-flight slot.
type Bridge struct {
	eng *engine.Bridge
}

// New builds a Bridge over rt. Pass engine.Config zero value for defaults.
func New(rt runtime.Runtime, cfg engine.Config) *Bridge {
	return &Bridge{eng: engine.New(rt, cfg)}
}

// Open builds a Bridge over the process model runtime. It fails in builds
// without native runtime support.
func Open(cfg engine.Config) (*Bridge, error) {
	rt, err := runtime.Open()
	if err != nil {
		return nil, err
	}
	return New(rt, cfg), nil
}

// Engine exposes the underlying engine for callers that outgrow the flat
// contract (status endpoint, streaming).
func (b *Bridge) Engine() *engine.Bridge { return b.eng }

// InitOptions mirror engine.InitOptions for boundary callers.
type InitOptions struct {
	ModelPath  string
	ContextLen int
	GPULayers  int
	Threads    int
	Seed       int
}

// Init loads the model and creates its inference context, returning a
// status code. Idempotent: a second call while live returns StatusOK
// without reloading.
func (b *Bridge) Init(opts InitOptions) int {
	err := b.eng.Init(engine.InitOptions{
		ModelPath:  opts.ModelPath,
		ContextLen: opts.ContextLen,
		GPULayers:  opts.GPULayers,
		Threads:    opts.Threads,
		Seed:       opts.Seed,
	})
	switch {
	case err == nil:
		return StatusOK
	case engine.IsInvalidModelPath(err):
		return StatusInvalidModelPath
	case engine.IsContextFailed(err):
		return StatusContextFailed
	case engine.IsTooBusy(err):
		return StatusBusy
	default:
		// Model load failures and runtime-unavailable both mean the
		// weights never became usable.
		return StatusModelLoadFailed
	}
}

// Generate runs prompt through the generation loop and writes the resulting
// UTF-8 text into buf, always NUL-terminated and never past len(buf). The
// rawConfig blob is parsed leniently: malformed input or unusable values
// fall back to documented defaults and never fail the call.
//
// Returns the number of text bytes written (excluding the terminator) and a
// status. StatusOK covers partial text too: hitting the byte capacity, the
// token budget, end-of-sequence, the context window, or a mid-loop decode
// failure all succeed with whatever text accumulated.
func (b *Bridge) Generate(prompt string, rawConfig []byte, buf []byte) (int, int) {
	if buf == nil || len(buf) < 2 {
		return 0, StatusInvalidBuffer
	}

	cfg := params.Parse(rawConfig)
	res, err := b.eng.Generate(context.Background(), prompt, cfg, len(buf), nil)
	if err != nil {
		buf[0] = 0
		switch {
		case engine.IsNotInitialized(err):
			return 0, StatusNotInitialized
		case engine.IsPromptTooLong(err):
			return 0, StatusPromptTooLong
		case engine.IsPrefillFailed(err):
			return 0, StatusPrefillFailed
		case engine.IsSamplingFailed(err):
			return 0, StatusSamplingFailed
		case engine.IsTooBusy(err):
			return 0, StatusBusy
		default:
			return 0, StatusPrefillFailed
		}
	}

	n := copy(buf, res.Text)
	if n > len(buf)-1 {
		n = len(buf) - 1
	}
	buf[n] = 0
	return n, StatusOK
}

// Dispose releases the inference context and model. Idempotent and safe to
// call before Init.
func (b *Bridge) Dispose() { b.eng.Dispose() }
