// Package runtime abstracts the model runtime (llama.cpp) behind small
// interfaces so the engine can drive tokenize/decode/sample without linking
// the native library in default builds. The real binding is compiled with
// the 'llamacpp' build tag; without it Open fails fast.
package runtime

// Runtime loads model files from disk.
type Runtime interface {
	// LoadModel maps the weights at path into memory.
	LoadModel(path string, opts ModelOptions) (Model, error)
}

// ModelOptions configure model loading.
type ModelOptions struct {
	// GPULayers is the number of layers offloaded to an accelerator (0 = CPU only).
	GPULayers int
	// UseMMap memory-maps the model file instead of reading it.
	UseMMap bool
}

// Model is a loaded set of weights plus its vocabulary.
type Model interface {
	// NewContext creates a mutable inference context bound to this model.
	NewContext(opts ContextOptions) (Context, error)
	// Tokenize converts text to token ids, prepending control tokens when
	// addSpecial is set. An empty text yields an empty, valid sequence.
	Tokenize(text string, addSpecial bool) ([]int, error)
	// TokenText returns the UTF-8 fragment for a single token id.
	TokenText(token int) string
	// IsEOG reports whether token ends generation (EOS or similar).
	IsEOG(token int) bool
	// VocabSize returns the vocabulary size.
	VocabSize() int
	// Free releases the model. Safe to call once; the Model is unusable after.
	Free()
}

// ContextOptions configure inference-context creation.
type ContextOptions struct {
	// ContextLen is the maximum number of history tokens (KV-cache size).
	ContextLen int
	// BatchSize bounds tokens per decode call.
	BatchSize int
	// Threads is the worker thread count.
	Threads int
	// Seed initializes runtime-side randomness.
	Seed int
}

// Context is mutable generation state (KV-cache, position) tied to a Model.
type Context interface {
	// Decode submits tokens, advancing the cache position by len(tokens).
	Decode(tokens []int) error
	// Logits returns the logit vector for the last decoded position. The
	// returned slice is valid until the next Decode call.
	Logits() []float32
	// ContextLen returns the configured context window size.
	ContextLen() int
	// Free releases the context. Safe to call once; the Context is unusable after.
	Free()
}
