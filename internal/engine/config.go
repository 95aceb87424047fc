package engine

import "time"

// Defaults applied when corresponding Config / InitOptions fields are unset.
const (
	defaultContextLen = 2048
	defaultThreads    = 4
	defaultBatchSize  = 256
	defaultMaxWait    = 30 * time.Second
)

// Config encapsulates construction-time tunables for the Bridge.
type Config struct {
	// MaxWait bounds how long an operation waits for the in-flight slot
	// before failing with a too-busy error. Zero means the package default.
	MaxWait time.Duration
	// Publisher receives lifecycle events. Nil means events are dropped.
	Publisher EventPublisher
}

// InitOptions configure model and context creation. Zero values fall back
// to documented defaults inside Init.
type InitOptions struct {
	// ModelPath is the path of the model file. Required, must be readable.
	ModelPath string
	// ContextLen is the context window size in tokens. <=0 means 2048.
	ContextLen int
	// GPULayers is the number of layers offloaded to an accelerator.
	GPULayers int
	// Threads is the decode worker count. <=0 means 4.
	Threads int
	// Seed initializes runtime-side randomness.
	Seed int
}

// withDefaults returns a copy of o with unset fields defaulted.
func (o InitOptions) withDefaults() InitOptions {
	if o.ContextLen <= 0 {
		o.ContextLen = defaultContextLen
	}
	if o.Threads <= 0 {
		o.Threads = defaultThreads
	}
	return o
}
