// Package engine owns the model lifecycle and the token-generation loop.
// It is structured into small files by concern:
//
//   - engine.go: core Bridge type, constructor, lock acquisition.
//   - config.go: Config and package defaults; New applies defaults.
//   - errors.go: error types and helpers (IsNotInitialized, IsTooBusy, ...).
//   - lifecycle.go: Init/Dispose (idempotent init, ordered release).
//   - generate.go: the tokenize → prefill → sample/decode loop.
//   - events.go: lifecycle EventPublisher plus memory/zerolog publishers.
//   - status.go: Status reporting for the HTTP layer.
//   - sanity.go: runtime/model-file preflight checks.
//   - metrics.go: Prometheus generation metrics.
//
// All three public operations (Init, Generate, Dispose) serialize on a
// single in-flight slot scoped to the Bridge; at most one executes at a
// time. Generate blocks its caller for the full generation, so callers
// needing responsiveness must invoke it off their UI thread and must not
// re-enter the bridge from a token callback.
//
// The model runtime is abstracted by internal/runtime; builds without the
// 'llamacpp' tag fail Init with a distinct runtime-unavailable error rather
// than mock.
package engine
