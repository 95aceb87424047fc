package engine

import (
	"context"
	"os"
	"strings"

	"llmbridge/internal/runtime"
)

// Init loads the model at opts.ModelPath and creates its inference context.
// It is idempotent: when a context is already live it returns nil without
// reloading. On context-creation failure the just-loaded model is released
// so no partial handle survives. Distinguishable failures: invalid path,
// model load, context creation (see errors.go predicates).
func (b *Bridge) Init(opts InitOptions) error {
	release, err := b.acquire(context.Background())
	if err != nil {
		return err
	}
	defer release()

	b.mu.RLock()
	live := b.inferCtx != nil
	b.mu.RUnlock()
	if live {
		b.publisher.Publish(Event{Name: "init_noop"})
		return nil
	}

	path := strings.TrimSpace(opts.ModelPath)
	if path == "" {
		err := ErrInvalidModelPath("")
		b.setLastErr(err)
		return err
	}
	if fi, statErr := os.Stat(path); statErr != nil || fi.IsDir() {
		err := ErrInvalidModelPath(path)
		b.setLastErr(err)
		return err
	}

	eff := opts.withDefaults()
	eff.ModelPath = path

	model, err := b.rt.LoadModel(path, modelOptions(eff))
	if err != nil {
		b.setLastErr(err)
		return err
	}
	ictx, err := model.NewContext(contextOptions(eff))
	if err != nil {
		model.Free()
		b.setLastErr(err)
		return err
	}

	b.mu.Lock()
	b.model = model
	b.inferCtx = ictx
	b.opts = eff
	b.nPast = 0
	b.lastErr = ""
	b.mu.Unlock()

	b.publisher.Publish(Event{Name: "init", Fields: map[string]any{
		"model_path":  eff.ModelPath,
		"context_len": eff.ContextLen,
		"gpu_layers":  eff.GPULayers,
		"threads":     eff.Threads,
	}})
	return nil
}

// Dispose releases the inference context and then the model, in that order,
// each guarded against double-free. It blocks until any in-flight operation
// finishes, always succeeds, and is a no-op when nothing is initialized.
func (b *Bridge) Dispose() {
	b.opCh <- struct{}{}
	defer func() { <-b.opCh }()

	b.mu.Lock()
	ictx, model := b.inferCtx, b.model
	b.inferCtx, b.model = nil, nil
	b.nPast = 0
	b.mu.Unlock()

	if ictx != nil {
		ictx.Free()
	}
	if model != nil {
		model.Free()
	}
	if ictx != nil || model != nil {
		b.publisher.Publish(Event{Name: "dispose"})
	}
}

func modelOptions(o InitOptions) runtime.ModelOptions {
	return runtime.ModelOptions{GPULayers: o.GPULayers, UseMMap: true}
}

func contextOptions(o InitOptions) runtime.ContextOptions {
	return runtime.ContextOptions{
		ContextLen: o.ContextLen,
		BatchSize:  defaultBatchSize,
		Threads:    o.Threads,
		Seed:       o.Seed,
	}
}
