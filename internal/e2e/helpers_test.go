package e2e

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"llmbridge/internal/engine"
	"llmbridge/internal/httpapi"
	"llmbridge/internal/registry"
	"llmbridge/internal/runtime"
)

// scriptedRuntime yields its pieces in order under greedy sampling, then an
// end-of-generation token. decodeGate, when non-nil, blocks every Decode
// call until the channel is closed.
type scriptedRuntime struct {
	pieces     []string
	decodeGate chan struct{}
}

func (r *scriptedRuntime) LoadModel(path string, opts runtime.ModelOptions) (runtime.Model, error) {
	return &scriptedModel{rt: r}, nil
}

type scriptedModel struct{ rt *scriptedRuntime }

func (m *scriptedModel) NewContext(opts runtime.ContextOptions) (runtime.Context, error) {
	return &scriptedContext{rt: m.rt, contextLen: opts.ContextLen}, nil
}

func (m *scriptedModel) Tokenize(text string, addSpecial bool) ([]int, error) {
	return make([]int, len(strings.Fields(text))), nil
}

func (m *scriptedModel) TokenText(tok int) string {
	if tok >= 0 && tok < len(m.rt.pieces) {
		return m.rt.pieces[tok]
	}
	return ""
}

func (m *scriptedModel) IsEOG(tok int) bool { return tok == len(m.rt.pieces) }
func (m *scriptedModel) VocabSize() int     { return len(m.rt.pieces) + 1 }
func (m *scriptedModel) Free()              {}

type scriptedContext struct {
	rt         *scriptedRuntime
	contextLen int
	step       int
}

func (c *scriptedContext) Decode(tokens []int) error {
	if c.rt.decodeGate != nil {
		<-c.rt.decodeGate
	}
	return nil
}

func (c *scriptedContext) Logits() []float32 {
	v := make([]float32, len(c.rt.pieces)+1)
	i := c.step
	c.step++
	if i > len(c.rt.pieces) {
		i = len(c.rt.pieces)
	}
	v[i] = 10
	return v
}

func (c *scriptedContext) ContextLen() int { return c.contextLen }
func (c *scriptedContext) Free()           {}

// newServer builds an httptest server over a freshly initialized bridge.
func newServer(t *testing.T, rt *scriptedRuntime, maxWait time.Duration) (*httptest.Server, *engine.Bridge) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "alpha.gguf")
	if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	models, err := registry.LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}

	eng := engine.New(rt, engine.Config{MaxWait: maxWait})
	if err := eng.Init(engine.InitOptions{ModelPath: p}); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(eng.Dispose)

	svc := httpapi.NewBridgeService(eng, models, models[0].ID)
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, eng
}

// newRawServer serves svc without initializing anything, returning the base URL.
func newRawServer(t *testing.T, svc httpapi.Service) string {
	t.Helper()
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv.URL
}
