package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"llmbridge/internal/engine"
	"llmbridge/internal/runtime"
	"llmbridge/pkg/types"
)

// scriptedRuntime emits its pieces in order under greedy sampling, then an
// end-of-generation token.
type scriptedRuntime struct {
	pieces []string
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

func (c *scriptedContext) Decode(tokens []int) error { return nil }

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

func newTestService(t *testing.T, pieces []string) *BridgeService {
	t.Helper()
	eng := engine.New(&scriptedRuntime{pieces: pieces}, engine.Config{})
	p := filepath.Join(t.TempDir(), "tiny.gguf")
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	if err := eng.Init(engine.InitOptions{ModelPath: p}); err != nil {
		t.Fatalf("init: %v", err)
	}
	registry := []types.Model{{ID: "tiny", Path: p}}
	return NewBridgeService(eng, registry, "tiny")
}

func TestBridgeServiceStreaming(t *testing.T) {
	svc := newTestService(t, []string{"a", "b"})

	var out bytes.Buffer
	req := types.GenerateRequest{Prompt: "hi", Stream: true}
	raw := []byte(`{"prompt":"hi","stream":true,"temperature":0}`)
	if err := svc.Generate(context.Background(), req, raw, &out, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var lines []string
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 2 tokens + final", len(lines))
	}
	var tl tokenLine
	if err := json.Unmarshal([]byte(lines[0]), &tl); err != nil || tl.Content != "a" {
		t.Fatalf("first token line = %q (%v)", lines[0], err)
	}
	var final types.GenerateFinal
	if err := json.Unmarshal([]byte(lines[2]), &final); err != nil {
		t.Fatalf("final line: %v", err)
	}
	if !final.Done || final.Content != "ab" || final.FinishReason != engine.FinishEOS {
		t.Fatalf("unexpected final: %+v", final)
	}
}

func TestBridgeServiceNonStreamEmitsFinalOnly(t *testing.T) {
	svc := newTestService(t, []string{"x"})

	var out bytes.Buffer
	raw := []byte(`{"prompt":"hi","temperature":0}`)
	if err := svc.Generate(context.Background(), types.GenerateRequest{Prompt: "hi"}, raw, &out, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	var lines int
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		lines++
	}
	if lines != 1 {
		t.Fatalf("lines = %d, want only the final line", lines)
	}
}

func TestBridgeServiceRejectsUnknownModel(t *testing.T) {
	svc := newTestService(t, []string{"x"})
	err := svc.Generate(context.Background(), types.GenerateRequest{Prompt: "hi", Model: "other"}, nil, &bytes.Buffer{}, nil)
	if !IsModelNotFound(err) {
		t.Fatalf("expected model-not-found, got %v", err)
	}
}

func TestBridgeServiceStatusAndModels(t *testing.T) {
	svc := newTestService(t, []string{"x"})
	if !svc.Ready() {
		t.Fatal("expected ready after init")
	}
	if st := svc.Status(); !st.Initialized {
		t.Fatalf("unexpected status: %+v", st)
	}
	models := svc.ListModels()
	if len(models) != 1 || models[0].ID != "tiny" {
		t.Fatalf("unexpected models: %+v", models)
	}
	models[0].ID = "mutated"
	if svc.ListModels()[0].ID != "tiny" {
		t.Fatal("ListModels must return a copy")
	}
}
