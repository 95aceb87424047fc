package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"llmbridge/internal/runtime"
)

// createModelFile creates a small placeholder model file and returns its path.
func createModelFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	return p
}

// fakeRuntime is an in-memory runtime used for tests. Its fields script the
// behavior of the model and context it hands out.
type fakeRuntime struct {
	loadErr error
	ctxErr  error

	// script holds one logits vector per sampling step; the last entry
	// repeats once exhausted.
	script       [][]float32
	pieces       map[int]string
	eos          int
	decodeFailAt int // 1-based Decode call index to fail at; 0 = never

	loads int
	model *fakeModel
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{eos: -1, pieces: map[int]string{}}
}

func (r *fakeRuntime) LoadModel(path string, opts runtime.ModelOptions) (runtime.Model, error) {
	r.loads++
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	m := &fakeModel{rt: r, path: path}
	r.model = m
	return m, nil
}

type fakeModel struct {
	rt    *fakeRuntime
	path  string
	freed int
	ctx   *fakeContext
}

func (m *fakeModel) NewContext(opts runtime.ContextOptions) (runtime.Context, error) {
	if m.rt.ctxErr != nil {
		return nil, m.rt.ctxErr
	}
	c := &fakeContext{
		contextLen:   opts.ContextLen,
		script:       m.rt.script,
		decodeFailAt: m.rt.decodeFailAt,
	}
	m.ctx = c
	return c, nil
}

// Tokenize emits one token per whitespace-separated field, ids 100, 101, ...
func (m *fakeModel) Tokenize(text string, addSpecial bool) ([]int, error) {
	fields := strings.Fields(text)
	toks := make([]int, len(fields))
	for i := range toks {
		toks[i] = 100 + i
	}
	return toks, nil
}

func (m *fakeModel) TokenText(tok int) string {
	if s, ok := m.rt.pieces[tok]; ok {
		return s
	}
	return "?"
}

func (m *fakeModel) IsEOG(tok int) bool { return tok == m.rt.eos }
func (m *fakeModel) VocabSize() int     { return 8 }
func (m *fakeModel) Free()              { m.freed++ }

type fakeContext struct {
	contextLen   int
	script       [][]float32
	step         int
	decodes      [][]int
	decodeFailAt int
	freed        int
}

func (c *fakeContext) Decode(tokens []int) error {
	c.decodes = append(c.decodes, append([]int(nil), tokens...))
	if c.decodeFailAt > 0 && len(c.decodes) == c.decodeFailAt {
		return &runtime.DecodeError{Tokens: len(tokens), Code: 1}
	}
	return nil
}

func (c *fakeContext) Logits() []float32 {
	if len(c.script) == 0 {
		return nil
	}
	i := c.step
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	c.step++
	return c.script[i]
}

func (c *fakeContext) ContextLen() int { return c.contextLen }
func (c *fakeContext) Free()           { c.freed++ }

// oneHot builds a logits vector over an 8-token vocabulary with tok on top.
func oneHot(tok int) []float32 {
	v := make([]float32, 8)
	v[tok] = 10
	return v
}

// newTestBridge builds a bridge over rt and initializes it with a temp model
// file and the given options (ModelPath is filled in).
func newTestBridge(t *testing.T, rt *fakeRuntime, opts InitOptions) *Bridge {
	t.Helper()
	b := New(rt, Config{MaxWait: 200 * time.Millisecond, Publisher: NewMemoryPublisher()})
	opts.ModelPath = createModelFile(t, t.TempDir(), "tiny.gguf")
	if err := b.Init(opts); err != nil {
		t.Fatalf("init: %v", err)
	}
	return b
}
