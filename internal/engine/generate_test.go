package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"llmbridge/internal/params"
)

// greedyCfg returns a deterministic sampling config with the given budget.
func greedyCfg(maxTokens int) params.SamplingConfig {
	cfg := params.Default()
	cfg.Temperature = 0
	cfg.MaxTokens = maxTokens
	return cfg
}

func TestGenerateStopsAtMaxTokens(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1), oneHot(2), oneHot(3)}
	rt.pieces = map[int]string{1: "a", 2: "b", 3: "c"}
	b := newTestBridge(t, rt, InitOptions{})

	res, err := b.Generate(context.Background(), "one two", greedyCfg(3), 0, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Text != "abc" {
		t.Fatalf("expected %q, got %q", "abc", res.Text)
	}
	if res.TokensGenerated != 3 {
		t.Fatalf("expected 3 tokens, got %d", res.TokensGenerated)
	}
	if res.FinishReason != FinishLength {
		t.Fatalf("expected finish %q, got %q", FinishLength, res.FinishReason)
	}
	if res.GenerationID == "" {
		t.Fatal("expected a generation id")
	}

	// One prefill decode for the two prompt tokens, then one per sampled token.
	decodes := rt.model.ctx.decodes
	if len(decodes) != 4 {
		t.Fatalf("expected 4 decode calls, got %d", len(decodes))
	}
	if len(decodes[0]) != 2 {
		t.Fatalf("expected 2-token prefill, got %d", len(decodes[0]))
	}
}

func TestGenerateStopsAtEOS(t *testing.T) {
	rt := newFakeRuntime()
	rt.eos = 7
	rt.script = [][]float32{oneHot(1), oneHot(7)}
	rt.pieces = map[int]string{1: "a", 7: "</s>"}
	b := newTestBridge(t, rt, InitOptions{})

	res, err := b.Generate(context.Background(), "hi", greedyCfg(16), 0, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.FinishReason != FinishEOS {
		t.Fatalf("expected finish %q, got %q", FinishEOS, res.FinishReason)
	}
	// The end-of-generation token contributes no text.
	if res.Text != "a" {
		t.Fatalf("expected %q, got %q", "a", res.Text)
	}
	if res.TokensGenerated != 1 {
		t.Fatalf("expected 1 token, got %d", res.TokensGenerated)
	}
}

func TestGenerateRespectsByteCapacity(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1), oneHot(2), oneHot(3)}
	rt.pieces = map[int]string{1: "a", 2: "b", 3: "c"}
	b := newTestBridge(t, rt, InitOptions{})

	// A 3-byte budget keeps at most 2 bytes of text plus a terminator slot.
	res, err := b.Generate(context.Background(), "hi", greedyCfg(16), 3, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.FinishReason != FinishCapacity {
		t.Fatalf("expected finish %q, got %q", FinishCapacity, res.FinishReason)
	}
	if res.Text != "ab" {
		t.Fatalf("expected %q, got %q", "ab", res.Text)
	}
}

func TestGenerateStreamsTokens(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1), oneHot(2)}
	rt.pieces = map[int]string{1: "he", 2: "llo"}
	b := newTestBridge(t, rt, InitOptions{})

	var got []string
	res, err := b.Generate(context.Background(), "hi", greedyCfg(2), 0, func(s string) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 2 || got[0] != "he" || got[1] != "llo" {
		t.Fatalf("unexpected fragments: %v", got)
	}
	if res.Text != "hello" {
		t.Fatalf("expected %q, got %q", "hello", res.Text)
	}
}

func TestGenerateCallbackErrorAborts(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1), oneHot(2)}
	rt.pieces = map[int]string{1: "a", 2: "b"}
	b := newTestBridge(t, rt, InitOptions{})

	sentinel := errors.New("client went away")
	res, err := b.Generate(context.Background(), "hi", greedyCfg(8), 0, func(string) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if res.Text != "a" {
		t.Fatalf("expected partial text %q, got %q", "a", res.Text)
	}
}

func TestGeneratePromptTooLong(t *testing.T) {
	rt := newFakeRuntime()
	b := newTestBridge(t, rt, InitOptions{ContextLen: 4})

	_, err := b.Generate(context.Background(), "one two three four", greedyCfg(8), 0, nil)
	if !IsPromptTooLong(err) {
		t.Fatalf("expected prompt-too-long, got %v", err)
	}
	// Nothing must have been decoded.
	if len(rt.model.ctx.decodes) != 0 {
		t.Fatalf("expected no decodes, got %d", len(rt.model.ctx.decodes))
	}
}

func TestGenerateStopsWhenWindowFull(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1)}
	rt.pieces = map[int]string{1: "a"}
	b := newTestBridge(t, rt, InitOptions{ContextLen: 5})

	res, err := b.Generate(context.Background(), "one two three four", greedyCfg(64), 0, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.FinishReason != FinishWindowFull {
		t.Fatalf("expected finish %q, got %q", FinishWindowFull, res.FinishReason)
	}
	if res.TokensGenerated == 0 {
		t.Fatal("expected at least one token before the window filled")
	}
}

func TestGeneratePrefillDecodeFailure(t *testing.T) {
	rt := newFakeRuntime()
	rt.decodeFailAt = 1
	b := newTestBridge(t, rt, InitOptions{})

	_, err := b.Generate(context.Background(), "one two", greedyCfg(8), 0, nil)
	if !IsPrefillFailed(err) {
		t.Fatalf("expected prefill failure, got %v", err)
	}
}

func TestGenerateMidLoopDecodeFailureIsSoft(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1), oneHot(2)}
	rt.pieces = map[int]string{1: "a", 2: "b"}
	// Call 1 is the prefill; call 2 is the first feedback decode.
	rt.decodeFailAt = 2
	b := newTestBridge(t, rt, InitOptions{})

	res, err := b.Generate(context.Background(), "hi", greedyCfg(8), 0, nil)
	if err != nil {
		t.Fatalf("mid-loop decode failure must not fail the call: %v", err)
	}
	if res.FinishReason != FinishDecodeErr {
		t.Fatalf("expected finish %q, got %q", FinishDecodeErr, res.FinishReason)
	}
	if res.Text != "a" {
		t.Fatalf("expected partial text %q, got %q", "a", res.Text)
	}
}

func TestGenerateFirstStepSamplingFailure(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{{}} // empty logits: nothing to select from
	b := newTestBridge(t, rt, InitOptions{})

	_, err := b.Generate(context.Background(), "hi", greedyCfg(8), 0, nil)
	if !IsSamplingFailed(err) {
		t.Fatalf("expected sampling failure, got %v", err)
	}
}

func TestGenerateLaterSamplingFailureIsSoft(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1), {}}
	rt.pieces = map[int]string{1: "a"}
	b := newTestBridge(t, rt, InitOptions{})

	res, err := b.Generate(context.Background(), "hi", greedyCfg(8), 0, nil)
	if err != nil {
		t.Fatalf("later sampling failure must not fail the call: %v", err)
	}
	if res.FinishReason != FinishSampling {
		t.Fatalf("expected finish %q, got %q", FinishSampling, res.FinishReason)
	}
	if res.Text != "a" {
		t.Fatalf("expected partial text %q, got %q", "a", res.Text)
	}
}

func TestGenerateCanceledContext(t *testing.T) {
	rt := newFakeRuntime()
	b := newTestBridge(t, rt, InitOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Generate(ctx, "hi", greedyCfg(8), 0, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerateTooBusy(t *testing.T) {
	rt := newFakeRuntime()
	b := New(rt, Config{MaxWait: 20 * time.Millisecond})
	if err := b.Init(InitOptions{ModelPath: createModelFile(t, t.TempDir(), "tiny.gguf")}); err != nil {
		t.Fatalf("init: %v", err)
	}

	// Occupy the in-flight slot so the call times out.
	b.opCh <- struct{}{}
	defer func() { <-b.opCh }()

	_, err := b.Generate(context.Background(), "hi", greedyCfg(4), 0, nil)
	if !IsTooBusy(err) {
		t.Fatalf("expected too-busy, got %v", err)
	}
}

func TestGenerateAccumulatesCounters(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1)}
	rt.pieces = map[int]string{1: "a"}
	b := newTestBridge(t, rt, InitOptions{})

	for i := 0; i < 2; i++ {
		if _, err := b.Generate(context.Background(), "hi", greedyCfg(2), 0, nil); err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
	}
	st := b.Status()
	if st.GenerationsTotal != 2 {
		t.Fatalf("expected 2 generations, got %d", st.GenerationsTotal)
	}
	if st.TokensTotal != 4 {
		t.Fatalf("expected 4 tokens total, got %d", st.TokensTotal)
	}
}

func TestGeneratePublishesEvent(t *testing.T) {
	rt := newFakeRuntime()
	rt.script = [][]float32{oneHot(1)}
	rt.pieces = map[int]string{1: "a"}
	pub := NewMemoryPublisher()
	b := New(rt, Config{Publisher: pub})
	if err := b.Init(InitOptions{ModelPath: createModelFile(t, t.TempDir(), "tiny.gguf")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := b.Generate(context.Background(), "hi", greedyCfg(1), 0, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var found bool
	for _, e := range pub.Events() {
		if e.Name == "generate" {
			found = true
			if e.Fields["finish"] != FinishLength {
				t.Fatalf("unexpected finish field: %v", e.Fields["finish"])
			}
		}
	}
	if !found {
		t.Fatal("expected a generate event")
	}
}
