package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"llmbridge/internal/params"
	"llmbridge/internal/sampling"
)

// Finish reasons reported in Result and the streaming final line.
const (
	FinishEOS        = "eos"           // model emitted an end-of-generation token
	FinishLength     = "length"        // max_tokens iterations exhausted
	FinishCapacity   = "capacity"      // caller byte budget reached
	FinishWindowFull = "window_full"   // context window exhausted
	FinishDecodeErr  = "decode_error"  // feedback decode failed mid-loop
	FinishSampling   = "sampling_error" // sampling failed after the first step
)

// Result summarizes one generation.
type Result struct {
	// Text is the accumulated UTF-8 completion, possibly partial.
	Text string
	// TokensGenerated counts tokens whose text made it into Text.
	TokensGenerated int
	// FinishReason is one of the Finish* constants.
	FinishReason string
	// GenerationID uniquely identifies this call in events and logs.
	GenerationID string
	// Duration covers prefill plus the generation loop.
	Duration time.Duration
}

// Generate runs one prompt through the tokenize → prefill → sample/decode
// loop. maxBytes bounds the accumulated text (0 = unbounded); when positive,
// generation stops once the text reaches maxBytes-1 bytes so a caller buffer
// of that capacity can hold it plus a terminator. onToken, when non-nil, is
// invoked per fragment; returning an error stops generation and surfaces
// that error with the partial result.
//
// Terminal conditions ending with a nil error: EOS token, capacity reached,
// max_tokens exhausted, context window full, mid-loop decode failure, and
// sampling failure after the first step. Call-level failures: not
// initialized, prompt too long, prefill decode failure, first-step sampling
// failure, cancellation, and backpressure timeout.
func (b *Bridge) Generate(ctx context.Context, prompt string, cfg params.SamplingConfig, maxBytes int, onToken func(string) error) (Result, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()

	start := time.Now()
	res := Result{GenerationID: uuid.NewString()}

	b.mu.RLock()
	model, ictx := b.model, b.inferCtx
	b.mu.RUnlock()
	if ictx == nil {
		return res, ErrNotInitialized()
	}

	policy := sampling.ForConfig(sampling.Config{
		Temperature:   cfg.Temperature,
		TopP:          cfg.TopP,
		TopK:          cfg.TopK,
		RepeatPenalty: cfg.RepeatPenalty,
		RepeatLastN:   cfg.RepeatLastN,
		Seed:          cfg.Seed,
	})

	promptTokens, err := model.Tokenize(prompt, true)
	if err != nil {
		err = prefillError{cause: err}
		b.setLastErr(err)
		return res, err
	}

	contextLen := ictx.ContextLen()
	b.mu.RLock()
	nPast := b.nPast
	b.mu.RUnlock()

	// The prompt must leave at least one position for generation.
	if nPast+len(promptTokens)+1 > contextLen {
		err := promptTooLongError{tokens: len(promptTokens), contextLen: contextLen}
		b.setLastErr(err)
		return res, err
	}

	// Prefill in batch-sized chunks.
	for off := 0; off < len(promptTokens); off += defaultBatchSize {
		end := off + defaultBatchSize
		if end > len(promptTokens) {
			end = len(promptTokens)
		}
		if err := ictx.Decode(promptTokens[off:end]); err != nil {
			err = prefillError{cause: err}
			b.setLastErr(err)
			return res, err
		}
	}
	nPast += len(promptTokens)

	history := append([]int(nil), promptTokens...)
	var sb strings.Builder

	res.FinishReason = FinishLength

	for i := 0; i < cfg.MaxTokens; i++ {
		if err := ctx.Err(); err != nil {
			res.Text = sb.String()
			b.commit(nPast, &res, start)
			return res, err
		}

		tok, err := policy.SelectNext(ictx.Logits(), history)
		if err != nil {
			if i == 0 {
				err = samplingFailedError{cause: err}
				b.setLastErr(err)
				return res, err
			}
			res.FinishReason = FinishSampling
			break
		}
		history = append(history, tok)

		if model.IsEOG(tok) {
			res.FinishReason = FinishEOS
			break
		}

		piece := model.TokenText(tok)
		sb.WriteString(piece)
		res.TokensGenerated++
		if onToken != nil && piece != "" {
			if cbErr := onToken(piece); cbErr != nil {
				res.Text = sb.String()
				b.commit(nPast, &res, start)
				return res, cbErr
			}
		}

		// Capacity stop happens before the next decode to avoid wasted work.
		if maxBytes > 0 && sb.Len() >= maxBytes-1 {
			res.FinishReason = FinishCapacity
			break
		}
		if nPast+1 > contextLen {
			res.FinishReason = FinishWindowFull
			break
		}

		// Feed the sampled token back; failure here is a soft stop.
		if err := ictx.Decode([]int{tok}); err != nil {
			b.setLastErr(err)
			res.FinishReason = FinishDecodeErr
			break
		}
		nPast++
	}

	res.Text = sb.String()
	b.commit(nPast, &res, start)

	b.publisher.Publish(Event{Name: "generate", Fields: map[string]any{
		"generation_id": res.GenerationID,
		"tokens":        res.TokensGenerated,
		"finish":        res.FinishReason,
		"duration_ms":   res.Duration.Milliseconds(),
	}})
	return res, nil
}

// commit folds per-call state back into the bridge and records metrics.
func (b *Bridge) commit(nPast int, res *Result, start time.Time) {
	res.Duration = time.Since(start)

	b.mu.Lock()
	b.nPast = nPast
	b.generations++
	b.tokensTotal += uint64(res.TokensGenerated)
	b.mu.Unlock()

	generationsTotal.WithLabelValues(reasonLabel(res.FinishReason)).Inc()
	tokensGeneratedTotal.Add(float64(res.TokensGenerated))
	generationDuration.Observe(res.Duration.Seconds())
}

func reasonLabel(r string) string {
	if r == "" {
		return "aborted"
	}
	return r
}
