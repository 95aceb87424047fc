// Package sampling implements token-selection policies over a model's logit
// vector. Two policies exist: Greedy (argmax, deterministic) and Chain
// (repeat penalty, top-k, nucleus, temperature, random draw). Configuration
// chooses the variant; see ForConfig.
package sampling

import "math"

// Policy selects the next token given the current logits and the token
// history (prompt plus generated so far).
type Policy interface {
	SelectNext(logits []float32, history []int) (int, error)
}

// Config captures the knobs shared by the policies.
type Config struct {
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
	RepeatLastN   int
	Seed          int64
}

// ForConfig picks the policy variant for cfg: a non-positive temperature
// selects Greedy, anything else the stochastic Chain.
func ForConfig(cfg Config) Policy {
	if cfg.Temperature <= 0 {
		return NewGreedy()
	}
	return NewChain(cfg)
}

// degenerateError reports a logits vector no policy can select from.
type degenerateError struct{ reason string }

func (e degenerateError) Error() string { return "degenerate logits: " + e.reason }

// IsDegenerate reports whether err indicates an unusable logits vector
// (empty, NaN, or carrying no information).
func IsDegenerate(err error) bool {
	_, ok := err.(degenerateError)
	return ok
}

// checkLogits rejects empty vectors, NaN entries, and all-equal vectors.
func checkLogits(logits []float32) error {
	if len(logits) == 0 {
		return degenerateError{reason: "empty vector"}
	}
	first := logits[0]
	allEqual := true
	for _, v := range logits {
		if math.IsNaN(float64(v)) {
			return degenerateError{reason: "NaN entry"}
		}
		if v != first {
			allEqual = false
		}
	}
	if allEqual && len(logits) > 1 {
		return degenerateError{reason: "all values equal"}
	}
	return nil
}
