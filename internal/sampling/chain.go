package sampling

import (
	"math"
	"math/rand"
	"time"
)

// Chain is the stochastic sampling chain. Per step it applies, in order:
// repeat penalty over the recent history, top-k shortlist, nucleus (top-p)
// cut, temperature rescale, then a random draw from the resulting
// distribution. Equal logits keep ascending token-id order throughout.
type Chain struct {
	cfg Config
	rng *rand.Rand

	// scratch, reused across steps
	work   []float32
	topIdx []int
	topVal []float32
	prob   []float64
}

// NewChain returns a Chain for cfg, normalizing out-of-range knobs the way
// the parser documents them.
func NewChain(cfg Config) *Chain {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 1
	}
	if cfg.TopK <= 0 {
		// 0 disables the cutoff: shortlist the whole vocabulary.
		cfg.TopK = math.MaxInt32
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 1
	}
	if cfg.RepeatPenalty <= 0 {
		cfg.RepeatPenalty = 1
	}
	if cfg.RepeatLastN <= 0 {
		cfg.RepeatLastN = 64
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Chain{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (c *Chain) SelectNext(logits []float32, history []int) (int, error) {
	if err := checkLogits(logits); err != nil {
		return 0, err
	}

	// Work on a copy so the caller's logits survive the call.
	if cap(c.work) < len(logits) {
		c.work = make([]float32, len(logits))
	}
	work := c.work[:len(logits)]
	copy(work, logits)

	c.applyRepeatPenalty(work, history)

	k := c.cfg.TopK
	if k > len(work) {
		k = len(work)
	}
	topIdx, topVal := c.topK(work, k)

	prob := c.softmax(topVal)

	// Nucleus cut: smallest prefix whose cumulative probability reaches TopP.
	cut := len(prob)
	if c.cfg.TopP < 1 {
		var cum float64
		for i := range prob {
			cum += prob[i]
			if float32(cum) >= c.cfg.TopP {
				cut = i + 1
				break
			}
		}
	}
	topIdx = topIdx[:cut]
	topVal = topVal[:cut]

	// Temperature rescale over the surviving candidates, then renormalize.
	invTemp := 1 / c.cfg.Temperature
	for i := range topVal {
		topVal[i] *= invTemp
	}
	prob = c.softmax(topVal)

	r := c.rng.Float64()
	var cum float64
	for i := range prob {
		cum += prob[i]
		if r <= cum {
			return topIdx[i], nil
		}
	}
	return topIdx[len(topIdx)-1], nil
}

// applyRepeatPenalty downweights tokens present in the last RepeatLastN
// entries of history: positive logits are divided by the penalty, negative
// ones multiplied, following llama.cpp's convention.
func (c *Chain) applyRepeatPenalty(logits []float32, history []int) {
	if c.cfg.RepeatPenalty == 1 || len(history) == 0 {
		return
	}
	start := len(history) - c.cfg.RepeatLastN
	if start < 0 {
		start = 0
	}
	for _, id := range history[start:] {
		if id < 0 || id >= len(logits) {
			continue
		}
		if logits[id] > 0 {
			logits[id] /= c.cfg.RepeatPenalty
		} else {
			logits[id] *= c.cfg.RepeatPenalty
		}
	}
}

// topK returns the indices and values of the k largest logits, ordered
// largest first. Insertion uses strict comparison so equal values keep
// ascending token-id order. O(V*K), fine for small K.
func (c *Chain) topK(logits []float32, k int) ([]int, []float32) {
	if cap(c.topIdx) < k {
		c.topIdx = make([]int, 0, k)
		c.topVal = make([]float32, 0, k)
	}
	topIdx := c.topIdx[:0]
	topVal := c.topVal[:0]

	for i, v := range logits {
		pos := len(topVal)
		for pos > 0 && topVal[pos-1] < v {
			pos--
		}
		if pos >= k {
			continue
		}
		if len(topVal) < k {
			topIdx = append(topIdx, 0)
			topVal = append(topVal, 0)
		}
		copy(topIdx[pos+1:], topIdx[pos:])
		copy(topVal[pos+1:], topVal[pos:])
		topIdx[pos] = i
		topVal[pos] = v
	}
	c.topIdx = topIdx
	c.topVal = topVal
	return topIdx, topVal
}

// softmax computes a max-subtracted softmax over vals into the reusable
// probability buffer.
func (c *Chain) softmax(vals []float32) []float64 {
	if cap(c.prob) < len(vals) {
		c.prob = make([]float64, len(vals))
	}
	prob := c.prob[:len(vals)]
	maxV := vals[0]
	for _, v := range vals[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i, v := range vals {
		e := math.Exp(float64(v - maxV))
		prob[i] = e
		sum += e
	}
	if sum > 0 {
		inv := 1 / sum
		for i := range prob {
			prob[i] *= inv
		}
	}
	return prob
}
