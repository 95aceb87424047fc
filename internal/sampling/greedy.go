package sampling

// Greedy selects the single highest-logit token. Ties break toward the
// lowest token id (first seen during the linear scan), which makes repeated
// runs byte-identical for a fixed model and prompt.
type Greedy struct{}

// NewGreedy returns the greedy policy.
func NewGreedy() Greedy { return Greedy{} }

func (Greedy) SelectNext(logits []float32, _ []int) (int, error) {
	if err := checkLogits(logits); err != nil {
		return 0, err
	}
	best := 0
	bestV := logits[0]
	for i := 1; i < len(logits); i++ {
		if logits[i] > bestV {
			bestV = logits[i]
			best = i
		}
	}
	return best, nil
}
