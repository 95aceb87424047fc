// Package params decodes loosely-structured sampling configuration.
//
// Callers hand the bridge a small JSON blob of key/value pairs. Missing,
// malformed, or non-numeric values degrade to documented defaults per key so
// the boundary stays callable with imperfect input.
package params

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Defaults applied when a key is absent or unparseable.
const (
	DefaultTemperature   = 0.4
	DefaultTopP          = 0.9
	DefaultTopK          = 40
	DefaultRepeatPenalty = 1.1
	DefaultMaxTokens     = 128
	DefaultRepeatLastN   = 64
)

// SamplingConfig is the per-request generation policy. It is constructed
// fresh per call and read-only for the duration of that call.
type SamplingConfig struct {
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
	MaxTokens     int
	// RepeatLastN is the window of recent tokens the repeat penalty considers.
	RepeatLastN int
	// Seed for stochastic sampling; 0 lets the policy choose.
	Seed int64
}

// Default returns a SamplingConfig with all documented defaults.
func Default() SamplingConfig {
	return SamplingConfig{
		Temperature:   DefaultTemperature,
		TopP:          DefaultTopP,
		TopK:          DefaultTopK,
		RepeatPenalty: DefaultRepeatPenalty,
		MaxTokens:     DefaultMaxTokens,
		RepeatLastN:   DefaultRepeatLastN,
	}
}

// Parse decodes a JSON configuration blob into a SamplingConfig.
// Recognized keys: temperature, top_p, top_k, repeat_penalty, max_tokens,
// repeat_last_n, seed. Parse never fails: an empty, malformed, or partial
// blob yields defaults for the missing pieces.
func Parse(blob []byte) SamplingConfig {
	cfg := Default()
	if len(blob) == 0 {
		return cfg
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return cfg
	}
	if v, ok := number(raw, "temperature"); ok && v >= 0 {
		cfg.Temperature = float32(v)
	}
	if v, ok := number(raw, "top_p"); ok && v > 0 && v <= 1 {
		cfg.TopP = float32(v)
	}
	if v, ok := number(raw, "top_k"); ok && v >= 0 {
		cfg.TopK = int(v)
	}
	if v, ok := number(raw, "repeat_penalty"); ok && v >= 0 {
		cfg.RepeatPenalty = float32(v)
	}
	if v, ok := number(raw, "max_tokens"); ok && v > 0 {
		cfg.MaxTokens = int(v)
	}
	if v, ok := number(raw, "repeat_last_n"); ok && v > 0 {
		cfg.RepeatLastN = int(v)
	}
	if v, ok := number(raw, "seed"); ok {
		cfg.Seed = int64(v)
	}
	return cfg
}

// ParseString is Parse for callers holding the blob as a string.
func ParseString(blob string) SamplingConfig {
	return Parse([]byte(blob))
}

// number extracts a numeric value for key, tolerating quoted numbers.
func number(raw map[string]json.RawMessage, key string) (float64, bool) {
	msg, ok := raw[key]
	if !ok {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		return 0, false
	}
	// Tolerate "0.7" style quoted values.
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
