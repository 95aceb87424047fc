package types

// GenerateRequest represents a text-generation request payload.
type GenerateRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: tinyllama-q4
	Model string `json:"model,omitempty" example:"tinyllama-q4"`
	// Required prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// If true, stream tokens as NDJSON lines. When false, the server may still stream internally but buffer.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature (higher = more random, 0 = greedy).
	// example: 0.4
	Temperature float64 `json:"temperature,omitempty" example:"0.4"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling: limit candidates to top K tokens (0 disables).
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Repeat penalty applied to recently generated tokens.
	// example: 1.1
	RepeatPenalty float64 `json:"repeat_penalty,omitempty" example:"1.1"`
	// Random seed for reproducibility; 0 or omitted lets the server choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
}

// GenerateFinal is the terminal NDJSON line of a streamed generation.
type GenerateFinal struct {
	// Always true on the final line.
	Done bool `json:"done"`
	// Full accumulated completion text.
	Content string `json:"content"`
	// Why generation stopped: eos, length, capacity, window_full, decode_error, sampling_error.
	// example: eos
	FinishReason string `json:"finish_reason" example:"eos"`
	// Number of tokens generated.
	// example: 42
	TokensGenerated int `json:"tokens_generated" example:"42"`
	// Unique id of this generation.
	// example: 7f9c24e5-1a2b-4c3d-9e8f-0a1b2c3d4e5f
	GenerationID string `json:"generation_id,omitempty"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Whether a model and inference context are currently live.
	// example: true
	Initialized bool `json:"initialized" example:"true"`
	// Path of the loaded model file, if any.
	ModelPath string `json:"model_path,omitempty"`
	// Context window size in tokens.
	// example: 2048
	ContextLen int `json:"context_len,omitempty" example:"2048"`
	// Worker threads used by the inference context.
	// example: 4
	Threads int `json:"threads,omitempty" example:"4"`
	// Layers offloaded to an accelerator.
	// example: 0
	GPULayers int `json:"gpu_layers,omitempty" example:"0"`
	// Whether a generation is currently in flight.
	// example: false
	Busy bool `json:"busy" example:"false"`
	// Total completed generations since startup.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Total tokens generated since startup.
	// example: 1536
	TokensTotal uint64 `json:"tokens_total" example:"1536"`
	// Last error observed by the bridge (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the bridge in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
