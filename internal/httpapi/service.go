package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"llmbridge/internal/engine"
	"llmbridge/internal/params"
	"llmbridge/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	// Generate streams a completion as NDJSON into w. raw is the original
	// request body, reused for lenient sampling-parameter parsing.
	Generate(ctx context.Context, req types.GenerateRequest, raw []byte, w io.Writer, flush func()) error
	Ready() bool
}

// modelNotFoundError signals a request for a model the server does not know.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// IsModelNotFound reports whether err maps to HTTP 404.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// BridgeService adapts an engine plus the discovered model registry to the
// Service interface. The engine holds at most one loaded model; requests
// naming a different model are rejected.
type BridgeService struct {
	eng      *engine.Bridge
	registry []types.Model
	loadedID string
}

// NewBridgeService wraps eng. loadedID identifies the model the engine was
// initialized with; registry lists everything discovered on disk.
func NewBridgeService(eng *engine.Bridge, registry []types.Model, loadedID string) *BridgeService {
	return &BridgeService{eng: eng, registry: registry, loadedID: loadedID}
}

func (s *BridgeService) ListModels() []types.Model {
	out := make([]types.Model, len(s.registry))
	copy(out, s.registry)
	return out
}

func (s *BridgeService) Status() types.StatusResponse { return s.eng.Status() }

func (s *BridgeService) Ready() bool { return s.eng.Initialized() }

// tokenLine is one streamed NDJSON fragment.
type tokenLine struct {
	Content string `json:"content"`
}

func (s *BridgeService) Generate(ctx context.Context, req types.GenerateRequest, raw []byte, w io.Writer, flush func()) error {
	if req.Model != "" && req.Model != s.loadedID {
		return modelNotFoundError{id: req.Model}
	}

	// The request body doubles as the sampling blob: params recognizes the
	// numeric keys and ignores prompt/model/stream.
	cfg := params.Parse(raw)

	enc := json.NewEncoder(w)
	var onToken func(string) error
	if req.Stream {
		onToken = func(piece string) error {
			if err := enc.Encode(tokenLine{Content: piece}); err != nil {
				return err
			}
			if flush != nil {
				flush()
			}
			return nil
		}
	}

	res, err := s.eng.Generate(ctx, req.Prompt, cfg, 0, onToken)
	if err != nil {
		return err
	}

	final := types.GenerateFinal{
		Done:            true,
		Content:         res.Text,
		FinishReason:    res.FinishReason,
		TokensGenerated: res.TokensGenerated,
		GenerationID:    res.GenerationID,
	}
	if err := enc.Encode(final); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}
