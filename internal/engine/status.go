package engine

import (
	"time"

	"llmbridge/pkg/types"
)

// Status builds a detailed status response for /status.
// It never blocks on the operation slot; state is read under the RWMutex.
func (b *Bridge) Status() types.StatusResponse {
	b.mu.RLock()
	defer b.mu.RUnlock()
	resp := types.StatusResponse{
		Initialized:      b.inferCtx != nil,
		Busy:             len(b.opCh) > 0,
		GenerationsTotal: b.generations,
		TokensTotal:      b.tokensTotal,
		LastError:        b.lastErr,
		UptimeSeconds:    int64(time.Since(b.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	if b.inferCtx != nil {
		resp.ModelPath = b.opts.ModelPath
		resp.ContextLen = b.opts.ContextLen
		resp.Threads = b.opts.Threads
		resp.GPULayers = b.opts.GPULayers
	}
	return resp
}
