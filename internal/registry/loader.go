package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"llmbridge/internal/common/fsutil"
	"llmbridge/pkg/types"
)

// LoadDir scans a directory for *.gguf files and builds a registry from filenames.
// ID is the full filename (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		// Use full filename as ID (e.g., "llama-3.1-8b-q4_k_m.gguf")
		models = append(models, types.Model{
			ID:    name,
			Name:  name,
			Path:  filepath.Join(abs, name),
			Quant: deriveQuant(name),
		})
	}
	return models, nil
}

var quantRe = regexp.MustCompile(`(?i)q\d+(_[a-z0-9]+)*`)

// deriveQuant extracts a quantization marker like Q4_K_M from a filename.
// Returns "" when no recognizable marker is present.
func deriveQuant(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ToUpper(quantRe.FindString(base))
}

// Find returns the model with the given id, matching case-insensitively.
func Find(models []types.Model, id string) (types.Model, bool) {
	for _, m := range models {
		if strings.EqualFold(m.ID, id) {
			return m, true
		}
	}
	return types.Model{}, false
}
