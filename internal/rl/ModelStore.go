package rl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type modelFile struct {
	Weights [][]float64 `json:"weights"`
	SavedAt time.Time   `json:"saved_at"`
}

// ModelStore persists agent weights as a JSON blob keyed by path
type ModelStore struct{}

func NewModelStore() *ModelStore {
	return &ModelStore{}
}

func (s *ModelStore) Save(path string, agent *Agent) error {
	data, err := json.MarshalIndent(modelFile{
		Weights: agent.Weights(),
		SavedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating model directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	return nil
}

// Load restores weights into the agent. On any failure the agent is
// left untouched so the caller can continue with fresh weights.
func (s *ModelStore) Load(path string, agent *Agent) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading model file: %w", err)
	}

	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decoding model: %w", err)
	}
	if !agent.SetWeights(file.Weights) {
		return fmt.Errorf("model at %s has unexpected dimensions", path)
	}
	return nil
}
