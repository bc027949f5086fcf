package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hebench-backend/models"
)

const historyFile = "benchmark_history.json"

// JSONStore persists benchmark comparison runs as a JSON array on disk.
// The file is loaded once at startup and rewritten atomically on every
// append, so a crash mid-write never corrupts the history.
type JSONStore struct {
	basePath string

	mu      sync.Mutex
	history []models.ComparisonResult
}

// NewJSONStore opens (or creates) the history store rooted at basePath.
func NewJSONStore(basePath string) (*JSONStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	store := &JSONStore{basePath: basePath}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

// AppendRun records one comparison run and flushes the history to disk.
func (s *JSONStore) AppendRun(run models.ComparisonResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, run)
	return s.save()
}

// Runs returns a copy of the recorded history, oldest first.
func (s *JSONStore) Runs() []models.ComparisonResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := make([]models.ComparisonResult, len(s.history))
	copy(runs, s.history)
	return runs
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(filepath.Join(s.basePath, historyFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read benchmark history: %w", err)
	}
	if err := json.Unmarshal(data, &s.history); err != nil {
		return fmt.Errorf("failed to parse benchmark history: %w", err)
	}
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize benchmark history: %w", err)
	}

	path := filepath.Join(s.basePath, historyFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write benchmark history: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace benchmark history: %w", err)
	}
	return nil
}
