// Package storage persists cycle history for the status API.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"babysitter/internal/models"
)

const (
	historyFile = "cycle_history.json"
	lockFile    = "babysitter.lock"

	// defaultMaxHistory caps the in-memory and on-disk history length.
	defaultMaxHistory = 4096
)

// CycleStorage handles persistence of cycle history to disk. It holds a
// lock on the data directory for its lifetime so two babysitter instances
// cannot share one history file.
type CycleStorage struct {
	mu         sync.RWMutex
	path       string
	lock       *flock.Flock
	history    []models.CycleRecord
	maxHistory int
}

// NewCycleStorage locks the data directory and loads existing history.
func NewCycleStorage(dataDir string) (*CycleStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("data directory %s is in use by another babysitter", dataDir)
	}

	s := &CycleStorage{
		path:       filepath.Join(dataDir, historyFile),
		lock:       lock,
		maxHistory: defaultMaxHistory,
	}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Close releases the data directory lock.
func (s *CycleStorage) Close() error {
	return s.lock.Unlock()
}

// Append adds a new cycle record and persists it to disk.
func (s *CycleStorage) Append(record models.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, record)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
	return s.persist()
}

// Latest returns the latest cycle record if it exists.
func (s *CycleStorage) Latest() (models.CycleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return models.CycleRecord{}, false
	}
	return s.history[len(s.history)-1], true
}

// History returns a copy of the entire history slice.
func (s *CycleStorage) History() []models.CycleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]models.CycleRecord, len(s.history))
	copy(copied, s.history)
	return copied
}

// HistoryN returns up to the most recent n records.
func (s *CycleStorage) HistoryN(n int) []models.CycleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	copied := make([]models.CycleRecord, n)
	copy(copied, s.history[len(s.history)-n:])
	return copied
}

func (s *CycleStorage) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.history = []models.CycleRecord{}
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		s.history = []models.CycleRecord{}
		return nil
	}

	var records []models.CycleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	s.history = records
	return nil
}

func (s *CycleStorage) persist() error {
	bytes, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
