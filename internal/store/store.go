package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rallypc/pccalc/pkg/timing"
)

// Store is a thread-safe holder for the latest report plus its file copy.
//
// Latest returns whatever was Put last, successful or not. LastGood returns the
// last successful report, which is also the one written to disk.
type Store struct {
	mu       sync.RWMutex
	latest   *timing.Report
	lastGood *timing.Report
	updated  time.Time

	path string
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store. An empty path disables persistence.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Put records r as the latest report. Callers must not modify r afterwards.
func (s *Store) Put(r *timing.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = r
	if r.Success {
		s.lastGood = r
	}
	s.updated = s.now()
}

// Latest returns the most recent report and whether there is one.
func (s *Store) Latest() (*timing.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// LastGood returns the most recent successful report.
func (s *Store) LastGood() (*timing.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGood, s.lastGood != nil
}

// UpdatedAt returns when Put was last called; zero if never.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// Save writes r to the store file. The write goes to a temp file in the same
// directory first and is renamed into place, so readers never see half a file.
// Only successful reports are saved.
func (s *Store) Save(r *timing.Report) error {
	if s.path == "" {
		return nil
	}
	if !r.Success {
		return fmt.Errorf("store: refusing to save a failed report")
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode report: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: replace %q: %w", s.path, err)
	}
	return nil
}

// Load reads the persisted report. It returns (nil, false, nil) when there is
// no file yet. A loaded report is marked FromCache and becomes Latest.
func (s *Store) Load() (*timing.Report, bool, error) {
	if s.path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %q: %w", s.path, err)
	}

	var r timing.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("store: decode %q: %w", s.path, err)
	}
	r.FromCache = true

	s.mu.Lock()
	if s.latest == nil {
		s.latest = &r
		s.lastGood = &r
		s.updated = s.now()
	}
	s.mu.Unlock()
	return &r, true, nil
}
