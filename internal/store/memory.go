package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/pass-weather-report/internal/weather"
)

var (
	// ErrNotFound is returned when no run matches the request.
	ErrNotFound = errors.New("report run not found")
)

// RunResult describes one report run and the rows it produced.
type RunResult struct {
	ID         string                `json:"id"`
	Day        string                `json:"day"`
	StartedAt  time.Time             `json:"startedAt"`
	FinishedAt time.Time             `json:"finishedAt"`
	Records    []weather.DailyRecord `json:"records"`
	// StartRow is the 1-based sheet row of the first appended row; 0 when
	// nothing was written.
	StartRow int    `json:"startRow,omitempty"`
	Rows     int    `json:"rows"`
	DryRun   bool   `json:"dryRun,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the run completed without error.
func (r RunResult) OK() bool {
	return r.Error == ""
}

// MemoryStore is a concurrency-safe in-memory history of report runs, oldest
// first.
type MemoryStore struct {
	mu sync.RWMutex

	runs []RunResult

	// max number of runs kept
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{maxHistory: maxHistory}
}

// Save appends a run and enforces retention.
func (s *MemoryStore) Save(run RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, run)

	if s.maxHistory > 0 && len(s.runs) > s.maxHistory {
		over := len(s.runs) - s.maxHistory
		s.runs = append([]RunResult(nil), s.runs[over:]...)
	}
}

// Latest returns the most recent run.
func (s *MemoryStore) Latest() (RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return RunResult{}, ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

// Get returns the run with the given id.
func (s *MemoryStore) Get(id string) (RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].ID == id {
			return s.runs[i], nil
		}
	}
	return RunResult{}, ErrNotFound
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *MemoryStore) List(limit int) []RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]RunResult, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i])
	}
	return out
}
