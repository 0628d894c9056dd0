package dataset

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/tabletalk/tabletalk/internal/schema"
)

// Dataset is one ingested table: an open in-memory DuckDB handle plus the
// descriptor inferred at ingestion time. The descriptor is read-only after
// construction; a new upload replaces the whole dataset.
type Dataset struct {
	DB         *sql.DB
	Descriptor schema.Descriptor
	RowCount   int64
	IngestedAt time.Time
}

func (d *Dataset) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// Store maps session IDs to their current dataset. It is the explicit
// session object replacing any process-wide "currently ingested dataset"
// singleton, so concurrent sessions cannot interfere.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

func NewStore() *Store {
	return &Store{datasets: map[string]*Dataset{}}
}

// Put installs the session's dataset, closing any previous one. Replacement
// is wholesale; there is no partial mutation path.
func (s *Store) Put(sessionID string, ds *Dataset) {
	s.mu.Lock()
	previous := s.datasets[sessionID]
	s.datasets[sessionID] = ds
	s.mu.Unlock()

	_ = previous.Close()
}

func (s *Store) Get(sessionID string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[sessionID]
	if !ok {
		return nil, fmt.Errorf("no dataset ingested for session %q", sessionID)
	}
	return ds, nil
}

func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	previous := s.datasets[sessionID]
	delete(s.datasets, sessionID)
	s.mu.Unlock()

	_ = previous.Close()
}

// Close tears down every session's dataset, for process shutdown.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ds := range s.datasets {
		_ = ds.Close()
		delete(s.datasets, id)
	}
}
