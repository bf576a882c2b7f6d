package generator

import (
	"context"
	"sync"

	"cardforge/internal/domain"
	"cardforge/pkg/sentinel"
)

// ArtifactStore persists the record of which files make up the current
// generation for each license. The files themselves live in file storage;
// this store only tracks the set.
type ArtifactStore interface {
	// Find returns the current set for a license, or sentinel.ErrNotFound.
	Find(ctx context.Context, licenseID string) (domain.CardArtifactSet, error)
	// Save upserts the set; a license has at most one current set.
	Save(ctx context.Context, set domain.CardArtifactSet) error
	// Delete removes the set record. Missing records delete cleanly.
	Delete(ctx context.Context, licenseID string) error
}

// MemoryStore is the in-process ArtifactStore for tests and single-node
// deployments without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]domain.CardArtifactSet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]domain.CardArtifactSet)}
}

func (s *MemoryStore) Find(_ context.Context, licenseID string) (domain.CardArtifactSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[licenseID]
	if !ok {
		return domain.CardArtifactSet{}, sentinel.ErrNotFound
	}
	return set, nil
}

func (s *MemoryStore) Save(_ context.Context, set domain.CardArtifactSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.LicenseID] = set
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, licenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, licenseID)
	return nil
}
