package store

import (
	"context"
	"slices"
	"sync"

	"github.com/hongwoogi/grantrag/grant"
)

// MemoryRepository is a mutex-guarded in-process store. It backs the
// gateway's fallback path and serves as the only store when no remote is
// configured.
type MemoryRepository struct {
	mu         sync.RWMutex
	grants     map[string]grant.Grant
	order      []string
	embeddings map[string][]grant.ChunkEmbedding
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		grants:     make(map[string]grant.Grant),
		embeddings: make(map[string][]grant.ChunkEmbedding),
	}
}

func (m *MemoryRepository) SaveGrant(_ context.Context, g *grant.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.grants[g.ID]; !exists {
		m.order = append(m.order, g.ID)
	}
	m.grants[g.ID] = *g
	return nil
}

func (m *MemoryRepository) SaveEmbeddings(_ context.Context, grantID string, chunks []grant.ChunkEmbedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.embeddings[grantID] = slices.Clone(chunks)
	return nil
}

// ListGrants returns grants newest first.
func (m *MemoryRepository) ListGrants(_ context.Context) ([]grant.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]grant.Grant, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, m.grants[m.order[i]])
	}
	return result, nil
}

func (m *MemoryRepository) GetGrant(_ context.Context, id string) (*grant.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *MemoryRepository) GetEmbeddings(_ context.Context, grantID string) ([]grant.ChunkEmbedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.embeddings[grantID]), nil
}

func (m *MemoryRepository) DeleteGrant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.grants[id]; !ok {
		return ErrNotFound
	}
	delete(m.grants, id)
	delete(m.embeddings, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
