package rag

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemStore is a brute-force in-memory Store. It backs tests and local runs
// without Postgres; the retrieval core only sees the Store interface either
// way.
type MemStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

func NewMemStore() *MemStore { return &MemStore{} }

// IndexDocument appends all chunks under the lock, so a concurrent Search
// sees either none or all of a document's chunks.
func (m *MemStore) IndexDocument(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyDocument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

// Search scores candidates by brute-force cosine similarity.
func (m *MemStore) Search(ctx context.Context, filter SearchFilter, queryVec []float32, k int) ([]ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 8
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var scored []ScoredChunk
	for _, c := range m.chunks {
		if !matchesFilter(c, filter) {
			continue
		}
		score := 0.0
		if queryVec != nil && c.Embedding != nil {
			score = cosineSimilarity(queryVec, c.Embedding)
		}
		scored = append(scored, ScoredChunk{Chunk: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *MemStore) Partners(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]bool{}
	var partners []string
	for _, c := range m.chunks {
		if c.Partner == PartnerUnresolved || seen[c.Partner] {
			continue
		}
		seen[c.Partner] = true
		partners = append(partners, c.Partner)
	}
	sort.Strings(partners)
	return partners, nil
}

func matchesFilter(c Chunk, filter SearchFilter) bool {
	if filter.Partner != "" && NormalizePartner(c.Partner) != NormalizePartner(filter.Partner) {
		return false
	}
	if filter.Type != "" && c.Type != filter.Type {
		return false
	}
	if len(filter.DocumentIDs) > 0 {
		found := false
		for _, id := range filter.DocumentIDs {
			if c.DocumentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ Store = (*MemStore)(nil)
