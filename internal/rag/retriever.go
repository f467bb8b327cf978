package rag

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// RetrieverConfig carries the tunables of the retrieval state machine.
// Relative relationships matter more than the literals: overlap < chunk
// size, context budget comfortably under the generation input limit.
type RetrieverConfig struct {
	TopK          int
	ContextBudget int
	SearchTimeout time.Duration
	RetryBackoff  time.Duration
}

// Retriever produces a RetrievalResult for a classified query. It owns the
// scoped-then-unscoped fallback, document-type coverage, deduplication,
// ordering and the character budget.
type Retriever struct {
	store Store
	cfg   RetrieverConfig
}

func NewRetriever(store Store, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 8
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 7000
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	return &Retriever{store: store, cfg: cfg}
}

// Retrieve runs the retrieval pipeline:
//
//  1. scoped search when the query resolved a partner
//  2. exactly one unscoped fallback search on a scope miss
//  3. doc-type coverage top-up for successful scoped searches
//  4. dedupe by chunk id
//  5. order by type completeness, then score, then ordinal
//  6. greedy truncation to the character budget
//
// A store failure is retried once with backoff and then surfaces as
// ErrRetrievalUnavailable, never as an empty result.
func (r *Retriever) Retrieve(ctx context.Context, q Query, queryVec []float32) (*RetrievalResult, error) {
	k := r.cfg.TopK
	if q.TopK > 0 {
		k = q.TopK
	}

	base := SearchFilter{DocumentIDs: q.SessionDocIDs}
	scoped := q.Partner != ""

	filter := base
	if scoped {
		filter.Partner = q.Partner
	}

	hits, err := r.searchWithRetry(ctx, filter, queryVec, k)
	if err != nil {
		return nil, err
	}

	scopeHit := !scoped || len(hits) > 0
	if scoped && len(hits) == 0 {
		// Scope miss: the partner tag may have failed to resolve upstream.
		// One unscoped re-issue instead of silently answering "nothing".
		hits, err = r.searchWithRetry(ctx, base, queryVec, k)
		if err != nil {
			return nil, err
		}
	}

	if scoped && scopeHit {
		hits, err = r.topUpTypes(ctx, filter, queryVec, hits)
		if err != nil {
			return nil, err
		}
	}

	chunks := dedupeByID(hits)
	orderChunks(chunks)
	chunks, total := truncateToBudget(chunks, r.cfg.ContextBudget)

	return &RetrievalResult{
		Chunks:     chunks,
		TotalChars: total,
		ScopeHit:   scopeHit,
		NoContext:  len(chunks) == 0,
	}, nil
}

// topUpTypes biases a scoped result toward multi-document coverage: when the
// top-K pull returned only one document type and the store holds the other
// for the same partner, at least one chunk of the missing type is pulled in.
func (r *Retriever) topUpTypes(ctx context.Context, filter SearchFilter, queryVec []float32, hits []ScoredChunk) ([]ScoredChunk, error) {
	present := map[DocType]bool{}
	for _, h := range hits {
		present[h.Type] = true
	}
	for _, t := range []DocType{DocTypeContract, DocTypePayoutReport} {
		if present[t] {
			continue
		}
		typed := filter
		typed.Type = t
		extra, err := r.searchWithRetry(ctx, typed, queryVec, 1)
		if err != nil {
			return nil, err
		}
		hits = append(hits, extra...)
	}
	return hits, nil
}

func (r *Retriever) searchWithRetry(ctx context.Context, filter SearchFilter, queryVec []float32, k int) ([]ScoredChunk, error) {
	hits, err := r.search(ctx, filter, queryVec, k)
	if err == nil {
		return hits, nil
	}

	select {
	case <-time.After(r.cfg.RetryBackoff):
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, ctx.Err())
	}

	hits, err = r.search(ctx, filter, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	return hits, nil
}

func (r *Retriever) search(ctx context.Context, filter SearchFilter, queryVec []float32, k int) ([]ScoredChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SearchTimeout)
	defer cancel()
	return r.store.Search(ctx, filter, queryVec, k)
}

func dedupeByID(hits []ScoredChunk) []ScoredChunk {
	seen := make(map[string]bool, len(hits))
	out := hits[:0:0]
	for _, h := range hits {
		if seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		out = append(out, h)
	}
	return out
}

// orderChunks sorts in place: the best-scored representative of each core
// document type comes first (type completeness survives truncation), the
// rest follow by score descending, with document reading order breaking
// score ties.
func orderChunks(hits []ScoredChunk) {
	representative := map[string]bool{}
	for _, t := range []DocType{DocTypeContract, DocTypePayoutReport} {
		bestID := ""
		best := -1.0
		for _, h := range hits {
			if h.Type == t && h.Score > best {
				best = h.Score
				bestID = h.ID
			}
		}
		if bestID != "" {
			representative[bestID] = true
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		ri, rj := representative[hits[i].ID], representative[hits[j].ID]
		if ri != rj {
			return ri
		}
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
}

// truncateToBudget adds chunks in order until the next one would exceed the
// budget, then stops. Chunks are never split.
func truncateToBudget(hits []ScoredChunk, budget int) ([]ScoredChunk, int) {
	total := 0
	for i, h := range hits {
		if total+len(h.Content) > budget {
			return hits[:i], total
		}
		total += len(h.Content)
	}
	return hits, total
}
