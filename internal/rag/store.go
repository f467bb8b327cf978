package rag

import "context"

// SearchFilter narrows a similarity search. Zero values mean "no restriction".
type SearchFilter struct {
	// Partner restricts to chunks whose partner matches after
	// NormalizePartner.
	Partner string
	// Type restricts to a single document type.
	Type DocType
	// DocumentIDs restricts to chunks of specific documents, used for
	// session-scoped queries over freshly uploaded files.
	DocumentIDs []string
}

// Store is the narrow contract in front of the external document store.
// The core treats it as append-only from the indexing path and read-only
// from the query path; no in-place chunk updates exist.
type Store interface {
	// IndexDocument stores all chunks of one document atomically. A document
	// is never partially visible to a concurrent search: either every chunk
	// is stored or none is.
	IndexDocument(ctx context.Context, chunks []Chunk) error

	// Search returns up to k chunks ranked by similarity to queryVec,
	// restricted by filter.
	Search(ctx context.Context, filter SearchFilter, queryVec []float32, k int) ([]ScoredChunk, error)

	// Partners lists the distinct resolved partner names in the index.
	Partners(ctx context.Context) ([]string, error)
}
