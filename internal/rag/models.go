package rag

import "time"

// DocType identifica o tipo de documento indexado.
// Tipado p/ evitar string solta no código.
type DocType string

const (
	DocTypeContract     DocType = "contract"
	DocTypePayoutReport DocType = "payout_report"
	DocTypeUnknown      DocType = "unknown"
)

// PartnerUnresolved is the explicit sentinel used when tagging cannot
// determine the partner. It is never treated as a valid partner name.
const PartnerUnresolved = "unresolved"

// QueryClass is the routing decision for an incoming question.
type QueryClass string

const (
	ClassSimple  QueryClass = "simple"
	ClassComplex QueryClass = "complex"
)

// Document is a logical unit uploaded by a user. Immutable once chunked.
type Document struct {
	ID         string    `json:"id"`
	Partner    string    `json:"partner"`
	Type       DocType   `json:"type"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
	Text       string    `json:"-"`
}

// Chunk is a contiguous slice of a document's text plus overlap context.
// Partner and Type are inherited from the parent document. Reindexing a
// document produces a new document id and therefore new chunk ids.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Partner    string    `json:"partner"`
	Type       DocType   `json:"type"`
	Ordinal    int       `json:"ordinal"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ScoredChunk is a chunk ranked by a similarity search.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Query is a user question plus resolved scope. Partner is empty when the
// scope is "all indexed documents". SessionDocIDs carries documents uploaded
// in the same request, so a request's scope is fully determined by its inputs.
type Query struct {
	Text          string
	Class         QueryClass
	Partner       string
	SessionDocIDs []string
	TopK          int
}

// RetrievalResult is the ordered, deduplicated context selected for a query.
// TotalChars never exceeds the configured context budget. ScopeHit reports
// whether the partner-scoped search returned anything; NoContext is set when
// nothing usable was retrieved at all.
type RetrievalResult struct {
	Chunks     []ScoredChunk
	TotalChars int
	ScopeHit   bool
	NoContext  bool
}

// ChunkIDs returns the ids of the selected chunks, in final order.
func (r *RetrievalResult) ChunkIDs() []string {
	ids := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		ids = append(ids, c.ID)
	}
	return ids
}

// PromptPackage is the materialized prompt handed to generation.
// Immutable once built; lives for a single request only.
type PromptPackage struct {
	Class     QueryClass
	System    string
	User      string
	NoContext bool
}

// QualityFlag marks a degraded but still usable outcome.
type QualityFlag string

const (
	FlagExtractionDegraded QualityFlag = "extraction_degraded"
	FlagTaggingUnresolved  QualityFlag = "tagging_unresolved"
	FlagRetrievalEmpty     QualityFlag = "retrieval_empty"
	FlagScopeFallback      QualityFlag = "scope_fallback"
	FlagResponseDegraded   QualityFlag = "response_degraded"
	FlagPossiblyTruncated  QualityFlag = "possibly_truncated"
)

// AnswerRequest is the single logical question operation exposed upward.
type AnswerRequest struct {
	Question string     `json:"question"`
	Partner  string     `json:"partner,omitempty"`
	Uploads  []Document `json:"-"`
	TopK     int        `json:"topK,omitempty"`
	Lang     string     `json:"lang,omitempty"`
}

// AnswerResponse is what the caller always receives: a complete answer, a
// flagged-degraded answer, or a structured failure. Never a raw panic.
type AnswerResponse struct {
	Answer        string        `json:"answer"`
	Class         QueryClass    `json:"class"`
	Partner       string        `json:"partner,omitempty"`
	Flags         []QualityFlag `json:"flags,omitempty"`
	CitedChunkIDs []string      `json:"citedChunkIds"`
}

// IndexResult summarizes one document indexing operation.
type IndexResult struct {
	DocumentID string        `json:"documentId"`
	Partner    string        `json:"partner"`
	Type       DocType       `json:"type"`
	ChunkCount int           `json:"chunkCount"`
	Flags      []QualityFlag `json:"flags,omitempty"`
}
