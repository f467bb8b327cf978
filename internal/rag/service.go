package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wl "github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// ServiceConfig bundles the pipeline tunables. Zero values fall back to the
// defaults used across the pipeline.
type ServiceConfig struct {
	ChunkSize         int
	ChunkOverlap      int
	TopK              int
	ContextBudget     int
	MaxPromptChars    int
	SearchTimeout     time.Duration
	GenerationTimeout time.Duration
	RetryBackoff      time.Duration
}

// Service orchestrates the two operations the core exposes upward:
// IndexDocument and Answer.
type Service struct {
	store      Store
	embeddings EmbeddingsClient
	llm        GenerationClient
	retriever  *Retriever
	assembler  *Assembler
	cfg        ServiceConfig
}

func NewService(store Store, embeddings EmbeddingsClient, llm GenerationClient, cfg ServiceConfig) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	return &Service{
		store:      store,
		embeddings: embeddings,
		llm:        llm,
		retriever: NewRetriever(store, RetrieverConfig{
			TopK:          cfg.TopK,
			ContextBudget: cfg.ContextBudget,
			SearchTimeout: cfg.SearchTimeout,
			RetryBackoff:  cfg.RetryBackoff,
		}),
		assembler: NewAssembler(AssemblerConfig{MaxPromptChars: cfg.MaxPromptChars}),
		cfg:       cfg,
	}
}

// IndexDocument tags, chunks, embeds and stores one document. Chunks become
// searchable only after all of them are stored; an embedding or store
// failure leaves nothing behind.
func (s *Service) IndexDocument(ctx context.Context, doc Document) (*IndexResult, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil, ErrEmptyDocument
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	var flags []QualityFlag
	if doc.Partner == "" || doc.Type == "" {
		tags := Tag(doc.Filename, text)
		if doc.Partner == "" {
			doc.Partner = tags.Partner
		}
		if doc.Type == "" {
			doc.Type = tags.Type
		}
	}
	if doc.Partner == PartnerUnresolved || doc.Type == DocTypeUnknown {
		flags = append(flags, FlagTaggingUnresolved)
	}

	segments := SplitChunks(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(segments) == 0 {
		return nil, ErrEmptyDocument
	}

	chunks := make([]Chunk, 0, len(segments))
	for i, seg := range segments {
		vec, err := s.embeddings.Embed(ctx, seg)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, i),
			DocumentID: doc.ID,
			Partner:    doc.Partner,
			Type:       doc.Type,
			Ordinal:    i,
			Content:    seg,
			Embedding:  vec,
			CreatedAt:  doc.UploadedAt,
		})
	}

	if err := s.store.IndexDocument(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	return &IndexResult{
		DocumentID: doc.ID,
		Partner:    doc.Partner,
		Type:       doc.Type,
		ChunkCount: len(chunks),
		Flags:      flags,
	}, nil
}

// Answer runs the full question pipeline: index session uploads, resolve
// partner scope, classify, retrieve, assemble, generate, post-process.
func (s *Service) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	var flags []QualityFlag

	// Documents uploaded with the question become searchable before
	// retrieval runs, so the same request can ask about them.
	var sessionIDs []string
	uploadPartner := ""
	for _, doc := range req.Uploads {
		res, err := s.IndexDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("index upload %q: %w", doc.Filename, err)
		}
		sessionIDs = append(sessionIDs, res.DocumentID)
		flags = appendFlags(flags, res.Flags...)
		if uploadPartner == "" && res.Partner != PartnerUnresolved {
			uploadPartner = res.Partner
		}
	}

	partner := s.resolvePartner(ctx, req.Partner, uploadPartner, question)

	q := Query{
		Text:    question,
		Class:   Classify(question),
		Partner: partner,
		TopK:    req.TopK,
	}
	// No partner but fresh uploads: scope to this session's documents.
	// No partner and no uploads: all indexed documents.
	if partner == "" && len(sessionIDs) > 0 {
		q.SessionDocIDs = sessionIDs
	}

	queryVec, err := s.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	rr, err := s.retriever.Retrieve(ctx, q, queryVec)
	if err != nil {
		return nil, err
	}
	if partner != "" && !rr.ScopeHit {
		flags = appendFlags(flags, FlagScopeFallback)
	}
	if rr.NoContext {
		flags = appendFlags(flags, FlagRetrievalEmpty)
	}

	pkg := s.assembler.Assemble(q, rr)

	lang := req.Lang
	if lang == "" || lang == "auto" {
		lang = detectLang(question)
	}

	answer, err := s.generate(ctx, pkg, lang)
	if err != nil {
		return nil, err
	}

	cleaned, pflags := Postprocess(answer, q.Class)
	flags = appendFlags(flags, pflags...)

	return &AnswerResponse{
		Answer:        cleaned,
		Class:         q.Class,
		Partner:       partner,
		Flags:         flags,
		CitedChunkIDs: rr.ChunkIDs(),
	}, nil
}

// Partners lists the distinct partners currently indexed.
func (s *Service) Partners(ctx context.Context) ([]string, error) {
	return s.store.Partners(ctx)
}

// resolvePartner picks the query scope: an explicit partner wins, then the
// partner tagged on this request's uploads, then a partner name mentioned in
// the question itself, matched against the indexed partner list.
func (s *Service) resolvePartner(ctx context.Context, explicit, uploadPartner, question string) string {
	if explicit != "" && explicit != PartnerUnresolved {
		return explicit
	}
	if uploadPartner != "" {
		return uploadPartner
	}

	partners, err := s.store.Partners(ctx)
	if err != nil {
		// Scope resolution is best-effort; an unscoped search still works.
		return ""
	}
	qKey := NormalizePartner(question)
	for _, p := range partners {
		if key := NormalizePartner(p); key != "" && strings.Contains(qKey, key) {
			return p
		}
	}
	return ""
}

func (s *Service) embedQuery(ctx context.Context, question string) ([]float32, error) {
	timeout := s.cfg.SearchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vec, err := s.embeddings.Embed(ctx, question)
	if err != nil {
		// Without a query vector the search cannot run at all, which is
		// the same outage as the store being down from the caller's view.
		return nil, fmt.Errorf("%w: embed query: %v", ErrRetrievalUnavailable, err)
	}
	return vec, nil
}

// generate calls the model once and retries a single time on timeout, never
// more, to bound latency.
func (s *Service) generate(ctx context.Context, pkg PromptPackage, lang string) (string, error) {
	answer, err := s.generateOnce(ctx, pkg, lang)
	if err == nil {
		return answer, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		answer, err = s.generateOnce(ctx, pkg, lang)
		if err == nil {
			return answer, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		}
	}
	return "", fmt.Errorf("%w: %v", ErrGenerationFailure, err)
}

func (s *Service) generateOnce(ctx context.Context, pkg PromptPackage, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	return s.llm.Generate(ctx, pkg, lang)
}

func detectLang(s string) string {
	info := wl.Detect(s)
	switch wl.LangToString(info.Lang) {
	case "por":
		return "pt"
	case "spa":
		return "es"
	default:
		return "en"
	}
}

func appendFlags(flags []QualityFlag, extra ...QualityFlag) []QualityFlag {
	for _, f := range extra {
		dup := false
		for _, have := range flags {
			if have == f {
				dup = true
				break
			}
		}
		if !dup {
			flags = append(flags, f)
		}
	}
	return flags
}
