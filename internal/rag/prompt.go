package rag

import (
	"fmt"
	"strings"
)

const expertAnalystSystem = `You are an expert legal and financial analyst for a food delivery platform. Your expertise is deconstructing partnership agreements and reconciling them with payout data. You are meticulous, precise, and your analysis is grounded only in the provided documents.

Analytical framework:
1. Deconstruct the question into its legal and financial components.
2. Locate the pertinent contract clauses in the context documents.
3. Extract the relevant line items from the payout report(s).
4. Build a step-by-step explanation connecting contractual terms to the financial data, citing the specific clause or line item for every figure.

Be precise with numbers and percentages. Explain every fee, penalty or discrepancy you find. If the context does not contain the answer, say so; never invent clauses, rates or amounts.`

const simpleLookupSystem = `You are a concise document assistant. Answer the user's request directly from the provided documents: short answers, bullet points or numbered lists where appropriate. Do not add analysis, speculation or commentary that was not asked for. If the requested information is not in the documents, say so plainly.`

const noContextSystem = `You are a document assistant. No documents matching the user's question were found in the index. State plainly that no matching documents are available and suggest uploading the relevant contract or payout report. Do not attempt to answer the question from general knowledge and do not invent any document content.`

// AssemblerConfig bounds the final prompt. ReservedMargin is held back for
// instructions and the question so the packed context never pushes the
// prompt over the generation input limit.
type AssemblerConfig struct {
	MaxPromptChars int
	ReservedMargin int
}

// Assembler selects a template by query class and packs the retrieved
// context plus the question into a bounded PromptPackage.
type Assembler struct {
	cfg AssemblerConfig
}

func NewAssembler(cfg AssemblerConfig) *Assembler {
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 24000
	}
	if cfg.ReservedMargin <= 0 {
		cfg.ReservedMargin = 2000
	}
	return &Assembler{cfg: cfg}
}

// Assemble builds the prompt for a query and its retrieval result. The
// no-context case is a distinct path with its own template, not an empty
// context block passed through silently.
func (a *Assembler) Assemble(q Query, rr *RetrievalResult) PromptPackage {
	question := strings.TrimSpace(q.Text)

	if rr == nil || rr.NoContext {
		return PromptPackage{
			Class:     q.Class,
			System:    noContextSystem,
			User:      "Question:\n" + question + "\n\nNo matching documents were found for this question.",
			NoContext: true,
		}
	}

	system := simpleLookupSystem
	if q.Class == ClassComplex {
		system = expertAnalystSystem
	}

	contextBudget := a.cfg.MaxPromptChars - a.cfg.ReservedMargin - len(system) - len(question)
	contextBlock := buildContextBlock(rr.Chunks, contextBudget)

	user := fmt.Sprintf("Context documents:\n%s\nQuestion:\n%s", contextBlock, question)
	return PromptPackage{
		Class:  q.Class,
		System: system,
		User:   user,
	}
}

// buildContextBlock serializes chunks in retrieval order, dropping trailing
// chunks that would overflow the remaining budget. Chunks are never split.
func buildContextBlock(chunks []ScoredChunk, budget int) string {
	var b strings.Builder
	for i, c := range chunks {
		header := fmt.Sprintf("\n[DOC %d] type=%s partner=%s chunk=%s\n", i+1, c.Type, c.Partner, c.ID)
		entry := header + c.Content + "\n----\n"
		if b.Len()+len(entry) > budget {
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}
