package rag

import (
	"regexp"
	"strings"
)

// Tags is the deterministic output of metadata tagging. Unresolved fields
// carry explicit sentinels, never empty strings treated as valid values.
type Tags struct {
	Partner string
	Type    DocType
}

// tagSampleSize limits how much of the document body the tagger inspects.
const tagSampleSize = 512

var (
	payoutKeywords   = []string{"payout", "remittance", "statement"}
	contractKeywords = []string{"agreement", "partnership", "contract"}

	// filename tokens that are part of the naming convention, not the partner
	conventionTokens = map[string]bool{
		"contract": true, "agreement": true, "partnership": true,
		"payout": true, "remittance": true, "statement": true,
		"report": true, "final": true, "signed": true, "copy": true,
	}

	partnerLineRe = regexp.MustCompile(`(?i)partner(?:\s+name)?\s*[:\-]\s*([^\n\r]+)`)
	tokenSplitRe  = regexp.MustCompile(`[_\-\s.]+`)
	numericRe     = regexp.MustCompile(`^\d+$`)
)

// Tag derives partner identity and document type from filename and content
// conventions. It never fails: anything it cannot determine comes back as
// PartnerUnresolved / DocTypeUnknown for the retriever's fallback logic.
func Tag(filename, textSample string) Tags {
	if len(textSample) > tagSampleSize {
		textSample = textSample[:tagSampleSize]
	}
	return Tags{
		Partner: extractPartner(filename, textSample),
		Type:    detectDocType(filename, textSample),
	}
}

// extractPartner pattern-matches the upload naming convention: an optional
// numeric prefix, the partner tokens, then document-type tokens and dates.
// Example: "042_sushi_express_contract_2024.pdf" -> "sushi express".
func extractPartner(filename, textSample string) string {
	base := baseName(filename)
	tokens := tokenSplitRe.Split(base, -1)

	var kept []string
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)
		// leading numeric prefix (upload counters, partner ids)
		if len(kept) == 0 && i == 0 && numericRe.MatchString(tok) {
			continue
		}
		if conventionTokens[lower] || numericRe.MatchString(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) > 0 {
		return strings.Join(kept, " ")
	}

	// Fallback: a "Partner: <name>" line near the top of the document.
	if m := partnerLineRe.FindStringSubmatch(textSample); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" {
			return name
		}
	}
	return PartnerUnresolved
}

func detectDocType(filename, textSample string) DocType {
	fname := strings.ToLower(filename)

	// The filename wins: contract bodies talk about payouts and payout
	// reports reference the contract, so body keywords are weaker signals.
	payoutInName := containsAny(fname, payoutKeywords)
	contractInName := containsAny(fname, contractKeywords)
	switch {
	case payoutInName && !contractInName:
		return DocTypePayoutReport
	case contractInName && !payoutInName:
		return DocTypeContract
	}

	sample := strings.ToLower(textSample)
	payoutHits := countHits(sample, payoutKeywords)
	contractHits := countHits(sample, contractKeywords)
	switch {
	case payoutHits > contractHits:
		return DocTypePayoutReport
	case contractHits > payoutHits:
		return DocTypeContract
	default:
		return DocTypeUnknown
	}
}

// NormalizePartner collapses a partner name to a comparison key: lower case,
// alphanumeric only. "Sushi Express 24/7" and "sushi_express_24_7" match.
func NormalizePartner(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func countHits(s string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		n += strings.Count(s, k)
	}
	return n
}

// baseName strips directory and extension from a path-like filename.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
