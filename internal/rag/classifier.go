package rag

import "strings"

// Analytical verbs force the complex path even when listing language is also
// present: "list the discrepancies" needs cross-document reasoning, not a
// lookup. Substring match keeps "discrepanc" covering both word forms.
var analyticalSignals = []string{
	"explain",
	"calculate",
	"compare",
	"discrepanc",
	"reconcile",
	"variance",
	"why",
	"difference between",
	"deviation",
	"mismatch",
}

var lookupSignals = []string{
	"list",
	"show me",
	"what documents",
	"which documents",
	"names of",
	"how many",
	"what partners",
	"which partners",
	"enumerate",
}

// Classify routes a question to the simple lookup path or the complex
// financial-analysis path. Ambiguous input classifies as complex: a
// false-complex costs compute, a false-simple under-serves the question.
// Pure function, deterministic.
func Classify(question string) QueryClass {
	q := strings.ToLower(question)

	for _, s := range analyticalSignals {
		if strings.Contains(q, s) {
			return ClassComplex
		}
	}
	for _, s := range lookupSignals {
		if strings.Contains(q, s) {
			return ClassSimple
		}
	}
	return ClassComplex
}
