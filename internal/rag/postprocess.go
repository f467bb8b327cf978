package rag

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minComplexAnswerLen is the length below which a complex analysis is
// suspiciously short and gets flagged.
const minComplexAnswerLen = 200

var (
	splitThousandsRe = regexp.MustCompile(`(\d+)\s*\n\s*,\s*\n\s*(\d+)`)
	splitDecimalRe   = regexp.MustCompile(`(\d+)\s*\n\s*\.\s*\n\s*(\d+)`)
	blankRunsRe      = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaceRunsRe      = regexp.MustCompile(`[ \t]+`)

	// boilerplate preambles some models repeat before the actual answer
	preambleRe = regexp.MustCompile(`(?im)^(financial analysis( response)?|analysis|answer)\s*:\s*$`)
)

// Postprocess strips known generation artifacts from a raw model response
// and flags quality problems. It never fails: on any anomaly it returns the
// best-effort cleaned text plus a degraded flag and lets the caller decide
// how to surface it.
func Postprocess(raw string, class QueryClass) (string, []QualityFlag) {
	var flags []QualityFlag
	repaired := false

	apply := func(text string, fix func(string) string) string {
		fixed := fix(text)
		if fixed != text {
			repaired = true
		}
		return fixed
	}

	text := apply(raw, stripControlRunes)
	text = apply(text, joinStreamingLines)
	text = apply(text, func(s string) string { return splitThousandsRe.ReplaceAllString(s, "$1,$2") })
	text = apply(text, func(s string) string { return splitDecimalRe.ReplaceAllString(s, "$1.$2") })
	text = apply(text, func(s string) string { return preambleRe.ReplaceAllString(s, "") })

	// cosmetic whitespace normalization, not counted as a repair
	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	text = spaceRunsRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if repaired {
		flags = append(flags, FlagResponseDegraded)
	}
	if text == "" {
		return "", dedupeFlags(append(flags, FlagResponseDegraded, FlagPossiblyTruncated))
	}
	if !endsComplete(text) {
		flags = append(flags, FlagPossiblyTruncated)
	}
	if class == ClassComplex && len(text) < minComplexAnswerLen {
		flags = append(flags, FlagResponseDegraded)
	}
	return text, dedupeFlags(flags)
}

// joinStreamingLines repairs the classic streaming artifact of single
// alphanumeric characters landing on their own lines mid-sentence.
func joinStreamingLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 1 && isAlnum(rune(trimmed[0])) && len(out) > 0 {
			prev := out[len(out)-1]
			if prev != "" && !strings.ContainsRune(".!?:", rune(prev[len(prev)-1])) {
				out[len(out)-1] = prev + trimmed
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func stripControlRunes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '�' {
			return -1
		}
		return r
	}, s)
}

// endsComplete reports whether the text ends on terminal punctuation,
// tolerating trailing quotes, brackets and markdown emphasis.
func endsComplete(text string) bool {
	trimmed := strings.TrimRight(text, " \n\t*_`\"')]}”’")
	if trimmed == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	return strings.ContainsRune(".!?:;…", last)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func dedupeFlags(flags []QualityFlag) []QualityFlag {
	seen := make(map[QualityFlag]bool, len(flags))
	out := flags[:0:0]
	for _, f := range flags {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
