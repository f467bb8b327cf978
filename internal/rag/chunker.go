package rag

import (
	"strings"
	"unicode/utf8"
)

// SplitChunks splits text into an ordered sequence of segments of at most
// maxSize bytes. Each segment after the first begins with the trailing
// overlap bytes of the previous segment, so a semantic unit crossing a cut
// still appears whole in at least one segment's neighborhood.
//
// Cut points prefer, in order: a paragraph break, a sentence end, any
// whitespace, and only then a hard byte cut. Pure function; empty input
// yields nil, input shorter than maxSize yields exactly one segment.
//
// Concatenating the segments after stripping the leading overlap bytes of
// every segment but the first reconstructs the input exactly.
func SplitChunks(text string, maxSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	// The boundary search window starts at maxSize/2, so a larger overlap
	// could stop the cursor from advancing.
	if overlap*2 > maxSize {
		overlap = maxSize / 2
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	var segments []string
	start := 0
	for start < len(text) {
		end := start + maxSize
		if end >= len(text) {
			segments = append(segments, text[start:])
			break
		}
		cut := findCut(text, start, end)
		segments = append(segments, text[start:cut])

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return segments
}

// findCut picks the best cut position in (start, end]. The search window is
// bounded to the second half of the segment so cuts never collapse it.
func findCut(text string, start, end int) int {
	lo := start + (end-start)/2

	if i := strings.LastIndex(text[lo:end], "\n\n"); i >= 0 {
		return lo + i + 2
	}
	for i := end - 1; i > lo; i-- {
		c := text[i-1]
		if (c == '.' || c == '!' || c == '?') && isSpace(text[i]) {
			return i
		}
	}
	for i := end - 1; i > lo; i-- {
		if isSpace(text[i]) {
			return i
		}
	}
	// Hard cut. Back off to a rune start so multi-byte runes stay whole.
	for end > lo && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}
