package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunksEmptyInput(t *testing.T) {
	assert.Nil(t, SplitChunks("", 1000, 200))
}

func TestSplitChunksShortInputSingleSegment(t *testing.T) {
	text := "short contract clause."
	segs := SplitChunks(text, 1000, 200)
	require.Len(t, segs, 1)
	assert.Equal(t, text, segs[0])
}

func TestSplitChunksRespectsMaxSize(t *testing.T) {
	text := strings.Repeat("the partner pays a commission of ten percent. ", 200)
	segs := SplitChunks(text, 500, 100)
	require.Greater(t, len(segs), 1)
	for i, s := range segs {
		assert.LessOrEqual(t, len(s), 500, "segment %d over max size", i)
		assert.NotEmpty(t, s)
	}
}

func TestSplitChunksReconstruction(t *testing.T) {
	const overlap = 100
	text := strings.Repeat("Clause 4.2 sets the commission at 25% of gross sales. ", 120)

	segs := SplitChunks(text, 600, overlap)
	require.Greater(t, len(segs), 1)

	var b strings.Builder
	b.WriteString(segs[0])
	for _, s := range segs[1:] {
		require.Greater(t, len(s), overlap)
		b.WriteString(s[overlap:])
	}
	assert.Equal(t, text, b.String())
}

func TestSplitChunksOverlapIsCarried(t *testing.T) {
	const overlap = 50
	text := strings.Repeat("payout line item. ", 200)

	segs := SplitChunks(text, 400, overlap)
	require.Greater(t, len(segs), 1)

	for i := 1; i < len(segs); i++ {
		prev := segs[i-1]
		assert.Equal(t, prev[len(prev)-overlap:], segs[i][:overlap],
			"segment %d does not start with the previous tail", i)
	}
}

func TestSplitChunksPrefersParagraphBreak(t *testing.T) {
	para := strings.Repeat("a", 300) + "\n\n" + strings.Repeat("b", 300)
	segs := SplitChunks(para, 400, 0)
	require.Greater(t, len(segs), 1)
	assert.True(t, strings.HasSuffix(segs[0], "\n\n"),
		"first segment should end at the paragraph break, got %q tail", segs[0][len(segs[0])-5:])
}

func TestSplitChunksPrefersSentenceEnd(t *testing.T) {
	text := strings.Repeat("x", 250) + ". " + strings.Repeat("y", 250)
	segs := SplitChunks(text, 300, 0)
	require.Greater(t, len(segs), 1)
	assert.True(t, strings.HasSuffix(segs[0], "."),
		"first segment should end at the sentence boundary")
}

func TestSplitChunksNoRuneSplitOnHardCut(t *testing.T) {
	// no whitespace anywhere forces the hard-cut path
	text := strings.Repeat("é", 400)
	segs := SplitChunks(text, 301, 0)
	require.Greater(t, len(segs), 1)
	for i, s := range segs {
		assert.True(t, strings.ToValidUTF8(s, "") == s, "segment %d split a rune", i)
	}
	assert.Equal(t, text, strings.Join(segs, ""))
}

func TestSplitChunksClampsOversizedOverlap(t *testing.T) {
	text := strings.Repeat("word ", 500)
	segs := SplitChunks(text, 200, 500)
	require.NotEmpty(t, segs)
	// an unclamped overlap this large would stop the cursor from advancing
	assert.Less(t, len(segs), 100)
}

func TestSplitChunksDeterministic(t *testing.T) {
	text := strings.Repeat("Partner statement for March. Net payout 2,925.00. ", 80)
	a := SplitChunks(text, 512, 64)
	b := SplitChunks(text, 512, 64)
	assert.Equal(t, a, b)
}
