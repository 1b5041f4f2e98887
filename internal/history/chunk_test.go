package history

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitter_ShortTextSingleChunk(t *testing.T) {
	s := Splitter{Size: 1000, Overlap: 100}
	chunks := s.Split("a single short message")
	assert.Equal(t, []string{"a single short message"}, chunks)
}

func TestSplitter_BlankText(t *testing.T) {
	s := Splitter{Size: 1000, Overlap: 100}
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t"))
}

func TestSplitter_PrefersParagraphBoundaries(t *testing.T) {
	s := Splitter{Size: 30, Overlap: 0}
	chunks := s.Split("first paragraph here\n\nsecond paragraph here\n\nthird one")

	require.Len(t, chunks, 3)
	assert.Equal(t, "first paragraph here", chunks[0])
	assert.Equal(t, "second paragraph here", chunks[1])
	assert.Equal(t, "third one", chunks[2])
}

func TestSplitter_ChunksRespectSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("several words in a line of moderate length\n")
	}

	s := Splitter{Size: 200, Overlap: 40}
	chunks := s.Split(b.String())

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 200, "chunk %d over size", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitter_OverlapCarriesContext(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("word ")
	}

	s := Splitter{Size: 60, Overlap: 15}
	chunks := s.Split(strings.TrimSpace(b.String()))
	require.Greater(t, len(chunks), 1)

	// The tail of each chunk reappears at the head of the next.
	for i := 1; i < len(chunks); i++ {
		head := strings.Fields(chunks[i])[0]
		assert.Contains(t, chunks[i-1], head)
	}
}

func TestSplitter_HardSplitWithoutSeparators(t *testing.T) {
	s := Splitter{Size: 10, Overlap: 0}
	chunks := s.Split(strings.Repeat("x", 25))

	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestSplitter_ContentPreserved(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	s := Splitter{Size: 20, Overlap: 5}
	chunks := s.Split(text)

	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}
