package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackerchat/ragbot/internal/rag"
)

func TestBuildDocuments(t *testing.T) {
	at := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)

	messages := []Message{
		{Content: "the kiln hit 1200C last night", Channel: "ceramics", Author: "crumbqueen", CreatedAt: at},
		{Content: "", Channel: "general", Author: "joe66"},
		{Content: "   \t", Channel: "general", Author: "joe66"},
		{Content: "check this out", Channel: "random", Author: "hyperb0re4n", FileURL: "https://files/x", FileName: "deadlift.mp4"},
		{Content: "", Channel: "random", Author: "joe66", FileURL: "https://files/y"},
	}

	docs := BuildDocuments(messages)
	require.Len(t, docs, 3, "empty messages without attachments are dropped")

	assert.Equal(t, "the kiln hit 1200C last night", docs[0].Text)
	assert.Equal(t, "ceramics", docs[0].Channel)
	assert.Equal(t, "crumbqueen", docs[0].Author)
	assert.Equal(t, at, docs[0].Timestamp)

	assert.Equal(t, "check this out\n[Attached file: deadlift.mp4]", docs[1].Text)
	assert.Equal(t, "\n[Attached file: unnamed file]", docs[2].Text)
}

func TestBuildDocumentsEmpty(t *testing.T) {
	assert.Empty(t, BuildDocuments(nil))
}

func TestSplitDocumentsKeepsProvenance(t *testing.T) {
	at := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)
	long := ""
	for i := 0; i < 40; i++ {
		long += "a somewhat repetitive sentence about plumbing.\n"
	}

	docs := []rag.Document{{Text: long, Channel: "general", Author: "joe66", Timestamp: at}}
	chunks := SplitDocuments(docs, Splitter{Size: 200, Overlap: 20})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.Equal(t, "general", c.Channel)
		assert.Equal(t, "joe66", c.Author)
		assert.Equal(t, at, c.Timestamp)
	}
}
