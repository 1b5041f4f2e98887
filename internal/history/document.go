package history

import (
	"fmt"
	"strings"

	"github.com/hackerchat/ragbot/internal/rag"
)

// BuildDocuments converts messages into indexable documents. Messages with
// neither text nor an attachment are dropped. An attachment is surfaced as a
// trailing line so the file's presence is searchable.
func BuildDocuments(messages []Message) []rag.Document {
	docs := make([]rag.Document, 0, len(messages))
	for _, m := range messages {
		text := m.Content
		if strings.TrimSpace(text) == "" && m.FileURL == "" {
			continue
		}

		if m.FileURL != "" {
			name := m.FileName
			if name == "" {
				name = "unnamed file"
			}
			text += fmt.Sprintf("\n[Attached file: %s]", name)
		}

		docs = append(docs, rag.Document{
			Text:      text,
			Channel:   m.Channel,
			Author:    m.Author,
			Timestamp: m.CreatedAt,
		})
	}
	return docs
}

// SplitDocuments chunks oversized documents, carrying the source document's
// provenance onto every chunk.
func SplitDocuments(docs []rag.Document, splitter Splitter) []rag.Document {
	out := make([]rag.Document, 0, len(docs))
	for _, doc := range docs {
		for _, chunk := range splitter.Split(doc.Text) {
			out = append(out, rag.Document{
				Text:      chunk,
				Channel:   doc.Channel,
				Author:    doc.Author,
				Timestamp: doc.Timestamp,
			})
		}
	}
	return out
}
