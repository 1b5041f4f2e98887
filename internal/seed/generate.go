package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// generateTemperature matches the chat model settings used elsewhere in the
// bot so seeded conversations read like the real thing.
const generateTemperature = 0.7

// messageModels is the slice of the GenAI client the seeder calls.
type messageModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// flexibleID accepts both string and numeric ids, since the model is free to
// pick either.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// GeneratedMessage is one message in the model's JSON output.
type GeneratedMessage struct {
	ID          flexibleID `json:"id"`
	Character   string     `json:"character"`
	Content     string     `json:"content"`
	Date        string     `json:"date"`
	ReplyToID   flexibleID `json:"replyToId,omitempty"`
	ChannelName string     `json:"channelName"`
}

// CreatedAt parses the message date, tolerating the zone-less timestamps the
// model tends to produce.
func (m GeneratedMessage) CreatedAt() (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if at, err := time.Parse(layout, m.Date); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable message date %q", m.Date)
}

func buildPrompt(personas []Persona, count int) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that will generate a JSON array of Slack-like messages from four fictional users.\n")
	b.WriteString("We have four characters:\n")
	for i, p := range personas {
		fmt.Fprintf(&b, "%d) %s (description: %s)\n", i+1, p.Name, p.Description)
	}
	fmt.Fprintf(&b, `
Constraints:
- Generate %d messages total, distributed evenly among these characters.
- Each message up to 280 characters in length (like a short post).
- The messages are in chronological order, from November 1 to November 30, 2024.
- Some messages are replies to others (use a 'replyToId' to reference a previous message's 'id' within this list).
- The final output must be valid JSON (parseable) and must be an array of length %d.
- Each array element should be an object with:
    "id": a unique string or integer,
    "character": one of the characters above,
    "content": the message text (<= 280 chars),
    "date": an ISO8601-like date-time between 2024-11-01 and 2024-11-30,
    "replyToId": optional, referencing the 'id' of a previous message if this is a reply,
    "channelName": any short name to indicate which channel they're in (like "general", "random", or "offtopic").

Make the messages somewhat interwoven (they comment/reply to each other occasionally).
Return only valid JSON, with no additional commentary.
`, count, count)
	return b.String()
}

// parseMessages accepts either a bare JSON array or an object wrapping the
// array under "messages".
func parseMessages(raw string) ([]GeneratedMessage, error) {
	raw = strings.TrimSpace(raw)

	var messages []GeneratedMessage
	if err := json.Unmarshal([]byte(raw), &messages); err == nil {
		return messages, nil
	}

	var wrapped struct {
		Messages []GeneratedMessage `json:"messages"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if wrapped.Messages == nil {
		return nil, fmt.Errorf("model output has no messages array")
	}
	return wrapped.Messages, nil
}

// generate asks the model for the seed conversation.
func (s *Seeder) generate(ctx context.Context) ([]GeneratedMessage, error) {
	temp := float32(generateTemperature)
	resp, err := s.models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromText(buildPrompt(s.personas, s.count), genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:      &temp,
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generating seed messages: %w", err)
	}

	messages, err := parseMessages(resp.Text())
	if err != nil {
		return nil, err
	}

	s.logger.Info("seed messages generated", "count", len(messages))
	return messages, nil
}
