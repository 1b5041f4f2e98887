package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hackerchat/ragbot/internal/log"
)

type fakeModels struct {
	prompt string
	mime   string
	output string
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if config != nil {
		f.mime = config.ResponseMIMEType
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.output}}},
		}},
	}, nil
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

// fakeDB answers every lookup with no-rows so everything gets created.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL = append(db.execSQL, sql)
	db.execArgs = append(db.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func (db *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: pgx.ErrNoRows}
}

func (db *fakeDB) countExec(substr string) int {
	n := 0
	for _, sql := range db.execSQL {
		if strings.Contains(sql, substr) {
			n++
		}
	}
	return n
}

func TestParseMessages_BareArray(t *testing.T) {
	raw := `[{"id": "m1", "character": "joe66", "content": "hi", "date": "2024-11-02T10:00:00", "channelName": "general"}]`

	messages, err := parseMessages(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, flexibleID("m1"), messages[0].ID)
	assert.Equal(t, "joe66", messages[0].Character)
}

func TestParseMessages_WrappedObject(t *testing.T) {
	raw := `{"messages": [{"id": 7, "character": "crumbqueen", "content": "hm", "date": "2024-11-03", "channelName": "random"}]}`

	messages, err := parseMessages(raw)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, flexibleID("7"), messages[0].ID, "numeric ids are normalized to strings")
}

func TestParseMessages_Invalid(t *testing.T) {
	_, err := parseMessages("here is your JSON: [")
	assert.ErrorContains(t, err, "not valid JSON")

	_, err = parseMessages(`{"other": 1}`)
	assert.ErrorContains(t, err, "no messages array")
}

func TestGeneratedMessage_CreatedAt(t *testing.T) {
	tests := []struct {
		date string
		want time.Time
	}{
		{"2024-11-05T14:30:00Z", time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC)},
		{"2024-11-05T14:30:00", time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC)},
		{"2024-11-05 14:30:00", time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC)},
		{"2024-11-05", time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		at, err := GeneratedMessage{Date: tt.date}.CreatedAt()
		require.NoError(t, err, tt.date)
		assert.True(t, at.Equal(tt.want), tt.date)
	}

	_, err := GeneratedMessage{Date: "sometime in november"}.CreatedAt()
	assert.ErrorContains(t, err, "unparseable")
}

func TestSeeder_Run(t *testing.T) {
	db := &fakeDB{}
	models := &fakeModels{output: `[
		{"id": "m1", "character": "joe66", "content": "water heater making weird noises", "date": "2024-11-02T10:00:00", "channelName": "general"},
		{"id": "m2", "character": "crumbqueen", "content": "thats so liminal", "date": "2024-11-02T10:05:00", "replyToId": "m1", "channelName": "general"},
		{"id": "m3", "character": "hyperb0re4n", "content": "leg day", "date": "2024-11-03T08:00:00", "replyToId": "m99", "channelName": "random"},
		{"id": "m4", "character": "unknown_person", "content": "who am i", "date": "2024-11-04T08:00:00", "channelName": "random"}
	]`}

	seeder, err := New(db, models, "gemini-2.5-flash", 80, log.NewNop())
	require.NoError(t, err)

	require.NoError(t, seeder.Run(context.Background()))

	assert.Contains(t, models.prompt, "crumbqueen")
	assert.Contains(t, models.prompt, "80 messages total")
	assert.Equal(t, "application/json", models.mime)

	assert.Equal(t, 4, db.countExec("INSERT INTO users"), "all four personas created")
	assert.Equal(t, 2, db.countExec(`INSERT INTO "Channel"`), "general and random created once each")
	assert.Equal(t, 3, db.countExec(`INSERT INTO "Message"`), "unknown character skipped")

	// m2 keeps its reply link, m3's dangling reference is nulled.
	var m2Args, m3Args []any
	for i, sql := range db.execSQL {
		if !strings.Contains(sql, `INSERT INTO "Message"`) {
			continue
		}
		switch db.execArgs[i][0] {
		case "m2":
			m2Args = db.execArgs[i]
		case "m3":
			m3Args = db.execArgs[i]
		}
	}
	require.NotNil(t, m2Args)
	assert.Equal(t, "m1", m2Args[5])
	require.NotNil(t, m3Args)
	assert.Nil(t, m3Args[5])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, &fakeModels{}, "m", 10, log.NewNop())
	assert.ErrorIs(t, err, ErrNilDB)

	_, err = New(&fakeDB{}, nil, "m", 10, log.NewNop())
	assert.ErrorIs(t, err, ErrNilModels)

	seeder, err := New(&fakeDB{}, &fakeModels{}, "m", 0, log.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultMessageCount, seeder.count)
}
