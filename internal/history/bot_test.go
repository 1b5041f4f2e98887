package history

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackerchat/ragbot/internal/log"
)

func TestBotID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"hackerbot", "bot_hackerbot"},
		{"Hacker Bot", "bot_hacker_bot"},
		{"HELPER", "bot_helper"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BotID(tt.name))
	}
}

func TestStore_RegisterBot_New(t *testing.T) {
	db := &fakeDB{rowResults: []fakeRow{{err: pgx.ErrNoRows}}}
	store, err := New(db, log.NewNop())
	require.NoError(t, err)

	id, created, err := store.RegisterBot(context.Background(), "hackerbot")
	require.NoError(t, err)
	assert.Equal(t, "bot_hackerbot", id)
	assert.True(t, created)

	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "INSERT INTO users")
	assert.Equal(t, "bot_hackerbot", db.execArgs[0][0])
	assert.Equal(t, "hackerbot", db.execArgs[0][1])
}

func TestStore_RegisterBot_Existing(t *testing.T) {
	db := &fakeDB{rowResults: []fakeRow{{vals: []any{"bot_hackerbot"}}}}
	store, err := New(db, log.NewNop())
	require.NoError(t, err)

	id, created, err := store.RegisterBot(context.Background(), "hackerbot")
	require.NoError(t, err)
	assert.Equal(t, "bot_hackerbot", id)
	assert.False(t, created)
	assert.Empty(t, db.execSQL, "no insert when the bot already exists")
}

func TestStore_VerifySchema_OK(t *testing.T) {
	db := &fakeDB{
		rowResults: []fakeRow{{vals: []any{true}}},
		rowsResults: []*fakeRows{{rows: [][]any{
			{"id"}, {"name"}, {"status"}, {"createdAt"}, {"updatedAt"}, {"avatarUrl"},
		}}},
	}
	store, err := New(db, log.NewNop())
	require.NoError(t, err)

	assert.NoError(t, store.VerifySchema(context.Background()))
}

func TestStore_VerifySchema_TableMissing(t *testing.T) {
	db := &fakeDB{rowResults: []fakeRow{{vals: []any{false}}}}
	store, err := New(db, log.NewNop())
	require.NoError(t, err)

	err = store.VerifySchema(context.Background())
	assert.ErrorIs(t, err, ErrSchemaMissing)
}

func TestStore_VerifySchema_ColumnsMissing(t *testing.T) {
	db := &fakeDB{
		rowResults:  []fakeRow{{vals: []any{true}}},
		rowsResults: []*fakeRows{{rows: [][]any{{"id"}, {"name"}}}},
	}
	store, err := New(db, log.NewNop())
	require.NoError(t, err)

	err = store.VerifySchema(context.Background())
	require.ErrorIs(t, err, ErrSchemaMissing)
	assert.ErrorContains(t, err, "status")
}
