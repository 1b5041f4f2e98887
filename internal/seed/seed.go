// Package seed populates the chat database with a generated month of
// conversation between four fictional personas. The result gives the vector
// index something to retrieve from on a fresh install.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackerchat/ragbot/internal/log"
)

// DefaultMessageCount is how many messages a seeding run generates.
const DefaultMessageCount = 80

var (
	// ErrNilDB indicates the seeder was constructed without a database.
	ErrNilDB = errors.New("database is required")

	// ErrNilModels indicates the seeder was constructed without a model client.
	ErrNilModels = errors.New("model client is required")
)

// Persona is one of the fictional chat users.
type Persona struct {
	Name        string
	UserID      string
	Description string
}

// Personas returns the four seeded characters. Their ids are fixed so
// repeated runs reuse the same user rows.
func Personas() []Persona {
	return []Persona{
		{
			Name:   "crumbqueen",
			UserID: "user_crumbqueen123456789",
			Description: "Insufferable red scare podcast dilettante, she is cynical about everything " +
				"and pretends to know a lot about art and psychology but is always saying cringe " +
				"things everyone already knows as if it makes her cool.",
		},
		{
			Name:   "hyperb0re4n",
			UserID: "user_hyperborean123456789",
			Description: "Absolute fitness bro, doesn't care about anything except being jacked. " +
				"Constantly proclaiming to be 'natty bro' and convince people who did not ask.",
		},
		{
			Name:   "notspook_normalguy",
			UserID: "user_notspook123456789",
			Description: "Very normal guy, always trying to seem as normal and chill as possible, " +
				"then very rarely asking hyperspecific technical questions about people related to " +
				"possible weapons and/or illegal cybersecurity infrastructure they might possess.",
		},
		{
			Name:   "joe66",
			UserID: "user_joe66123456789",
			Description: "58-year-old plumber, believes he's on a tech support forum. " +
				"Often complains or asks about plumbing or home repair in a tech context.",
		},
	}
}

// DB is the subset of pgxpool.Pool the seeder uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Seeder generates and inserts the seed conversation.
type Seeder struct {
	db       DB
	models   messageModels
	model    string
	count    int
	personas []Persona
	logger   log.Logger
}

// New builds a Seeder that generates count messages with the given model.
func New(db DB, models messageModels, model string, count int, logger log.Logger) (*Seeder, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if models == nil {
		return nil, ErrNilModels
	}
	if count <= 0 {
		count = DefaultMessageCount
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Seeder{
		db:       db,
		models:   models,
		model:    model,
		count:    count,
		personas: Personas(),
		logger:   logger,
	}, nil
}

// Run generates the conversation and inserts users, channels, and messages.
// It is idempotent for users and channels; messages are appended.
func (s *Seeder) Run(ctx context.Context) error {
	messages, err := s.generate(ctx)
	if err != nil {
		return err
	}

	userIDs := make(map[string]string, len(s.personas))
	for _, p := range s.personas {
		if err := s.ensureUser(ctx, p); err != nil {
			return err
		}
		userIDs[p.Name] = p.UserID
	}

	// The first persona owns any channels the conversation mentions.
	creatorID := s.personas[0].UserID
	channelIDs := make(map[string]string)
	for _, m := range messages {
		if _, ok := channelIDs[m.ChannelName]; ok {
			continue
		}
		id, err := s.ensureChannel(ctx, m.ChannelName, creatorID)
		if err != nil {
			return err
		}
		channelIDs[m.ChannelName] = id
	}

	inserted := 0
	seen := make(map[string]bool, len(messages))
	for _, m := range messages {
		if err := s.insertMessage(ctx, m, userIDs, channelIDs, seen); err != nil {
			s.logger.Warn("skipping unusable seed message", "message_id", string(m.ID), "error", err)
			continue
		}
		seen[string(m.ID)] = true
		inserted++
	}

	s.logger.Info("seeding complete",
		"generated", len(messages),
		"inserted", inserted,
		"channels", len(channelIDs),
	)
	return nil
}

func (s *Seeder) ensureUser(ctx context.Context, p Persona) error {
	var existing string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, p.UserID).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("looking up user %s: %w", p.Name, err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, name, status, "createdAt", "updatedAt")
		VALUES ($1, $2, 'offline', $3, $3)`,
		p.UserID, p.Name, now,
	)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", p.Name, err)
	}
	return nil
}

func (s *Seeder) ensureChannel(ctx context.Context, name, creatorID string) (string, error) {
	var existing string
	err := s.db.QueryRow(ctx, `SELECT id FROM "Channel" WHERE name = $1`, name).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("looking up channel %s: %w", name, err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		INSERT INTO "Channel" (id, name, description, "creatorId", type, "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, 'DEFAULT', $5, $5)`,
		id, name, fmt.Sprintf("Seeded channel: %s", name), creatorID, now,
	)
	if err != nil {
		return "", fmt.Errorf("creating channel %s: %w", name, err)
	}
	return id, nil
}

func (s *Seeder) insertMessage(ctx context.Context, m GeneratedMessage, userIDs, channelIDs map[string]string, seen map[string]bool) error {
	authorID, ok := userIDs[m.Character]
	if !ok {
		return fmt.Errorf("unknown character %q", m.Character)
	}
	channelID, ok := channelIDs[m.ChannelName]
	if !ok {
		return fmt.Errorf("unknown channel %q", m.ChannelName)
	}
	createdAt, err := m.CreatedAt()
	if err != nil {
		return err
	}

	// A reply to an id that was never inserted becomes a plain message.
	var replyTo any
	if m.ReplyToID != "" && seen[string(m.ReplyToID)] {
		replyTo = string(m.ReplyToID)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO "Message" (id, content, "channelId", "authorId", "createdAt", "updatedAt", "replyToId")
		VALUES ($1, $2, $3, $4, $5, $5, $6)`,
		string(m.ID), m.Content, channelID, authorID, createdAt, replyTo,
	)
	if err != nil {
		return fmt.Errorf("inserting message %s: %w", string(m.ID), err)
	}
	return nil
}
