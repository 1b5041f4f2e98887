package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// requiredUserColumns is what the bot needs on the chat app's users table.
var requiredUserColumns = []string{"id", "name", "status", "createdAt", "updatedAt"}

// BotID derives the stable user id for a bot name. The id is deterministic
// so re-registering the same name is idempotent.
func BotID(name string) string {
	return "bot_" + strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// VerifySchema checks that the chat app's users table exists with the
// columns the bot relies on. It returns ErrSchemaMissing when the chat app's
// migrations have not run yet.
func (s *Store) VerifySchema(ctx context.Context) error {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'users'
		)`,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking users table: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: users table not found", ErrSchemaMissing)
	}

	rows, err := s.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = 'users'`,
	)
	if err != nil {
		return fmt.Errorf("checking users columns: %w", err)
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return fmt.Errorf("scanning column name: %w", err)
		}
		have[column] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading users columns: %w", err)
	}

	var missing []string
	for _, column := range requiredUserColumns {
		if !have[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: users table missing columns %s", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}

// RegisterBot creates the bot's user row if it does not exist and returns
// its id. created reports whether a new row was inserted.
func (s *Store) RegisterBot(ctx context.Context, name string) (id string, created bool, err error) {
	id = BotID(name)

	var existing string
	err = s.db.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, id).Scan(&existing)
	if err == nil {
		s.logger.Info("bot user already registered", "bot_id", id)
		return id, false, nil
	}
	if !isNoRows(err) {
		return "", false, fmt.Errorf("looking up bot user: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, name, status, "createdAt", "updatedAt")
		VALUES ($1, $2, 'online', $3, $3)`,
		id, name, now,
	)
	if err != nil {
		return "", false, fmt.Errorf("inserting bot user: %w", err)
	}

	s.logger.Info("bot user registered", "bot_id", id, "name", name)
	return id, true, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
