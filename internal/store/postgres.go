package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

const (
	connectAttempts = 10
	connectInterval = 2 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS reminders (
	id          TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// OpenPostgres connects to databaseURL, retrying while the server comes up.
func OpenPostgres(ctx context.Context, databaseURL string, logger zerolog.Logger) (*sqlx.DB, error) {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		var db *sqlx.DB
		db, err = sqlx.ConnectContext(ctx, "postgres", databaseURL)
		if err == nil {
			logger.Info().Msg("connected to database")
			return db, nil
		}

		logger.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", connectInterval)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectInterval):
		}
	}
	return nil, errors.Wrapf(err, "could not connect to database after %d attempts", connectAttempts)
}

// PostgresStore keeps each spec as a JSONB row.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the reminders table if missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create reminders table")
	}
	return nil
}

type reminderRow struct {
	ID      string `db:"id"`
	Payload []byte `db:"payload"`
}

func (p *PostgresStore) List(ctx context.Context) ([]reminder.Spec, error) {
	var rows []reminderRow
	err := p.db.SelectContext(ctx, &rows, `SELECT id, payload FROM reminders ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "select reminders")
	}

	out := make([]reminder.Spec, 0, len(rows))
	for _, r := range rows {
		var s reminder.Spec
		if err := json.Unmarshal(r.Payload, &s); err != nil {
			return nil, errors.Wrapf(err, "decode reminder %s", r.ID)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *PostgresStore) Save(ctx context.Context, spec reminder.Spec) error {
	b, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, "encode reminder")
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO reminders (id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		spec.ID, b, spec.CreatedAt, spec.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "upsert reminder %s", spec.ID)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id); err != nil {
		return errors.Wrapf(err, "delete reminder %s", id)
	}
	return nil
}
