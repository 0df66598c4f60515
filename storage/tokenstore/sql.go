package tokenstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_token (
	name       VARCHAR(64) PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore keeps the token in a one-row-per-key table, on sqlite or postgres.
type SQLStore struct {
	db  *sqlx.DB
	key string
}

// OpenSQL connects to dsn with driver ("sqlite" or "postgres") and creates the token table.
// For sqlite, dsn is a file path and its directory is created when missing.
func OpenSQL(ctx context.Context, driver, dsn, key string) (*SQLStore, error) {
	attempts := 1
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, errors.Wrapf(err, "creating %s", dir)
			}
		}
	} else {
		attempts = 10
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening token database")
	}
	if err = ping(ctx, db, attempts); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging token database")
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating token table")
	}
	return &SQLStore{db: db, key: key}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB, maxAttempts int) error {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempts < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
			}
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func (s *SQLStore) Load(ctx context.Context) (string, error) {
	var token string
	q := s.db.Rebind(`SELECT value FROM session_token WHERE name = ?`)
	if err := s.db.GetContext(ctx, &token, q, s.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrap(err, "loading token")
	}
	return token, nil
}

func (s *SQLStore) Save(ctx context.Context, token string) error {
	q := s.db.Rebind(`
		INSERT INTO session_token (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, s.key, token, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "saving token")
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	q := s.db.Rebind(`DELETE FROM session_token WHERE name = ?`)
	if _, err := s.db.ExecContext(ctx, q, s.key); err != nil {
		return errors.Wrap(err, "clearing token")
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
