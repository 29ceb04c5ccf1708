package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
)

// Postgres implements Store on a single versioned key-value table.
// Each AtomicCommit runs inside one SQL transaction: checked rows are
// locked, versions compared, and writes applied only if every check
// holds. Version tokens come from one global sequence, so a re-created
// key never repeats a version from a prior incarnation.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the kv_entries table and the version sequence
// if they do not exist. The seq column preserves insertion order for
// List.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key     TEXT PRIMARY KEY,
			value   BYTEA NOT NULL,
			version BIGINT NOT NULL,
			seq     BIGSERIAL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, `CREATE SEQUENCE IF NOT EXISTS kv_versions`); err != nil {
		return fmt.Errorf("failed to create kv_versions sequence: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := p.db.QueryRowContext(ctx,
		`SELECT key, value, version FROM kv_entries WHERE key = $1`, key,
	).Scan(&e.Key, &e.Value, &e.Version)
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return e, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, version)
		VALUES ($1, $2, nextval('kv_versions'))
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, version = nextval('kv_versions')
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT key, value, version FROM kv_entries
		WHERE key LIKE $1 || '%'
		ORDER BY seq
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %q: %w", prefix, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.Version); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating entries: %w", err)
	}
	return out, nil
}

func (p *Postgres) AtomicCommit(ctx context.Context, checks []Check, writes []Write) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("Warning: commit rollback failed: %v", rbErr)
		}
	}()

	// An absent-key check locks no row, so it cannot serialize two
	// racing inserts by itself; those keys are written with a plain
	// INSERT below and the unique index arbitrates.
	absent := make(map[string]bool)

	for _, c := range checks {
		var version int64
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM kv_entries WHERE key = $1 FOR UPDATE`, c.Key,
		).Scan(&version)
		switch {
		case err == sql.ErrNoRows:
			if c.Version != VersionAbsent {
				return ErrConflict
			}
			absent[c.Key] = true
		case err != nil:
			return fmt.Errorf("failed to check %q: %w", c.Key, err)
		default:
			if c.Version == VersionAbsent || version != c.Version {
				return ErrConflict
			}
		}
	}

	for _, w := range writes {
		if w.Delete {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM kv_entries WHERE key = $1`, w.Key); err != nil {
				return fmt.Errorf("failed to delete %q in commit: %w", w.Key, err)
			}
			continue
		}
		if absent[w.Key] {
			// No ON CONFLICT: the loser of a concurrent create must
			// fail, not overwrite the winner's row.
			_, err := tx.ExecContext(ctx, `
				INSERT INTO kv_entries (key, value, version)
				VALUES ($1, $2, nextval('kv_versions'))
			`, w.Key, w.Value)
			if isUniqueViolation(err) {
				return ErrConflict
			}
			if err != nil {
				return fmt.Errorf("failed to insert %q in commit: %w", w.Key, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, version)
			VALUES ($1, $2, nextval('kv_versions'))
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, version = nextval('kv_versions')
		`, w.Key, w.Value); err != nil {
			return fmt.Errorf("failed to write %q in commit: %w", w.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
