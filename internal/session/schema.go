package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion must be bumped whenever schema.sql changes. There are no
// migrations; an outdated database has to be deleted.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Open when the database was written by a
// different schema version or is missing the session tables.
var ErrSchemaMismatch = errors.New("session schema mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&exists); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
				return fmt.Errorf("record schema version: %w", err)
			}
			return nil
		})
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return s.mismatch(fmt.Sprintf("database has version %d, expected %d", version, schemaVersion))
	}
	return s.verifySchema(ctx)
}

// verifySchema checks that both session tables exist and that deleting a
// session still cascades to its candidates.
func (s *Store) verifySchema(ctx context.Context) error {
	for _, table := range []string{"sessions", "candidates"} {
		var n int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&n); err != nil {
			return fmt.Errorf("check %s table: %w", table, err)
		}
		if n == 0 {
			return s.mismatch("missing table " + table)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT "table", "from", on_delete FROM pragma_foreign_key_list('candidates')`)
	if err != nil {
		return fmt.Errorf("read candidate foreign keys: %w", err)
	}
	defer rows.Close()
	cascades := false
	for rows.Next() {
		var parent, column, onDelete string
		if err := rows.Scan(&parent, &column, &onDelete); err != nil {
			return fmt.Errorf("scan candidate foreign key: %w", err)
		}
		if parent == "sessions" && column == "session_id" && onDelete == "CASCADE" {
			cascades = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read candidate foreign keys: %w", err)
	}
	if !cascades {
		return s.mismatch("candidates.session_id does not cascade from sessions")
	}
	return nil
}

func (s *Store) mismatch(detail string) error {
	return fmt.Errorf("%w: %s (delete %s to start over)", ErrSchemaMismatch, detail, s.path)
}
