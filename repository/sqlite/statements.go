package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nijaru/yt-transcribe/errors"
)

const (
	upsertRunQuery = `
        INSERT INTO runs (
            id, url, route, state, source, error, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            state = excluded.state,
            source = excluded.source,
            error = excluded.error,
            updated_at = excluded.updated_at
    `

	getRunQuery = `
        SELECT id, url, route, state, source, error, created_at, updated_at
        FROM runs WHERE id = ?
    `

	failStaleRunsQuery = `
        UPDATE runs SET
            state = ?,
            error = ?,
            updated_at = ?
        WHERE state NOT IN (?, ?) AND updated_at < ?
    `
)

type PreparedStatements struct {
	upsert    *sql.Stmt
	get       *sql.Stmt
	failStale *sql.Stmt
}

func (stmts *PreparedStatements) Prepare(ctx context.Context, db *sql.DB) error {
	const op = "PreparedStatements.Prepare"

	var err error

	if stmts.upsert, err = db.PrepareContext(ctx, upsertRunQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare upsert statement")
	}

	if stmts.get, err = db.PrepareContext(ctx, getRunQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare get statement")
	}

	if stmts.failStale, err = db.PrepareContext(ctx, failStaleRunsQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare failStale statement")
	}

	return nil
}

func (stmts *PreparedStatements) Close() error {
	var errs []error

	for _, stmt := range [...]*sql.Stmt{stmts.upsert, stmts.get, stmts.failStale} {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close prepared statements: %v", errs)
	}

	return nil
}
