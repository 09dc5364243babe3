package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/models"
	"github.com/nijaru/yt-transcribe/repository"
)

var _ repository.RunRepository = (*Repository)(nil)

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, run *models.Run) error {
	const op = "SQLiteRepository.Save"

	err := r.withRetry(ctx, func() error {
		_, err := r.db.statements.upsert.ExecContext(ctx,
			run.ID,
			run.URL,
			run.Route,
			string(run.State),
			nullString(run.Source),
			nullString(run.Error),
			run.CreatedAt.UTC(),
			run.UpdatedAt.UTC(),
		)
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "Failed to save run")
	}
	return nil
}

func (r *Repository) Find(ctx context.Context, id string) (*models.Run, error) {
	const op = "SQLiteRepository.Find"

	run := &models.Run{}
	var state string
	var source, runErr sql.NullString

	err := r.db.statements.get.QueryRowContext(ctx, id).Scan(
		&run.ID,
		&run.URL,
		&run.Route,
		&state,
		&source,
		&runErr,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Run not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query run")
	}

	run.State = models.State(state)
	run.Source = source.String
	run.Error = runErr.String
	return run, nil
}

// FailStale marks runs left in a non-terminal state for longer than
// olderThan as failed, e.g. after a crash. It returns the number of rows
// changed.
func (r *Repository) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	const op = "SQLiteRepository.FailStale"

	now := time.Now().UTC()
	var affected int64
	err := r.withRetry(ctx, func() error {
		res, err := r.db.statements.failStale.ExecContext(ctx,
			string(models.StateFailed),
			"abandoned",
			now,
			string(models.StateDone),
			string(models.StateFailed),
			now.Add(-olderThan),
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.Internal(op, err, "Failed to update stale runs")
	}
	return affected, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// withRetry retries fn while sqlite reports lock contention. Other errors
// are returned immediately.
func (r *Repository) withRetry(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.db.config.RetryDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, r.db.config.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !isLockError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func isLockError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
