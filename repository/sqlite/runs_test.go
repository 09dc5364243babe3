package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/models"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"), DefaultDBConfig())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	repo := NewRepository(db)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndFind(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	run := models.NewRun("run-1", "https://youtu.be/abc", "/process")
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	run.State = models.StateDone
	run.Source = "youtube"
	run.UpdatedAt = time.Now()
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("expected no error on update, got %v", err)
	}

	got, err := repo.Find(ctx, "run-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.State != models.StateDone {
		t.Errorf("expected state %s, got %s", models.StateDone, got.State)
	}
	if got.Source != "youtube" {
		t.Errorf("expected source youtube, got %q", got.Source)
	}
	if got.Route != "/process" || got.URL != "https://youtu.be/abc" {
		t.Errorf("unexpected run %+v", got)
	}
	if got.Error != "" {
		t.Errorf("expected empty error, got %q", got.Error)
	}
}

func TestFindNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFailStale(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	old := models.NewRun("old", "u", "/process")
	old.State = models.StateTranscribing
	old.UpdatedAt = time.Now().Add(-2 * time.Hour)

	finished := models.NewRun("finished", "u", "/process")
	finished.State = models.StateDone
	finished.UpdatedAt = time.Now().Add(-2 * time.Hour)

	fresh := models.NewRun("fresh", "u", "/process")
	fresh.State = models.StateFetching

	for _, r := range []*models.Run{old, finished, fresh} {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.FailStale(ctx, time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stale run, got %d", n)
	}

	got, _ := repo.Find(ctx, "old")
	if got.State != models.StateFailed {
		t.Errorf("expected failed, got %s", got.State)
	}
	got, _ = repo.Find(ctx, "fresh")
	if got.State != models.StateFetching {
		t.Errorf("expected fetching, got %s", got.State)
	}
}

func TestIsLockError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{fmt.Errorf("save run: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), true},
		{sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{errors.New("line busy"), false},
		{errors.New("database is locked"), false},
	}
	for _, tt := range tests {
		if got := isLockError(tt.err); got != tt.want {
			t.Errorf("isLockError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
