package repository

import (
	"context"
	"time"

	"github.com/nijaru/yt-transcribe/models"
)

// RunRepository stores pipeline run history. It never stores audio or
// transcript content.
type RunRepository interface {
	Save(ctx context.Context, run *models.Run) error
	Find(ctx context.Context, id string) (*models.Run, error)
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}
