package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/models"
)

// tracker walks one run through its states and mirrors each transition to
// the recorder, if any.
type tracker struct {
	run      *models.Run
	recorder RunRecorder
}

func (t *tracker) to(ctx context.Context, state models.State) {
	if t.run.State.Terminal() {
		return
	}
	t.run.State = state
	t.run.UpdatedAt = time.Now()
	t.record(ctx)
}

func (t *tracker) fail(ctx context.Context, err error) {
	if t.run.State.Terminal() {
		return
	}
	logger.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
		"run_id": t.run.ID,
		"state":  t.run.State,
	}).Warn("Run failed")

	t.run.Error = err.Error()
	t.run.State = models.StateFailed
	t.run.UpdatedAt = time.Now()
	t.record(ctx)
}

func (t *tracker) record(ctx context.Context) {
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"run_id": t.run.ID,
		"state":  t.run.State,
	}).Debug("Run state changed")

	if t.recorder == nil {
		return
	}
	if err := t.recorder.Save(ctx, t.run); err != nil {
		logger.FromContext(ctx).WithError(err).
			WithField("run_id", t.run.ID).
			Warn("Failed to record run state")
	}
}
