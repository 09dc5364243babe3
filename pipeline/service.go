package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/extract"
	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/media"
	"github.com/nijaru/yt-transcribe/models"
)

type service struct {
	fetcher     Fetcher
	info        InfoSource
	transcriber Transcriber
	recorder    RunRecorder
	archiver    Archiver

	fetchTimeout time.Duration

	newID  func() string
	remove func(ctx context.Context, path string)
}

type Option func(*service)

func WithRecorder(r RunRecorder) Option {
	return func(s *service) { s.recorder = r }
}

func WithArchiver(a Archiver) Option {
	return func(s *service) { s.archiver = a }
}

// WithFetchTimeout bounds the download stage on its own. Zero leaves it
// bounded by the request context only.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *service) { s.fetchTimeout = d }
}

func NewService(fetcher Fetcher, info InfoSource, transcriber Transcriber, opts ...Option) Service {
	s := &service{
		fetcher:     fetcher,
		info:        info,
		transcriber: transcriber,
		newID:       uuid.NewString,
		remove:      media.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Process(ctx context.Context, req models.SourceRequest, features models.FeatureSet) (*Result, error) {
	const op = "Pipeline.Process"

	t, err := s.begin(ctx, op, req, RouteProcess)
	if err != nil {
		return nil, err
	}
	ctx = withRun(ctx, t)

	asset, err := s.fetch(ctx, op, t, req.URL)
	if err != nil {
		return nil, err
	}

	transcript, err := s.execute(ctx, op, t, asset,
		func(ctx context.Context) (*models.Transcript, error) {
			return s.transcriber.TranscribeFile(ctx, asset.LocalPath, features)
		}, nil)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, t, transcript)
	return &Result{RunID: t.run.ID, URL: req.URL, Source: asset.Source, Transcript: transcript}, nil
}

func (s *service) ProcessRemote(ctx context.Context, req models.SourceRequest, features models.FeatureSet) (*Result, error) {
	const op = "Pipeline.ProcessRemote"

	t, err := s.begin(ctx, op, req, RouteUpload)
	if err != nil {
		return nil, err
	}
	ctx = withRun(ctx, t)
	t.run.Source = "remote"

	transcript, err := s.execute(ctx, op, t, nil,
		func(ctx context.Context) (*models.Transcript, error) {
			return s.transcriber.TranscribeURL(ctx, req.URL, features)
		}, nil)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, t, transcript)
	return &Result{RunID: t.run.ID, URL: req.URL, Source: t.run.Source, Transcript: transcript}, nil
}

func (s *service) Detect(ctx context.Context, req models.SourceRequest) (*Detection, error) {
	const op = "Pipeline.Detect"

	t, err := s.begin(ctx, op, req, RouteDetection)
	if err != nil {
		return nil, err
	}
	ctx = withRun(ctx, t)

	asset, err := s.fetch(ctx, op, t, req.URL)
	if err != nil {
		return nil, err
	}

	var det *Detection
	transcript, err := s.execute(ctx, op, t, asset,
		func(ctx context.Context) (*models.Transcript, error) {
			return s.transcriber.TranscribeFile(ctx, asset.LocalPath, models.DetectionFeatures())
		},
		func(tr *models.Transcript) error {
			var err error
			det, err = detect(tr)
			return err
		})
	if err != nil {
		return nil, err
	}

	s.archive(ctx, t, transcript)
	det.RunID = t.run.ID
	det.URL = req.URL
	return det, nil
}

func (s *service) Info(ctx context.Context, req models.SourceRequest) (*models.VideoInfo, error) {
	const op = "Pipeline.Info"

	if !req.Valid() {
		return nil, errors.InvalidInput(op, nil, "Invalid URL")
	}

	info, err := s.info.Info(ctx, req.URL)
	if err != nil {
		return nil, errors.FetchFailed(op, err)
	}
	return info, nil
}

// begin validates the request and opens a run in the received state.
func (s *service) begin(ctx context.Context, op string, req models.SourceRequest, route string) (*tracker, error) {
	t := &tracker{
		run:      models.NewRun(s.newID(), req.URL, route),
		recorder: s.recorder,
	}
	t.record(ctx)

	if !req.Valid() {
		err := errors.InvalidInput(op, nil, "Invalid URL")
		t.fail(ctx, err)
		return nil, err
	}
	return t, nil
}

func (s *service) fetch(ctx context.Context, op string, t *tracker, url string) (*models.AudioAsset, error) {
	t.to(ctx, models.StateFetching)

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	asset, err := s.fetcher.Fetch(fetchCtx, url, t.run.ID)
	if err == nil && asset == nil {
		err = media.ErrNoAudio
	}
	if err != nil {
		appErr := errors.FetchFailed(op, err)
		t.fail(ctx, appErr)
		return nil, appErr
	}

	t.run.Source = asset.Source
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"source": asset.Source,
		"format": asset.Format,
	}).Info("Audio downloaded")
	return asset, nil
}

type transcribeFunc func(ctx context.Context) (*models.Transcript, error)

// execute runs the transcribing and extracting stages. When asset is set its
// scratch file is removed exactly once before execute returns, whatever the
// outcome, including a panic during extraction.
func (s *service) execute(
	ctx context.Context,
	op string,
	t *tracker,
	asset *models.AudioAsset,
	transcribe transcribeFunc,
	extractFn func(*models.Transcript) error,
) (transcript *models.Transcript, err error) {
	defer func() {
		if p := recover(); p != nil {
			transcript = nil
			err = errors.Internal(op, fmt.Errorf("panic: %v", p), "Failed to process transcript")
		}
		if asset != nil {
			if err == nil {
				t.to(ctx, models.StateCleanup)
			}
			s.remove(ctx, asset.LocalPath)
		}
		if err != nil {
			t.fail(ctx, err)
			return
		}
		t.to(ctx, models.StateDone)
	}()

	t.to(ctx, models.StateTranscribing)
	transcript, err = transcribe(ctx)
	if err != nil {
		var appErr *errors.AppError
		if !errors.As(err, &appErr) {
			err = errors.TranscriptionFailed(op, err, err.Error())
		}
		return nil, err
	}

	t.to(ctx, models.StateExtracting)
	if extractFn != nil {
		if err := extractFn(transcript); err != nil {
			return nil, err
		}
	}
	return transcript, nil
}

func (s *service) archive(ctx context.Context, t *tracker, transcript *models.Transcript) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.SaveTranscript(ctx, t.run.ID, t.run.URL, transcript); err != nil {
		logger.FromContext(ctx).WithError(err).
			WithField("run_id", t.run.ID).
			Warn("Failed to archive transcript")
	}
}

func detect(tr *models.Transcript) (*Detection, error) {
	det := &Detection{
		Transcript:   tr.Text,
		Person:       extract.EntitiesByCategory(tr.Entities, extract.CategoryPerson),
		Organization: extract.EntitiesByCategory(tr.Entities, extract.CategoryOrganization),
		Location:     extract.EntitiesByCategory(tr.Entities, extract.CategoryLocation),
	}

	for _, field := range []extract.Field{extract.FieldText, extract.FieldSpeaker, extract.FieldStart, extract.FieldEnd} {
		set, err := extract.UtterancesByField(tr.Utterances, field)
		if err != nil {
			return nil, err
		}
		switch field {
		case extract.FieldText:
			det.UtteranceText = set.Strings
		case extract.FieldSpeaker:
			det.Speakers = set.Strings
		case extract.FieldStart:
			det.Starts = set.Times
		case extract.FieldEnd:
			det.Ends = set.Times
		}
	}
	return det, nil
}

func withRun(ctx context.Context, t *tracker) context.Context {
	return logger.WithContext(ctx, logger.FromContext(ctx).WithField("run_id", t.run.ID))
}
