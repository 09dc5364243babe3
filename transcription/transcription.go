package transcription

import (
	"context"
	"net/http"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/models"
)

const DefaultTimeout = 10 * time.Minute

// ErrMissingCredential means no provider API key was configured.
var ErrMissingCredential = errors.New("ASSEMBLYAI_API_KEY is not set")

// Config is resolved once at startup and never changes afterwards.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Backend submits audio to the provider and blocks until the job finishes.
type Backend interface {
	TranscribeFile(ctx context.Context, path string, params *aai.TranscriptOptionalParams) (aai.Transcript, error)
	TranscribeURL(ctx context.Context, audioURL string, params *aai.TranscriptOptionalParams) (aai.Transcript, error)
}

type Service struct {
	cfg     Config
	backend Backend
}

type Option func(*Service)

// WithBackend replaces the AssemblyAI backend.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		s.backend = b
	}
}

func New(cfg Config, opts ...Option) (*Service, error) {
	const op = "transcription.New"

	if cfg.APIKey == "" {
		return nil, errors.ConfigMissing(op, ErrMissingCredential, "Transcription API key not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = NewAssemblyAI(cfg, &http.Client{})
	}
	return s, nil
}

// TranscribeFile uploads a local audio file and returns the finished transcript.
func (s *Service) TranscribeFile(ctx context.Context, path string, features models.FeatureSet) (*models.Transcript, error) {
	return s.transcribe(ctx, "Service.TranscribeFile", path, features,
		func(ctx context.Context, target string, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
			return s.backend.TranscribeFile(ctx, target, params)
		})
}

// TranscribeURL transcribes audio the provider can fetch itself.
func (s *Service) TranscribeURL(ctx context.Context, audioURL string, features models.FeatureSet) (*models.Transcript, error) {
	return s.transcribe(ctx, "Service.TranscribeURL", audioURL, features,
		func(ctx context.Context, target string, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
			return s.backend.TranscribeURL(ctx, target, params)
		})
}

type submitFunc func(ctx context.Context, target string, params *aai.TranscriptOptionalParams) (aai.Transcript, error)

// transcribe runs one provider job per entry of Jobs(features). A follow-up
// summary job reuses the audio URL the provider reported for the first job,
// so a local file is uploaded once.
func (s *Service) transcribe(
	ctx context.Context,
	op string,
	target string,
	features models.FeatureSet,
	submit submitFunc,
) (*models.Transcript, error) {
	if s.cfg.APIKey == "" || s.backend == nil {
		return nil, errors.ConfigMissing(op, ErrMissingCredential, "Transcription API key not configured")
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"features": features,
	})

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	jobs := Jobs(features)

	log.WithField("jobs", len(jobs)).Debug("Submitting audio for transcription")
	result, err := s.run(ctx, op, timeout, target, jobs[0], submit)
	if err != nil {
		return nil, err
	}
	transcript := FromProvider(result)

	if len(jobs) > 1 {
		next, nextSubmit := target, submit
		if audioURL := deref(result.AudioURL); audioURL != "" {
			next = audioURL
			nextSubmit = func(ctx context.Context, target string, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
				return s.backend.TranscribeURL(ctx, target, params)
			}
		}
		summary, err := s.run(ctx, op, timeout, next, jobs[1], nextSubmit)
		if err != nil {
			return nil, err
		}
		transcript.Summary = deref(summary.Summary)
	}

	log.WithFields(logrus.Fields{
		"transcript_id": transcript.ID,
		"duration":      time.Since(start).String(),
	}).Info("Transcription completed")

	return transcript, nil
}

func (s *Service) run(
	ctx context.Context,
	op string,
	timeout time.Duration,
	target string,
	params *aai.TranscriptOptionalParams,
	submit submitFunc,
) (aai.Transcript, error) {
	result, err := submit(ctx, target, params)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return aai.Transcript{}, errors.TranscriptionFailed(op, err, "timed out after "+timeout.String())
		}
		return aai.Transcript{}, errors.TranscriptionFailed(op, err, providerMessage(err))
	}
	if result.Status == aai.TranscriptStatusError {
		return aai.Transcript{}, errors.TranscriptionFailed(op, nil, deref(result.Error))
	}
	return result, nil
}

const (
	summaryModel = aai.SummaryModel("informative")
	summaryType  = aai.SummaryType("bullets")
)

// Jobs splits a FeatureSet into provider requests. The provider rejects auto
// chapters and summarization in one job, so when both are wanted the summary
// becomes a second job.
func Jobs(features models.FeatureSet) []*aai.TranscriptOptionalParams {
	if features.AutoChapters && features.Summarization {
		primary := features
		primary.Summarization = false
		return []*aai.TranscriptOptionalParams{
			Params(primary),
			Params(models.FeatureSet{Summarization: true}),
		}
	}
	return []*aai.TranscriptOptionalParams{Params(features)}
}

// Params maps a FeatureSet onto provider request parameters. Summarization
// always uses the informative model with bullet output.
func Params(features models.FeatureSet) *aai.TranscriptOptionalParams {
	params := &aai.TranscriptOptionalParams{}
	if features.EntityDetection {
		params.EntityDetection = aai.Bool(true)
	}
	if features.SpeakerLabels {
		params.SpeakerLabels = aai.Bool(true)
	}
	if features.AutoChapters {
		params.AutoChapters = aai.Bool(true)
	}
	if features.Summarization {
		params.Summarization = aai.Bool(true)
		params.SummaryModel = summaryModel
		params.SummaryType = summaryType
	}
	return params
}

// FromProvider converts the SDK transcript, keeping utterances in the order
// the provider returned them.
func FromProvider(t aai.Transcript) *models.Transcript {
	out := &models.Transcript{
		ID:      deref(t.ID),
		Text:    deref(t.Text),
		Summary: deref(t.Summary),
	}

	if len(t.Utterances) > 0 {
		out.Utterances = make([]models.Utterance, 0, len(t.Utterances))
		for _, u := range t.Utterances {
			out.Utterances = append(out.Utterances, models.Utterance{
				Speaker: deref(u.Speaker),
				Text:    deref(u.Text),
				Start:   deref(u.Start),
				End:     deref(u.End),
			})
		}
	}

	if len(t.Entities) > 0 {
		out.Entities = make([]models.Entity, 0, len(t.Entities))
		for _, e := range t.Entities {
			out.Entities = append(out.Entities, models.Entity{
				EntityType: string(e.EntityType),
				Text:       deref(e.Text),
			})
		}
	}

	if len(t.Chapters) > 0 {
		out.Chapters = make([]models.Chapter, 0, len(t.Chapters))
		for _, c := range t.Chapters {
			out.Chapters = append(out.Chapters, models.Chapter{
				Gist:     deref(c.Gist),
				Headline: deref(c.Headline),
				Summary:  deref(c.Summary),
				Start:    deref(c.Start),
				End:      deref(c.End),
			})
		}
	}

	return out
}

func providerMessage(err error) string {
	var apiErr aai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
