package pipeline

import (
	"context"

	"github.com/nijaru/yt-transcribe/extract"
	"github.com/nijaru/yt-transcribe/models"
)

// Route names recorded in run history.
const (
	RouteProcess   = "/process"
	RouteUpload    = "/upload"
	RouteDetection = "/detection"
)

type Service interface {
	// Process downloads the audio behind req.URL, transcribes it and removes
	// the scratch file before returning.
	Process(ctx context.Context, req models.SourceRequest, features models.FeatureSet) (*Result, error)

	// ProcessRemote transcribes an audio URL the provider can fetch itself.
	ProcessRemote(ctx context.Context, req models.SourceRequest, features models.FeatureSet) (*Result, error)

	// Detect is Process followed by entity and utterance filtering.
	Detect(ctx context.Context, req models.SourceRequest) (*Detection, error)

	// Info returns video metadata without downloading.
	Info(ctx context.Context, req models.SourceRequest) (*models.VideoInfo, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url, stem string) (*models.AudioAsset, error)
}

type InfoSource interface {
	Info(ctx context.Context, url string) (*models.VideoInfo, error)
}

type Transcriber interface {
	TranscribeFile(ctx context.Context, path string, features models.FeatureSet) (*models.Transcript, error)
	TranscribeURL(ctx context.Context, audioURL string, features models.FeatureSet) (*models.Transcript, error)
}

// RunRecorder persists state transitions. Failures never fail a request.
type RunRecorder interface {
	Save(ctx context.Context, run *models.Run) error
}

// Archiver stores finished transcripts. Failures never fail a request.
type Archiver interface {
	SaveTranscript(ctx context.Context, runID, url string, t *models.Transcript) error
}

type Result struct {
	RunID      string
	URL        string
	Source     string
	Transcript *models.Transcript
}

// Detection holds the filtered views. All sets are unordered.
type Detection struct {
	RunID         string
	URL           string
	Transcript    string
	Person        extract.StringSet
	Organization  extract.StringSet
	Location      extract.StringSet
	UtteranceText extract.StringSet
	Speakers      extract.StringSet
	Starts        extract.Set[int64]
	Ends          extract.Set[int64]
}
