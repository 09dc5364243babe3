package transcription

import (
	"context"
	"net/http"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/pkg/errors"
)

// AssemblyAI is the production Backend. The SDK uploads local files, submits
// the job and polls until it completes.
type AssemblyAI struct {
	client *aai.Client
}

func NewAssemblyAI(cfg Config, httpClient *http.Client) *AssemblyAI {
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, aai.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, aai.WithHTTPClient(httpClient))
	}
	return &AssemblyAI{client: aai.NewClientWithOptions(opts...)}
}

func (a *AssemblyAI) TranscribeFile(ctx context.Context, path string, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return aai.Transcript{}, errors.Wrapf(err, "failed to open audio file %s", path)
	}
	defer f.Close()

	return a.client.Transcripts.TranscribeFromReader(ctx, f, params)
}

func (a *AssemblyAI) TranscribeURL(ctx context.Context, audioURL string, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
	return a.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
}
