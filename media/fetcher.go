package media

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/models"
)

// AudioSource is one strategy for turning a video URL into a local audio file.
// dest is the final path, including the target extension.
type AudioSource interface {
	Name() string
	Fetch(ctx context.Context, url, dest string) (*models.AudioAsset, error)
}

// Fetcher tries its sources in order and returns the first asset produced.
type Fetcher struct {
	scratch *Scratch
	sources []AudioSource
}

func NewFetcher(scratch *Scratch, sources ...AudioSource) *Fetcher {
	return &Fetcher{scratch: scratch, sources: sources}
}

// Fetch downloads url into a scratch file named after stem. On failure no
// scratch file is left behind.
func (f *Fetcher) Fetch(ctx context.Context, url, stem string) (*models.AudioAsset, error) {
	log := logger.FromContext(ctx)

	if len(f.sources) == 0 {
		return nil, errors.Wrap(ErrNoAudio, "no audio sources configured")
	}
	if err := f.scratch.Ensure(); err != nil {
		return nil, err
	}

	dest := f.scratch.Path(stem)
	var lastErr error
	for _, src := range f.sources {
		asset, err := src.Fetch(ctx, url, dest)
		if err == nil && asset != nil {
			asset.Source = src.Name()
			log.WithFields(logrus.Fields{
				"source": src.Name(),
				"path":   asset.LocalPath,
			}).Debug("Audio fetched")
			return asset, nil
		}
		if err == nil {
			err = newFetchError(src.Name(), "Fetcher.Fetch", nil, "source returned no asset")
		}
		lastErr = err
		log.WithError(err).WithField("source", src.Name()).Warn("Audio source failed")
		Remove(ctx, dest)
	}

	return nil, errors.Wrapf(ErrNoAudio, "all sources failed, last error: %v", lastErr)
}
