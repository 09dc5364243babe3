package media

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/pkg/errors"

	"github.com/nijaru/yt-transcribe/models"
)

const youtubeSourceName = "youtube"

type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// YouTubeSource downloads audio in-process with the kkdai/youtube client.
type YouTubeSource struct {
	client videoClient
}

func NewYouTubeSource() *YouTubeSource {
	return &YouTubeSource{client: &youtube.Client{}}
}

func (s *YouTubeSource) Name() string { return youtubeSourceName }

func (s *YouTubeSource) Fetch(ctx context.Context, url, dest string) (*models.AudioAsset, error) {
	const op = "YouTubeSource.Fetch"

	video, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, newFetchError(youtubeSourceName, op, err, "failed to resolve video")
	}

	format := selectAudioFormat(video.Formats)
	if format == nil {
		return nil, newFetchError(youtubeSourceName, op, nil, "no stream with audio found")
	}

	stream, _, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, newFetchError(youtubeSourceName, op, err, "failed to open stream")
	}
	defer stream.Close()

	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	download := base + containerExt(format.MimeType)

	if err := writeStream(download, stream); err != nil {
		os.Remove(download)
		return nil, newFetchError(youtubeSourceName, op, err, "failed to write stream")
	}

	if err := replaceFile(download, dest); err != nil {
		os.Remove(download)
		return nil, newFetchError(youtubeSourceName, op, err, "failed to rename download")
	}

	return &models.AudioAsset{
		LocalPath: dest,
		Format:    strings.TrimPrefix(filepath.Ext(dest), "."),
	}, nil
}

// Info resolves metadata for url without downloading any stream.
func (s *YouTubeSource) Info(ctx context.Context, url string) (*models.VideoInfo, error) {
	const op = "YouTubeSource.Info"

	video, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, newFetchError(youtubeSourceName, op, err, "failed to resolve video")
	}

	return &models.VideoInfo{
		VideoID: video.ID,
		Length:  int64(video.Duration.Seconds()),
		Title:   video.Title,
		Author:  video.Author,
	}, nil
}

// selectAudioFormat prefers audio-only formats with the highest bitrate and
// falls back to any format that carries audio, again by bitrate.
func selectAudioFormat(formats youtube.FormatList) *youtube.Format {
	var audioOnly, withAudio []youtube.Format
	for _, f := range formats {
		switch {
		case strings.HasPrefix(f.MimeType, "audio/"):
			audioOnly = append(audioOnly, f)
		case f.AudioChannels > 0:
			withAudio = append(withAudio, f)
		}
	}

	candidates := audioOnly
	if len(candidates) == 0 {
		candidates = withAudio
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	best := candidates[0]
	return &best
}

// containerExt maps a stream MIME type such as `audio/mp4; codecs="mp4a.40.2"`
// to a file extension.
func containerExt(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = mimeType
	}
	if i := strings.IndexByte(mediaType, '/'); i >= 0 && i < len(mediaType)-1 {
		return "." + mediaType[i+1:]
	}
	return ".bin"
}

func writeStream(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to copy stream")
	}
	return f.Close()
}
