package media

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/models"
)

const ytDlpSourceName = "yt-dlp"

// commandRunner executes an external program and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YtDlpSource shells out to yt-dlp, which extracts audio in the target
// format itself.
type YtDlpSource struct {
	binary string
	run    commandRunner
}

func NewYtDlpSource(binary string) *YtDlpSource {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlpSource{binary: binary, run: runCommand}
}

func (s *YtDlpSource) Name() string { return ytDlpSourceName }

func (s *YtDlpSource) Fetch(ctx context.Context, url, dest string) (*models.AudioAsset, error) {
	const op = "YtDlpSource.Fetch"

	ext := filepath.Ext(dest)
	format := strings.TrimPrefix(ext, ".")
	base := strings.TrimSuffix(dest, ext)
	workDir := base + ".ytdlp"

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, newFetchError(ytDlpSourceName, op, err, "failed to create work directory")
	}
	defer os.RemoveAll(workDir)

	template := filepath.Join(workDir, filepath.Base(base)+".%(ext)s")
	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", format,
		"-o", template,
		url,
	}

	logger.FromContext(ctx).WithField("args", args).Debug("Executing yt-dlp")

	if _, err := s.run(ctx, s.binary, args...); err != nil {
		return nil, newFetchError(ytDlpSourceName, op, err, "yt-dlp execution failed")
	}

	produced := filepath.Join(workDir, filepath.Base(dest))
	if _, err := os.Stat(produced); err != nil {
		return nil, newFetchError(ytDlpSourceName, op, err, "yt-dlp produced no audio file")
	}

	if err := replaceFile(produced, dest); err != nil {
		return nil, newFetchError(ytDlpSourceName, op, err, "failed to move audio file")
	}

	return &models.AudioAsset{LocalPath: dest, Format: format}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
