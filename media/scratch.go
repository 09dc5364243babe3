package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nijaru/yt-transcribe/logger"
)

// Scratch hands out request-scoped file paths under a single directory.
type Scratch struct {
	Dir string
	Ext string
}

func NewScratch(dir, ext string) *Scratch {
	if ext == "" {
		ext = ".m4a"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Scratch{Dir: dir, Ext: ext}
}

// Ensure creates the scratch directory if it is absent.
func (s *Scratch) Ensure() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create scratch directory %s", s.Dir)
	}
	return nil
}

// Path returns the final asset path for stem.
func (s *Scratch) Path(stem string) string {
	return filepath.Join(s.Dir, stem+s.Ext)
}

// Remove deletes path. A missing file is not an error; any other failure
// is logged as a cleanup warning and swallowed.
func Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return
	}
	logger.FromContext(ctx).WithError(err).
		WithField("path", path).
		Warn("CleanupWarning: failed to remove scratch file")
}

// replaceFile moves src to dst, removing any existing file at dst first.
func replaceFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove existing %s", dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.Wrapf(err, "failed to rename %s", src)
	}
	return nil
}
