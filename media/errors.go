package media

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoAudio is returned when every source failed to produce an asset.
var ErrNoAudio = errors.New("download failed")

// FetchError is the failure value a single AudioSource returns.
type FetchError struct {
	Source  string
	Op      string
	Err     error
	Message string
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Source, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Op, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(source, op string, err error, message string) *FetchError {
	return &FetchError{
		Source:  source,
		Op:      op,
		Err:     err,
		Message: message,
	}
}
