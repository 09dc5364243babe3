package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the client-facing response.
type Kind string

const (
	KindClient        Kind = "client"
	KindNotFound      Kind = "not_found"
	KindFetch         Kind = "fetch"
	KindConfig        Kind = "config"
	KindTranscription Kind = "transcription"
	KindRateLimit     Kind = "rate_limit"
	KindInternal      Kind = "internal"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func E(op string, err error, message string, code int, kind Kind) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest, KindClient)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound, KindNotFound)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError, KindInternal)
}

// FetchFailed reports that no audio source produced an asset.
func FetchFailed(op string, err error) *AppError {
	return E(op, err, "An error occurred while downloading the video or audio", http.StatusInternalServerError, KindFetch)
}

// ConfigMissing reports a fatal configuration problem such as an absent credential.
func ConfigMissing(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError, KindConfig)
}

// TranscriptionFailed carries the provider's message to the client.
func TranscriptionFailed(op string, err error, detail string) *AppError {
	msg := "Transcription failed"
	if detail != "" {
		msg = msg + ": " + detail
	}
	return E(op, err, msg, http.StatusInternalServerError, KindTranscription)
}

func TooManyRequests(op string) *AppError {
	return E(op, nil, "Rate limit exceeded", http.StatusTooManyRequests, KindRateLimit)
}

// KindOf returns the Kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func New(text string) error {
	return stderrors.New(text)
}
