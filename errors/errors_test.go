package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := InvalidInput("op", nil, "test message")

	if err.Code != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, err.Code)
	}

	if err.Error() != "test message" {
		t.Errorf("expected error string 'test message', got '%s'", err.Error())
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("cause error")
	err := Internal("op", cause, "test message")

	expected := "test message: cause error"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}
	if !Is(err, cause) {
		t.Error("expected wrapped cause to be reachable with Is")
	}
}

func TestTranscriptionFailedDetail(t *testing.T) {
	err := TranscriptionFailed("op", nil, "audio too short")
	if err.Message != "Transcription failed: audio too short" {
		t.Errorf("unexpected message %q", err.Message)
	}

	bare := TranscriptionFailed("op", nil, "")
	if bare.Message != "Transcription failed" {
		t.Errorf("unexpected message %q", bare.Message)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"client", InvalidInput("op", nil, "bad"), KindClient},
		{"fetch", FetchFailed("op", nil), KindFetch},
		{"config", ConfigMissing("op", nil, "no key"), KindConfig},
		{"transcription", TranscriptionFailed("op", nil, "x"), KindTranscription},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("op", nil, "gone")), KindNotFound},
		{"plain", fmt.Errorf("standard error"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected int
	}{
		{"invalid input", InvalidInput("op", nil, "x"), http.StatusBadRequest},
		{"not found", NotFound("op", nil, "x"), http.StatusNotFound},
		{"fetch failed", FetchFailed("op", nil), http.StatusInternalServerError},
		{"config missing", ConfigMissing("op", nil, "x"), http.StatusInternalServerError},
		{"rate limit", TooManyRequests("op"), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.expected {
				t.Errorf("expected code %d, got %d", tt.expected, tt.err.Code)
			}
		})
	}
}
