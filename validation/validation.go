package validation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/models"
)

const DefaultMaxBodyBytes = 1 << 20

type Validator struct {
	maxBodyBytes int64
}

func NewValidator(maxBodyBytes int64) *Validator {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Validator{maxBodyBytes: maxBodyBytes}
}

func (v *Validator) MaxBodyBytes() int64 {
	return v.maxBodyBytes
}

// ValidateSource checks the only thing the service requires of a URL: that
// it is present. Malformed URLs fail later, during fetch or transcription.
func (v *Validator) ValidateSource(req models.SourceRequest) error {
	const op = "Validator.ValidateSource"

	if !req.Valid() {
		return errors.InvalidInput(op, nil, "Invalid URL")
	}
	return nil
}

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	AllowedMethods []string
	RequireJSON    bool
}

// ValidateRequest validates HTTP requests
func (v *Validator) ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "Validator.ValidateRequest"

	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.E(op, nil, fmt.Sprintf("Method %s not allowed", r.Method), http.StatusMethodNotAllowed, errors.KindClient)
		}
	}

	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.E(op, nil, "Content-Type must be application/json", http.StatusUnsupportedMediaType, errors.KindClient)
		}
	}

	if r.ContentLength > v.maxBodyBytes {
		return errors.E(op, nil, "Request body too large", http.StatusRequestEntityTooLarge, errors.KindClient)
	}

	return nil
}
