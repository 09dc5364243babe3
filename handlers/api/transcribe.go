package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/extract"
	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/models"
	"github.com/nijaru/yt-transcribe/pipeline"
	"github.com/nijaru/yt-transcribe/validation"
)

type TranscribeHandler struct {
	service   pipeline.Service
	validator *validation.Validator
	features  models.FeatureSet
}

func NewTranscribeHandler(service pipeline.Service, validator *validation.Validator) *TranscribeHandler {
	return &TranscribeHandler{
		service:   service,
		validator: validator,
		features:  models.DefaultFeatures(),
	}
}

// decode reads and validates the {url} body shared by every POST route.
func (h *TranscribeHandler) decode(w http.ResponseWriter, r *http.Request) (models.SourceRequest, bool) {
	var req models.SourceRequest

	if err := h.validator.ValidateRequest(r, validation.RequestValidationOpts{
		AllowedMethods: []string{http.MethodPost},
	}); err != nil {
		respondError(w, r, err)
		return req, false
	}

	if err := readJSON(w, r, h.validator.MaxBodyBytes(), &req); err != nil {
		respondError(w, r, err)
		return req, false
	}

	if err := h.validator.ValidateSource(req); err != nil {
		respondError(w, r, err)
		return req, false
	}

	logger.FromContext(r.Context()).WithField("url", req.URL).Info("Received request")
	return req, true
}

// HandleProcess handles POST /process
func (h *TranscribeHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.Process(r.Context(), req, h.features)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, models.NewProcessResponse(result.URL, result.RunID, result.Transcript))
}

// HandleUpload handles POST /upload. The URL must point at audio the
// provider can download directly.
func (h *TranscribeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.ProcessRemote(r.Context(), req, h.features)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, models.NewProcessResponse(result.URL, result.RunID, result.Transcript))
}

// HandleDetection handles POST /detection
func (h *TranscribeHandler) HandleDetection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	det, err := h.service.Detect(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"people":   det.Person.Len(),
		"speakers": det.Speakers.Len(),
	}).Info("Detection completed")

	respondJSON(w, r, http.StatusOK, newDetectionResponse(det))
}

// HandleUtterances handles POST /utterances?field=text|speaker|start|end.
// The field defaults to text.
func (h *TranscribeHandler) HandleUtterances(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("field")
	if name == "" {
		name = extract.FieldText.String()
	}
	field, err := extract.ParseField(name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	det, err := h.service.Detect(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, newUtterancesResponse(det, field))
}

// HandleInfo handles POST /info
func (h *TranscribeHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	info, err := h.service.Info(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, info)
}

func newDetectionResponse(det *pipeline.Detection) *models.DetectionResponse {
	return &models.DetectionResponse{
		VideoURL:      det.URL,
		Transcript:    det.Transcript,
		Person:        extract.Sorted(det.Person),
		Organization:  extract.Sorted(det.Organization),
		Location:      extract.Sorted(det.Location),
		UtteranceText: extract.Sorted(det.UtteranceText),
		Speakers:      extract.Sorted(det.Speakers),
		Starts:        extract.SortedTimes(det.Starts),
		Ends:          extract.SortedTimes(det.Ends),
		RunID:         det.RunID,
	}
}

func newUtterancesResponse(det *pipeline.Detection, field extract.Field) *models.UtterancesResponse {
	resp := &models.UtterancesResponse{
		VideoURL: det.URL,
		Field:    field.String(),
		RunID:    det.RunID,
	}
	switch field {
	case extract.FieldSpeaker:
		resp.Values = extract.Sorted(det.Speakers)
	case extract.FieldStart:
		resp.Values = extract.SortedTimes(det.Starts)
	case extract.FieldEnd:
		resp.Values = extract.SortedTimes(det.Ends)
	default:
		resp.Values = extract.Sorted(det.UtteranceText)
	}
	return resp
}
