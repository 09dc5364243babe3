package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/models"
	"github.com/nijaru/yt-transcribe/storage"
)

type RunReader interface {
	Find(ctx context.Context, id string) (*models.Run, error)
}

type TranscriptReader interface {
	GetTranscript(ctx context.Context, runID string) (*storage.ArchivedTranscript, error)
}

type RunsHandler struct {
	runs        RunReader
	transcripts TranscriptReader
	staleAfter  time.Duration
}

// NewRunsHandler serves run history. A run that has not moved for longer than
// staleAfter is reported as stale; zero disables the check.
func NewRunsHandler(runs RunReader, transcripts TranscriptReader, staleAfter time.Duration) *RunsHandler {
	return &RunsHandler{runs: runs, transcripts: transcripts, staleAfter: staleAfter}
}

// HandleGetRun handles GET /runs/{id}
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "RunsHandler.HandleGetRun"

	if h.runs == nil {
		respondError(w, r, errors.NotFound(op, nil, "Run history is disabled"))
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondError(w, r, errors.InvalidInput(op, nil, "ID is required"))
		return
	}

	run, err := h.runs.Find(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := models.RunResponse{Run: run}
	if h.staleAfter > 0 {
		resp.Stale = run.IsStale(h.staleAfter)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// HandleGetTranscript handles GET /runs/{id}/transcript
func (h *RunsHandler) HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "RunsHandler.HandleGetTranscript"

	if h.transcripts == nil {
		respondError(w, r, errors.NotFound(op, nil, "Transcript archive is disabled"))
		return
	}

	archived, err := h.transcripts.GetTranscript(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, archived)
}
