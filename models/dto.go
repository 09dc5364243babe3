package models

// ProcessResponse is returned by /process and /upload.
type ProcessResponse struct {
	VideoURL   string      `json:"video_url"`
	Transcript string      `json:"transcript"`
	Entity     []Entity    `json:"entity,omitempty"`
	Utterance  []Utterance `json:"utterance,omitempty"`
	Chapters   []Chapter   `json:"chapters,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	RunID      string      `json:"run_id,omitempty"`
}

// NewProcessResponse creates a response from a transcript
func NewProcessResponse(url, runID string, t *Transcript) *ProcessResponse {
	return &ProcessResponse{
		VideoURL:   url,
		Transcript: t.Text,
		Entity:     t.Entities,
		Utterance:  t.Utterances,
		Chapters:   t.Chapters,
		Summary:    t.Summary,
		RunID:      runID,
	}
}

// DetectionResponse is returned by /detection. Every list is built from an
// unordered set.
type DetectionResponse struct {
	VideoURL      string   `json:"video_url"`
	Transcript    string   `json:"transcript"`
	Person        []string `json:"person"`
	Organization  []string `json:"organization"`
	Location      []string `json:"location"`
	UtteranceText []string `json:"utterance_text"`
	Speakers      []string `json:"speakers"`
	Starts        []int64  `json:"starts"`
	Ends          []int64  `json:"ends"`
	RunID         string   `json:"run_id,omitempty"`
}

// UtterancesResponse is returned by /utterances. Values holds strings for
// the text and speaker fields and millisecond offsets for start and end.
type UtterancesResponse struct {
	VideoURL string `json:"video_url"`
	Field    string `json:"field"`
	Values   any    `json:"values"`
	RunID    string `json:"run_id,omitempty"`
}

// RunResponse is returned by /runs/{id}. Stale marks a run that stopped
// making progress before reaching a terminal state.
type RunResponse struct {
	*Run
	Stale bool `json:"stale,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
