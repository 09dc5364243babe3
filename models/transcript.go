package models

// FeatureSet selects the optional analyses requested from the provider.
type FeatureSet struct {
	EntityDetection bool `json:"entity_detection"`
	SpeakerLabels   bool `json:"speaker_labels"`
	AutoChapters    bool `json:"auto_chapters"`
	Summarization   bool `json:"summarization"`
}

// DefaultFeatures is what /process and /upload request.
func DefaultFeatures() FeatureSet {
	return FeatureSet{
		EntityDetection: true,
		SpeakerLabels:   true,
		AutoChapters:    true,
		Summarization:   true,
	}
}

// DetectionFeatures is what /detection requests.
func DetectionFeatures() FeatureSet {
	return FeatureSet{
		EntityDetection: true,
		SpeakerLabels:   true,
	}
}

type Transcript struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	Utterances []Utterance `json:"utterances"`
	Entities   []Entity    `json:"entities"`
	Chapters   []Chapter   `json:"chapters,omitempty"`
	Summary    string      `json:"summary,omitempty"`
}

// Utterance timestamps are in milliseconds.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

type Entity struct {
	EntityType string `json:"entity_type"`
	Text       string `json:"text"`
}

type Chapter struct {
	Gist     string `json:"gist"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
}
