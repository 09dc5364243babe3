package models

import "strings"

// SourceRequest is the body accepted by every POST route.
type SourceRequest struct {
	URL string `json:"url"`
}

// Valid reports whether the request carries a non-blank URL. No further
// format checks are made; malformed URLs fail downstream.
func (r SourceRequest) Valid() bool {
	return strings.TrimSpace(r.URL) != ""
}

// AudioAsset is a downloaded audio file owned by a single pipeline run.
type AudioAsset struct {
	LocalPath string `json:"local_path"`
	Format    string `json:"format"`
	Source    string `json:"source"`
}

// VideoInfo is the metadata returned without downloading anything.
type VideoInfo struct {
	VideoID string `json:"video_id"`
	Length  int64  `json:"video_length"`
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
}
