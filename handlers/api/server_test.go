package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nijaru/yt-transcribe/config"
	"github.com/nijaru/yt-transcribe/errors"
	"github.com/nijaru/yt-transcribe/extract"
	"github.com/nijaru/yt-transcribe/models"
	"github.com/nijaru/yt-transcribe/pipeline"
	"github.com/nijaru/yt-transcribe/storage"
)

type mockPipeline struct {
	result    *pipeline.Result
	detection *pipeline.Detection
	info      *models.VideoInfo
	err       error
	calls     int
	lastReq   models.SourceRequest
}

func (m *mockPipeline) Process(ctx context.Context, req models.SourceRequest, features models.FeatureSet) (*pipeline.Result, error) {
	m.calls++
	m.lastReq = req
	return m.result, m.err
}

func (m *mockPipeline) ProcessRemote(ctx context.Context, req models.SourceRequest, features models.FeatureSet) (*pipeline.Result, error) {
	m.calls++
	m.lastReq = req
	return m.result, m.err
}

func (m *mockPipeline) Detect(ctx context.Context, req models.SourceRequest) (*pipeline.Detection, error) {
	m.calls++
	m.lastReq = req
	return m.detection, m.err
}

func (m *mockPipeline) Info(ctx context.Context, req models.SourceRequest) (*models.VideoInfo, error) {
	m.calls++
	m.lastReq = req
	return m.info, m.err
}

type mockRuns struct {
	runs map[string]*models.Run
}

func (m *mockRuns) Find(ctx context.Context, id string) (*models.Run, error) {
	if run, ok := m.runs[id]; ok {
		return run, nil
	}
	return nil, errors.NotFound("mockRuns.Find", nil, "Run not found")
}

type mockArchive struct{}

func (mockArchive) GetTranscript(ctx context.Context, runID string) (*storage.ArchivedTranscript, error) {
	if runID != "run-1" {
		return nil, errors.NotFound("mockArchive.GetTranscript", nil, "Transcript not found")
	}
	return &storage.ArchivedTranscript{RunID: runID, Transcript: &models.Transcript{Text: "hello"}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:     "0",
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		IdleTimeout:    time.Second,
		RequestTimeout: time.Minute,
		Version:        "test",
	}
}

func newTestServer(p pipeline.Service, opts ...ServerOption) http.Handler {
	opts = append([]ServerOption{WithPipeline(p)}, opts...)
	return NewServer(testConfig(), opts...).Handler()
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(v); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
}

func TestRoot(t *testing.T) {
	h := newTestServer(&mockPipeline{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body models.MessageResponse
	decodeBody(t, rr, &body)
	if body.Message != welcomeMessage {
		t.Errorf("unexpected message %q", body.Message)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(&mockPipeline{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	decodeBody(t, rr, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestProcess(t *testing.T) {
	p := &mockPipeline{result: &pipeline.Result{
		RunID: "run-1",
		URL:   "https://youtu.be/abc",
		Transcript: &models.Transcript{
			Text:     "hello",
			Chapters: []models.Chapter{{Headline: "Intro"}},
			Summary:  "- hello",
		},
	}}
	h := newTestServer(p)

	rr := post(t, h, "/process", `{"url":"https://youtu.be/abc"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body models.ProcessResponse
	decodeBody(t, rr, &body)
	if body.VideoURL != "https://youtu.be/abc" || body.Transcript != "hello" {
		t.Errorf("unexpected body %+v", body)
	}
	if len(body.Chapters) != 1 || body.Summary != "- hello" {
		t.Errorf("expected chapters and summary, got %+v", body)
	}
}

func TestPostErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		err      error
		wantCode int
		wantMsg  string
		wantCall bool
	}{
		{"empty url", "/process", `{"url":""}`, nil, http.StatusBadRequest, "Invalid URL", false},
		{"missing url", "/detection", `{}`, nil, http.StatusBadRequest, "Invalid URL", false},
		{"bad json", "/process", `{"url":`, nil, http.StatusBadRequest, "Invalid JSON format", false},
		{"empty body", "/info", ``, nil, http.StatusBadRequest, "Request body is required", false},
		{"fetch failure", "/process", `{"url":"https://youtu.be/none"}`,
			errors.FetchFailed("test", nil), http.StatusInternalServerError,
			"An error occurred while downloading the video or audio", true},
		{"config failure", "/upload", `{"url":"https://cdn.example/a.mp3"}`,
			errors.ConfigMissing("test", nil, "Transcription API key not configured"),
			http.StatusInternalServerError, "Transcription API key not configured", true},
		{"transcription failure", "/detection", `{"url":"https://youtu.be/abc"}`,
			errors.TranscriptionFailed("test", nil, "audio too short"),
			http.StatusInternalServerError, "Transcription failed: audio too short", true},
		{"unknown error", "/info", `{"url":"https://youtu.be/abc"}`,
			errors.New("boom"), http.StatusInternalServerError, "Internal server error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPipeline{err: tt.err}
			rr := post(t, newTestServer(p), tt.path, tt.body)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			var body errorResponse
			decodeBody(t, rr, &body)
			if body.Error != tt.wantMsg {
				t.Errorf("expected error %q, got %q", tt.wantMsg, body.Error)
			}
			if (p.calls > 0) != tt.wantCall {
				t.Errorf("expected pipeline called=%v, got %d calls", tt.wantCall, p.calls)
			}
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	p := &mockPipeline{}
	body := `{"url":"` + strings.Repeat("a", 2<<20) + `"}`
	rr := post(t, newTestServer(p), "/process", body)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rr.Code)
	}
	if p.calls != 0 {
		t.Error("expected no pipeline call")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(&mockPipeline{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/process", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestDetection(t *testing.T) {
	det := &pipeline.Detection{
		RunID:         "run-1",
		URL:           "https://youtu.be/abc",
		Transcript:    "hi",
		Person:        extract.StringSet{"Bob": {}, "Alice": {}},
		Organization:  extract.StringSet{},
		Location:      extract.StringSet{"Paris": {}},
		UtteranceText: extract.StringSet{"Speaker A: hi": {}},
		Speakers:      extract.StringSet{"A": {}},
		Starts:        extract.Set[int64]{600: {}, 0: {}},
		Ends:          extract.Set[int64]{900: {}},
	}
	rr := post(t, newTestServer(&mockPipeline{detection: det}), "/detection", `{"url":"https://youtu.be/abc"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body models.DetectionResponse
	decodeBody(t, rr, &body)
	if len(body.Person) != 2 || len(body.Location) != 1 {
		t.Errorf("unexpected entity lists %+v", body)
	}
	if body.Organization == nil || len(body.Organization) != 0 {
		t.Errorf("expected empty organization list, got %v", body.Organization)
	}
	if len(body.Starts) != 2 || body.UtteranceText[0] != "Speaker A: hi" {
		t.Errorf("unexpected utterance lists %+v", body)
	}
}

func TestUtterances(t *testing.T) {
	det := &pipeline.Detection{
		RunID:         "run-1",
		URL:           "https://youtu.be/abc",
		UtteranceText: extract.StringSet{"Speaker B: hello": {}, "Speaker A: hi": {}},
		Speakers:      extract.StringSet{"B": {}, "A": {}},
		Starts:        extract.Set[int64]{600: {}, 0: {}},
		Ends:          extract.Set[int64]{900: {}},
	}

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantField string
		want      []any
	}{
		{"default text", "", http.StatusOK, "text", []any{"Speaker A: hi", "Speaker B: hello"}},
		{"speaker", "?field=speaker", http.StatusOK, "speaker", []any{"A", "B"}},
		{"start", "?field=Start", http.StatusOK, "start", []any{float64(0), float64(600)}},
		{"end", "?field=end", http.StatusOK, "end", []any{float64(900)}},
		{"unknown", "?field=volume", http.StatusBadRequest, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPipeline{detection: det}
			rr := post(t, newTestServer(p), "/utterances"+tt.query, `{"url":"https://youtu.be/abc"}`)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if p.calls != 0 {
					t.Errorf("expected pipeline not to be called, got %d calls", p.calls)
				}
				return
			}

			var body struct {
				Field  string `json:"field"`
				Values []any  `json:"values"`
				RunID  string `json:"run_id"`
			}
			decodeBody(t, rr, &body)
			if body.Field != tt.wantField || body.RunID != "run-1" {
				t.Errorf("unexpected body %+v", body)
			}
			if len(body.Values) != len(tt.want) {
				t.Fatalf("expected values %v, got %v", tt.want, body.Values)
			}
			for i := range tt.want {
				if body.Values[i] != tt.want[i] {
					t.Errorf("value %d: expected %v, got %v", i, tt.want[i], body.Values[i])
				}
			}
		})
	}
}

func TestInfo(t *testing.T) {
	p := &mockPipeline{info: &models.VideoInfo{VideoID: "abc", Length: 212}}
	rr := post(t, newTestServer(p), "/info", `{"url":"https://youtu.be/abc"}`)

	var body map[string]any
	decodeBody(t, rr, &body)
	if body["video_id"] != "abc" || body["video_length"] != float64(212) {
		t.Errorf("unexpected info body %v", body)
	}
}

func TestRuns(t *testing.T) {
	runs := &mockRuns{runs: map[string]*models.Run{
		"run-1": {ID: "run-1", State: models.StateDone, Route: "/process"},
	}}
	h := newTestServer(&mockPipeline{}, WithHistory(runs, mockArchive{}))

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/runs/run-1", http.StatusOK},
		{"/runs/missing", http.StatusNotFound},
		{"/runs/run-1/transcript", http.StatusOK},
		{"/runs/missing/transcript", http.StatusNotFound},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rr.Code != tt.wantCode {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.wantCode, rr.Code)
		}
	}
}

func TestRunStaleFlag(t *testing.T) {
	runs := &mockRuns{runs: map[string]*models.Run{
		"stuck": {ID: "stuck", State: models.StateTranscribing, UpdatedAt: time.Now().Add(-time.Hour)},
		"live":  {ID: "live", State: models.StateTranscribing, UpdatedAt: time.Now()},
		"done":  {ID: "done", State: models.StateDone, UpdatedAt: time.Now().Add(-time.Hour)},
	}}
	h := newTestServer(&mockPipeline{}, WithHistory(runs, nil))

	tests := []struct {
		id        string
		wantStale bool
	}{
		{"stuck", true},
		{"live", false},
		{"done", false},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/"+tt.id, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET /runs/%s: expected 200, got %d", tt.id, rr.Code)
		}

		var body struct {
			ID    string `json:"id"`
			State string `json:"state"`
			Stale bool   `json:"stale"`
		}
		decodeBody(t, rr, &body)
		if body.ID != tt.id {
			t.Errorf("expected id %s, got %s", tt.id, body.ID)
		}
		if body.Stale != tt.wantStale {
			t.Errorf("run %s: expected stale=%v, got %v", tt.id, tt.wantStale, body.Stale)
		}
	}
}

func TestRunsDisabled(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(&mockPipeline{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/run-1", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
