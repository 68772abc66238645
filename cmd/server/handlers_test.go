package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/engine"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
)

const knownID = "5f0c7d2e-8a41-4c1b-9d3e-2b6f1a7c9e10"

type fakeService struct {
	analyzeErr error
	lastPath   string
	lastWord   string
	lastLang   string
	analyses   map[string]*models.AnalysisResult
	lexicon    map[string][]string
	health     models.HealthStatus
}

func newFakeService() *fakeService {
	return &fakeService{
		analyses: map[string]*models.AnalysisResult{
			knownID: {ID: knownID, Word: "ev", Overall: 0.82, Grade: models.GradeB},
		},
		lexicon: map[string][]string{
			"pencere": {"p", "e", "n", "d͡ʒ", "e", "ɾ", "e"},
			"ev":      {"e", "v"},
		},
		health: models.HealthStatus{RecognizerBackend: "none", PhonemizerReady: true, DatabaseReady: true},
	}
}

func (f *fakeService) Analyze(_ context.Context, path, word, lang string) (*models.AnalysisResult, error) {
	f.lastPath, f.lastWord, f.lastLang = path, word, lang
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("upload missing: %w", err)
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &models.AnalysisResult{ID: knownID, Word: word, Language: lang, Overall: 0.9, Grade: models.GradeA, AnalysisMethod: models.MethodAcousticOnly}, nil
}

func (f *fakeService) AnalyzeWaveform(context.Context, audio.Waveform, string, string) (*models.AnalysisResult, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeService) AnalyzeBatch(context.Context, []phonetichybrid.BatchItem) []phonetichybrid.BatchResult {
	return nil
}

func (f *fakeService) Phonemes(_ context.Context, word, lang string) (*models.PhonemeInfo, error) {
	ph, ok := f.lexicon[strings.ToLower(strings.TrimSpace(word))]
	if !ok {
		return nil, fmt.Errorf("transcribing %q: %w", word, phonemizer.ErrUnknownWord)
	}
	return &models.PhonemeInfo{Word: word, Language: lang, Phonemes: ph, PhonemeString: strings.Join(ph, " "), Count: len(ph)}, nil
}

func (f *fakeService) GetAnalysis(id string) (*models.AnalysisResult, error) {
	r, ok := f.analyses[id]
	if !ok {
		return nil, phonetichybrid.ErrNotFound
	}
	return r, nil
}

func (f *fakeService) ListAnalyses(word string, limit int) ([]models.AnalysisSummary, error) {
	var out []models.AnalysisSummary
	for _, r := range f.analyses {
		if word == "" || r.Word == word {
			out = append(out, models.AnalysisSummary{ID: r.ID, Word: r.Word, Overall: r.Overall, Grade: r.Grade})
		}
	}
	return out, nil
}

func (f *fakeService) DeleteAnalysis(id string) error {
	if _, ok := f.analyses[id]; !ok {
		return fmt.Errorf("%w: %s", phonetichybrid.ErrNotFound, id)
	}
	delete(f.analyses, id)
	return nil
}

func (f *fakeService) Health(context.Context) models.HealthStatus { return f.health }

func (f *fakeService) Close() error { return nil }

func setupTestServer(t *testing.T, svc phonetichybrid.Service) http.Handler {
	t.Helper()
	s := NewServer(svc, phonetichybrid.NewMetrics("test"), &ServerConfig{
		TempDir:        t.TempDir(),
		SampleRate:     16000,
		Language:       "tr",
		AllowedOrigins: []string{"*"},
	})
	return s.setupRoutes()
}

func wavBytes(t *testing.T, seconds float64) []byte {
	t.Helper()
	s := make([]float64, int(seconds*16000))
	for i := range s {
		s[i] = 0.4 * math.Sin(2*math.Pi*220*float64(i)/16000)
	}
	data, err := audio.EncodeWAV(audio.Waveform{Samples: s, SampleRate: 16000})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func multipartBody(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("audio", "utterance.wav")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func do(h http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	svc := newFakeService()
	h := setupTestServer(t, svc)

	body, ct := multipartBody(t, map[string]string{"word": " pencere ", "language": "tr"}, wavBytes(t, 0.3))
	rec := do(h, http.MethodPost, "/api/analyze", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res models.AnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Word != "pencere" || svc.lastLang != "tr" {
		t.Errorf("word/lang passed = %q/%q", res.Word, svc.lastLang)
	}
	if _, err := os.Stat(svc.lastPath); !os.IsNotExist(err) {
		t.Errorf("temp upload %s should be removed", svc.lastPath)
	}
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   bool
		err    error
		want   int
	}{
		{"missing word", map[string]string{}, true, nil, http.StatusBadRequest},
		{"bad language", map[string]string{"word": "ev", "language": "xx"}, true, nil, http.StatusBadRequest},
		{"missing file", map[string]string{"word": "ev"}, false, nil, http.StatusBadRequest},
		{"input error", map[string]string{"word": "ev"}, true,
			&engine.AnalysisError{Stage: engine.StageReceived, Kind: engine.KindInput, Err: audio.ErrMalformed}, http.StatusBadRequest},
		{"dependency error", map[string]string{"word": "ev"}, true,
			&engine.AnalysisError{Stage: engine.StageTranscribed, Kind: engine.KindDependency, Err: phonemizer.ErrUnavailable}, http.StatusServiceUnavailable},
		{"internal error", map[string]string{"word": "ev"}, true, fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.analyzeErr = tt.err
			h := setupTestServer(t, svc)

			var file []byte
			if tt.file {
				file = wavBytes(t, 0.1)
			}
			body, ct := multipartBody(t, tt.fields, file)
			rec := do(h, http.MethodPost, "/api/analyze", body, ct)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			var e ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&e); err != nil || e.Code != tt.want {
				t.Errorf("error body = %+v, %v", e, err)
			}
		})
	}
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	h := setupTestServer(t, newFakeService())
	if rec := do(h, http.MethodGet, "/api/analyze", nil, ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAnalysesEndpoints(t *testing.T) {
	svc := newFakeService()
	h := setupTestServer(t, svc)

	rec := do(h, http.MethodGet, "/api/analyses?word=ev", nil, "")
	var list ListAnalysesResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || list.Count != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if rec := do(h, http.MethodGet, "/api/analyses?limit=-1", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/analyses/not-an-id", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/analyses/00000000-0000-4000-8000-000000000000", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/analyses/"+knownID, nil, ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/api/analyses/"+knownID, nil, ""); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/api/analyses/"+knownID, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestPhonemesEndpoint(t *testing.T) {
	h := setupTestServer(t, newFakeService())

	rec := do(h, http.MethodPost, "/api/phonemes", bytes.NewBufferString(`{"word":"pencere","language":"tr"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, %s", rec.Code, rec.Body.String())
	}
	var info models.PhonemeInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil || info.Count != 7 {
		t.Errorf("info = %+v, %v", info, err)
	}

	rec = do(h, http.MethodPost, "/api/phonemes", bytes.NewBufferString(`{"word":"yok"}`), "application/json")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown word status = %d", rec.Code)
	}
	rec = do(h, http.MethodPost, "/api/phonemes", bytes.NewBufferString(`{"word":""}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty word status = %d", rec.Code)
	}
	rec = do(h, http.MethodPost, "/api/phonemes", bytes.NewBufferString(`not json`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d", rec.Code)
	}
}

func TestPhonemesBatchEndpoint(t *testing.T) {
	h := setupTestServer(t, newFakeService())

	rec := do(h, http.MethodPost, "/api/phonemes/batch", bytes.NewBufferString(`{"words":["ev","yok","pencere",""]}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, %s", rec.Code, rec.Body.String())
	}
	var resp PhonemeBatchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 4 || resp.Failed != 2 {
		t.Errorf("count/failed = %d/%d", resp.Count, resp.Failed)
	}
	if resp.Results[0].Result == nil || resp.Results[1].Error == "" || resp.Results[2].Result.Count != 7 {
		t.Errorf("unexpected results %+v", resp.Results)
	}

	rec = do(h, http.MethodPost, "/api/phonemes/batch", bytes.NewBufferString(`{"words":[]}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	svc := newFakeService()
	h := setupTestServer(t, svc)

	rec := do(h, http.MethodGet, "/health", nil, "")
	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || !health.DatabaseReady || health.RecognizerBackend != "none" {
		t.Errorf("health = %+v", health)
	}

	if rec := do(h, http.MethodGet, "/api/phonemes/health", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("phonemizer health status = %d", rec.Code)
	}

	svc.health.PhonemizerReady = false
	if rec := do(h, http.MethodGet, "/api/phonemes/health", nil, ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("phonemizer down status = %d", rec.Code)
	}
	rec = do(h, http.MethodGet, "/health", nil, "")
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil || health.Status != "degraded" {
		t.Errorf("degraded health = %+v, %v", health, err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupTestServer(t, newFakeService())
	rec := do(h, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics status %d body %.200s", rec.Code, rec.Body.String())
	}
}

func TestSpectrogramEndpoint(t *testing.T) {
	h := setupTestServer(t, newFakeService())

	body, ct := multipartBody(t, map[string]string{"width": "300", "height": "64"}, wavBytes(t, 0.5))
	rec := do(h, http.MethodPost, "/api/spectrogram", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := setupTestServer(t, newFakeService())
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestCORSAllowList(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := corsMiddleware([]string{"https://app.example"})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin should not be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote", nil, "1.2.3.4:5678", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{phonetichybrid.ErrNotFound, http.StatusNotFound},
		{engine.ErrEmptyWord, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("wrapped: %w", phonemizer.ErrUnavailable), http.StatusServiceUnavailable},
		{&engine.AnalysisError{Kind: engine.KindInput, Err: audio.ErrEmpty}, http.StatusBadRequest},
		{fmt.Errorf("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
