package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

const defaultWhisperModel = "whisper-1"

// Whisper calls an OpenAI compatible /v1/audio/transcriptions endpoint
// (OpenAI, faster-whisper-server, whisper.cpp server).
type Whisper struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
}

// NewWhisper creates a Whisper recognizer. locale may be a full locale
// (tr-TR); only the language subtag is sent.
func NewWhisper(baseURL, apiKey, model, locale string, client *http.Client) *Whisper {
	if model == "" {
		model = defaultWhisperModel
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Whisper{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		language:   shortLanguage(locale),
		httpClient: client,
	}
}

func (w *Whisper) Name() string { return BackendWhisper }

type whisperResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Recognize uploads wave as WAV and derives confidence from the mean
// segment log probability.
func (w *Whisper) Recognize(ctx context.Context, wave audio.Waveform) (Recognition, error) {
	data, err := audio.EncodeWAV(wave)
	if err != nil {
		return Recognition{}, fmt.Errorf("encode audio: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return Recognition{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return Recognition{}, fmt.Errorf("write audio data: %w", err)
	}
	fields := map[string]string{
		"model":           w.model,
		"response_format": "verbose_json",
	}
	if w.language != "" {
		fields["language"] = w.language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return Recognition{}, fmt.Errorf("write %s field: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return Recognition{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/audio/transcriptions", &buf)
	if err != nil {
		return Recognition{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Recognition{}, ctx.Err()
		}
		return Recognition{}, fmt.Errorf("%w: whisper request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Recognition{}, fmt.Errorf("%w: whisper error %d: %s", ErrUnavailable, resp.StatusCode, string(msg))
	}

	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Recognition{}, fmt.Errorf("%w: whisper decode: %v", ErrUnavailable, err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Recognition{}, nil
	}
	conf := defaultConfidence
	if len(out.Segments) > 0 {
		sum := 0.0
		for _, s := range out.Segments {
			sum += s.AvgLogprob
		}
		conf = math.Exp(sum / float64(len(out.Segments)))
	}
	return Recognition{Text: text, Confidence: clamp01(conf)}, nil
}
