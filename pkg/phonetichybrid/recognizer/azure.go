package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

const (
	azureEndpointFormat = "https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"
	azureDefaultLocale  = "tr-TR"
)

// Azure calls the Azure Speech short-audio REST API.
type Azure struct {
	key        string
	endpoint   string
	locale     string
	httpClient *http.Client
}

// NewAzure creates an Azure Speech recognizer for region and locale.
func NewAzure(key, region, locale string, client *http.Client) *Azure {
	if locale == "" {
		locale = azureDefaultLocale
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Azure{
		key:        key,
		endpoint:   fmt.Sprintf(azureEndpointFormat, region),
		locale:     locale,
		httpClient: client,
	}
}

// WithEndpoint overrides the service URL, for sovereign clouds and tests.
func (a *Azure) WithEndpoint(endpoint string) *Azure {
	cp := *a
	cp.endpoint = endpoint
	return &cp
}

func (a *Azure) Name() string { return BackendAzure }

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Confidence *float64 `json:"Confidence"`
		Display    string   `json:"Display"`
	} `json:"NBest"`
}

// Recognize sends w as 16-bit PCM WAV. A NoMatch status is a successful
// empty recognition; transport and service failures are ErrUnavailable.
func (a *Azure) Recognize(ctx context.Context, w audio.Waveform) (Recognition, error) {
	body, err := audio.EncodeWAV(w)
	if err != nil {
		return Recognition{}, fmt.Errorf("encode audio: %w", err)
	}

	u, err := url.Parse(a.endpoint)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: bad endpoint: %v", ErrUnavailable, err)
	}
	q := u.Query()
	q.Set("language", a.locale)
	q.Set("format", "detailed")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return Recognition{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", w.SampleRate))
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Recognition{}, ctx.Err()
		}
		return Recognition{}, fmt.Errorf("%w: azure request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Recognition{}, fmt.Errorf("%w: azure error %d: %s", ErrUnavailable, resp.StatusCode, string(msg))
	}

	var out azureResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Recognition{}, fmt.Errorf("%w: azure decode: %v", ErrUnavailable, err)
	}

	switch out.RecognitionStatus {
	case "Success":
		conf := defaultConfidence
		text := out.DisplayText
		if len(out.NBest) > 0 {
			if out.NBest[0].Confidence != nil {
				conf = *out.NBest[0].Confidence
			}
			if text == "" {
				text = out.NBest[0].Display
			}
		}
		return Recognition{Text: text, Confidence: clamp01(conf)}, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return Recognition{}, nil
	default:
		return Recognition{}, fmt.Errorf("%w: azure status %q", ErrUnavailable, out.RecognitionStatus)
	}
}
