package spectrogram

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

func tone(seconds float64) audio.Waveform {
	const sr = 16000
	s := make([]float64, int(seconds*sr))
	for i := range s {
		s[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}
	return audio.Waveform{Samples: s, SampleRate: sr}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, tone(0.5), Options{Width: 200, Height: 64}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 64 {
		t.Errorf("bounds = %v, want 200x64", b)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tone.png")
	if err := SavePNG(path, tone(0.5), DefaultOptions()); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("png not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("png is empty")
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	if _, err := Render(audio.Waveform{SampleRate: 16000}, DefaultOptions()); !errors.Is(err, audio.ErrEmpty) {
		t.Errorf("empty input: %v", err)
	}
	short := audio.Waveform{Samples: make([]float64, 100), SampleRate: 16000}
	if _, err := Render(short, DefaultOptions()); !errors.Is(err, ErrTooShort) {
		t.Errorf("short input: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Width: 10}.withDefaults()
	if o.Width != 10 || o.Height != 256 || o.Background != "000000" {
		t.Errorf("withDefaults = %+v", o)
	}
}
