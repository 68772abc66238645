// Package spectrogram renders review images of an utterance.
package spectrogram

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"

	spec "github.com/eligwz/spectrogram"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

// ErrTooShort is returned when the waveform has fewer samples than one
// analysis window.
var ErrTooShort = errors.New("spectrogram: audio too short")

type Options struct {
	Width      int
	Height     int    // also the number of frequency bins
	Background string // hex color without '#'
	Log        bool   // log10 magnitude instead of linear
}

func DefaultOptions() Options {
	return Options{Width: 1024, Height: 256, Background: "000000"}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	return o
}

// Render draws the FFT magnitude spectrogram of w.
func Render(w audio.Waveform, opts Options) (*spec.Image128, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("render spectrogram: %w", err)
	}
	o := opts.withDefaults()
	if len(w.Samples) < 2*o.Height {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrTooShort, len(w.Samples), 2*o.Height)
	}

	img := spec.NewImage128(image.Rect(0, 0, o.Width, o.Height))
	bg := spec.ParseColor(o.Background)
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude.
	spec.Drawfft(
		img,
		w.Samples,
		uint32(w.SampleRate),
		uint32(o.Height),
		false,
		false,
		true,
		o.Log,
	)
	return img, nil
}

// WritePNG renders w and encodes it as PNG to out.
func WritePNG(out io.Writer, w audio.Waveform, opts Options) error {
	img, err := Render(w, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// SavePNG renders w to a PNG file, creating parent directories.
func SavePNG(path string, w audio.Waveform, opts Options) error {
	img, err := Render(w, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := spec.SavePng(img, path); err != nil {
		return fmt.Errorf("saving png %s: %w", path, err)
	}
	return nil
}
