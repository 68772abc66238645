package audio

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmpty is returned for a waveform without samples.
	ErrEmpty = errors.New("audio: empty waveform")
	// ErrMalformed is returned for non-finite samples or an invalid sample rate.
	ErrMalformed = errors.New("audio: malformed waveform")
)

// DefaultSampleRate is the rate uploads are resampled to before analysis.
const DefaultSampleRate = 16000

// Waveform is mono PCM audio with samples nominally in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Validate checks that w can be analysed.
func (w Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrMalformed, w.SampleRate)
	}
	if len(w.Samples) == 0 {
		return ErrEmpty
	}
	for i, s := range w.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite sample at index %d", ErrMalformed, i)
		}
	}
	return nil
}

// Duration returns the length of w in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Peak returns the largest absolute sample value.
func (w Waveform) Peak() float64 {
	peak := 0.0
	for _, s := range w.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
