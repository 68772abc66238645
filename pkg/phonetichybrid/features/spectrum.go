package features

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// spectrum holds one frame's one-sided magnitude and power spectra.
type spectrum struct {
	mag   []float64
	power []float64
	binHz float64
}

// computeSpectrum windows frame, zero-pads it to fftSize and returns bins
// 0..fftSize/2.
func computeSpectrum(frame, window []float64, fftSize, sampleRate int) spectrum {
	padded := make([]float64, fftSize)
	for i := 0; i < len(frame) && i < fftSize; i++ {
		padded[i] = frame[i] * window[i]
	}

	bins := fft.FFTReal(padded)
	half := fftSize/2 + 1
	s := spectrum{
		mag:   make([]float64, half),
		power: make([]float64, half),
		binHz: float64(sampleRate) / float64(fftSize),
	}
	for k := 0; k < half; k++ {
		m := cmplx.Abs(bins[k])
		s.mag[k] = m
		s.power[k] = m * m / float64(fftSize)
	}
	return s
}

// centroid returns the magnitude weighted mean frequency.
func (s spectrum) centroid() float64 {
	num, den := 0.0, 0.0
	for k, m := range s.mag {
		num += float64(k) * s.binHz * m
		den += m
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// bandwidth returns the magnitude weighted spread around centroid c.
func (s spectrum) bandwidth(c float64) float64 {
	num, den := 0.0, 0.0
	for k, m := range s.mag {
		d := float64(k)*s.binHz - c
		num += m * d * d
		den += m
	}
	if den == 0 {
		return 0
	}
	return math.Sqrt(num / den)
}

// rolloff returns the frequency below which pct of the magnitude lies.
func (s spectrum) rolloff(pct float64) float64 {
	total := 0.0
	for _, m := range s.mag {
		total += m
	}
	if total == 0 {
		return 0
	}
	target := pct * total
	acc := 0.0
	for k, m := range s.mag {
		acc += m
		if acc >= target {
			return float64(k) * s.binHz
		}
	}
	return float64(len(s.mag)-1) * s.binHz
}

// lowBandRatio returns the share of power below cutoffHz.
func (s spectrum) lowBandRatio(cutoffHz float64) float64 {
	low, total := 0.0, 0.0
	for k, p := range s.power {
		total += p
		if float64(k)*s.binHz < cutoffHz {
			low += p
		}
	}
	if total == 0 {
		return 0
	}
	return low / total
}
