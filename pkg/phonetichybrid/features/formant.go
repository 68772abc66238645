package features

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const envelopeSize = 1024

// formantTracker estimates F1..F3 from the peaks of an LPC spectral envelope.
type formantTracker struct {
	sampleRate int
	order      int
	minHz      float64
	maxHz      float64
	window     []float64
	buf        []float64
}

func newFormantTracker(sampleRate, order, frameLen int, minHz, maxHz float64) *formantTracker {
	nyquist := float64(sampleRate) / 2
	if maxHz > nyquist {
		maxHz = nyquist
	}
	return &formantTracker{
		sampleRate: sampleRate,
		order:      order,
		minHz:      minHz,
		maxHz:      maxHz,
		window:     Hamming(frameLen),
		buf:        make([]float64, frameLen),
	}
}

// estimate returns up to three formant frequencies for a pre-emphasized
// frame. Missing formants are zero; ok is false when fewer than two
// resonances were found.
func (f *formantTracker) estimate(frame []float64) ([3]float64, bool) {
	var out [3]float64
	for i := range f.buf {
		f.buf[i] = frame[i] * f.window[i]
	}

	a, ok := lpc(f.buf, f.order)
	if !ok {
		return out, false
	}

	peaks := f.envelopePeaks(a)
	for i := 0; i < len(peaks) && i < 3; i++ {
		out[i] = peaks[i]
	}
	return out, len(peaks) >= 2
}

func (f *formantTracker) envelopePeaks(a []float64) []float64 {
	padded := make([]float64, envelopeSize)
	copy(padded, a)
	spec := fft.FFTReal(padded)

	half := envelopeSize/2 + 1
	db := make([]float64, half)
	for k := 0; k < half; k++ {
		m := cmplx.Abs(spec[k])
		if m < 1e-12 {
			m = 1e-12
		}
		db[k] = -20 * math.Log10(m)
	}

	binHz := float64(f.sampleRate) / envelopeSize
	var peaks []float64
	for k := 1; k < half-1; k++ {
		hz := float64(k) * binHz
		if hz < f.minHz || hz > f.maxHz {
			continue
		}
		if db[k] <= db[k-1] || db[k] < db[k+1] {
			continue
		}
		if prominence(db, k) < 2 {
			continue
		}
		peaks = append(peaks, (float64(k)+parabolic(db[k-1], db[k], db[k+1]))*binHz)
	}
	return peaks
}

// prominence is the height of db[k] above the higher of its two valleys.
func prominence(db []float64, k int) float64 {
	left := db[k]
	for i := k - 1; i >= 0; i-- {
		if db[i] > db[k] {
			break
		}
		left = math.Min(left, db[i])
	}
	right := db[k]
	for i := k + 1; i < len(db); i++ {
		if db[i] > db[k] {
			break
		}
		right = math.Min(right, db[i])
	}
	return db[k] - math.Max(left, right)
}

func parabolic(a, b, c float64) float64 {
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	d := 0.5 * (a - c) / den
	if math.Abs(d) > 1 {
		return 0
	}
	return d
}

// lpc computes prediction coefficients a[0..order] (a[0] = 1) with the
// autocorrelation method and Levinson-Durbin recursion.
func lpc(x []float64, order int) ([]float64, bool) {
	if order >= len(x) {
		order = len(x) - 1
	}
	if order < 2 {
		return nil, false
	}

	r := make([]float64, order+1)
	for lag := 0; lag <= order; lag++ {
		sum := 0.0
		for i := 0; i+lag < len(x); i++ {
			sum += x[i] * x[i+lag]
		}
		r[lag] = sum
	}
	if r[0] <= 0 {
		return nil, false
	}
	// White-noise correction.
	r[0] *= 1 + 1e-9

	a := make([]float64, order+1)
	tmp := make([]float64, order+1)
	a[0] = 1
	errPow := r[0]
	for i := 1; i <= order; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc += a[j] * r[i-j]
		}
		k := -acc / errPow
		copy(tmp, a)
		for j := 1; j < i; j++ {
			a[j] = tmp[j] + k*tmp[i-j]
		}
		a[i] = k
		errPow *= 1 - k*k
		if errPow <= 0 {
			return nil, false
		}
	}
	return a, true
}
