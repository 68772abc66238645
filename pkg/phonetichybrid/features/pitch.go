package features

import "math"

// pitchTracker estimates F0 with a normalized autocorrelation.
type pitchTracker struct {
	sampleRate int
	minLag     int
	maxLag     int
	window     int
	threshold  float64
	buf        []float64
	corr       []float64
}

func newPitchTracker(sampleRate int, minHz, maxHz, threshold float64) *pitchTracker {
	minLag := int(math.Floor(float64(sampleRate) / maxHz))
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(math.Ceil(float64(sampleRate) / minHz))
	if maxLag <= minLag {
		maxLag = minLag + 1
	}
	window := 2 * (maxLag + 1)
	return &pitchTracker{
		sampleRate: sampleRate,
		minLag:     minLag,
		maxLag:     maxLag,
		window:     window,
		threshold:  threshold,
		buf:        make([]float64, window),
		corr:       make([]float64, maxLag+2),
	}
}

// estimate returns the F0 of the window starting at start and whether the
// window is voiced.
func (p *pitchTracker) estimate(samples []float64, start int) (float64, bool) {
	slice(p.buf, samples, start)
	x := p.buf

	for lag := p.minLag - 1; lag <= p.maxLag+1; lag++ {
		n := len(x) - lag
		var xy, xx, yy float64
		for i := 0; i < n; i++ {
			xy += x[i] * x[i+lag]
			xx += x[i] * x[i]
			yy += x[i+lag] * x[i+lag]
		}
		if xx == 0 || yy == 0 {
			p.corr[lag] = 0
			continue
		}
		p.corr[lag] = xy / math.Sqrt(xx*yy)
	}

	best := 0.0
	for lag := p.minLag; lag <= p.maxLag; lag++ {
		if p.corr[lag] > best {
			best = p.corr[lag]
		}
	}
	if best < p.threshold {
		return 0, false
	}

	// The shortest strong period avoids locking onto sub-harmonics.
	for lag := p.minLag; lag <= p.maxLag; lag++ {
		r := p.corr[lag]
		if r < 0.85*best || r < p.corr[lag-1] || r < p.corr[lag+1] {
			continue
		}
		return float64(p.sampleRate) / p.refine(lag), true
	}
	return 0, false
}

// refine places the peak near lag with parabolic interpolation.
func (p *pitchTracker) refine(lag int) float64 {
	a, b, c := p.corr[lag-1], p.corr[lag], p.corr[lag+1]
	den := a - 2*b + c
	if den == 0 {
		return float64(lag)
	}
	delta := 0.5 * (a - c) / den
	if math.Abs(delta) > 1 {
		return float64(lag)
	}
	return float64(lag) + delta
}
