package features

import "math"

// Hamming returns a symmetric Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// PreEmphasize applies y[n] = x[n] - coeff*x[n-1].
func PreEmphasize(samples []float64, coeff float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - coeff*samples[i-1]
	}
	return out
}

// frameCount returns how many frames of frameLen with hop shift cover n
// samples. Input shorter than one frame still yields one zero-padded frame.
func frameCount(n, frameLen, shift int) int {
	if n <= frameLen {
		return 1
	}
	return 1 + (n-frameLen)/shift
}

// slice copies samples[start:start+length] into dst, zero-padding past the end.
func slice(dst, samples []float64, start int) {
	for i := range dst {
		j := start + i
		if j >= 0 && j < len(samples) {
			dst[i] = samples[j]
		} else {
			dst[i] = 0
		}
	}
}

func rms(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func zeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
