package features

import "math"

// sparseFilter stores only the non-zero range of a triangular filter.
type sparseFilter struct {
	start  int
	coeffs []float64
}

// melFilterbank is a bank of triangular filters equally spaced on the mel scale.
type melFilterbank struct {
	filters []sparseFilter
}

func newMelFilterbank(numFilters, fftSize, sampleRate int, lowHz, highHz float64) *melFilterbank {
	nBins := fftSize/2 + 1
	lowMel, highMel := hzToMel(lowHz), hzToMel(highHz)

	points := make([]int, numFilters+2)
	step := (highMel - lowMel) / float64(numFilters+1)
	for i := range points {
		hz := melToHz(lowMel + float64(i)*step)
		points[i] = int(math.Floor(hz * float64(fftSize+1) / float64(sampleRate)))
	}

	fb := &melFilterbank{filters: make([]sparseFilter, numFilters)}
	for i := 0; i < numFilters; i++ {
		left, center, right := points[i], points[i+1], points[i+2]
		if right >= nBins {
			right = nBins - 1
		}
		if right < left {
			continue
		}
		coeffs := make([]float64, right-left+1)
		for j := left; j <= right; j++ {
			switch {
			case j < center && center != left:
				coeffs[j-left] = float64(j-left) / float64(center-left)
			case j >= center && right != center:
				coeffs[j-left] = float64(right-j) / float64(right-center)
			case j == center:
				coeffs[j-left] = 1
			}
		}
		fb.filters[i] = sparseFilter{start: left, coeffs: coeffs}
	}
	return fb
}

// applyInto writes log mel energies of powerSpec into dst.
func (fb *melFilterbank) applyInto(powerSpec, dst []float64) {
	for i, f := range fb.filters {
		sum := 0.0
		for j, c := range f.coeffs {
			k := f.start + j
			if k < len(powerSpec) {
				sum += powerSpec[k] * c
			}
		}
		if sum < 1e-30 {
			sum = 1e-30
		}
		dst[i] = math.Log(sum)
	}
}

// dctTable holds precomputed DCT-II cosines.
type dctTable struct {
	cos [][]float64
}

func newDCTTable(numCepstra, numFilters int) *dctTable {
	t := &dctTable{cos: make([][]float64, numCepstra)}
	for k := 0; k < numCepstra; k++ {
		t.cos[k] = make([]float64, numFilters)
		for j := 0; j < numFilters; j++ {
			t.cos[k][j] = math.Cos(math.Pi * float64(k) * (float64(j) + 0.5) / float64(numFilters))
		}
	}
	return t
}

func (t *dctTable) applyInto(logMel, dst []float64) {
	for k, row := range t.cos {
		sum := 0.0
		for j, c := range row {
			sum += logMel[j] * c
		}
		dst[k] = sum
	}
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}
