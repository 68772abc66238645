package features

import (
	"fmt"
	"math"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

// Frame holds the measurements of one analysis frame.
type Frame struct {
	Time         float64 // frame centre in seconds
	RMS          float64
	Active       bool
	ZCR          float64
	Centroid     float64
	Rolloff      float64
	Bandwidth    float64
	LowBandRatio float64
	Pitch        float64
	Voiced       bool
	Formants     [3]float64 // zero where a formant was not found
	MFCC         []float64
}

// Summary aggregates frame measurements over an utterance or a window of it.
// Pitch statistics cover voiced frames only, formants average the frames
// where each formant was found and spectral statistics cover active frames.
type Summary struct {
	Duration float64

	MFCCMean []float64
	MFCCStd  []float64

	PitchMean    float64
	PitchStd     float64
	Voiced       bool
	VoicedFrames int

	F1, F2, F3 float64

	EnergyMean float64
	EnergyStd  float64
	EnergyPeak float64

	SpectralCentroid  float64
	SpectralRolloff   float64
	SpectralBandwidth float64
	ZeroCrossingRate  float64
	LowBandRatio      float64

	ActiveFrames int
	TotalFrames  int
}

// ActiveRatio is the share of frames above the silence floor.
func (s Summary) ActiveRatio() float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return float64(s.ActiveFrames) / float64(s.TotalFrames)
}

// VoicedRatio is the share of frames with a detected pitch.
func (s Summary) VoicedRatio() float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return float64(s.VoicedFrames) / float64(s.TotalFrames)
}

// Result is the output of Extract: per-frame features plus the whole
// utterance summary.
type Result struct {
	SampleRate int
	Frames     []Frame
	Summary    Summary
}

// Window summarizes the frames whose centre lies in [start, end). When no
// frame centre falls inside, the frame nearest to the window midpoint is used.
func (r *Result) Window(start, end float64) Summary {
	var sel []Frame
	for _, f := range r.Frames {
		if f.Time >= start && f.Time < end {
			sel = append(sel, f)
		}
	}
	if len(sel) == 0 && len(r.Frames) > 0 {
		mid := (start + end) / 2
		nearest := 0
		for i, f := range r.Frames {
			if math.Abs(f.Time-mid) < math.Abs(r.Frames[nearest].Time-mid) {
				nearest = i
			}
		}
		sel = r.Frames[nearest : nearest+1]
	}
	s := summarize(sel)
	s.Duration = math.Max(end-start, 0)
	return s
}

// Extractor computes acoustic features. It holds only configuration and is
// safe for concurrent use.
type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg.withDefaults()}
}

// Extract measures w frame by frame. Malformed input is rejected; silent
// input is accepted and produces zero pitch, formants and spectral values.
func (e *Extractor) Extract(w audio.Waveform) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	cfg := e.cfg
	sr := w.SampleRate
	frameLen := int(math.Round(cfg.FrameLenMs * float64(sr) / 1000))
	shift := int(math.Round(cfg.FrameShiftMs * float64(sr) / 1000))
	if frameLen < 2 || shift < 1 {
		return nil, fmt.Errorf("extract features: %w: sample rate %d too low", audio.ErrMalformed, sr)
	}
	fftSize := nextPow2(frameLen)

	emphasized := PreEmphasize(w.Samples, cfg.PreEmphasis)
	window := Hamming(frameLen)
	melFB := newMelFilterbank(cfg.NumMelFilters, fftSize, sr, 0, float64(sr)/2)
	dct := newDCTTable(cfg.NumCepstra, cfg.NumMelFilters)
	pitch := newPitchTracker(sr, cfg.PitchMinHz, cfg.PitchMaxHz, cfg.VoicingThreshold)
	formants := newFormantTracker(sr, cfg.lpcOrder(sr), frameLen, cfg.MinFormantHz, cfg.MaxFormantHz)

	n := frameCount(len(w.Samples), frameLen, shift)
	frames := make([]Frame, n)
	raw := make([]float64, frameLen)
	emph := make([]float64, frameLen)
	melBuf := make([]float64, cfg.NumMelFilters)
	cepAll := make([]float64, n*cfg.NumCepstra)

	for i := 0; i < n; i++ {
		start := i * shift
		slice(raw, w.Samples, start)
		slice(emph, emphasized, start)

		f := &frames[i]
		f.Time = (float64(start) + float64(frameLen)/2) / float64(sr)
		f.RMS = rms(raw)
		f.Active = f.RMS >= cfg.SilenceRMS

		cep := cepAll[i*cfg.NumCepstra : (i+1)*cfg.NumCepstra]
		es := computeSpectrum(emph, window, fftSize, sr)
		melFB.applyInto(es.power, melBuf)
		dct.applyInto(melBuf, cep)
		f.MFCC = cep

		if !f.Active {
			continue
		}

		f.ZCR = zeroCrossingRate(raw)
		rs := computeSpectrum(raw, window, fftSize, sr)
		f.Centroid = rs.centroid()
		f.Bandwidth = rs.bandwidth(f.Centroid)
		f.Rolloff = rs.rolloff(cfg.RolloffPercent)
		f.LowBandRatio = rs.lowBandRatio(cfg.LowBandHz)

		f.Pitch, f.Voiced = pitch.estimate(w.Samples, start)

		if fm, ok := formants.estimate(emph); ok {
			f.Formants = fm
		}
	}

	summary := summarize(frames)
	summary.Duration = w.Duration()

	return &Result{SampleRate: sr, Frames: frames, Summary: summary}, nil
}

func summarize(frames []Frame) Summary {
	s := Summary{TotalFrames: len(frames)}
	if len(frames) == 0 {
		return s
	}

	var energy, pitches, centroid, rolloff, bandwidth, zcr, lowBand []float64
	var formantVals [3][]float64
	var active []Frame

	for _, f := range frames {
		energy = append(energy, f.RMS)
		if f.RMS > s.EnergyPeak {
			s.EnergyPeak = f.RMS
		}
		if !f.Active {
			continue
		}
		active = append(active, f)
		centroid = append(centroid, f.Centroid)
		rolloff = append(rolloff, f.Rolloff)
		bandwidth = append(bandwidth, f.Bandwidth)
		zcr = append(zcr, f.ZCR)
		lowBand = append(lowBand, f.LowBandRatio)
		if f.Voiced {
			pitches = append(pitches, f.Pitch)
		}
		for k, v := range f.Formants {
			if v > 0 {
				formantVals[k] = append(formantVals[k], v)
			}
		}
	}

	s.ActiveFrames = len(active)
	s.EnergyMean, s.EnergyStd = meanStd(energy)
	s.SpectralCentroid, _ = meanStd(centroid)
	s.SpectralRolloff, _ = meanStd(rolloff)
	s.SpectralBandwidth, _ = meanStd(bandwidth)
	s.ZeroCrossingRate, _ = meanStd(zcr)
	s.LowBandRatio, _ = meanStd(lowBand)

	s.VoicedFrames = len(pitches)
	s.Voiced = len(pitches) > 0
	s.PitchMean, s.PitchStd = meanStd(pitches)

	s.F1, _ = meanStd(formantVals[0])
	s.F2, _ = meanStd(formantVals[1])
	s.F3, _ = meanStd(formantVals[2])

	mfccSrc := active
	if len(mfccSrc) == 0 {
		mfccSrc = frames
	}
	s.MFCCMean, s.MFCCStd = mfccStats(mfccSrc)
	return s
}

func mfccStats(frames []Frame) ([]float64, []float64) {
	dim := len(frames[0].MFCC)
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for _, f := range frames {
		for k, v := range f.MFCC {
			mean[k] += v
		}
	}
	n := float64(len(frames))
	for k := range mean {
		mean[k] /= n
	}
	for _, f := range frames {
		for k, v := range f.MFCC {
			d := v - mean[k]
			std[k] += d * d
		}
	}
	for k := range std {
		std[k] = math.Sqrt(std[k] / n)
	}
	return mean, std
}

// meanStd returns the mean and population standard deviation of v, or
// zeros for an empty slice.
func meanStd(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	ss := 0.0
	for _, x := range v {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(v)))
}
