package scoring

import (
	"math"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/features"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phoneme"
)

// LinearScale maps a measurement linearly from [Low, High] onto
// [MinScore, 1], clamping outside the range.
type LinearScale struct {
	Low      float64
	High     float64
	MinScore float64
}

func (s LinearScale) Apply(v float64) float64 {
	if s.High <= s.Low {
		return s.MinScore
	}
	t := (v - s.Low) / (s.High - s.Low)
	return clamp01(s.MinScore + (1-s.MinScore)*clamp01(t))
}

// Config holds the fixed heuristic constants of the per-phoneme scorer.
type Config struct {
	Language string

	// NeutralScore is assigned to phonemes without a class heuristic.
	NeutralScore float64
	// LowConfidenceScore is assigned when the measurement a heuristic needs
	// is missing (silent segment, no formants, zero energy).
	LowConfidenceScore float64

	Burst     LinearScale // plosive: peak RMS / mean RMS
	Frication LinearScale // fricative: spectral centroid in Hz
	Nasality  LinearScale // nasal: share of power below 1 kHz
}

func DefaultConfig() Config {
	return Config{
		Language:           phoneme.DefaultLanguage,
		NeutralScore:       0.75,
		LowConfidenceScore: 0.3,
		Burst:              LinearScale{Low: 1.0, High: 2.5, MinScore: 0.4},
		Frication:          LinearScale{Low: 1500, High: 4000, MinScore: 0.4},
		Nasality:           LinearScale{Low: 0.3, High: 0.8, MinScore: 0.4},
	}
}

// Scorer rates a single phoneme segment from segment-local features.
// It holds only configuration and is safe for concurrent use.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	if cfg.Language == "" {
		cfg.Language = phoneme.DefaultLanguage
	}
	return &Scorer{cfg: cfg}
}

// Score returns a value in [0, 1] for seg given the features measured
// inside it. The result is never NaN.
func (s *Scorer) Score(seg phoneme.Segment, f features.Summary) float64 {
	return s.ScoreIn(s.cfg.Language, seg, f)
}

// ScoreIn is Score with an explicit vowel table language.
func (s *Scorer) ScoreIn(lang string, seg phoneme.Segment, f features.Summary) float64 {
	class := phoneme.Classify(seg.Symbol)
	if class == phoneme.Other {
		return s.cfg.NeutralScore
	}
	if f.ActiveFrames == 0 {
		return s.cfg.LowConfidenceScore
	}

	var score float64
	switch class {
	case phoneme.Vowel:
		score = s.vowel(lang, seg.Symbol, f)
	case phoneme.Plosive:
		score = s.plosive(f)
	case phoneme.Fricative:
		score = s.fricative(f)
	case phoneme.Nasal:
		score = s.nasal(f)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return s.cfg.LowConfidenceScore
	}
	return clamp01(score)
}

// vowel compares measured F1/F2 with the reference by mean relative error.
func (s *Scorer) vowel(lang, symbol string, f features.Summary) float64 {
	target, ok := phoneme.VowelTarget(lang, symbol)
	if !ok {
		return s.cfg.NeutralScore
	}
	if f.F1 <= 0 || f.F2 <= 0 {
		return s.cfg.LowConfidenceScore
	}
	e1 := math.Abs(f.F1-target.F1) / target.F1
	e2 := math.Abs(f.F2-target.F2) / target.F2
	return math.Max(0, 1-(e1+e2)/2)
}

// plosive rewards a pronounced energy burst relative to the segment mean.
func (s *Scorer) plosive(f features.Summary) float64 {
	if f.EnergyMean <= 0 {
		return s.cfg.LowConfidenceScore
	}
	return s.cfg.Burst.Apply(f.EnergyPeak / f.EnergyMean)
}

// fricative rewards high-frequency noise energy.
func (s *Scorer) fricative(f features.Summary) float64 {
	if f.SpectralCentroid <= 0 {
		return s.cfg.LowConfidenceScore
	}
	return s.cfg.Frication.Apply(f.SpectralCentroid)
}

// nasal rewards energy concentrated below 1 kHz.
func (s *Scorer) nasal(f features.Summary) float64 {
	if f.EnergyMean <= 0 {
		return s.cfg.LowConfidenceScore
	}
	return s.cfg.Nasality.Apply(f.LowBandRatio)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
