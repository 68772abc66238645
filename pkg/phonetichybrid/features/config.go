package features

// Config holds the frame analysis parameters. Zero fields are replaced with
// the values from DefaultConfig when an Extractor is built.
type Config struct {
	FrameLenMs   float64 // analysis frame length in milliseconds
	FrameShiftMs float64 // hop between frames in milliseconds
	PreEmphasis  float64

	NumMelFilters int
	NumCepstra    int

	PitchMinHz       float64
	PitchMaxHz       float64
	VoicingThreshold float64 // minimum normalized autocorrelation for a voiced frame

	MaxFormantHz float64
	MinFormantHz float64
	// LPCOrder of 0 selects 2 + sampleRate/1000.
	LPCOrder int

	// SilenceRMS is the frame RMS below which a frame is treated as inactive.
	SilenceRMS float64

	RolloffPercent float64
	LowBandHz      float64
}

func DefaultConfig() Config {
	return Config{
		FrameLenMs:       25,
		FrameShiftMs:     10,
		PreEmphasis:      0.97,
		NumMelFilters:    26,
		NumCepstra:       13,
		PitchMinHz:       65,
		PitchMaxHz:       2000,
		VoicingThreshold: 0.45,
		MaxFormantHz:     5500,
		MinFormantHz:     90,
		SilenceRMS:       1e-4,
		RolloffPercent:   0.85,
		LowBandHz:        1000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FrameLenMs <= 0 {
		c.FrameLenMs = d.FrameLenMs
	}
	if c.FrameShiftMs <= 0 {
		c.FrameShiftMs = d.FrameShiftMs
	}
	if c.PreEmphasis <= 0 {
		c.PreEmphasis = d.PreEmphasis
	}
	if c.NumMelFilters <= 0 {
		c.NumMelFilters = d.NumMelFilters
	}
	if c.NumCepstra <= 0 {
		c.NumCepstra = d.NumCepstra
	}
	if c.PitchMinHz <= 0 {
		c.PitchMinHz = d.PitchMinHz
	}
	if c.PitchMaxHz <= c.PitchMinHz {
		c.PitchMaxHz = d.PitchMaxHz
	}
	if c.VoicingThreshold <= 0 {
		c.VoicingThreshold = d.VoicingThreshold
	}
	if c.MaxFormantHz <= 0 {
		c.MaxFormantHz = d.MaxFormantHz
	}
	if c.MinFormantHz <= 0 {
		c.MinFormantHz = d.MinFormantHz
	}
	if c.SilenceRMS <= 0 {
		c.SilenceRMS = d.SilenceRMS
	}
	if c.RolloffPercent <= 0 || c.RolloffPercent >= 1 {
		c.RolloffPercent = d.RolloffPercent
	}
	if c.LowBandHz <= 0 {
		c.LowBandHz = d.LowBandHz
	}
	return c
}

func (c Config) lpcOrder(sampleRate int) int {
	if c.LPCOrder > 0 {
		return c.LPCOrder
	}
	return 2 + sampleRate/1000
}
