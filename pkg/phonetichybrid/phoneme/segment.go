package phoneme

// Segment is the time span assigned to one phoneme of the target sequence.
type Segment struct {
	Index  int
	Symbol string
	Start  float64
	End    float64
}

// Duration returns End - Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

// Split assigns each phoneme an equal, contiguous share of total seconds.
// The last segment ends exactly at total. This is a uniform approximation,
// not a forced alignment.
func Split(seq []string, total float64) []Segment {
	if len(seq) == 0 {
		return []Segment{}
	}
	if total < 0 {
		total = 0
	}

	step := total / float64(len(seq))
	out := make([]Segment, len(seq))
	for i, p := range seq {
		out[i] = Segment{
			Index:  i,
			Symbol: p,
			Start:  float64(i) * step,
			End:    float64(i+1) * step,
		}
	}
	out[len(out)-1].End = total
	return out
}
