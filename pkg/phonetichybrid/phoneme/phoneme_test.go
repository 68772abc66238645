package phoneme

import (
	"math"
	"testing"
)

func TestSplitCoversDuration(t *testing.T) {
	seq := []string{"p", "e", "n", "d͡ʒ", "e", "ɾ", "e"}
	const total = 1.37

	segs := Split(seq, total)
	if len(segs) != len(seq) {
		t.Fatalf("got %d segments, want %d", len(segs), len(seq))
	}
	if segs[0].Start != 0 {
		t.Errorf("first segment starts at %f", segs[0].Start)
	}
	if segs[len(segs)-1].End != total {
		t.Errorf("last segment ends at %v, want exactly %v", segs[len(segs)-1].End, total)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start != segs[i-1].End {
			t.Errorf("gap between segment %d and %d", i-1, i)
		}
	}
	want := total / float64(len(seq))
	for i, s := range segs {
		if s.Symbol != seq[i] || s.Index != i {
			t.Errorf("segment %d = %+v", i, s)
		}
		if math.Abs(s.Duration()-want) > 1e-9 {
			t.Errorf("segment %d duration = %f, want %f", i, s.Duration(), want)
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	segs := Split(nil, 2)
	if segs == nil || len(segs) != 0 {
		t.Errorf("Split(nil) = %#v, want empty non-nil slice", segs)
	}
}

func TestSplitDeterministic(t *testing.T) {
	seq := []string{"a", "b", "c"}
	a, b := Split(seq, 0.9), Split(seq, 0.9)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("segment %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		symbol string
		want   Class
	}{
		{"a", Vowel},
		{"ˈe", Vowel},
		{"iː", Vowel},
		{"ø", Vowel},
		{"p", Plosive},
		{"ɡ", Plosive},
		{"d͡ʒ", Plosive},
		{"t͡ʃ", Plosive},
		{"s", Fricative},
		{"ʃ", Fricative},
		{"h", Fricative},
		{"m", Nasal},
		{"ŋ", Nasal},
		{"ɾ", Other},
		{"l", Other},
		{"j", Other},
		{"?", Other},
	}
	for _, tt := range tests {
		if got := Classify(tt.symbol); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestVowelTarget(t *testing.T) {
	f, ok := VowelTarget("tr", "a")
	if !ok || f.F1 != 800 || f.F2 != 1300 {
		t.Errorf("tr a = %+v, %v", f, ok)
	}
	if _, ok := VowelTarget("tr", "æ"); ok {
		t.Error("æ is not part of the Turkish table")
	}
	if f, ok := VowelTarget("en", "æ"); !ok || f.F1 != 660 {
		t.Errorf("en æ = %+v, %v", f, ok)
	}
	if f, ok := VowelTarget("xx", "i"); !ok || f.F2 != 2300 {
		t.Errorf("unknown language should fall back to tr, got %+v", f)
	}
}

func TestCountVowels(t *testing.T) {
	if n := CountVowels([]string{"p", "e", "n", "d͡ʒ", "e", "ɾ", "e"}); n != 3 {
		t.Errorf("CountVowels = %d, want 3", n)
	}
}
