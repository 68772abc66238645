package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAVFile decodes a PCM WAV file into a mono waveform.
func ReadWAVFile(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()
	return ReadWAV(f)
}

// ReadWAVBytes decodes an in-memory PCM WAV file.
func ReadWAVBytes(data []byte) (Waveform, error) {
	return ReadWAV(bytes.NewReader(data))
}

// ReadWAV decodes PCM WAV data. Multi-channel input is averaged to mono and
// integer samples are scaled to [-1, 1] by their bit depth.
func ReadWAV(r io.ReadSeeker) (Waveform, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Waveform{}, fmt.Errorf("%w: not a valid wav file", ErrMalformed)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("decode pcm: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return Waveform{}, fmt.Errorf("%w: missing pcm format", ErrMalformed)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return Waveform{}, fmt.Errorf("%w: unsupported bit depth %d", ErrMalformed, bitDepth)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	samples := toMono(buf, channels, bitDepth)
	if len(samples) == 0 {
		return Waveform{}, ErrEmpty
	}

	return Waveform{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

func toMono(buf *goaudio.IntBuffer, channels, bitDepth int) []float64 {
	scale := 1.0 / float64(int64(1)<<(uint(bitDepth)-1))
	if bitDepth == 8 {
		// 8-bit PCM is unsigned; go-audio hands back raw 0..255 values.
		out := make([]float64, len(buf.Data)/channels)
		for i := range out {
			sum := 0.0
			for c := 0; c < channels; c++ {
				sum += float64(buf.Data[i*channels+c]-128) * scale
			}
			out[i] = sum / float64(channels)
		}
		return out
	}

	out := make([]float64, len(buf.Data)/channels)
	for i := range out {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) * scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}
