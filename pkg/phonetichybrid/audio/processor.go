package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/utils"
)

// ErrFFmpegMissing is returned when the ffmpeg binary cannot be found.
var ErrFFmpegMissing = errors.New("audio: ffmpeg not found in PATH")

type ConvertWAVConfig struct {
	SampleRate int
	// Binary overrides the ffmpeg executable, mostly for tests.
	Binary string
}

// ConvertToMonoWAV transcodes any container ffmpeg understands (webm, ogg,
// mp3, m4a, wav) into 16-bit mono PCM WAV at cfg.SampleRate and returns the
// path of the converted file inside outputDir. The caller owns that file.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	bin := cfg.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", ErrFFmpegMissing
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, baseName+"."+strconv.Itoa(cfg.SampleRate)+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		bin,
		"-y",
		"-v", "error",
		"-i", inputPath,
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: ffmpeg failed: %v (%s)", ErrMalformed, err, strings.TrimSpace(string(out)))
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// LoadFile converts inputPath with ffmpeg and decodes the result. The
// intermediate WAV is removed before returning.
func LoadFile(ctx context.Context, inputPath, tempDir string, sampleRate int) (Waveform, error) {
	wavPath, err := ConvertToMonoWAV(ctx, inputPath, tempDir, ConvertWAVConfig{SampleRate: sampleRate})
	if errors.Is(err, ErrFFmpegMissing) && strings.EqualFold(filepath.Ext(inputPath), ".wav") {
		// Without ffmpeg a WAV upload is read as is, at its own sample rate.
		return ReadWAVFile(inputPath)
	}
	if err != nil {
		return Waveform{}, fmt.Errorf("audio conversion failed: %w", err)
	}
	defer utils.DeleteFile(wavPath)

	w, err := ReadWAVFile(wavPath)
	if err != nil {
		return Waveform{}, fmt.Errorf("failed to read converted wav: %w", err)
	}
	return w, nil
}
