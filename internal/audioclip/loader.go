// Package audioclip loads WAV recordings as fixed-length, single-channel
// waveforms. Every clip a dataset family consumes is forced to exactly
// sample_rate * clip_seconds samples so downstream feature extraction sees a
// constant input shape.
package audioclip

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/logging"
)

var logger *slog.Logger = logging.ForService("audioclip")

// LoadFunc converts a file path into a fixed-length waveform. Datasets hold
// one of these instead of a concrete loader so tests can substitute synthetic
// audio.
type LoadFunc func(path string) ([]float64, error)

// Loader reads WAV files at a fixed sample rate and clip duration.
type Loader struct {
	SampleRate  int // expected sample rate of the dataset family
	ClipSeconds int // target clip duration in seconds
}

// NewLoader returns a loader for one dataset family's audio parameters.
func NewLoader(sampleRate, clipSeconds int) *Loader {
	return &Loader{SampleRate: sampleRate, ClipSeconds: clipSeconds}
}

// NewLoadFunc binds a loader into the LoadFunc shape datasets consume.
func NewLoadFunc(sampleRate, clipSeconds int) LoadFunc {
	loader := NewLoader(sampleRate, clipSeconds)
	return loader.Load
}

// TargetLength returns the exact sample count every loaded clip has.
func (l *Loader) TargetLength() int {
	return l.SampleRate * l.ClipSeconds
}

// Load decodes the WAV file at path and returns a single-channel waveform of
// exactly TargetLength samples. Decode failures are fatal for the file, there
// is no silent skip.
func (l *Loader) Load(path string) ([]float64, error) {
	wave, err := decodeWAV(path)
	if err != nil {
		return nil, errors.New(err).
			Component("audioclip").
			Category(errors.CategoryAudioDecode).
			Context("path", path).
			Build()
	}

	return FitLength(wave, l.TargetLength()), nil
}

// FitLength forces wave to exactly target samples. Longer input is truncated
// from the start. Shorter input is padded with (target-len)/2 + 1 zeros on
// each side, then truncated to target. The pad count reproduces the off-by-one
// safe policy the trained models were calibrated against; do not simplify it.
func FitLength(wave []float64, target int) []float64 {
	if len(wave) >= target {
		return wave[:target]
	}

	nPad := (target-len(wave))/2 + 1
	out := make([]float64, target)
	copy(out[nPad:], wave)
	return out
}

// decodeWAV reads the whole file as normalized float64 samples, taking
// channel 0 of multichannel input.
func decodeWAV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("input is not a valid WAV audio file: %s", path)
	}

	// Divisor for converting audio samples from int to float
	var divisor float64
	switch decoder.BitDepth {
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		return nil, fmt.Errorf("unsupported audio bit depth: %d", decoder.BitDepth)
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, 8192),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: channels},
	}

	var wave []float64
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i += channels {
			wave = append(wave, float64(buf.Data[i])/divisor)
		}
	}

	if len(wave) == 0 {
		return nil, fmt.Errorf("file contains no samples: %s", path)
	}

	logger.Debug("decoded audio clip", "path", path, "samples", len(wave),
		"sample_rate", decoder.SampleRate, "channels", channels)

	return wave, nil
}
