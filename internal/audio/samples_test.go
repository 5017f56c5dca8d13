package audio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, path string, rate, channels int, frames int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(rate)) * 16000)
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestLoadSamplesCanonical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, path, SampleRate, 1, SampleRate)

	samples, err := LoadSamples(path)
	require.NoError(t, err)

	assert.Len(t, samples, SampleRate)
	for _, s := range samples {
		assert.LessOrEqual(t, s, float32(1))
		assert.GreaterOrEqual(t, s, float32(-1))
	}
}

func TestLoadSamplesDownmixAndResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWAV(t, path, 44100, 2, 44100)

	samples, err := LoadSamples(path)
	require.NoError(t, err)

	assert.InDelta(t, SampleRate, len(samples), 2)
}

func TestLoadSamplesPadsShortClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	writeTestWAV(t, path, SampleRate, 1, 100)

	samples, err := LoadSamples(path)
	require.NoError(t, err)

	assert.Len(t, samples, MinSamples)
	assert.Zero(t, samples[MinSamples-1])
}

func TestLoadSamplesRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a riff file"), 0o600))

	_, err := LoadSamples(path)
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestLoadSamplesMissingFile(t *testing.T) {
	_, err := LoadSamples(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	in := make([]float32, SampleRate/2)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) / 10))
	}

	data, err := EncodeWAV(in)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "enc.wav")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	assert.InDelta(t, in[100], out[100], 0.001)
}

func TestFFmpegMissingBinary(t *testing.T) {
	conv := NewFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg"))

	err := conv.Convert(context.Background(), "in.ogg", "out.wav")
	assert.Error(t, err)
}

func TestFFmpegArgs(t *testing.T) {
	args := NewFFmpeg("").Args("in.ogg", "out.wav")

	assert.Equal(t, "out.wav", args[len(args)-1])
	assert.Contains(t, args, "16000")
	assert.Contains(t, args, "pcm_s16le")
	assert.Subset(t, args, []string{"-i", "in.ogg"})
}
