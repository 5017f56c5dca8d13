package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV - файл не является PCM WAV.
var ErrInvalidWAV = errors.New("invalid wav file")

// LoadSamples читает PCM WAV и возвращает сэмплы float32 16kHz mono в диапазоне [-1, 1].
// Стерео сводится в моно, другая частота пересчитывается линейной интерполяцией.
func LoadSamples(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: audio format %d is not PCM", ErrInvalidWAV, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidWAV)
	}

	samples := toMono(buf)
	samples = resample(samples, buf.Format.SampleRate, SampleRate)

	// Добавляем тишину если запись слишком короткая
	if len(samples) < MinSamples {
		padding := make([]float32, MinSamples-len(samples))
		samples = append(samples, padding...)
	}

	return samples, nil
}

// toMono нормализует целочисленные сэмплы и усредняет каналы.
func toMono(buf *goaudio.IntBuffer) []float32 {
	channels := buf.Format.NumChannels
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := float32(math.Pow(2, float64(depth-1)))

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			v := buf.Data[i*channels+c]
			if depth == 8 {
				// 8-bit WAV хранится беззнаковым
				v -= 128
			}
			sum += float32(v) / scale
		}
		out[i] = clamp(sum / float32(channels))
	}
	return out
}

// resample пересчитывает частоту дискретизации линейной интерполяцией.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}

	ratio := float64(from) / float64(to)
	n := int(float64(len(in)) / ratio)
	out := make([]float32, n)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
