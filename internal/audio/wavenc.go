package audio

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// EncodeWAV упаковывает сэмплы float32 16kHz mono в PCM16 WAV в памяти.
func EncodeWAV(samples []float32) ([]byte, error) {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(clamp(s) * math.MaxInt16)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	ws := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(ws, SampleRate, 16, Channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	return io.ReadAll(ws.Reader())
}
