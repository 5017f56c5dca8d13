package speech

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// voskSampleRate - частота, на которой работают модели Vosk.
const voskSampleRate = 16000.0

// VoskRecognizer реализует Recognizer через Vosk.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

// voskResult структура для парсинга JSON результата от Vosk.
type voskResult struct {
	Text string `json:"text"`
}

// NewVosk создаёт VoskRecognizer из пути к модели.
func NewVosk(modelPath string) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	// Подавляем подробный лог Kaldi
	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, voskSampleRate)
	if err != nil {
		model.Free()
		return nil, err
	}

	return &VoskRecognizer{
		model:      model,
		recognizer: rec,
	}, nil
}

// Name возвращает название движка.
func (v *VoskRecognizer) Name() string {
	return string(EngineVosk)
}

// Transcribe распознаёт речь из аудио сэмплов.
// Язык определяется моделью, параметр lang игнорируется.
func (v *VoskRecognizer) Transcribe(ctx context.Context, samples []float32, _ string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if v.recognizer == nil {
		return "", ErrClosed
	}

	v.recognizer.AcceptWaveform(toPCM16(samples))
	resultJSON := v.recognizer.FinalResult()

	// Сбрасываем распознаватель для следующего использования
	v.recognizer.Reset()

	var result voskResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return "", fmt.Errorf("ошибка разбора результата Vosk: %w", err)
	}

	return result.Text, nil
}

// toPCM16 конвертирует float32 [-1, 1] в int16 little-endian.
func toPCM16(samples []float32) []byte {
	pcm16 := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		val := int16(sample * math.MaxInt16)
		binary.LittleEndian.PutUint16(pcm16[i*2:], uint16(val))
	}
	return pcm16
}

// Close освобождает ресурсы.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}

	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}
