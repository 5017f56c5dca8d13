package speech

import (
	"context"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperRecognizer реализует Recognizer через whisper.cpp.
type WhisperRecognizer struct {
	mu       sync.Mutex
	model    whisper.Model
	beamSize int
	threads  uint
}

// NewWhisperFromFile создаёт WhisperRecognizer из файла модели.
func NewWhisperFromFile(modelPath string, beamSize int, threads uint) (*WhisperRecognizer, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, err
	}

	return &WhisperRecognizer{
		model:    model,
		beamSize: beamSize,
		threads:  threads,
	}, nil
}

// Name возвращает название движка.
func (w *WhisperRecognizer) Name() string {
	return string(EngineWhisper)
}

// Transcribe распознаёт речь из аудио сэмплов.
func (w *WhisperRecognizer) Transcribe(ctx context.Context, samples []float32, lang string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if w.model == nil {
		return "", ErrClosed
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", err
	}

	// Отключаем перевод - только транскрипция
	wctx.SetTranslate(false)

	if w.beamSize > 0 {
		wctx.SetBeamSize(w.beamSize)
	}
	if w.threads > 0 {
		wctx.SetThreads(w.threads)
	}

	// Устанавливаем язык (для "auto" включится автодетект)
	if lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			return "", err
		}
	}

	// Отмена ctx прерывает обработку перед запуском энкодера
	keepGoing := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(samples, keepGoing, nil, nil); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Собираем результат из сегментов
	var result strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		result.WriteString(segment.Text)
	}

	return strings.TrimSpace(result.String()), nil
}

// Close освобождает ресурсы.
func (w *WhisperRecognizer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
}
