// Package transcriber связывает format gate, декодер и распознаватель.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"algranobot/internal/audio"
	"algranobot/internal/metrics"
	"algranobot/internal/speech"
)

var (
	// ErrTranscription - распознаватель вернул ошибку.
	ErrTranscription = errors.New("transcription failed")
	// ErrNoRecognizer - модель не загружена.
	ErrNoRecognizer = fmt.Errorf("%w: recognizer not loaded", ErrTranscription)
)

// Recognizers отдаёт текущий распознаватель.
// Реализуется speech.Factory.
type Recognizers interface {
	Current() speech.Recognizer
}

// Corrector исправляет распознанный текст.
// При ошибке должен вернуть исходный текст.
type Corrector interface {
	CorrectText(ctx context.Context, text string) (string, error)
}

// Options параметры Service.
type Options struct {
	Gate        *audio.Gate
	Recognizers Recognizers
	// Language - язык распознавания, "auto" для автоопределения.
	Language  string
	Corrector Corrector // может быть nil
	Logger    logrus.FieldLogger
}

// Service распознаёт аудиофайлы.
type Service struct {
	gate        *audio.Gate
	recognizers Recognizers
	language    string
	corrector   Corrector
	log         logrus.FieldLogger
}

// New создаёт Service.
func New(opts Options) (*Service, error) {
	if opts.Gate == nil {
		return nil, errors.New("transcriber: gate is required")
	}
	if opts.Recognizers == nil {
		return nil, errors.New("transcriber: recognizers are required")
	}

	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Service{
		gate:        opts.Gate,
		recognizers: opts.Recognizers,
		language:    lang,
		corrector:   opts.Corrector,
		log:         log,
	}, nil
}

// TranscribeFile распознаёт файл path в формате format.
// Ошибки оборачивают audio.ErrUnsupportedFormat, audio.ErrConversion
// или ErrTranscription. Тишина даёт пустую строку без ошибки.
func (s *Service) TranscribeFile(ctx context.Context, path string, format audio.Format) (string, error) {
	log := s.log.WithField("format", format.String())

	start := time.Now()
	wavPath, cleanup, err := s.gate.Prepare(ctx, path, format)
	defer cleanup()
	elapsed := time.Since(start).Seconds()

	switch {
	case errors.Is(err, audio.ErrUnsupportedFormat):
		metrics.RecordConversion(string(format), metrics.StatusUnsupported, 0)
		return "", err
	case err != nil:
		metrics.RecordConversion(string(format), metrics.StatusError, elapsed)
		return "", err
	case format.NeedsConversion():
		metrics.RecordConversion(string(format), metrics.StatusOK, elapsed)
		log.WithField("took", time.Since(start).Round(time.Millisecond)).Debug("аудио сконвертировано")
	default:
		metrics.RecordConversion(string(format), "skipped", 0)
	}

	samples, err := audio.LoadSamples(wavPath)
	if errors.Is(err, audio.ErrInvalidWAV) && !format.NeedsConversion() {
		// WAV не в PCM (float, extensible): отдаём его конвертеру
		log.WithError(err).Debug("wav не в PCM, конвертируем")
		samples, err = s.convertAndLoad(ctx, path, format)
	}
	var convErr *audio.ConversionError
	if errors.As(err, &convErr) {
		return "", err
	}
	if err != nil {
		// Битый WAV на выходе ffmpeg или от пользователя - это сбой обработки аудио
		return "", &audio.ConversionError{Format: format, Err: err}
	}

	return s.TranscribeSamples(ctx, samples)
}

func (s *Service) convertAndLoad(ctx context.Context, path string, format audio.Format) ([]float32, error) {
	start := time.Now()
	wavPath, cleanup, err := s.gate.Convert(ctx, path, format)
	defer cleanup()
	if err != nil {
		metrics.RecordConversion(string(format), metrics.StatusError, time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordConversion(string(format), metrics.StatusOK, time.Since(start).Seconds())

	return audio.LoadSamples(wavPath)
}

// TranscribeSamples распознаёт сэмплы 16kHz mono и прогоняет текст через корректор.
func (s *Service) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	recognizer := s.recognizers.Current()
	if recognizer == nil {
		return "", ErrNoRecognizer
	}

	engine := recognizer.Name()
	audioSecs := float64(len(samples)) / audio.SampleRate
	log := s.log.WithFields(logrus.Fields{
		"engine":   engine,
		"duration": time.Duration(audioSecs * float64(time.Second)).Round(time.Millisecond),
	})

	start := time.Now()
	text, err := recognizer.Transcribe(ctx, samples, s.language)
	took := time.Since(start)
	if err != nil {
		metrics.RecordTranscription(engine, metrics.StatusError, took.Seconds(), audioSecs)
		return "", fmt.Errorf("%w: %s: %w", ErrTranscription, engine, err)
	}

	if text == "" {
		metrics.RecordTranscription(engine, metrics.StatusEmpty, took.Seconds(), audioSecs)
		log.Debug("речь не обнаружена")
		return "", nil
	}

	metrics.RecordTranscription(engine, metrics.StatusOK, took.Seconds(), audioSecs)
	log.WithField("took", took.Round(time.Millisecond)).Info("аудио распознано")

	if s.corrector == nil {
		return text, nil
	}

	corrected, err := s.corrector.CorrectText(ctx, text)
	if err != nil || corrected == "" {
		metrics.RecordCorrection(metrics.StatusError)
		log.WithError(err).Warn("коррекция не удалась, используется исходный текст")
		return text, nil
	}
	metrics.RecordCorrection(metrics.StatusOK)

	return corrected, nil
}
