// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed - распознаватель уже закрыт.
var ErrClosed = errors.New("recognizer closed")

// Engine тип движка распознавания.
type Engine string

const (
	// EngineWhisper - whisper.cpp движок.
	EngineWhisper Engine = "whisper"
	// EngineVosk - Vosk движок.
	EngineVosk Engine = "vosk"
	// EngineOpenAI - OpenAI-совместимый сервер транскрипции.
	EngineOpenAI Engine = "openai"
)

// ParseEngine проверяет имя движка.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(s); e {
	case EngineWhisper, EngineVosk, EngineOpenAI:
		return e, nil
	case "":
		return EngineWhisper, nil
	default:
		return "", fmt.Errorf("неизвестный движок: %s", s)
	}
}

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Transcribe распознаёт речь из аудио сэмплов.
	// samples - аудио данные в формате float32, 16kHz, mono.
	// lang - язык распознавания ("ru", "en", "auto" для автоопределения).
	// Возвращает распознанный текст или ошибку.
	Transcribe(ctx context.Context, samples []float32, lang string) (string, error)

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}

// Config содержит общие настройки для создания распознавателя.
type Config struct {
	// Engine - тип движка (whisper, vosk, openai).
	Engine Engine

	// ModelID - ID модели из реестра.
	ModelID string

	// ModelPath - путь к модели, имеет приоритет над ModelID.
	ModelPath string

	// BeamSize - ширина beam search для Whisper (0 - greedy).
	BeamSize int

	// Threads - число потоков Whisper (0 - по умолчанию).
	Threads uint

	// OpenAI - настройки удалённого движка.
	OpenAI OpenAIConfig
}
