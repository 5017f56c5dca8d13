// Package models управляет моделями распознавания речи.
package models

import "fmt"

// Engine тип движка распознавания.
type Engine string

const (
	EngineWhisper Engine = "whisper"
	EngineVosk    Engine = "vosk"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "whisper-tiny-q5"
	Engine   Engine // Движок: whisper или vosk
	Name     string // Отображаемое имя: "Tiny Q5"
	Language string // Язык модели, пусто для мультиязычных
	Filename string // Имя файла/директории: "ggml-tiny-q5_1.bin"
	URL      string // URL для скачивания
	Size     int64  // Размер в байтах (для прогресса)
	IsZip    bool   // Нужно ли распаковывать
}

// SizeString возвращает размер в мегабайтах.
func (m ModelInfo) SizeString() string {
	return fmt.Sprintf("%dMB", m.Size/(1024*1024))
}

const whisperBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

const voskBaseURL = "https://alphacephei.com/vosk/models/"

func whisperModel(id, name, filename string, sizeMB int64) ModelInfo {
	return ModelInfo{
		ID:       id,
		Engine:   EngineWhisper,
		Name:     name,
		Filename: filename,
		URL:      whisperBaseURL + filename,
		Size:     sizeMB * 1024 * 1024,
	}
}

func voskModel(id, name, lang, dir string, sizeMB int64) ModelInfo {
	return ModelInfo{
		ID:       id,
		Engine:   EngineVosk,
		Name:     name,
		Language: lang,
		Filename: dir,
		URL:      voskBaseURL + dir + ".zip",
		Size:     sizeMB * 1024 * 1024,
		IsZip:    true,
	}
}

// Registry все доступные модели.
var Registry = []ModelInfo{
	// Whisper - квантизированные модели (рекомендуется для CPU)
	whisperModel("whisper-tiny-q5", "Tiny Q5", "ggml-tiny-q5_1.bin", 32),
	whisperModel("whisper-base-q5", "Base Q5", "ggml-base-q5_1.bin", 60),
	whisperModel("whisper-small-q5", "Small Q5", "ggml-small-q5_1.bin", 190),
	whisperModel("whisper-medium-q5", "Medium Q5", "ggml-medium-q5_0.bin", 539),
	whisperModel("whisper-turbo", "Large v3 Turbo", "ggml-large-v3-turbo-q5_0.bin", 574),
	// Whisper - оригинальные модели (больше размер, чуть лучше качество)
	whisperModel("whisper-tiny", "Tiny", "ggml-tiny.bin", 75),
	whisperModel("whisper-base", "Base", "ggml-base.bin", 142),
	whisperModel("whisper-small", "Small", "ggml-small.bin", 466),
	// Vosk
	voskModel("vosk-en-small", "English Small", "en", "vosk-model-small-en-us-0.15", 40),
	voskModel("vosk-en", "English Large", "en", "vosk-model-en-us-0.22", 1800),
	voskModel("vosk-ru-small", "Russian Small", "ru", "vosk-model-small-ru-0.22", 45),
	voskModel("vosk-ru", "Russian Large", "ru", "vosk-model-ru-0.42", 1800),
	voskModel("vosk-es-small", "Spanish Small", "es", "vosk-model-small-es-0.42", 39),
}

// DefaultModelID модель по умолчанию.
func DefaultModelID() string {
	return "whisper-small-q5"
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByEngine возвращает модели для указанного движка.
func GetModelsByEngine(engine Engine) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}

// AllEngines возвращает все локальные движки.
func AllEngines() []Engine {
	return []Engine{EngineWhisper, EngineVosk}
}

// EngineName возвращает отображаемое имя движка.
func EngineName(e Engine) string {
	switch e {
	case EngineWhisper:
		return "Whisper"
	case EngineVosk:
		return "Vosk"
	default:
		return string(e)
	}
}
