// Package audio определяет формат входящего аудио, приводит его к каноническому
// WAV через ffmpeg и декодирует в сэмплы для распознавателя.
package audio

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	// SampleRate - частота дискретизации (требование Whisper).
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// MinSamples - минимальное количество сэмплов (200ms при 16kHz).
	// Whisper требует минимум 100ms, добавляем запас.
	MinSamples = SampleRate / 5
)

// Format тег формата аудио.
type Format string

const (
	FormatUnknown Format = ""
	FormatOGG     Format = "ogg"
	FormatOpus    Format = "opus"
	FormatMP3     Format = "mp3"
	FormatM4A     Format = "m4a"
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatAAC     Format = "aac"
	FormatWebM    Format = "webm"
)

// Canonical - формат, который распознаватель принимает без конвертации.
const Canonical = FormatWAV

var byExtension = map[string]Format{
	".ogg":  FormatOGG,
	".oga":  FormatOGG,
	".opus": FormatOpus,
	".mp3":  FormatMP3,
	".m4a":  FormatM4A,
	".mp4":  FormatM4A,
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".flac": FormatFLAC,
	".aac":  FormatAAC,
	".webm": FormatWebM,
}

var byMIME = map[string]Format{
	"audio/ogg":      FormatOGG,
	"audio/opus":     FormatOpus,
	"audio/mpeg":     FormatMP3,
	"audio/mp3":      FormatMP3,
	"audio/mp4":      FormatM4A,
	"audio/x-m4a":    FormatM4A,
	"audio/m4a":      FormatM4A,
	"audio/wav":      FormatWAV,
	"audio/x-wav":    FormatWAV,
	"audio/wave":     FormatWAV,
	"audio/vnd.wave": FormatWAV,
	"audio/flac":     FormatFLAC,
	"audio/x-flac":   FormatFLAC,
	"audio/aac":      FormatAAC,
	"audio/x-aac":    FormatAAC,
	"audio/webm":     FormatWebM,
}

// Detect определяет формат по имени файла и MIME типу.
// Расширение имени файла приоритетнее MIME типа.
func Detect(filename, mimeType string) Format {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if f, ok := byExtension[ext]; ok {
			return f
		}
	}

	if mimeType != "" {
		mt, _, err := mime.ParseMediaType(mimeType)
		if err != nil {
			mt = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
		}
		if f, ok := byMIME[strings.ToLower(mt)]; ok {
			return f
		}
	}

	return FormatUnknown
}

// Supported возвращает true для всех известных форматов.
func (f Format) Supported() bool {
	for _, s := range SupportedFormats() {
		if f == s {
			return true
		}
	}
	return false
}

// NeedsConversion возвращает true если перед распознаванием нужен ffmpeg.
func (f Format) NeedsConversion() bool {
	return f.Supported() && f != Canonical
}

// Ext возвращает расширение файла с точкой.
func (f Format) Ext() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + string(f)
}

// String возвращает имя формата для сообщений пользователю.
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return strings.ToUpper(string(f))
}

// SupportedFormats возвращает список поддерживаемых форматов.
func SupportedFormats() []Format {
	return []Format{FormatOGG, FormatOpus, FormatMP3, FormatM4A, FormatWAV, FormatFLAC, FormatAAC, FormatWebM}
}
