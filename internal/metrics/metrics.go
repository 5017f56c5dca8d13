// Package metrics собирает Prometheus метрики бота.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "algranobot"

// Статусы для меток status.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusDenied      = "denied"
	StatusUnsupported = "unsupported"
	StatusTooLarge    = "too_large"
	StatusEmpty       = "empty"
)

var (
	// messagesTotal - входящие сообщения по типу и исходу.
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of handled Telegram messages",
		},
		[]string{"kind", "status"}, // kind: voice, audio, document, command, text
	)

	// downloadDuration - время скачивания файла из Telegram.
	downloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Duration of Telegram file downloads in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// downloadBytes - размер скачанных файлов.
	downloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Total bytes downloaded from Telegram",
		},
	)

	// conversionDuration - время работы ffmpeg.
	conversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Duration of audio conversions in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"format"},
	)

	// conversionsTotal - конвертации по формату и исходу.
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Total number of audio format decisions",
		},
		[]string{"format", "status"}, // status: ok, error, unsupported, skipped
	)

	// transcriptionDuration - время распознавания.
	transcriptionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Duration of speech recognition in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"engine"},
	)

	// transcriptionsTotal - распознавания по движку и исходу.
	transcriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total number of speech recognitions",
		},
		[]string{"engine", "status"}, // status: ok, empty, error
	)

	// audioSeconds - длительность распознанного аудио.
	audioSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Total seconds of audio passed to recognizers",
		},
		[]string{"engine"},
	)

	// correctionsTotal - проходы LLM корректора.
	correctionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrections_total",
			Help:      "Total number of LLM text corrections",
		},
		[]string{"status"},
	)

	// allMetrics - список для регистрации.
	allMetrics = []prometheus.Collector{
		messagesTotal,
		downloadDuration,
		downloadBytes,
		conversionDuration,
		conversionsTotal,
		transcriptionDuration,
		transcriptionsTotal,
		audioSeconds,
		correctionsTotal,
	}
)

// RecordMessage учитывает обработанное сообщение.
func RecordMessage(kind, status string) {
	messagesTotal.WithLabelValues(kind, status).Inc()
}

// RecordDownload учитывает скачивание файла.
func RecordDownload(bytes int64, durationSeconds float64) {
	downloadDuration.Observe(durationSeconds)
	if bytes > 0 {
		downloadBytes.Add(float64(bytes))
	}
}

// RecordConversion учитывает решение format gate.
// Длительность учитывается только для реальных запусков конвертера.
func RecordConversion(format, status string, durationSeconds float64) {
	conversionsTotal.WithLabelValues(format, status).Inc()
	if durationSeconds > 0 {
		conversionDuration.WithLabelValues(format).Observe(durationSeconds)
	}
}

// RecordTranscription учитывает вызов распознавателя.
func RecordTranscription(engine, status string, durationSeconds, audioSecs float64) {
	transcriptionDuration.WithLabelValues(engine).Observe(durationSeconds)
	transcriptionsTotal.WithLabelValues(engine, status).Inc()
	if audioSecs > 0 {
		audioSeconds.WithLabelValues(engine).Add(audioSecs)
	}
}

// RecordCorrection учитывает проход корректора.
func RecordCorrection(status string) {
	correctionsTotal.WithLabelValues(status).Inc()
}
