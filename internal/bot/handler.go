// Package bot принимает сообщения Telegram и отвечает расшифровкой аудио.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"algranobot/internal/access"
	"algranobot/internal/audio"
	"algranobot/internal/i18n"
	"algranobot/internal/metrics"
	"algranobot/internal/notify"
)

// MaxDownloadSize - лимит Bot API на скачивание файлов.
const MaxDownloadSize = 20 * 1024 * 1024

// ErrDownload - файл не удалось получить из Telegram.
var ErrDownload = errors.New("download failed")

// API - методы *tgbotapi.BotAPI, которые использует обработчик.
type API interface {
	notify.Sender
	GetFileDirectURL(fileID string) (string, error)
}

// Transcriber распознаёт аудиофайл.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string, format audio.Format) (string, error)
}

// Options параметры Handler.
type Options struct {
	Allowlist access.Allowlist
	// TempDir - каталог для временных файлов, пусто - os.TempDir().
	TempDir string
	// MaxFileSize - максимальный размер файла, 0 - MaxDownloadSize.
	MaxFileSize int64
	// Engine - имя движка распознавания для /start и /help.
	Engine     string
	HTTPClient *http.Client
	Logger      logrus.FieldLogger
}

// Handler обрабатывает одно обновление за раз.
type Handler struct {
	api         API
	transcriber Transcriber
	allow       access.Allowlist
	tempDir     string
	maxFileSize int64
	engine      string
	client      *http.Client
	log         logrus.FieldLogger
}

// NewHandler создаёт Handler.
func NewHandler(api API, tr Transcriber, opts Options) *Handler {
	h := &Handler{
		api:         api,
		transcriber: tr,
		allow:       opts.Allowlist,
		tempDir:     opts.TempDir,
		maxFileSize: opts.MaxFileSize,
		engine:      opts.Engine,
		client:      opts.HTTPClient,
		log:         opts.Logger,
	}
	if h.tempDir == "" {
		h.tempDir = os.TempDir()
	}
	if h.maxFileSize <= 0 {
		h.maxFileSize = MaxDownloadSize
	}
	if h.engine == "" {
		h.engine = "whisper"
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: 2 * time.Minute}
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	return h
}

// attachment - аудио из сообщения.
type attachment struct {
	kind     string
	fileID   string
	fileName string
	mimeType string
	size     int64
}

// label возвращает имя формата для сообщения пользователю.
func (a attachment) label(format audio.Format) string {
	if format.Supported() {
		return format.String()
	}
	if ext := strings.TrimPrefix(filepath.Ext(a.fileName), "."); ext != "" {
		return strings.ToUpper(ext)
	}
	if a.mimeType != "" {
		return a.mimeType
	}
	return format.String()
}

// audioAttachment извлекает голосовое, аудио или документ с аудио.
func audioAttachment(m *tgbotapi.Message) (attachment, bool) {
	switch {
	case m.Voice != nil:
		mimeType := m.Voice.MimeType
		if mimeType == "" {
			// Голосовые Telegram всегда OGG/Opus
			mimeType = "audio/ogg"
		}
		return attachment{
			kind:     "voice",
			fileID:   m.Voice.FileID,
			mimeType: mimeType,
			size:     int64(m.Voice.FileSize),
		}, true
	case m.Audio != nil:
		return attachment{
			kind:     "audio",
			fileID:   m.Audio.FileID,
			fileName: m.Audio.FileName,
			mimeType: m.Audio.MimeType,
			size:     int64(m.Audio.FileSize),
		}, true
	case m.Document != nil:
		d := m.Document
		if !strings.HasPrefix(strings.ToLower(d.MimeType), "audio/") && !audio.Detect(d.FileName, "").Supported() {
			return attachment{}, false
		}
		return attachment{
			kind:     "document",
			fileID:   d.FileID,
			fileName: d.FileName,
			mimeType: d.MimeType,
			size:     int64(d.FileSize),
		}, true
	}
	return attachment{}, false
}

// HandleUpdate обрабатывает обновление. Ошибки не возвращаются:
// каждая превращается в ответ пользователю.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	var userID, chatID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}

	log := h.log.WithFields(logrus.Fields{
		"user_id": userID,
		"chat_id": chatID,
	})

	att, isAudio := audioAttachment(msg)
	kind := att.kind
	switch {
	case isAudio:
	case msg.IsCommand():
		kind = "command"
	default:
		kind = "text"
	}

	if !h.allow.Allowed(userID, chatID) {
		metrics.RecordMessage(kind, metrics.StatusDenied)
		log.WithField("kind", kind).Warn("сообщение от неразрешённого отправителя проигнорировано")
		return
	}

	n := notify.New(h.api, chatID, msg.MessageID, log)

	switch {
	case isAudio:
		h.handleAudio(ctx, n, att, log)
	case msg.IsCommand():
		h.handleCommand(n, msg.Command())
		metrics.RecordMessage(kind, metrics.StatusOK)
	default:
		n.Info(i18n.T("send_audio"))
		metrics.RecordMessage(kind, metrics.StatusOK)
	}
}

func (h *Handler) handleCommand(n *notify.Notifier, command string) {
	switch command {
	case "start":
		n.Info(i18n.Tf("start", h.engineLabel()))
	case "help":
		n.Info(i18n.Tf("help", h.engineLabel(), supportedList()))
	}
}

// engineLabel возвращает локализованное название движка.
func (h *Handler) engineLabel() string {
	key := "engine_" + h.engine
	if label := i18n.T(key); label != key {
		return label
	}
	return h.engine
}

func (h *Handler) handleAudio(ctx context.Context, n *notify.Notifier, att attachment, log logrus.FieldLogger) {
	format := audio.Detect(att.fileName, att.mimeType)
	log = log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"kind":       att.kind,
		"format":     att.label(format),
		"size":       att.size,
	})

	if !format.Supported() {
		metrics.RecordMessage(att.kind, metrics.StatusUnsupported)
		log.Info("неподдерживаемый формат")
		n.Error(i18n.Tf("error_unsupported", att.label(format), supportedList()))
		return
	}

	if att.size > h.maxFileSize {
		metrics.RecordMessage(att.kind, metrics.StatusTooLarge)
		log.Info("файл слишком большой")
		n.Error(i18n.Tf("error_too_large", h.maxFileSize/(1024*1024)))
		return
	}

	placeholder := n.Processing()
	defer n.Delete(placeholder)

	start := time.Now()
	text, err := h.transcribe(ctx, att, format, log)
	if err != nil {
		metrics.RecordMessage(att.kind, metrics.StatusError)
		log.WithError(err).Error("ошибка обработки аудио")
		n.Error(errorMessage(err, att.label(format)))
		return
	}

	log = log.WithField("took", time.Since(start).Round(time.Millisecond))

	if text == "" {
		metrics.RecordMessage(att.kind, metrics.StatusEmpty)
		log.Info("речь не обнаружена")
		n.Empty()
		return
	}

	metrics.RecordMessage(att.kind, metrics.StatusOK)
	log.WithField("chars", len([]rune(text))).Info("расшифровка отправлена")
	if err := n.Success(text); err != nil {
		log.WithError(err).Error("не удалось отправить расшифровку")
	}
}

// transcribe скачивает файл во временный каталог и распознаёт его.
// Временный файл удаляется при любом исходе.
func (h *Handler) transcribe(ctx context.Context, att attachment, format audio.Format, log logrus.FieldLogger) (string, error) {
	path, err := h.download(ctx, att, format)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("не удалось удалить временный файл")
		}
	}()

	return h.transcriber.TranscribeFile(ctx, path, format)
}

func (h *Handler) download(ctx context.Context, att attachment, format audio.Format) (string, error) {
	start := time.Now()

	url, err := h.api.GetFileDirectURL(att.fileID)
	if err != nil {
		return "", fmt.Errorf("%w: get file: %w", ErrDownload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %s", ErrDownload, resp.Status)
	}

	path := filepath.Join(h.tempDir, "algranobot-"+uuid.NewString()+format.Ext())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	n, err := io.Copy(f, io.LimitReader(resp.Body, h.maxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > h.maxFileSize {
		err = fmt.Errorf("file exceeds %d bytes", h.maxFileSize)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	metrics.RecordDownload(n, time.Since(start).Seconds())
	return path, nil
}

// errorMessage выбирает ответ по виду ошибки.
func errorMessage(err error, label string) string {
	switch {
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return i18n.Tf("error_unsupported", label, supportedList())
	case errors.Is(err, audio.ErrConversion), errors.Is(err, ErrDownload):
		return i18n.T("error_processing")
	default:
		return i18n.T("error_transcription")
	}
}

func supportedList() string {
	formats := audio.SupportedFormats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}
