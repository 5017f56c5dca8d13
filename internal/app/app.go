// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"algranobot/internal/audio"
	"algranobot/internal/bot"
	"algranobot/internal/config"
	"algranobot/internal/i18n"
	"algranobot/internal/llm"
	"algranobot/internal/metrics"
	"algranobot/internal/models"
	"algranobot/internal/speech"
	"algranobot/internal/transcriber"
)

const (
	// shutdownTimeout - время на остановку HTTP сервера метрик.
	shutdownTimeout = 5 * time.Second
	// llmCheckTimeout - время на проверку сервера LLM при запуске.
	llmCheckTimeout = 3 * time.Second
)

// TelegramAPI - клиент Telegram: ответы, файлы и long polling.
type TelegramAPI interface {
	bot.API
	bot.Poller
}

// App представляет главное приложение.
type App struct {
	config        config.Config
	log           *logrus.Logger
	modelManager  *models.Manager
	speechFactory *speech.Factory
	llmClient     *llm.Client
	transcriber   *transcriber.Service
}

// New загружает модель и собирает конвейер распознавания.
func New(cfg config.Config, log *logrus.Logger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Инициализируем язык интерфейса из конфига
	if err := i18n.SetLanguage(i18n.Language(cfg.UILanguage)); err != nil {
		return nil, err
	}
	log.WithField("language", i18n.LanguageName(i18n.GetLanguage())).Debug("язык интерфейса")

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	// Создаём менеджер моделей
	modelManager, err := models.NewManager(cfg.Speech.ModelsDir)
	if err != nil {
		return nil, err
	}

	// Создаём фабрику распознавателей и загружаем модель
	speechFactory := speech.NewFactory(modelManager)

	start := time.Now()
	if err := speechFactory.Load(cfg.Recognizer()); err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели: %w", err)
	}
	log.WithFields(logrus.Fields{
		"model": speechFactory.Describe(),
		"took":  time.Since(start).Round(time.Millisecond),
	}).Info("модель загружена")

	a := &App{
		config:        cfg,
		log:           log,
		modelManager:  modelManager,
		speechFactory: speechFactory,
	}

	opts := transcriber.Options{
		Gate:        audio.NewGate(audio.NewFFmpeg(cfg.Audio.FFmpeg)),
		Recognizers: speechFactory,
		Language:    cfg.Speech.Language,
		Logger:      log.WithField("component", "transcriber"),
	}

	// Коррекция текста через LLM (если включена)
	if cfg.LLM.Enabled {
		a.llmClient = llm.New(cfg.LLM, log)
		opts.Corrector = a.llmClient
		llmLog := log.WithFields(logrus.Fields{
			"url":   cfg.LLM.URL,
			"model": a.llmClient.Model(),
		})
		llmLog.Info("коррекция текста включена")

		// Недоступный сервер не мешает запуску: корректор вернёт исходный текст
		checkCtx, cancel := context.WithTimeout(context.Background(), llmCheckTimeout)
		if !a.llmClient.IsAvailable(checkCtx) {
			llmLog.Warn("сервер LLM недоступен, текст будет отправляться без коррекции")
		}
		cancel()
	}

	a.transcriber, err = transcriber.New(opts)
	if err != nil {
		speechFactory.Close()
		return nil, err
	}

	return a, nil
}

// Transcriber возвращает конвейер распознавания.
func (a *App) Transcriber() *transcriber.Service {
	return a.transcriber
}

// Describe возвращает описание загруженной модели.
func (a *App) Describe() string {
	return a.speechFactory.Describe()
}

// engine возвращает имя загруженного движка.
func (a *App) engine() string {
	if rec := a.speechFactory.Current(); rec != nil {
		return rec.Name()
	}
	return ""
}

// Run подключается к Telegram и обрабатывает сообщения до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.RequireToken(); err != nil {
		return err
	}

	tgbotapi.SetLogger(a.log.WithField("component", "telegram"))

	api, err := tgbotapi.NewBotAPI(a.config.Telegram.Token)
	if err != nil {
		return fmt.Errorf("ошибка подключения к Telegram: %w", err)
	}
	api.Debug = a.config.Telegram.Debug

	a.log.WithField("username", api.Self.UserName).Info("авторизован в Telegram")

	return a.RunWith(ctx, api)
}

// RunWith обрабатывает сообщения через api. Сервер метрик, если задан
// MetricsAddr, работает рядом с ботом и останавливается вместе с ним.
func (a *App) RunWith(ctx context.Context, api TelegramAPI) error {
	allow := a.config.Allowlist()
	if allow.Empty() {
		a.log.Warn("список разрешённых пользователей пуст, бот отвечает всем")
	} else {
		a.log.WithField("allowed", allow.Len()).Info("доступ ограничен списком")
	}

	handler := bot.NewHandler(api, a.transcriber, bot.Options{
		Allowlist:   allow,
		TempDir:     a.config.Audio.TempDir,
		MaxFileSize: a.config.Audio.MaxFileSize,
		Engine:      a.engine(),
		Logger:      a.log.WithField("component", "bot"),
	})
	b := bot.New(api, handler, a.log.WithField("component", "bot"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if a.config.MetricsAddr != "" {
		exporter := metrics.NewExporter(a.config.MetricsAddr)

		g.Go(func() error {
			a.log.WithField("addr", a.config.MetricsAddr).Info("метрики доступны на /metrics")
			if err := exporter.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("сервер метрик: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return exporter.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		// Бот завершился - останавливаем остальное
		defer cancel()
		return b.Run(gctx)
	})

	return g.Wait()
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	if a.speechFactory != nil {
		a.speechFactory.Close()
	}
}
