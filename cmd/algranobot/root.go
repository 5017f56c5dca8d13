package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"algranobot/internal/config"
	"algranobot/internal/logging"
)

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "algranobot",
	Short: "Telegram бот для расшифровки голосовых сообщений",
	Long: `Algranobot принимает голосовые сообщения и аудиофайлы в Telegram,
при необходимости конвертирует их через ffmpeg и отвечает текстом,
распознанным локальной моделью (whisper.cpp или Vosk) или
OpenAI-совместимым сервером.

Примеры:
  algranobot models download whisper-small-q5
  TELEGRAM_BOT_TOKEN=... algranobot run
  algranobot transcribe note.ogg`,
	SilenceUsage: true,
}

// Execute запускает корневую команду.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML файл конфигурации")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "файл с переменными окружения")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "уровень логов (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "формат логов (text, json)")
}

// loadConfig читает .env, файл конфигурации и окружение.
// Флаги командной строки имеют наивысший приоритет.
func loadConfig(cmd *cobra.Command) (config.Config, *logrus.Logger, error) {
	required := cmd.Flags().Changed("env-file")
	if err := config.LoadEnvFile(envFile, required); err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.Load(cfgFile, nil)
	if err != nil {
		return cfg, nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return cfg, nil, err
	}

	return cfg, log, nil
}
