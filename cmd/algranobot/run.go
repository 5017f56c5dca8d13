package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"algranobot/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить бота",
	Long: `Подключается к Telegram через long polling и отвечает на голосовые
сообщения и аудиофайлы. Требует TELEGRAM_BOT_TOKEN.

Доступ можно ограничить через ALLOWED_USERS (ID пользователей или чатов
через запятую). Пустой список разрешает всех.`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	log.WithField("version", Version).Info("algranobot запускается")

	application, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("ошибка инициализации")
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Error("бот остановлен с ошибкой")
		return err
	}
	return nil
}
