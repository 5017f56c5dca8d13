package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"algranobot/internal/app"
	"algranobot/internal/audio"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Расшифровать локальный аудиофайл",
	Long: `Прогоняет файл через тот же конвейер, что и бот: определение формата,
конвертация ffmpeg, распознавание и, если включена, коррекция LLM.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return err
	}

	format := audio.Detect(path, "")
	if !format.Supported() {
		return &audio.UnsupportedFormatError{Format: format}
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	text, err := application.Transcriber().TranscribeFile(ctx, path, format)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
