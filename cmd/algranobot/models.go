package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"algranobot/internal/models"
)

var (
	modelsDir        string
	modelsEngine     string
	modelsDownloaded bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Управление моделями распознавания",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать доступные модели",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Скачать модель",
	Long: `Скачивает модель из реестра в каталог моделей.

Примеры:
  algranobot models download whisper-small-q5
  algranobot models download vosk-ru-small`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsDownload,
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить скачанную модель",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsDelete,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsDownloadCmd, modelsDeleteCmd)

	modelsCmd.PersistentFlags().StringVar(&modelsDir, "dir", "", "каталог моделей (по умолчанию из конфигурации)")
	modelsListCmd.Flags().StringVar(&modelsEngine, "engine", "", "только модели движка (whisper, vosk)")
	modelsListCmd.Flags().BoolVar(&modelsDownloaded, "downloaded", false, "только скачанные модели")
}

func modelManager(cmd *cobra.Command) (*models.Manager, error) {
	dir := modelsDir
	if dir == "" {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		dir = cfg.Speech.ModelsDir
	}
	return models.NewManager(dir)
}

func runModelsList(cmd *cobra.Command, _ []string) error {
	manager, err := modelManager(cmd)
	if err != nil {
		return err
	}

	list := models.Registry
	if modelsEngine != "" {
		list = models.GetModelsByEngine(models.Engine(modelsEngine))
		if len(list) == 0 {
			return fmt.Errorf("нет моделей для движка %s", modelsEngine)
		}
	}
	if modelsDownloaded {
		list = onlyDownloaded(list, manager.ListDownloaded())
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tДВИЖОК\tМОДЕЛЬ\tЯЗЫК\tРАЗМЕР\tСКАЧАНА")
	for _, m := range list {
		lang := m.Language
		if lang == "" {
			lang = "multi"
		}
		downloaded := "-"
		if manager.IsDownloaded(m) {
			downloaded = "да"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, models.EngineName(m.Engine), m.Name, lang, m.SizeString(), downloaded)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nКаталог моделей: %s\n", manager.ModelsDir())
	return nil
}

func runModelsDownload(cmd *cobra.Command, args []string) error {
	info, ok := models.GetModel(args[0])
	if !ok {
		return fmt.Errorf("модель не найдена: %s (см. algranobot models list)", args[0])
	}

	manager, err := modelManager(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	progress := make(chan models.Progress, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for p := range progress {
			if p.Total > 0 {
				fmt.Fprintf(out, "\r%s: %3d%% (%d/%d MB)", info.ID,
					p.Downloaded*100/p.Total, p.Downloaded>>20, p.Total>>20)
			}
		}
	}()

	err = manager.Download(ctx, info, progress)
	close(progress)
	<-done
	fmt.Fprintln(out)

	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Готово: %s\n", manager.GetModelPath(info))
	return nil
}

func onlyDownloaded(list, downloaded []models.ModelInfo) []models.ModelInfo {
	ids := make(map[string]bool, len(downloaded))
	for _, m := range downloaded {
		ids[m.ID] = true
	}

	var out []models.ModelInfo
	for _, m := range list {
		if ids[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

func runModelsDelete(cmd *cobra.Command, args []string) error {
	info, ok := models.GetModel(args[0])
	if !ok {
		return fmt.Errorf("модель не найдена: %s (см. algranobot models list)", args[0])
	}

	manager, err := modelManager(cmd)
	if err != nil {
		return err
	}
	if !manager.IsDownloaded(info) {
		return fmt.Errorf("модель не скачана: %s", info.ID)
	}

	if err := manager.Delete(info); err != nil {
		return fmt.Errorf("ошибка удаления %s: %w", info.ID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Удалена: %s\n", manager.GetModelPath(info))
	return nil
}
