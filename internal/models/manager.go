package models

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
	Error      error
}

// Manager управляет моделями.
type Manager struct {
	modelsDir string
	client    *http.Client
	mu        sync.RWMutex
}

// NewManager создаёт менеджер моделей в указанной директории.
// Пустой dir означает models/ рядом с бинарником.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
		}

		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
		}

		dir = filepath.Join(filepath.Dir(execPath), "models")
	}

	for _, engine := range AllEngines() {
		sub := filepath.Join(dir, string(engine))
		if err := os.MkdirAll(sub, 0755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", engine, err)
		}
	}

	return &Manager{modelsDir: dir, client: http.DefaultClient}, nil
}

// SetHTTPClient заменяет HTTP клиент для загрузки.
func (m *Manager) SetHTTPClient(c *http.Client) {
	m.client = c
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	switch info.Engine {
	case EngineWhisper, EngineVosk:
		return filepath.Join(m.modelsDir, string(info.Engine), info.Filename)
	default:
		return filepath.Join(m.modelsDir, info.Filename)
	}
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	path := m.GetModelPath(info)
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}

	// Для Vosk проверяем что это директория
	if info.IsZip {
		return stat.IsDir()
	}

	// Для Whisper проверяем что файл не пустой
	return stat.Size() > 0
}

// ListDownloaded возвращает список скачанных моделей.
func (m *Manager) ListDownloaded() []ModelInfo {
	var downloaded []ModelInfo
	for _, model := range Registry {
		if m.IsDownloaded(model) {
			downloaded = append(downloaded, model)
		}
	}
	return downloaded
}

// Download скачивает модель.
// progress канал получает обновления о прогрессе (можно nil).
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		report(progress, Progress{ModelID: info.ID, Downloaded: info.Size, Total: info.Size, Done: true})
		return nil
	}

	var err error
	if info.IsZip {
		err = m.downloadAndUnzip(ctx, info, progress)
	} else {
		err = m.downloadFile(ctx, info, progress)
	}
	if err != nil {
		return fmt.Errorf("модель %s: %w", info.ID, err)
	}
	return nil
}

func (m *Manager) downloadFile(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	destPath := m.GetModelPath(info)

	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	total, err := m.fetch(ctx, info, file, progress)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	// Переименовываем в финальное имя
	if err := os.Rename(tmpPath, destPath); err != nil {
		return err
	}

	report(progress, Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true})
	return nil
}

func (m *Manager) downloadAndUnzip(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	destDir := m.GetModelPath(info)

	tmpZip, err := os.CreateTemp("", "model-*.zip")
	if err != nil {
		return err
	}
	tmpPath := tmpZip.Name()
	defer os.Remove(tmpPath)

	total, err := m.fetch(ctx, info, tmpZip, progress)
	if cerr := tmpZip.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	// Архивы Vosk содержат каталог с именем модели
	if err := unzip(tmpPath, filepath.Dir(destDir)); err != nil {
		return fmt.Errorf("ошибка распаковки: %w", err)
	}

	report(progress, Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true})
	return nil
}

// fetch скачивает info.URL в w и возвращает число байт.
func (m *Manager) fetch(ctx context.Context, info ModelInfo, w io.Writer, progress chan<- Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	var downloaded int64
	buf := make([]byte, 32*1024)

	for {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return downloaded, werr
			}
			downloaded += int64(n)

			if progress != nil {
				select {
				case progress <- Progress{ModelID: info.ID, Downloaded: downloaded, Total: total}:
				default:
				}
			}
		}
		if err == io.EOF {
			return downloaded, nil
		}
		if err != nil {
			return downloaded, err
		}
	}
}

// report отправляет финальный прогресс без блокировки.
func report(progress chan<- Progress, p Progress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	default:
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)

	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		if err := extract(f, fpath); err != nil {
			return err
		}
	}

	return nil
}

func extract(f *zip.File, dst string) error {
	outFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(outFile, rc)
	return err
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.GetModelPath(info)
	return os.RemoveAll(path)
}
