package speech

import (
	"fmt"
	"sync"

	"algranobot/internal/models"
)

// Factory управляет созданием и переключением распознавателей.
type Factory struct {
	manager *models.Manager
	current Recognizer
	desc    string
	mu      sync.RWMutex
}

// NewFactory создаёт фабрику распознавателей.
func NewFactory(manager *models.Manager) *Factory {
	return &Factory{
		manager: manager,
	}
}

// ResolveModel возвращает путь к локальной модели для cfg.
func (f *Factory) ResolveModel(cfg Config) (string, error) {
	if cfg.ModelPath != "" {
		return cfg.ModelPath, nil
	}

	modelID := cfg.ModelID
	if modelID == "" {
		modelID = models.DefaultModelID()
	}

	info, ok := models.GetModel(modelID)
	if !ok {
		return "", fmt.Errorf("модель не найдена: %s", modelID)
	}
	if string(info.Engine) != string(cfg.Engine) {
		return "", fmt.Errorf("модель %s предназначена для движка %s, а не %s", info.ID, info.Engine, cfg.Engine)
	}

	// Проверяем что модель скачана
	if !f.manager.IsDownloaded(info) {
		return "", fmt.Errorf("модель не скачана: %s (algranobot models download %s)", info.Name, info.ID)
	}

	return f.manager.GetModelPath(info), nil
}

// Create создаёт распознаватель по конфигурации.
func (f *Factory) Create(cfg Config) (Recognizer, string, error) {
	if cfg.Engine == "" {
		cfg.Engine = EngineWhisper
	}

	if cfg.Engine == EngineOpenAI {
		rec, err := NewOpenAI(cfg.OpenAI)
		if err != nil {
			return nil, "", err
		}
		return rec, fmt.Sprintf("%s (%s)", EngineOpenAI, rec.model), nil
	}

	modelPath, err := f.ResolveModel(cfg)
	if err != nil {
		return nil, "", err
	}

	var rec Recognizer

	switch cfg.Engine {
	case EngineWhisper:
		rec, err = NewWhisperFromFile(modelPath, cfg.BeamSize, cfg.Threads)
	case EngineVosk:
		rec, err = NewVosk(modelPath)
	default:
		return nil, "", fmt.Errorf("неизвестный движок: %s", cfg.Engine)
	}

	if err != nil {
		return nil, "", fmt.Errorf("ошибка создания распознавателя: %w", err)
	}

	return rec, fmt.Sprintf("%s (%s)", cfg.Engine, modelPath), nil
}

// Load загружает модель и устанавливает её как текущую.
func (f *Factory) Load(cfg Config) error {
	rec, desc, err := f.Create(cfg)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.current
	f.current = rec
	f.desc = desc
	f.mu.Unlock()

	// Закрываем старый распознаватель
	if old != nil {
		old.Close()
	}

	return nil
}

// Current возвращает текущий распознаватель (thread-safe).
func (f *Factory) Current() Recognizer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Describe возвращает описание загруженной модели для логов.
func (f *Factory) Describe() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.desc
}

// Close закрывает текущий распознаватель.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Close()
		f.current = nil
		f.desc = ""
	}
}
