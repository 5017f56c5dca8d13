// Package config загружает конфигурацию бота из YAML файла, .env и окружения.
// Конфигурация читается один раз при старте и дальше не меняется.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"algranobot/internal/access"
	"algranobot/internal/audio"
	"algranobot/internal/i18n"
	"algranobot/internal/llm"
	"algranobot/internal/models"
	"algranobot/internal/speech"
)

// TelegramConfig хранит настройки Telegram.
type TelegramConfig struct {
	Token        string  `yaml:"token"`
	AllowedUsers []int64 `yaml:"allowed_users"`
	Debug        bool    `yaml:"debug"`
}

// SpeechConfig хранит настройки распознавания.
type SpeechConfig struct {
	Engine    string `yaml:"engine"`
	ModelID   string `yaml:"model"`
	ModelPath string `yaml:"model_path,omitempty"`
	ModelsDir string `yaml:"models_dir"`
	Language  string `yaml:"language"`
	BeamSize  int    `yaml:"beam_size"`
	Threads   uint   `yaml:"threads,omitempty"`
}

// AudioConfig хранит настройки обработки аудио.
type AudioConfig struct {
	FFmpeg      string `yaml:"ffmpeg"`
	TempDir     string `yaml:"temp_dir,omitempty"`
	MaxFileSize int64  `yaml:"max_file_size,omitempty"`
}

// OpenAIConfig хранит настройки движка openai.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// LogConfig хранит настройки логирования.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text или json
}

// Config хранит настройки приложения.
type Config struct {
	Telegram    TelegramConfig `yaml:"telegram"`
	Speech      SpeechConfig   `yaml:"speech"`
	Audio       AudioConfig    `yaml:"audio"`
	OpenAI      OpenAIConfig   `yaml:"openai"`
	LLM         llm.Config     `yaml:"llm"`
	Log         LogConfig      `yaml:"log"`
	UILanguage  string         `yaml:"ui_language"`
	MetricsAddr string         `yaml:"metrics_addr,omitempty"`

	// Warnings - некритичные замечания, найденные при загрузке.
	Warnings []string `yaml:"-"`
}

// Lookup ищет переменную окружения, как os.LookupEnv.
type Lookup func(key string) (string, bool)

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			Engine:    string(speech.EngineWhisper),
			ModelID:   models.DefaultModelID(),
			ModelsDir: "./models",
			Language:  "auto", // auto для смешанного русского/английского
			BeamSize:  5,
		},
		Audio: AudioConfig{
			FFmpeg: audio.DefaultFFmpeg,
		},
		LLM: llm.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		UILanguage: string(i18n.EN),
	}
}

// LoadEnvFile загружает .env в окружение процесса.
// Отсутствующий файл не ошибка, если required == false.
// Уже заданные переменные окружения не перезаписываются.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("ошибка загрузки %s: %w", path, err)
	}
	return nil
}

// Load читает YAML файл path (если задан) и применяет переменные окружения.
func Load(path string, lookup Lookup) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("ошибка разбора %s: %w", path, err)
		}
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup Lookup) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	boolean("ALGRANO_DEBUG", &c.Telegram.Debug)
	// Пустая переменная не сбрасывает список из файла
	if v, ok := lookup("ALLOWED_USERS"); ok && strings.TrimSpace(v) != "" {
		ids, rejected, err := access.Parse(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ALLOWED_USERS %q: %w", strings.Join(rejected, ","), err))
		} else {
			c.Telegram.AllowedUsers = ids
		}
		for _, tok := range rejected {
			c.Warnings = append(c.Warnings, fmt.Sprintf("ALLOWED_USERS: пропущен некорректный ID %q", tok))
		}
	}

	str("ALGRANO_ENGINE", &c.Speech.Engine)
	str("ALGRANO_MODEL", &c.Speech.ModelID)
	str("ALGRANO_MODEL_PATH", &c.Speech.ModelPath)
	str("ALGRANO_MODELS_DIR", &c.Speech.ModelsDir)
	str("ALGRANO_LANGUAGE", &c.Speech.Language)
	integer("ALGRANO_BEAM_SIZE", &c.Speech.BeamSize)

	str("ALGRANO_FFMPEG", &c.Audio.FFmpeg)
	str("ALGRANO_TEMP_DIR", &c.Audio.TempDir)

	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("ALGRANO_OPENAI_MODEL", &c.OpenAI.Model)

	boolean("ALGRANO_LLM_ENABLED", &c.LLM.Enabled)
	str("ALGRANO_LLM_URL", &c.LLM.URL)
	str("ALGRANO_LLM_MODEL", &c.LLM.Model)

	str("ALGRANO_LOG_LEVEL", &c.Log.Level)
	str("ALGRANO_LOG_FORMAT", &c.Log.Format)
	str("ALGRANO_UI_LANGUAGE", &c.UILanguage)
	str("ALGRANO_METRICS_ADDR", &c.MetricsAddr)

	return errors.Join(errs...)
}

// Validate проверяет значения, не требуя токена.
func (c Config) Validate() error {
	var errs []error

	engine, err := speech.ParseEngine(c.Speech.Engine)
	if err != nil {
		errs = append(errs, err)
	}
	if engine == speech.EngineOpenAI && c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
		errs = append(errs, errors.New("для движка openai нужен OPENAI_API_KEY или OPENAI_BASE_URL"))
	}
	for _, id := range c.Telegram.AllowedUsers {
		if id == 0 {
			errs = append(errs, errors.New("allowed_users: ID 0 недопустим"))
			break
		}
	}
	if c.Speech.BeamSize < 0 {
		errs = append(errs, fmt.Errorf("beam_size не может быть отрицательным: %d", c.Speech.BeamSize))
	}
	if c.Audio.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("max_file_size не может быть отрицательным: %d", c.Audio.MaxFileSize))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("неизвестный формат логов: %s", c.Log.Format))
	}
	if !i18n.Has(i18n.Language(c.UILanguage)) {
		errs = append(errs, fmt.Errorf("неподдерживаемый язык интерфейса: %s (доступны: %v)", c.UILanguage, i18n.AvailableLanguages()))
	}

	return errors.Join(errs...)
}

// RequireToken проверяет наличие токена бота.
func (c Config) RequireToken() error {
	if c.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN не задан")
	}
	return nil
}

// Allowlist возвращает список разрешённых отправителей.
func (c Config) Allowlist() access.Allowlist {
	return access.New(c.Telegram.AllowedUsers...)
}

// Recognizer возвращает настройки для speech.Factory.
func (c Config) Recognizer() speech.Config {
	engine, _ := speech.ParseEngine(c.Speech.Engine)
	return speech.Config{
		Engine:    engine,
		ModelID:   c.Speech.ModelID,
		ModelPath: c.Speech.ModelPath,
		BeamSize:  c.Speech.BeamSize,
		Threads:   c.Speech.Threads,
		OpenAI: speech.OpenAIConfig{
			APIKey:  c.OpenAI.APIKey,
			BaseURL: c.OpenAI.BaseURL,
			Model:   c.OpenAI.Model,
		},
	}
}
