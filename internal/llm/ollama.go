// Package llm исправляет ошибки распознавания через локальную LLM.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultURL - OpenAI-совместимый endpoint Ollama.
	DefaultURL     = "http://localhost:11434/v1"
	DefaultModel   = "qwen2.5:0.5b"
	DefaultTimeout = 10 * time.Second
)

const correctionPrompt = `Исправь ошибки распознавания речи в тексте. Сохрани язык оригинала. Верни ТОЛЬКО исправленный текст без пояснений.`

// Client исправляет текст через chat completions.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     logrus.FieldLogger
}

// Config конфигурация LLM клиента.
type Config struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		URL:     DefaultURL,
		Model:   DefaultModel,
		Timeout: DefaultTimeout,
	}
}

// New создаёт новый LLM клиент.
func New(cfg Config, log logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	// Ollama не проверяет ключ, но go-openai всегда шлёт заголовок
	key := cfg.APIKey
	if key == "" {
		key = "ollama"
	}

	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = strings.TrimRight(url, "/")

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
		log:     log.WithField("component", "llm"),
	}
}

// CorrectText исправляет текст с помощью LLM.
// При любой ошибке возвращается исходный текст вместе с ошибкой.
func (c *Client) CorrectText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.WithField("chars", len(text)).Debug("отправка запроса на исправление")
	start := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: correctionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.1, // Низкая температура для стабильного результата
		MaxTokens:   500,
	})
	if err != nil {
		return text, fmt.Errorf("llm: %w", err)
	}
	if len(resp.Choices) == 0 {
		return text, errors.New("llm: пустой ответ")
	}

	corrected := strings.TrimSpace(resp.Choices[0].Message.Content)
	if corrected == "" {
		return text, errors.New("llm: пустой ответ")
	}

	c.log.WithFields(logrus.Fields{
		"took":  time.Since(start).Round(time.Millisecond),
		"chars": len(corrected),
	}).Debug("текст исправлен")

	return corrected, nil
}

// ListModels возвращает список доступных моделей.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]string, len(list.Models))
	for i, m := range list.Models {
		models[i] = m.ID
	}

	return models, nil
}

// IsAvailable проверяет доступность сервера.
func (c *Client) IsAvailable(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}

// Model возвращает текущую модель.
func (c *Client) Model() string {
	return c.model
}
