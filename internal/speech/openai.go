package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"algranobot/internal/audio"
)

// OpenAIConfig настройки OpenAI-совместимого движка.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // пустая строка - api.openai.com
	Model   string
}

// OpenAIRecognizer отправляет аудио на /audio/transcriptions.
// Подходит и для локальных серверов с OpenAI-совместимым API.
type OpenAIRecognizer struct {
	client *openai.Client
	model  string
}

// NewOpenAI создаёт OpenAIRecognizer.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIRecognizer, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("для движка openai нужен API ключ или base URL")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &OpenAIRecognizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Name возвращает название движка.
func (o *OpenAIRecognizer) Name() string {
	return string(EngineOpenAI)
}

// Transcribe кодирует сэмплы в WAV и отправляет их на сервер.
func (o *OpenAIRecognizer) Transcribe(ctx context.Context, samples []float32, lang string) (string, error) {
	wavData, err := audio.EncodeWAV(samples)
	if err != nil {
		return "", err
	}

	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wavData),
	}
	if lang != "" && lang != "auto" {
		req.Language = lang
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Close ничего не делает: HTTP клиент не держит ресурсов.
func (o *OpenAIRecognizer) Close() {}
