package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algranobot/internal/access"
	"algranobot/internal/speech"
)

func env(vars map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, "whisper", cfg.Speech.Engine)
	assert.Equal(t, "whisper-small-q5", cfg.Speech.ModelID)
	assert.Equal(t, "auto", cfg.Speech.Language)
	assert.Equal(t, 5, cfg.Speech.BeamSize)
	assert.Equal(t, "ffmpeg", cfg.Audio.FFmpeg)
	assert.Equal(t, "en", cfg.UILanguage)
	assert.False(t, cfg.LLM.Enabled)
	assert.True(t, cfg.Allowlist().Empty())
	assert.Error(t, cfg.RequireToken())
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := Load("", env(map[string]string{
		"TELEGRAM_BOT_TOKEN":  "123:abc",
		"ALLOWED_USERS":       " 42, -1001234 ,oops,,",
		"ALGRANO_ENGINE":      "vosk",
		"ALGRANO_MODEL":       "vosk-ru-small",
		"ALGRANO_BEAM_SIZE":   "1",
		"ALGRANO_UI_LANGUAGE": "ru",
		"ALGRANO_LLM_ENABLED": "true",
		"ALGRANO_LOG_LEVEL":   "debug",
	}))
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireToken())
	assert.Equal(t, []int64{42, -1001234}, cfg.Telegram.AllowedUsers)
	assert.Len(t, cfg.Warnings, 1)
	assert.True(t, cfg.Allowlist().Allowed(0, -1001234))
	assert.False(t, cfg.Allowlist().Allowed(7, 7))

	rc := cfg.Recognizer()
	assert.Equal(t, speech.EngineVosk, rc.Engine)
	assert.Equal(t, "vosk-ru-small", rc.ModelID)
	assert.Equal(t, 1, rc.BeamSize)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "ru", cfg.UILanguage)
}

func TestYAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: from-file
  allowed_users: [1, 2]
speech:
  engine: openai
  language: ru
openai:
  base_url: http://localhost:8000/v1
llm:
  enabled: true
  timeout: 3s
log:
  format: json
`), 0o600))

	cfg, err := Load(path, env(map[string]string{"TELEGRAM_BOT_TOKEN": "from-env"}))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.AllowedUsers)
	assert.Equal(t, "openai", cfg.Speech.Engine)
	assert.Equal(t, "ru", cfg.Speech.Language)
	assert.Equal(t, "whisper-small-q5", cfg.Speech.ModelID, "defaults survive partial files")
	assert.Equal(t, 3*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:8000/v1", cfg.Recognizer().OpenAI.BaseURL)
}

func TestValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"engine":      {"ALGRANO_ENGINE": "sphinx"},
		"openai":      {"ALGRANO_ENGINE": "openai"},
		"beam":        {"ALGRANO_BEAM_SIZE": "-1"},
		"beam_nan":    {"ALGRANO_BEAM_SIZE": "five"},
		"level":       {"ALGRANO_LOG_LEVEL": "loud"},
		"format":      {"ALGRANO_LOG_FORMAT": "xml"},
		"ui_language": {"ALGRANO_UI_LANGUAGE": "de"},
		"bool":        {"ALGRANO_LLM_ENABLED": "maybe"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load("", env(vars))
			assert.Error(t, err)
		})
	}
}

func TestAllowedUsersNeverFailOpen(t *testing.T) {
	_, err := Load("", env(map[string]string{"ALLOWED_USERS": "alice,@bob"}))
	assert.ErrorIs(t, err, access.ErrNoValidIDs)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  allowed_users: [42]\n"), 0o600))

	for _, blank := range []string{"", "  "} {
		cfg, err := Load(path, env(map[string]string{"ALLOWED_USERS": blank}))
		require.NoError(t, err)
		assert.Equal(t, []int64{42}, cfg.Telegram.AllowedUsers)
		assert.False(t, cfg.Allowlist().Allowed(999, 999))
	}

	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  allowed_users: [0]\n"), 0o600))
	_, err = Load(path, env(nil))
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, LoadEnvFile(filepath.Join(dir, ".env"), false))
	assert.Error(t, LoadEnvFile(filepath.Join(dir, ".env"), true))

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ALGRANO_TEST_ENV_FILE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ALGRANO_TEST_ENV_FILE") })

	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "loaded", os.Getenv("ALGRANO_TEST_ENV_FILE"))
}
