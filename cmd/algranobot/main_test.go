package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, envFile, logLevel, logFormat, modelsDir = "", ".env", "", "", ""
	modelsEngine, modelsDownloaded = "", false
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), modelsCmd.PersistentFlags(), modelsListCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "algranobot dev")
}

func TestModelsList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "whisper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whisper", "ggml-tiny-q5_1.bin"), []byte("x"), 0o600))

	out, err := execute(t, "models", "list", "--dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "whisper-small-q5")
	assert.Contains(t, out, "vosk-ru-small")
	assert.Regexp(t, `whisper-tiny-q5\s+Whisper\s+Tiny Q5\s+multi\s+32MB\s+да`, out)
}

func TestModelsListFilters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "whisper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whisper", "ggml-tiny-q5_1.bin"), []byte("x"), 0o600))

	out, err := execute(t, "models", "list", "--dir", dir, "--engine", "vosk")
	require.NoError(t, err)
	assert.Contains(t, out, "vosk-ru-small")
	assert.NotContains(t, out, "whisper-tiny-q5")

	out, err = execute(t, "models", "list", "--dir", dir, "--downloaded")
	require.NoError(t, err)
	assert.Contains(t, out, "whisper-tiny-q5")
	assert.NotContains(t, out, "whisper-small-q5")

	_, err = execute(t, "models", "list", "--dir", dir, "--engine", "sphinx")
	assert.ErrorContains(t, err, "sphinx")
}

func TestModelsDelete(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "whisper", "ggml-tiny-q5_1.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(model), 0o755))
	require.NoError(t, os.WriteFile(model, []byte("x"), 0o600))

	out, err := execute(t, "models", "delete", "whisper-tiny-q5", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, model)
	assert.NoFileExists(t, model)

	_, err = execute(t, "models", "delete", "whisper-tiny-q5", "--dir", dir)
	assert.ErrorContains(t, err, "не скачана")

	_, err = execute(t, "models", "delete", "nope", "--dir", dir)
	assert.ErrorContains(t, err, "nope")
}

func TestModelsDownloadUnknown(t *testing.T) {
	_, err := execute(t, "models", "download", "nope", "--dir", t.TempDir())
	assert.ErrorContains(t, err, "nope")
}

func TestTranscribeRejectsUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o600))

	_, err := execute(t, "transcribe", path)
	assert.ErrorContains(t, err, "unsupported audio format")
}

func TestRunRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("ALGRANO_MODELS_DIR", t.TempDir())

	_, err := execute(t, "run", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestInvalidLogLevelFlag(t *testing.T) {
	_, err := execute(t, "models", "list", "--log-level", "loud")
	assert.Error(t, err)
}
