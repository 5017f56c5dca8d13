package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Gate решает, нужна ли конвертация перед распознаванием.
type Gate struct {
	conv Converter
}

// NewGate создаёт Gate с указанным конвертером.
func NewGate(conv Converter) *Gate {
	return &Gate{conv: conv}
}

// Prepare возвращает путь к файлу в каноническом формате и функцию очистки.
// Канонический файл отдаётся как есть, остальные поддерживаемые форматы
// конвертируются во временный WAV рядом с исходником.
func (g *Gate) Prepare(ctx context.Context, src string, format Format) (string, func(), error) {
	noop := func() {}

	if !format.Supported() {
		return "", noop, &UnsupportedFormatError{Format: format}
	}

	if !format.NeedsConversion() {
		return src, noop, nil
	}

	return g.Convert(ctx, src, format)
}

// Convert принудительно прогоняет src через конвертер, даже если формат
// канонический. Нужен для WAV, который не является 16-битным PCM.
func (g *Gate) Convert(ctx context.Context, src string, format Format) (string, func(), error) {
	noop := func() {}

	dst := ConvertedPath(src)
	if err := g.conv.Convert(ctx, src, dst); err != nil {
		// Частичный результат конвертера не должен пережить запрос
		os.Remove(dst)
		return "", noop, &ConversionError{Format: format, Err: err}
	}

	return dst, func() { os.Remove(dst) }, nil
}

// ConvertedPath возвращает путь к результату конвертации для src.
func ConvertedPath(src string) string {
	base := strings.TrimSuffix(src, filepath.Ext(src))
	return base + ".16k" + Canonical.Ext()
}
