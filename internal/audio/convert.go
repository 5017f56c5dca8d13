package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedFormat - формат не распознан или не поддерживается.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrConversion - внешний конвертер не смог обработать файл.
	ErrConversion = errors.New("audio conversion failed")
)

// UnsupportedFormatError содержит тег формата, который был отклонён.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// ConversionError описывает сбой конвертера.
type ConversionError struct {
	Format Format
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrConversion, e.Format, e.Err)
}

func (e *ConversionError) Unwrap() []error { return []error{ErrConversion, e.Err} }

// Converter приводит аудиофайл src к каноническому WAV в dst.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// DefaultFFmpeg имя бинарника ffmpeg по умолчанию.
const DefaultFFmpeg = "ffmpeg"

// maxStderr ограничивает объём вывода ffmpeg в тексте ошибки.
const maxStderr = 512

// FFmpeg конвертирует аудио внешней утилитой ffmpeg.
type FFmpeg struct {
	// Binary - путь к ffmpeg (по умолчанию ищется в PATH).
	Binary string
}

// NewFFmpeg создаёт конвертер.
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = DefaultFFmpeg
	}
	return &FFmpeg{Binary: binary}
}

// Args возвращает аргументы командной строки для конвертации в 16kHz mono PCM16.
func (f *FFmpeg) Args(src, dst string) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", src,
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-c:a", "pcm_s16le",
		dst,
	}
}

// Convert запускает ffmpeg и ждёт его завершения.
func (f *FFmpeg) Convert(ctx context.Context, src, dst string) error {
	binary := f.Binary
	if binary == "" {
		binary = DefaultFFmpeg
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("ffmpeg не найден: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, f.Args(src, dst)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(stderr.String())
		if len(out) > maxStderr {
			out = "..." + out[len(out)-maxStderr:]
		}
		if out != "" {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}

	return nil
}
