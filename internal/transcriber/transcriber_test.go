package transcriber

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algranobot/internal/audio"
	"algranobot/internal/speech"
)

type stubRecognizer struct {
	text  string
	err   error
	calls int
	lang  string
	n     int
}

func (r *stubRecognizer) Transcribe(_ context.Context, samples []float32, lang string) (string, error) {
	r.calls++
	r.lang = lang
	r.n = len(samples)
	return r.text, r.err
}

func (r *stubRecognizer) Close()       {}
func (r *stubRecognizer) Name() string { return "stub" }

type staticRecognizers struct{ rec speech.Recognizer }

func (s staticRecognizers) Current() speech.Recognizer { return s.rec }

// copyConverter имитирует ffmpeg, копируя готовый WAV в dst.
type copyConverter struct {
	wav   []byte
	err   error
	calls int
}

func (c *copyConverter) Convert(_ context.Context, _, dst string) error {
	c.calls++
	if c.err != nil {
		os.WriteFile(dst, []byte("partial"), 0o600)
		return c.err
	}
	return os.WriteFile(dst, c.wav, 0o600)
}

type stubCorrector struct {
	out string
	err error
}

func (c stubCorrector) CorrectText(_ context.Context, text string) (string, error) {
	if c.err != nil {
		return text, c.err
	}
	return c.out, nil
}

func canonicalWAV(t *testing.T) []byte {
	t.Helper()
	data, err := audio.EncodeWAV(make([]float32, audio.SampleRate/2))
	require.NoError(t, err)
	return data
}

// floatWAV собирает валидный WAV с IEEE float сэмплами (audio format 3).
func floatWAV(t *testing.T, samples []float32) []byte {
	t.Helper()

	var buf bytes.Buffer
	le := func(v any) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }
	dataLen := uint32(len(samples) * 4)

	buf.WriteString("RIFF")
	le(36 + dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(3))
	le(uint16(1))
	le(uint32(audio.SampleRate))
	le(uint32(audio.SampleRate * 4))
	le(uint16(4))
	le(uint16(32))
	buf.WriteString("data")
	le(dataLen)
	for _, v := range samples {
		le(math.Float32bits(v))
	}
	return buf.Bytes()
}

func newService(t *testing.T, conv audio.Converter, rec speech.Recognizer, corr Corrector) *Service {
	t.Helper()
	s, err := New(Options{
		Gate:        audio.NewGate(conv),
		Recognizers: staticRecognizers{rec: rec},
		Language:    "ru",
		Corrector:   corr,
	})
	require.NoError(t, err)
	return s
}

func TestTranscribeCanonicalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	require.NoError(t, os.WriteFile(src, canonicalWAV(t), 0o600))

	conv := &copyConverter{}
	rec := &stubRecognizer{text: "ровно этот текст"}
	s := newService(t, conv, rec, nil)

	text, err := s.TranscribeFile(context.Background(), src, audio.FormatWAV)
	require.NoError(t, err)

	assert.Equal(t, "ровно этот текст", text)
	assert.Zero(t, conv.calls)
	assert.Equal(t, "ru", rec.lang)
	assert.Equal(t, audio.SampleRate/2, rec.n)
}

func TestTranscribeConvertsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.ogg")
	require.NoError(t, os.WriteFile(src, []byte("OggS"), 0o600))

	conv := &copyConverter{wav: canonicalWAV(t)}
	s := newService(t, conv, &stubRecognizer{text: "hello"}, nil)

	text, err := s.TranscribeFile(context.Background(), src, audio.FormatOGG)
	require.NoError(t, err)

	assert.Equal(t, "hello", text)
	assert.Equal(t, 1, conv.calls)
	assert.NoFileExists(t, audio.ConvertedPath(src))
}

func TestTranscribeConversionFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.mp3")
	require.NoError(t, os.WriteFile(src, []byte("ID3"), 0o600))

	rec := &stubRecognizer{text: "never"}
	s := newService(t, &copyConverter{err: errors.New("exit status 1")}, rec, nil)

	_, err := s.TranscribeFile(context.Background(), src, audio.FormatMP3)
	require.Error(t, err)

	assert.ErrorIs(t, err, audio.ErrConversion)
	assert.Zero(t, rec.calls)
	assert.NoFileExists(t, audio.ConvertedPath(src))
}

func TestTranscribeUnsupportedFormat(t *testing.T) {
	rec := &stubRecognizer{}
	s := newService(t, &copyConverter{}, rec, nil)

	_, err := s.TranscribeFile(context.Background(), "/tmp/whatever.xyz", audio.FormatUnknown)

	assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
	assert.Zero(t, rec.calls)
}

func TestTranscribeBrokenWAVIsConversionError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(src, []byte("not a wav file at all"), 0o600))

	s := newService(t, &copyConverter{}, &stubRecognizer{}, nil)

	_, err := s.TranscribeFile(context.Background(), src, audio.FormatWAV)
	assert.ErrorIs(t, err, audio.ErrConversion)
}

func TestTranscribeFloatWAVGoesThroughConverter(t *testing.T) {
	src := filepath.Join(t.TempDir(), "float.wav")
	require.NoError(t, os.WriteFile(src, floatWAV(t, make([]float32, audio.SampleRate)), 0o600))

	_, err := audio.LoadSamples(src)
	require.ErrorIs(t, err, audio.ErrInvalidWAV)

	conv := &copyConverter{wav: canonicalWAV(t)}
	rec := &stubRecognizer{text: "float speech"}
	s := newService(t, conv, rec, nil)

	text, err := s.TranscribeFile(context.Background(), src, audio.FormatWAV)
	require.NoError(t, err)

	assert.Equal(t, "float speech", text)
	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, audio.SampleRate/2, rec.n)
	assert.NoFileExists(t, audio.ConvertedPath(src))
	assert.FileExists(t, src)
}

func TestTranscribeFloatWAVConverterFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "float.wav")
	require.NoError(t, os.WriteFile(src, floatWAV(t, make([]float32, 1600)), 0o600))

	rec := &stubRecognizer{}
	s := newService(t, &copyConverter{err: errors.New("ffmpeg не найден")}, rec, nil)

	_, err := s.TranscribeFile(context.Background(), src, audio.FormatWAV)

	assert.ErrorIs(t, err, audio.ErrConversion)
	assert.Zero(t, rec.calls)
	assert.NoFileExists(t, audio.ConvertedPath(src))
}

func TestTranscribeRecognizerError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(src, canonicalWAV(t), 0o600))

	s := newService(t, &copyConverter{}, &stubRecognizer{err: errors.New("whisper failed")}, nil)

	_, err := s.TranscribeFile(context.Background(), src, audio.FormatWAV)
	assert.ErrorIs(t, err, ErrTranscription)
	assert.NotErrorIs(t, err, audio.ErrConversion)
}

func TestTranscribeWithoutRecognizer(t *testing.T) {
	s, err := New(Options{Gate: audio.NewGate(&copyConverter{}), Recognizers: staticRecognizers{}})
	require.NoError(t, err)

	_, err = s.TranscribeSamples(context.Background(), make([]float32, 10))
	assert.ErrorIs(t, err, ErrNoRecognizer)
	assert.ErrorIs(t, err, ErrTranscription)
}

func TestTranscribeEmptySkipsCorrector(t *testing.T) {
	s := newService(t, &copyConverter{}, &stubRecognizer{text: ""}, stubCorrector{out: "invented"})

	text, err := s.TranscribeSamples(context.Background(), make([]float32, 10))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribeCorrector(t *testing.T) {
	s := newService(t, &copyConverter{}, &stubRecognizer{text: "привет мир"}, stubCorrector{out: "Привет, мир."})

	text, err := s.TranscribeSamples(context.Background(), make([]float32, 10))
	require.NoError(t, err)
	assert.Equal(t, "Привет, мир.", text)
}

func TestTranscribeCorrectorFailureKeepsText(t *testing.T) {
	s := newService(t, &copyConverter{}, &stubRecognizer{text: "привет мир"}, stubCorrector{err: errors.New("timeout")})

	text, err := s.TranscribeSamples(context.Background(), make([]float32, 10))
	require.NoError(t, err)
	assert.Equal(t, "привет мир", text)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Gate: audio.NewGate(&copyConverter{})})
	assert.Error(t, err)
}
