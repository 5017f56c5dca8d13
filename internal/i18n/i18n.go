// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"algranobot/embedded"
)

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

// Fallback is used for keys missing in the current language.
const Fallback = EN

var (
	mu           sync.RWMutex
	current      = EN // Default language
	translations map[Language]map[string]string
)

func init() {
	t, err := Load(embedded.Locales, "locales")
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded catalogues: %v", err))
	}
	translations = t
}

// Load reads <lang>.yaml catalogues from dir in fsys.
func Load(fsys fs.FS, dir string) (map[Language]map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	result := make(map[Language]map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}

		var catalogue map[string]string
		if err := yaml.Unmarshal(data, &catalogue); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}

		result[Language(strings.TrimSuffix(e.Name(), ".yaml"))] = catalogue
	}

	if _, ok := result[Fallback]; !ok {
		return nil, fmt.Errorf("missing %s catalogue", Fallback)
	}
	return result, nil
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	if s, ok := translations[Fallback][key]; ok {
		return s
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation for key with args.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// Has reports whether a catalogue exists for lang.
func Has(lang Language) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := translations[lang]
	return ok
}

// SetLanguage sets the current UI language.
// Unknown languages are ignored.
func SetLanguage(lang Language) error {
	if !Has(lang) {
		return fmt.Errorf("unsupported UI language: %s", lang)
	}
	mu.Lock()
	defer mu.Unlock()
	current = lang
	return nil
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{EN, RU}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case RU:
		return "Русский"
	case EN:
		return "English"
	default:
		return string(lang)
	}
}
