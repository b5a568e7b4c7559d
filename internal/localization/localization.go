// Package localization provides functionality for internationalization (i18n).
// Translation tables are JSON files named by language code, embedded into the binary.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed locales/*.json
var embedded embed.FS

// Localizer manages the translations for the application.
// It holds a map of languages, each with its own map of translation keys and values.
type Localizer struct {
	translations map[string]map[string]string
	defaultLang  string
	mu           sync.RWMutex
}

// NewLocalizer loads the embedded translations. Unknown languages fall back to defaultLang.
func NewLocalizer(defaultLang string) (*Localizer, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizerFS(sub, defaultLang)
}

// NewLocalizerFS loads every *.json file at the root of fsys.
func NewLocalizerFS(fsys fs.FS, defaultLang string) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(".", file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	if _, ok := l.translations[defaultLang]; !ok {
		return nil, fmt.Errorf("no translations for default language %q", defaultLang)
	}
	return l, nil
}

// GetString returns the localized string for a given key and language.
// Lookup order: lang, then the default language, then "en". If nothing matches, the key itself is returned.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, candidate := range []string{baseLang(lang), l.defaultLang, "en"} {
		if langTranslations, ok := l.translations[candidate]; ok {
			if value, ok := langTranslations[key]; ok {
				return value
			}
		}
	}
	return key
}

// Sprintf formats the localized template for key.
func (l *Localizer) Sprintf(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// DefaultLanguage returns the configured fallback language.
func (l *Localizer) DefaultLanguage() string {
	return l.defaultLang
}

// "en-US" -> "en"
func baseLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return lang[:i]
	}
	return lang
}
