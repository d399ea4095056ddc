package i18n

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const DefaultLanguage = "ru"

var SupportedLanguages = []string{"ru", "kz"}

var (
	mu      sync.RWMutex
	locales = make(map[string]*viper.Viper)
	paths   = []string{"./locales", "../locales", "../../locales"}
)

// Args значения для подстановки плейсхолдеров вида {name}.
type Args map[string]interface{}

func loadLocale(language string) (*viper.Viper, error) {
	mu.RLock()
	v, ok := locales[language]
	mu.RUnlock()
	if ok {
		return v, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if v, ok := locales[language]; ok {
		return v, nil
	}

	v = viper.New()
	v.SetConfigName(language)
	v.SetConfigType("json")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to load locale %q: %w", language, err)
	}

	locales[language] = v
	log.Printf("Loaded locale data for language: %s", language)
	return v, nil
}

// GetText возвращает локализованный текст по ключу с точечной нотацией
// (например "greetings.welcome"). Порядок поиска: запрошенный язык,
// русский, сам ключ.
func GetText(key, language string, args ...Args) string {
	language = normalizeLanguage(language)

	if text, ok := lookup(key, language); ok {
		return substitute(text, args...)
	}

	if language != DefaultLanguage {
		log.Printf("Key %q not found in language %q, falling back to %s", key, language, DefaultLanguage)
		if text, ok := lookup(key, DefaultLanguage); ok {
			return substitute(text, args...)
		}
	}

	log.Printf("Translation key %q not found in any locale", key)
	return key
}

func lookup(key, language string) (string, bool) {
	v, err := loadLocale(language)
	if err != nil {
		log.Printf("Failed to load locale for language %q: %v", language, err)
		return "", false
	}
	if !v.IsSet(key) {
		return "", false
	}
	return v.GetString(key), true
}

func substitute(text string, args ...Args) string {
	if len(args) == 0 {
		return text
	}
	for name, value := range args[0] {
		text = strings.ReplaceAll(text, "{"+name+"}", fmt.Sprintf("%v", value))
	}
	return text
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	for _, supported := range SupportedLanguages {
		if language == supported {
			return language
		}
	}
	if language != "" {
		log.Printf("Unsupported language %q, falling back to %s", language, DefaultLanguage)
	}
	return DefaultLanguage
}

// DetectLanguage определяет язык пользователя.
// Приоритет: сохранённое предпочтение > локаль Telegram > русский.
func DetectLanguage(telegramLocale, userPreference string) string {
	if pref := strings.ToLower(strings.TrimSpace(userPreference)); pref != "" {
		for _, supported := range SupportedLanguages {
			if pref == supported {
				return pref
			}
		}
	}

	locale := strings.ToLower(strings.TrimSpace(telegramLocale))
	if locale != "" {
		// Telegram отдаёт казахский как "kk"
		if code := baseLanguageCode(locale); code != "" {
			return code
		}
	}

	return DefaultLanguage
}

func baseLanguageCode(locale string) string {
	lang := locale
	if idx := strings.IndexAny(locale, "_-"); idx > 0 {
		lang = locale[:idx]
	}

	switch lang {
	case "kk", "kaz", "kz":
		return "kz"
	case "ru":
		return "ru"
	}
	return ""
}

// ClearCache сбрасывает кэш локалей (используется в тестах).
func ClearCache() {
	mu.Lock()
	defer mu.Unlock()
	locales = make(map[string]*viper.Viper)
}

// SetLocalePaths переопределяет каталоги поиска файлов локалей.
func SetLocalePaths(dirs ...string) {
	mu.Lock()
	defer mu.Unlock()
	paths = dirs
	locales = make(map[string]*viper.Viper)
}
