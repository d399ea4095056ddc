package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTextNestedKey(t *testing.T) {
	text := GetText("greetings.welcome", "ru")
	assert.Contains(t, text, "VitaPlus")
}

func TestGetTextSubstitution(t *testing.T) {
	text := GetText("greetings.hello", "ru", Args{"name": "Айбек"})
	assert.Equal(t, "Здравствуйте, Айбек!", text)

	text = GetText("errors.booking_too_far", "ru", Args{"days": 90})
	assert.Contains(t, text, "90")
}

func TestGetTextKazakh(t *testing.T) {
	ru := GetText("prompts.enter_name", "ru")
	kz := GetText("prompts.enter_name", "kz")
	assert.NotEqual(t, ru, kz)
}

func TestGetTextFallsBackToRussian(t *testing.T) {
	// Административный раздел в kz.json отсутствует
	kz := GetText("admin.menu", "kz")
	ru := GetText("admin.menu", "ru")
	assert.Equal(t, ru, kz)
}

func TestGetTextUnknownKeyReturnsKey(t *testing.T) {
	assert.Equal(t, "no.such.key", GetText("no.such.key", "ru"))
}

func TestGetTextUnsupportedLanguage(t *testing.T) {
	// Неизвестный язык трактуется как русский
	assert.Equal(t, GetText("common.yes", "ru"), GetText("common.yes", "en"))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name           string
		telegramLocale string
		preference     string
		want           string
	}{
		{"предпочтение важнее локали", "ru", "kz", "kz"},
		{"казахская локаль Telegram", "kk", "", "kz"},
		{"локаль с регионом", "kk-KZ", "", "kz"},
		{"русская локаль", "ru-RU", "", "ru"},
		{"неизвестная локаль", "en", "", "ru"},
		{"всё пусто", "", "", "ru"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.telegramLocale, tt.preference))
		})
	}
}

func TestUrgentTagLocalized(t *testing.T) {
	assert.Equal(t, "[❗️ СРОЧНО]", GetText("notification.urgent_tag", "ru"))
	assert.NotEqual(t, GetText("notification.urgent_tag", "ru"), GetText("notification.urgent_tag", "kz"))
}
