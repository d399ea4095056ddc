package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"формат E.164", "+77011234567", "+77011234567"},
		{"начинается с 8", "87011234567", "+77011234567"},
		{"с разделителями", "8 (701) 123-45-67", "+77011234567"},
		{"десять цифр", "7011234567", "+77011234567"},
		{"мусор", "abc", ""},
		{"пустая строка", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.input))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	ok, _ := IsValidPhone("+77011234567")
	assert.True(t, ok)

	ok, msg := IsValidPhone("")
	assert.False(t, ok)
	assert.NotEmpty(t, msg)

	ok, _ = IsValidPhone("123")
	assert.False(t, ok)

	ok, _ = IsValidPhone("7701abc4567")
	assert.False(t, ok)
}

func TestIsValidName(t *testing.T) {
	ok, _ := IsValidName("Айгерим Нурланова")
	assert.True(t, ok)

	ok, _ = IsValidName("Анна-Мария")
	assert.True(t, ok)

	ok, _ = IsValidName("")
	assert.False(t, ok)

	ok, _ = IsValidName("A")
	assert.False(t, ok)

	ok, _ = IsValidName("Иван123")
	assert.False(t, ok)
}

func TestIsValidEmail(t *testing.T) {
	ok, _ := IsValidEmail("doctor@vitaplus.kz")
	assert.True(t, ok)

	// пустые значения и маркеры пропуска допустимы
	ok, _ = IsValidEmail("")
	assert.True(t, ok)
	ok, _ = IsValidEmail("пропустить")
	assert.True(t, ok)

	ok, _ = IsValidEmail("not-an-email")
	assert.False(t, ok)
}

func TestIsValidDate(t *testing.T) {
	ok, _ := IsValidDate("2026-09-15")
	assert.True(t, ok)

	ok, _ = IsValidDate("15.09.2026")
	assert.False(t, ok)

	ok, _ = IsValidDate("")
	assert.False(t, ok)
}

func TestIsValidTime(t *testing.T) {
	ok, _ := IsValidTime("09:30")
	assert.True(t, ok)

	ok, _ = IsValidTime("24:00")
	assert.False(t, ok)

	ok, _ = IsValidTime("09:60")
	assert.False(t, ok)

	ok, _ = IsValidTime("0930")
	assert.False(t, ok)
}

func TestIsValidWorkingHours(t *testing.T) {
	ok, _ := IsValidWorkingHours("09:00", "18:00")
	assert.True(t, ok)

	ok, msg := IsValidWorkingHours("18:00", "09:00")
	assert.False(t, ok)
	assert.Contains(t, msg, "раньше")
}

func TestTimeToMinutes(t *testing.T) {
	assert.Equal(t, 0, TimeToMinutes("00:00"))
	assert.Equal(t, 570, TimeToMinutes("09:30"))
	assert.Equal(t, 1439, TimeToMinutes("23:59"))
}
