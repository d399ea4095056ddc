package helper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"
)

var (
	nameRe  = regexp.MustCompile(`^[а-яёА-ЯЁa-zA-Z\s\-']+$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	digitRe = regexp.MustCompile(`[^0-9]`)
)

// NormalizePhoneNumber приводит номер к формату E.164 (+7XXXXXXXXXX).
// Возвращает пустую строку, если номер не распознан.
func NormalizePhoneNumber(phone string) string {
	num, err := libphonenumber.Parse(phone, "KZ")
	if err != nil || !libphonenumber.IsValidNumber(num) {
		// Повторная попытка для номеров, начинающихся с 8
		digits := digitRe.ReplaceAllString(phone, "")
		if len(digits) == 11 && digits[0] == '8' {
			return NormalizePhoneNumber("+7" + digits[1:])
		}
		if len(digits) == 10 {
			return NormalizePhoneNumber("+7" + digits)
		}
		return ""
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

func IsValidPhone(phone string) (bool, string) {
	if strings.TrimSpace(phone) == "" {
		return false, "номер телефона не может быть пустым"
	}

	cleaned := digitRe.ReplaceAllString(phone, "")
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(" -().+", r) {
			return -1
		}
		return r
	}, phone)
	if stripped != cleaned {
		return false, "номер телефона должен содержать только цифры и разделители"
	}

	if len(cleaned) < 10 || len(cleaned) > 12 {
		return false, "номер телефона должен быть от 10 до 12 цифр"
	}
	if len(cleaned) > 11 && !strings.HasPrefix(cleaned, "7") {
		return false, "формат номера должен соответствовать Казахстану/России"
	}

	return true, ""
}

func IsValidName(name string) (bool, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, "имя не может быть пустым"
	}
	if len([]rune(name)) < 2 {
		return false, "имя должно быть не менее 2 символов"
	}
	if len([]rune(name)) > 100 {
		return false, "имя не может быть более 100 символов"
	}
	if !nameRe.MatchString(name) {
		return false, "имя может содержать только буквы, пробелы, дефисы и апострофы"
	}
	return true, ""
}

func IsValidSpecialization(specialization string) (bool, string) {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return false, "специализация не может быть пустой"
	}
	if len([]rune(specialization)) < 2 {
		return false, "специализация должна быть не менее 2 символов"
	}
	if len([]rune(specialization)) > 100 {
		return false, "специализация не может быть более 100 символов"
	}
	return true, ""
}

// IsValidEmail проверяет email; пустые значения и маркеры пропуска допустимы.
func IsValidEmail(email string) (bool, string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return true, ""
	}
	switch strings.ToLower(email) {
	case "skip", "пропустить", "-":
		return true, ""
	}
	if !emailRe.MatchString(email) {
		return false, "некорректный формат email"
	}
	return true, ""
}

func IsValidDate(dateStr string) (bool, string) {
	if dateStr == "" {
		return false, "дата не может быть пустой"
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return false, "дата должна быть в формате YYYY-MM-DD"
	}
	return true, ""
}

func IsValidTime(timeStr string) (bool, string) {
	if timeStr == "" {
		return false, "время не может быть пустым"
	}
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return false, "время должно быть в формате HH:MM"
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return false, "время должно быть в формате HH:MM"
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return false, "время должно быть в формате HH:MM"
	}
	if hours < 0 || hours > 23 {
		return false, "часы должны быть от 0 до 23"
	}
	if minutes < 0 || minutes > 59 {
		return false, "минуты должны быть от 0 до 59"
	}
	return true, ""
}

func IsValidWorkingHours(startTime, endTime string) (bool, string) {
	if ok, msg := IsValidTime(startTime); !ok {
		return false, fmt.Sprintf("время начала: %s", msg)
	}
	if ok, msg := IsValidTime(endTime); !ok {
		return false, fmt.Sprintf("время конца: %s", msg)
	}

	startMins := TimeToMinutes(startTime)
	endMins := TimeToMinutes(endTime)
	if startMins >= endMins {
		return false, "время начала должно быть раньше времени конца"
	}
	return true, ""
}

// TimeToMinutes переводит время HH:MM в минуты от начала суток.
func TimeToMinutes(timeStr string) int {
	parts := strings.Split(timeStr, ":")
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}
