package notify

import (
	"strings"
	"time"

	"github.com/vitaplus/vitabot/internal/i18n"
)

// Типы событий уведомлений
const (
	EventBookingCreated     = "booking_created"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingRescheduled = "booking_rescheduled"
	EventComplaintReceived  = "complaint_received"
	EventDailyDigest        = "daily_digest"
	EventHealthCheck        = "health_check"
	EventManualAlert        = "manual_alert"
)

// FormatEventMessage собирает текст уведомления по типу события.
// Неизвестный тип события даёт заглушку fallback.no_data.
func FormatEventMessage(event Event) string {
	switch event.EventType {
	case EventBookingCreated, EventBookingCancelled, EventBookingRescheduled, EventComplaintReceived:
		return i18n.GetText("notification."+event.EventType, event.Language, event.Data)
	default:
		return i18n.GetText("fallback.no_data", event.Language)
	}
}

// FormatDigestMessage собирает текст ежедневной сводки.
func FormatDigestMessage(language string, data i18n.Args) string {
	return i18n.GetText("notification.daily_digest", language, data)
}

// FormatHealthCheck сообщение штатной проверки состояния.
func FormatHealthCheck(language string) string {
	return i18n.GetText("notification.health_check", language)
}

// FormatHealthCheckFailed сообщение о сбое проверки состояния.
func FormatHealthCheckFailed(language, errText string) string {
	return i18n.GetText("notification.health_check_failed", language, i18n.Args{"error": errText})
}

// FormatManualAlert сообщение администратору о недоставленном уведомлении.
func FormatManualAlert(language string, attempts int, message, recipient string) string {
	if runes := []rune(message); len(runes) > 100 {
		message = string(runes[:100])
	}
	return i18n.GetText("notification.manual_alert", language, i18n.Args{
		"attempts":  attempts,
		"message":   message,
		"recipient": recipient,
	})
}

// AddUrgentTag добавляет к сообщению маркер срочности.
func AddUrgentTag(message, language string) string {
	return i18n.GetText("notification.urgent_tag", language) + " " + message
}

// ShouldEscalateToUrgent решает, требуется ли срочная эскалация:
// запись на сегодня после 08:00 или жалоба высокой важности.
func ShouldEscalateToUrgent(eventType string, bookingTime time.Time, complaintSeverity string, now time.Time) bool {
	if eventType == "booking" && !bookingTime.IsZero() {
		sameDay := bookingTime.Year() == now.Year() && bookingTime.YearDay() == now.YearDay()
		if sameDay && now.Hour() >= 8 {
			return true
		}
	}

	if eventType == "complaint" {
		switch strings.ToLower(complaintSeverity) {
		case "high", "critical", "urgent":
			return true
		}
	}

	return false
}
