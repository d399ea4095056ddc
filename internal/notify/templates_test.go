package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vitaplus/vitabot/internal/i18n"
)

func TestFormatEventMessage(t *testing.T) {
	event := bookingEvent(ChannelTelegram)
	message := FormatEventMessage(event)
	assert.Contains(t, message, "Айбек")
	assert.Contains(t, message, "2026-09-15")
	assert.Contains(t, message, "10:00")
}

func TestFormatEventMessageUnknownType(t *testing.T) {
	message := FormatEventMessage(Event{EventType: "unknown_event", Language: "ru"})
	assert.Equal(t, i18n.GetText("fallback.no_data", "ru"), message)
}

func TestAddUrgentTag(t *testing.T) {
	tagged := AddUrgentTag("Новая запись", "ru")
	assert.True(t, strings.HasPrefix(tagged, "[❗️ СРОЧНО]"))
	assert.Contains(t, tagged, "Новая запись")
}

func TestFormatManualAlertTruncatesLongMessage(t *testing.T) {
	long := strings.Repeat("ж", 300)
	alert := FormatManualAlert("ru", 3, long, "100500")
	assert.Contains(t, alert, strings.Repeat("ж", 100))
	assert.NotContains(t, alert, strings.Repeat("ж", 101))
	assert.Contains(t, alert, "100500")
}

func TestShouldEscalateToUrgent(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name        string
		eventType   string
		bookingTime time.Time
		severity    string
		want        bool
	}{
		{
			name:        "запись на сегодня после 08:00",
			eventType:   "booking",
			bookingTime: time.Date(2026, 9, 15, 15, 0, 0, 0, time.Local),
			want:        true,
		},
		{
			name:        "запись на завтра",
			eventType:   "booking",
			bookingTime: time.Date(2026, 9, 16, 15, 0, 0, 0, time.Local),
			want:        false,
		},
		{
			name:      "жалоба высокой важности",
			eventType: "complaint",
			severity:  "high",
			want:      true,
		},
		{
			name:      "критическая жалоба",
			eventType: "complaint",
			severity:  "CRITICAL",
			want:      true,
		},
		{
			name:      "обычная жалоба",
			eventType: "complaint",
			severity:  "low",
			want:      false,
		},
		{
			name:      "обычное событие",
			eventType: "feedback",
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldEscalateToUrgent(tt.eventType, tt.bookingTime, tt.severity, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldEscalateToUrgentBeforeWorkHours(t *testing.T) {
	// До 08:00 запись на сегодня не эскалируется
	earlyMorning := time.Date(2026, 9, 15, 7, 0, 0, 0, time.Local)
	booking := time.Date(2026, 9, 15, 9, 0, 0, 0, time.Local)
	assert.False(t, ShouldEscalateToUrgent("booking", booking, "", earlyMorning))
}
