package notify

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/internal/i18n"
)

func newTestNotifier(t *testing.T, adapters []Adapter, adminIDs []int64, logFn LogFunc) *Notifier {
	t.Helper()
	viper.Set("notifications.retry_attempts", 1)
	viper.Set("notifications.digest_hour", 8)
	viper.Set("notifications.digest_minute", 0)
	t.Cleanup(func() {
		viper.Set("notifications.retry_attempts", 0)
	})
	return NewNotifier(adapters, adminIDs, logFn)
}

func bookingEvent(channels ...string) Event {
	return Event{
		EventType:     EventBookingCreated,
		Recipient:     "100500",
		RecipientType: "specialist",
		Language:      "ru",
		Data: i18n.Args{
			"client_name":     "Айбек",
			"specialist_name": "Доктор Ахметова",
			"booking_date":    "2026-09-15",
			"booking_time":    "10:00",
		},
		Channels: channels,
	}
}

func TestSendImmediateAlert(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	var logged []common.NotificationLog
	n := newTestNotifier(t, []Adapter{telegram}, nil, func(entry common.NotificationLog) {
		logged = append(logged, entry)
	})

	ok := n.SendImmediateAlert(context.Background(), bookingEvent(ChannelTelegram))
	require.True(t, ok)

	sent := telegram.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "100500", sent[0].Recipient)
	assert.Contains(t, sent[0].Message, "Айбек")
	assert.Contains(t, sent[0].Message, "Доктор Ахметова")

	require.Len(t, logged, 1)
	assert.Equal(t, "sent", logged[0].DeliveryStatus)
	assert.Equal(t, int64(100500), logged[0].RecipientID)
	assert.NotNil(t, logged[0].SentAt)
}

func TestUrgentEscalationAddsTag(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	n := newTestNotifier(t, []Adapter{telegram}, nil, nil)

	ok := n.SendUrgentEscalation(context.Background(), bookingEvent(ChannelTelegram))
	require.True(t, ok)

	sent := telegram.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, "СРОЧНО")
}

func TestAnyChannelSuccessCounts(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	whatsapp := NewMockAdapter(ChannelWhatsApp)
	telegram.FailNext()
	n := newTestNotifier(t, []Adapter{telegram, whatsapp}, nil, nil)

	ok := n.SendImmediateAlert(context.Background(), bookingEvent(ChannelTelegram, ChannelWhatsApp))
	assert.True(t, ok)
	assert.Len(t, whatsapp.SentMessages(), 1)
	assert.Empty(t, n.FailedNotifications())
}

func TestUnavailableChannelSkipped(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	telegram.SetAvailable(false)
	n := newTestNotifier(t, []Adapter{telegram}, nil, nil)

	ok := n.SendImmediateAlert(context.Background(), bookingEvent(ChannelTelegram))
	assert.False(t, ok)
	assert.Empty(t, telegram.SentMessages())
}

func TestFailedDeliveryQueuesManualAlert(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	telegram.FailNext()
	adminIDs := []int64{777}
	var logged []common.NotificationLog
	n := newTestNotifier(t, []Adapter{telegram}, adminIDs, func(entry common.NotificationLog) {
		logged = append(logged, entry)
	})

	ok := n.SendImmediateAlert(context.Background(), bookingEvent(ChannelTelegram))
	assert.False(t, ok)

	failed := n.FailedNotifications()
	require.Len(t, failed, 1)
	assert.Equal(t, EventBookingCreated, failed[0].Event.EventType)

	// Очередь достигла бюджета повторов, админ получил сигнал вручную
	sent := telegram.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "777", sent[0].Recipient)
	assert.Contains(t, sent[0].Message, "Не удалось доставить")

	// В журнале: неудачная доставка и запись о ручной обработке
	require.Len(t, logged, 2)
	assert.Equal(t, "failed", logged[0].DeliveryStatus)
	assert.Equal(t, "manual_alert", logged[1].MessageType)
	assert.Contains(t, logged[1].ErrorDetails, "не доставлено после повторных попыток")

	n.ClearFailedNotifications()
	assert.Empty(t, n.FailedNotifications())
}

func TestDefaultChannelIsTelegram(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	n := newTestNotifier(t, []Adapter{telegram}, nil, nil)

	ok := n.SendImmediateAlert(context.Background(), bookingEvent())
	assert.True(t, ok)
	assert.Len(t, telegram.SentMessages(), 1)
}

func TestSendDigest(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	n := newTestNotifier(t, []Adapter{telegram}, nil, nil)

	event := Event{
		EventType:     EventDailyDigest,
		Recipient:     "777",
		RecipientType: "admin",
		Language:      "ru",
		Data: i18n.Args{
			"date":               "2026-09-15",
			"new_bookings":       4,
			"cancelled_bookings": 1,
			"complaints":         0,
			"urgent_events":      2,
		},
		Channels: []string{ChannelTelegram},
	}
	require.True(t, n.SendDigest(context.Background(), event))

	sent := telegram.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, "Новых записей: 4")
	assert.Contains(t, sent[0].Message, "Отмен: 1")
}

func TestSendHealthCheck(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	n := newTestNotifier(t, []Adapter{telegram}, nil, nil)

	require.True(t, n.SendHealthCheck(context.Background(), 777, "ru"))
	sent := telegram.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "777", sent[0].Recipient)
}

func TestNextDigestTime(t *testing.T) {
	telegram := NewMockAdapter(ChannelTelegram)
	n := newTestNotifier(t, []Adapter{telegram}, nil, nil)

	// До времени сводки — сегодня
	now := time.Date(2026, 9, 15, 6, 30, 0, 0, time.Local)
	next := n.nextDigestTime(now)
	assert.Equal(t, time.Date(2026, 9, 15, 8, 0, 0, 0, time.Local), next)

	// После времени сводки — завтра
	now = time.Date(2026, 9, 15, 9, 0, 0, 0, time.Local)
	next = n.nextDigestTime(now)
	assert.Equal(t, time.Date(2026, 9, 16, 8, 0, 0, 0, time.Local), next)
}
