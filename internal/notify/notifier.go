package notify

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/helper"
	"github.com/vitaplus/vitabot/internal/i18n"
)

// Event событие уведомления.
type Event struct {
	EventType     string
	Recipient     string
	RecipientType string // "specialist", "admin", "client"
	Language      string
	Data          i18n.Args
	Channels      []string
	BookingID     *uint
}

// FailedNotification недоставленное уведомление, ожидающее ручной обработки.
type FailedNotification struct {
	Event     Event
	Message   string
	Timestamp time.Time
}

// LogFunc вызывается на каждую попытку доставки для записи в журнал.
type LogFunc func(entry common.NotificationLog)

// DigestFunc собирает события ежедневной сводки на момент отправки.
type DigestFunc func(ctx context.Context) []Event

// Notifier многоканальная рассылка уведомлений: немедленные оповещения,
// срочная эскалация, ежедневная сводка и проверка состояния.
type Notifier struct {
	mu       sync.Mutex
	adapters map[string]Adapter
	failed   []FailedNotification

	logFn         LogFunc
	retryAttempts int
	retryDelayMin time.Duration
	retryDelayMax time.Duration
	digestHour    int
	digestMinute  int
	adminIDs      []int64
}

// NewNotifier собирает рассыльщик из адаптеров и конфигурации
// (notifications.retry_*, notifications.digest_*, admin.ids).
func NewNotifier(adapters []Adapter, adminIDs []int64, logFn LogFunc) *Notifier {
	byChannel := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byChannel[a.ChannelName()] = a
	}

	attempts := viper.GetInt("notifications.retry_attempts")
	if attempts <= 0 {
		attempts = helper.DefaultRetryAttempts
	}
	delayMin := time.Duration(viper.GetInt("notifications.retry_delay_min")) * time.Second
	if delayMin <= 0 {
		delayMin = helper.DefaultRetryMinDelay
	}
	delayMax := time.Duration(viper.GetInt("notifications.retry_delay_max")) * time.Second
	if delayMax <= 0 {
		delayMax = helper.DefaultRetryMaxDelay
	}

	return &Notifier{
		adapters:      byChannel,
		logFn:         logFn,
		retryAttempts: attempts,
		retryDelayMin: delayMin,
		retryDelayMax: delayMax,
		digestHour:    viper.GetInt("notifications.digest_hour"),
		digestMinute:  viper.GetInt("notifications.digest_minute"),
		adminIDs:      adminIDs,
	}
}

// SendImmediateAlert отправляет немедленное оповещение о событии.
func (n *Notifier) SendImmediateAlert(ctx context.Context, event Event) bool {
	log.Printf("Немедленное оповещение: %s -> %s", event.EventType, event.Recipient)
	message := FormatEventMessage(event)
	return n.deliver(ctx, event, "immediate", "normal", message)
}

// SendUrgentEscalation отправляет срочную эскалацию с маркером срочности.
func (n *Notifier) SendUrgentEscalation(ctx context.Context, event Event) bool {
	log.Printf("Срочная эскалация: %s -> %s", event.EventType, event.Recipient)
	message := AddUrgentTag(FormatEventMessage(event), event.Language)
	return n.deliver(ctx, event, "urgent", "urgent", message)
}

// SendDigest отправляет ежедневную сводку получателю.
func (n *Notifier) SendDigest(ctx context.Context, event Event) bool {
	log.Printf("Отправка сводки получателю %s", event.Recipient)
	message := FormatDigestMessage(event.Language, event.Data)
	return n.deliver(ctx, event, "digest", "normal", message)
}

// SendHealthCheck отправляет администратору сигнал о штатной работе.
func (n *Notifier) SendHealthCheck(ctx context.Context, adminID int64, language string) bool {
	event := Event{
		EventType:     EventHealthCheck,
		Recipient:     strconv.FormatInt(adminID, 10),
		RecipientType: "admin",
		Language:      language,
		Channels:      []string{ChannelTelegram},
	}
	ok := n.sendToChannels(ctx, event.Recipient, event.Channels, FormatHealthCheck(language))
	log.Printf("Проверка состояния отправлена администратору %d: %v", adminID, ok)
	return ok
}

// NotifyAdmins рассылает произвольное сообщение всем администраторам в Telegram.
func (n *Notifier) NotifyAdmins(ctx context.Context, message string) {
	for _, adminID := range n.adminIDs {
		recipient := strconv.FormatInt(adminID, 10)
		if !n.sendToChannels(ctx, recipient, []string{ChannelTelegram}, message) {
			log.Printf("Не удалось уведомить администратора %d", adminID)
		}
	}
}

// deliver форматирует, доставляет, журналирует и при неудаче
// ставит уведомление в очередь ручной обработки.
func (n *Notifier) deliver(ctx context.Context, event Event, messageType, urgency, message string) bool {
	ok := n.sendToChannels(ctx, event.Recipient, event.Channels, message)

	status := "sent"
	if !ok {
		status = "failed"
	}
	n.logNotification(event, messageType, urgency, status, message, "")

	if !ok {
		n.handleFailed(ctx, event, message)
	}
	return ok
}

// sendToChannels рассылает сообщение по каналам с повторными попытками.
// Успехом считается доставка хотя бы в один канал.
func (n *Notifier) sendToChannels(ctx context.Context, recipient string, channels []string, message string) bool {
	if len(channels) == 0 {
		channels = []string{ChannelTelegram}
	}

	delivered := false
	for _, channelName := range channels {
		adapter, ok := n.adapters[channelName]
		if !ok {
			log.Printf("Канал %s не подключён", channelName)
			continue
		}
		if !adapter.Available() {
			log.Printf("Канал %s недоступен", channelName)
			continue
		}

		err := helper.Retry(ctx, "notify."+channelName, n.retryAttempts, n.retryDelayMin, n.retryDelayMax,
			func() error {
				return adapter.Send(ctx, recipient, message)
			})
		if err != nil {
			log.Printf("Доставка в %s получателю %s не удалась: %v", channelName, recipient, err)
			continue
		}
		delivered = true
	}
	return delivered
}

// handleFailed копит недоставленные уведомления; при исчерпании бюджета
// повторов отправляет администраторам сигнал о необходимости ручной обработки.
func (n *Notifier) handleFailed(ctx context.Context, event Event, message string) {
	n.mu.Lock()
	n.failed = append(n.failed, FailedNotification{
		Event:     event,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	needManualAlert := len(n.failed) >= n.retryAttempts
	n.mu.Unlock()

	if needManualAlert {
		n.sendManualAlert(ctx, event, message)
	}
}

func (n *Notifier) sendManualAlert(ctx context.Context, event Event, message string) {
	cause := &common.ManualInterventionError{
		Message: "уведомление не доставлено после повторных попыток",
		Context: map[string]string{
			"event":     event.EventType,
			"recipient": event.Recipient,
		},
	}
	log.Printf("Требуется ручная обработка: %v (%s -> %s)", cause, event.EventType, event.Recipient)

	alert := FormatManualAlert(event.Language, n.retryAttempts, message, event.Recipient)
	n.NotifyAdmins(ctx, alert)

	n.logNotification(Event{
		EventType:     EventManualAlert,
		Recipient:     "admins",
		RecipientType: "admin",
		Language:      event.Language,
		Channels:      []string{ChannelTelegram},
	}, "manual_alert", "urgent", "sent", alert, cause.Error()+": "+event.EventType)
}

func (n *Notifier) logNotification(event Event, messageType, urgency, status, message, errDetails string) {
	if n.logFn == nil {
		return
	}

	recipientID, _ := strconv.ParseInt(event.Recipient, 10, 64)
	preview := message
	if runes := []rune(preview); len(runes) > 100 {
		preview = string(runes[:100])
	}

	entry := common.NotificationLog{
		RecipientID:    recipientID,
		RecipientType:  event.RecipientType,
		Channel:        joinChannels(event.Channels),
		MessageType:    messageType,
		UrgencyLevel:   urgency,
		Subject:        event.EventType,
		MessagePreview: preview,
		DeliveryStatus: status,
		BookingID:      event.BookingID,
		ErrorDetails:   errDetails,
		CreatedAt:      time.Now().UTC(),
	}
	if status == "sent" {
		now := time.Now().UTC()
		entry.SentAt = &now
	}
	n.logFn(entry)
}

func joinChannels(channels []string) string {
	if len(channels) == 0 {
		return ChannelTelegram
	}
	out := channels[0]
	for _, c := range channels[1:] {
		out += "," + c
	}
	return out
}

// FailedNotifications копия очереди недоставленных уведомлений.
func (n *Notifier) FailedNotifications() []FailedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]FailedNotification, len(n.failed))
	copy(out, n.failed)
	return out
}

// ClearFailedNotifications очищает очередь недоставленных уведомлений.
func (n *Notifier) ClearFailedNotifications() {
	n.mu.Lock()
	n.failed = nil
	n.mu.Unlock()
}

// RunDigestScheduler раз в сутки в настроенное время (по умолчанию 08:00)
// собирает сводку через digestFn и рассылает её. Блокирует до отмены ctx.
func (n *Notifier) RunDigestScheduler(ctx context.Context, digestFn DigestFunc) {
	log.Printf("Планировщик сводки запущен: ежедневно в %02d:%02d", n.digestHour, n.digestMinute)

	for {
		next := n.nextDigestTime(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		events := digestFn(ctx)
		log.Printf("Рассылка ежедневной сводки: %d получателей", len(events))
		for _, event := range events {
			if event.EventType == "" {
				event.EventType = EventDailyDigest
			}
			n.SendDigest(ctx, event)
		}
	}
}

func (n *Notifier) nextDigestTime(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), n.digestHour, n.digestMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
