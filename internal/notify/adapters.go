package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/vitaplus/vitabot/common"
)

// Названия каналов доставки
const (
	ChannelTelegram  = "telegram"
	ChannelWhatsApp  = "whatsapp"
	ChannelInstagram = "instagram"
)

// Adapter канал доставки уведомлений.
type Adapter interface {
	ChannelName() string
	Available() bool
	// Send доставляет сообщение получателю. Формат идентификатора
	// зависит от канала: Telegram ID, номер телефона, Instagram ID.
	Send(ctx context.Context, recipient, message string) error
}

// TelegramAdapter доставка через Telegram Bot API с ограничением частоты отправки.
type TelegramAdapter struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewTelegramAdapter создаёт адаптер поверх уже авторизованного бота.
// Telegram ограничивает ботов примерно 30 сообщениями в секунду.
func NewTelegramAdapter(bot *tgbotapi.BotAPI) *TelegramAdapter {
	return &TelegramAdapter{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
	}
}

func (a *TelegramAdapter) ChannelName() string { return ChannelTelegram }

func (a *TelegramAdapter) Available() bool { return a.bot != nil }

func (a *TelegramAdapter) Send(ctx context.Context, recipient, message string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil || chatID <= 0 {
		return fmt.Errorf("telegram: invalid recipient %q", recipient)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, message)
	if _, err := a.bot.Send(msg); err != nil {
		return common.NewExternalServiceError("Telegram", "failed to send message", err)
	}
	log.Printf("Telegram-уведомление отправлено получателю %d", chatID)
	return nil
}

// WhatsAppAdapter доставка через Twilio WhatsApp API.
type WhatsAppAdapter struct {
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewWhatsAppAdapter читает реквизиты Twilio из конфигурации
// (twilio.account_sid, twilio.auth_token, twilio.whatsapp_from).
func NewWhatsAppAdapter() *WhatsAppAdapter {
	return &WhatsAppAdapter{
		accountSID: viper.GetString("twilio.account_sid"),
		authToken:  viper.GetString("twilio.auth_token"),
		fromNumber: viper.GetString("twilio.whatsapp_from"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *WhatsAppAdapter) ChannelName() string { return ChannelWhatsApp }

func (a *WhatsAppAdapter) Available() bool {
	return a.accountSID != "" && a.authToken != "" && a.fromNumber != ""
}

func (a *WhatsAppAdapter) Send(ctx context.Context, recipient, message string) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("whatsapp: empty recipient")
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", a.accountSID)
	form := url.Values{}
	form.Set("From", "whatsapp:"+a.fromNumber)
	form.Set("To", "whatsapp:"+recipient)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(a.accountSID, a.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return common.NewExternalServiceError("WhatsApp", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return common.NewExternalServiceError("WhatsApp",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}
	log.Printf("WhatsApp-уведомление отправлено получателю %s", recipient)
	return nil
}

// InstagramAdapter доставка в Instagram Direct через Graph API.
type InstagramAdapter struct {
	accessToken string
	httpClient  *http.Client
}

func NewInstagramAdapter() *InstagramAdapter {
	return &InstagramAdapter{
		accessToken: viper.GetString("instagram.access_token"),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *InstagramAdapter) ChannelName() string { return ChannelInstagram }

func (a *InstagramAdapter) Available() bool { return a.accessToken != "" }

func (a *InstagramAdapter) Send(ctx context.Context, recipient, message string) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("instagram: empty recipient")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"recipient": map[string]string{"id": recipient},
		"message":   map[string]string{"text": message},
	})
	if err != nil {
		return err
	}

	endpoint := "https://graph.facebook.com/v19.0/me/messages?access_token=" + url.QueryEscape(a.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return common.NewExternalServiceError("Instagram", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return common.NewExternalServiceError("Instagram",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}
	log.Printf("Instagram-уведомление отправлено получателю %s", recipient)
	return nil
}

// MockAdapter тестовый адаптер, запоминающий отправленные сообщения.
type MockAdapter struct {
	Channel string

	mu        sync.Mutex
	messages  []MockMessage
	available bool
	failNext  bool
}

// MockMessage одно сообщение, отправленное через MockAdapter.
type MockMessage struct {
	Recipient string
	Message   string
	SentAt    time.Time
}

func NewMockAdapter(channel string) *MockAdapter {
	return &MockAdapter{Channel: channel, available: true}
}

func (a *MockAdapter) ChannelName() string { return a.Channel }

func (a *MockAdapter) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.available
}

func (a *MockAdapter) SetAvailable(available bool) {
	a.mu.Lock()
	a.available = available
	a.mu.Unlock()
}

// FailNext следующая отправка завершится ошибкой.
func (a *MockAdapter) FailNext() {
	a.mu.Lock()
	a.failNext = true
	a.mu.Unlock()
}

func (a *MockAdapter) Send(_ context.Context, recipient, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failNext {
		a.failNext = false
		return fmt.Errorf("%s: simulated send failure", a.Channel)
	}
	a.messages = append(a.messages, MockMessage{
		Recipient: recipient,
		Message:   message,
		SentAt:    time.Now(),
	})
	return nil
}

// SentMessages копия списка отправленных сообщений.
func (a *MockAdapter) SentMessages() []MockMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]MockMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

func (a *MockAdapter) Reset() {
	a.mu.Lock()
	a.messages = nil
	a.failNext = false
	a.mu.Unlock()
}
