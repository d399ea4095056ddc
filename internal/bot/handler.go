package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/config"
	"github.com/vitaplus/vitabot/helper"
	"github.com/vitaplus/vitabot/internal/audio"
	"github.com/vitaplus/vitabot/internal/conversation"
	"github.com/vitaplus/vitabot/internal/gemini"
	"github.com/vitaplus/vitabot/internal/health"
	"github.com/vitaplus/vitabot/internal/i18n"
)

// Handler маршрутизирует обновления Telegram: команды, шаги диалога
// записи, callback-кнопки, контакты и голосовые сообщения.
type Handler struct {
	service  *Service
	bot      *tgbotapi.BotAPI
	contexts *conversation.Storage
	analyzer *gemini.Analyzer
	audio    *audio.Pipeline
	monitor  *health.Monitor
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, contexts *conversation.Storage,
	analyzer *gemini.Analyzer, audioPipeline *audio.Pipeline, monitor *health.Monitor) *Handler {
	return &Handler{
		service:  service,
		bot:      bot,
		contexts: contexts,
		analyzer: analyzer,
		audio:    audioPipeline,
		monitor:  monitor,
	}
}

// ================Common==================

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil && update.CallbackQuery == nil {
		return
	}

	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	message := update.Message
	if message.Contact != nil {
		h.handleContact(ctx, message)
		return
	}
	if message.Voice != nil || message.Audio != nil {
		h.handleVoice(ctx, message)
		return
	}
	if message.IsCommand() {
		h.handleCommand(ctx, update)
		return
	}
	if message.Text != "" {
		h.handleText(ctx, message, message.Text)
	}
}

func (h *Handler) handleCommand(ctx context.Context, update tgbotapi.Update) {
	switch update.Message.Command() {
	case "start":
		h.handleStart(ctx, update)
	case "help":
		h.handleHelp(ctx, update)
	case "book":
		h.handleBook(ctx, update)
	case "my_bookings":
		h.handleMyBookings(ctx, update)
	case "cancel":
		h.handleCancelCommand(ctx, update)
	case "language":
		h.handleLanguage(ctx, update)
	case "admin":
		h.handleAdminCommand(ctx, update)
	case "status":
		h.handleStatusCommand(ctx, update)
	default:
		h.handleUnknownCommand(ctx, update)
	}
}

func (h *Handler) handleCallbackQuery(ctx context.Context, callbackQuery *tgbotapi.CallbackQuery) {
	data := callbackQuery.Data
	chatID := callbackQuery.Message.Chat.ID
	userID := callbackQuery.From.ID

	parts := strings.SplitN(data, ":", 2)
	action := parts[0]
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}

	callback := tgbotapi.NewCallback(callbackQuery.ID, "")
	if _, err := h.bot.Request(callback); err != nil {
		log.Printf("Не удалось подтвердить callback: %v", err)
	}

	if strings.HasPrefix(action, "admin_") {
		h.handleAdminCallback(ctx, chatID, userID, action, payload)
		return
	}

	switch action {
	case "doctor":
		h.handleDoctorSelection(ctx, chatID, userID, payload)
	case "date":
		h.handleDateInput(ctx, chatID, userID, payload)
	case "time":
		h.handleTimeInput(ctx, chatID, userID, payload)
	case "confirm_booking":
		h.handleBookingConfirmation(ctx, chatID, userID)
	case "cancel_booking":
		h.handleBookingCancellation(ctx, chatID, userID)
	case "cancel_my":
		h.handleMyBookingCancellation(ctx, chatID, userID, payload)
	case "lang":
		h.handleLanguageSelection(ctx, chatID, userID, payload)
	default:
		log.Printf("Неизвестный callback: %s", data)
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := h.bot.Send(msg)
	if err != nil {
		log.Printf("Не удалось отправить сообщение: %v", err)
	}
}

// userContext контекст диалога пользователя, создаётся при отсутствии.
func (h *Handler) userContext(ctx context.Context, message *tgbotapi.Message) *conversation.Context {
	userID := message.From.ID
	c, err := h.contexts.Load(ctx, userID)
	if err != nil {
		log.Printf("Не удалось загрузить контекст %d: %v", userID, err)
	}
	if c == nil {
		language := i18n.DetectLanguage(message.From.LanguageCode, h.service.SavedLanguage(userID))
		c, _ = h.contexts.UpdateContext(ctx, userID, conversation.Update{Language: language})
	}
	return c
}

// ================Commands==================

func (h *Handler) handleStart(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID

	if err := h.contexts.Clear(ctx, userID); err != nil {
		log.Printf("Не удалось очистить контекст %d: %v", userID, err)
	}
	c := h.userContext(ctx, message)

	h.sendMessage(chatID, i18n.GetText("greetings.welcome", c.Language))
	if message.From.FirstName != "" {
		h.sendMessage(chatID, i18n.GetText("greetings.hello", c.Language,
			i18n.Args{"name": message.From.FirstName}))
	}
}

func (h *Handler) handleHelp(ctx context.Context, update tgbotapi.Update) {
	c := h.userContext(ctx, update.Message)
	key := "help.client"
	if config.IsAdmin(update.Message.From.ID) {
		key = "help.admin"
	}
	h.sendMessage(update.Message.Chat.ID, i18n.GetText(key, c.Language))
}

func (h *Handler) handleUnknownCommand(ctx context.Context, update tgbotapi.Update) {
	c := h.userContext(ctx, update.Message)
	h.sendMessage(update.Message.Chat.ID, i18n.GetText("errors.invalid_input", c.Language))
}

func (h *Handler) handleBook(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	c := h.userContext(ctx, message)
	h.startBookingDialog(ctx, message.Chat.ID, message.From.ID, c)
}

func (h *Handler) handleMyBookings(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	c := h.userContext(ctx, message)

	if c.Collected.Phone == "" {
		h.requestContact(chatID, c.Language)
		return
	}

	bookings, err := h.service.BookingsByPhone(c.Collected.Phone)
	if err != nil {
		log.Printf("Не удалось получить записи пользователя %d: %v", message.From.ID, err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}
	if len(bookings) == 0 {
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", c.Language))
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, b := range bookings {
		specialistName := fmt.Sprintf("#%d", b.SpecialistID)
		if specialist, err := h.service.SpecialistByID(b.SpecialistID); err == nil {
			specialistName = specialist.Name
		}
		button := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s — %s", b.BookingDate, b.BookingTime, specialistName),
			fmt.Sprintf("cancel_my:%d", b.ID),
		)
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{button})
	}

	msg := tgbotapi.NewMessage(chatID, i18n.GetText("prompts.select_booking_to_cancel", c.Language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить список записей: %v", err)
	}
}

func (h *Handler) handleCancelCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	userID := message.From.ID
	c := h.userContext(ctx, message)

	if err := h.contexts.Clear(ctx, userID); err != nil {
		log.Printf("Не удалось очистить контекст %d: %v", userID, err)
	}
	h.sendMessage(message.Chat.ID, i18n.GetText("confirmations.booking_cancelled", c.Language))
}

func (h *Handler) handleLanguage(ctx context.Context, update tgbotapi.Update) {
	c := h.userContext(ctx, update.Message)
	keyboard := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("Русский", "lang:ru"),
			tgbotapi.NewInlineKeyboardButtonData("Қазақша", "lang:kz"),
		},
	}
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, i18n.GetText("prompts.select_language", c.Language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить выбор языка: %v", err)
	}
}

func (h *Handler) handleLanguageSelection(ctx context.Context, chatID, userID int64, language string) {
	c, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Language: language})
	if err != nil {
		log.Printf("Не удалось обновить язык пользователя %d: %v", userID, err)
		return
	}
	h.service.SaveSession(c) // выбранный язык переживает истечение контекста
	h.sendMessage(chatID, i18n.GetText("greetings.welcome", c.Language))
}

// ================Dialog==================

// startBookingDialog переводит пользователя к сбору данных записи.
func (h *Handler) startBookingDialog(ctx context.Context, chatID, userID int64, c *conversation.Context) {
	if c.CurrentState != conversation.StateStart {
		if err := h.contexts.Clear(ctx, userID); err != nil {
			log.Printf("Не удалось очистить контекст %d: %v", userID, err)
		}
		c, _ = h.contexts.UpdateContext(ctx, userID, conversation.Update{Language: c.Language})
	}

	if _, err := h.contexts.Transition(ctx, userID, conversation.StateWaitingName); err != nil {
		log.Printf("Не удалось начать диалог записи для %d: %v", userID, err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}
	h.sendMessage(chatID, i18n.GetText("prompts.enter_name", c.Language))
}

func (h *Handler) handleText(ctx context.Context, message *tgbotapi.Message, text string) {
	chatID := message.Chat.ID
	userID := message.From.ID
	c := h.userContext(ctx, message)

	switch c.CurrentState {
	case conversation.StateStart:
		h.handleFreeText(ctx, chatID, userID, c, text)
	case conversation.StateWaitingName:
		h.handleNameInput(ctx, chatID, userID, c, text)
	case conversation.StateWaitingPhone:
		h.handlePhoneInput(ctx, chatID, userID, c, text)
	case conversation.StateWaitingDoctorChoice:
		h.sendDoctorSelection(chatID, c.Language)
	case conversation.StateWaitingDate:
		h.handleDateInput(ctx, chatID, userID, text)
	case conversation.StateWaitingTime:
		h.handleTimeInput(ctx, chatID, userID, text)
	case conversation.StateConfirmBooking:
		h.sendBookingConfirmation(chatID, c)
	case conversation.StateDone, conversation.StateErrorFallback:
		if err := h.contexts.Clear(ctx, userID); err != nil {
			log.Printf("Не удалось очистить контекст %d: %v", userID, err)
		}
		h.handleFreeText(ctx, chatID, userID, h.userContextByID(ctx, userID, c.Language), text)
	default:
		if strings.HasPrefix(string(c.CurrentState), "ADMIN_") {
			h.handleAdminText(ctx, chatID, userID, c, text)
			return
		}
		h.sendMessage(chatID, i18n.GetText("errors.invalid_input", c.Language))
	}
}

func (h *Handler) userContextByID(ctx context.Context, userID int64, language string) *conversation.Context {
	c, _ := h.contexts.UpdateContext(ctx, userID, conversation.Update{Language: language})
	return c
}

// handleFreeText классифицирует свободный текст через Gemini и выбирает
// сценарий: запись, отмена, жалоба или общий ответ.
func (h *Handler) handleFreeText(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if h.analyzer == nil {
		h.startBookingDialog(ctx, chatID, userID, c)
		return
	}

	classification := h.analyzer.ClassifyRequest(ctx, text, c.Language)
	log.Printf("Классификация запроса %d: %s (срочность %s, уверенность %.2f)",
		userID, classification.RequestType, classification.Urgency, classification.Confidence)

	switch classification.RequestType {
	case gemini.RequestAppointmentBooking, gemini.RequestAppointmentRescheduling:
		h.startBookingDialog(ctx, chatID, userID, c)
	case gemini.RequestAppointmentCancellation:
		h.handleMyBookingsForUser(ctx, chatID, userID, c)
	case gemini.RequestComplaint:
		h.handleComplaint(ctx, chatID, userID, c, text, string(classification.Urgency))
	case gemini.RequestSpecialistInquiry, gemini.RequestScheduleInquiry:
		h.sendDoctorSelection(chatID, c.Language)
	default:
		response := h.analyzer.GenerateResponse(ctx, text, nil, c.Language)
		h.sendMessage(chatID, response.Text)
	}
}

func (h *Handler) handleMyBookingsForUser(ctx context.Context, chatID, userID int64, c *conversation.Context) {
	if c.Collected.Phone == "" {
		h.requestContact(chatID, c.Language)
		return
	}
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
	}}
	h.handleMyBookings(ctx, update)
}

// handleComplaint резюмирует жалобу и уведомляет администраторов.
func (h *Handler) handleComplaint(ctx context.Context, chatID, userID int64, c *conversation.Context, text, severity string) {
	summary := h.analyzer.SummarizeComplaint(ctx, text, c.Language)

	clientName := c.Collected.Name
	if clientName == "" {
		clientName = strconv.FormatInt(userID, 10)
	}
	h.service.NotifyComplaint(ctx, clientName, summary.Text, severity, c.Language)

	response := h.analyzer.GenerateResponse(ctx, text,
		map[string]interface{}{"request_type": "complaint"}, c.Language)
	h.sendMessage(chatID, response.Text)
}

func (h *Handler) handleNameInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if ok, msg := helper.IsValidName(strings.TrimSpace(text)); !ok {
		h.sendMessage(chatID, msg)
		return
	}

	collected := c.Collected
	collected.Name = strings.TrimSpace(text)
	if _, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: &collected}); err != nil {
		log.Printf("Не удалось сохранить имя пользователя %d: %v", userID, err)
	}
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateWaitingPhone); err != nil {
		log.Printf("Переход после ввода имени не удался: %v", err)
		return
	}
	h.requestContact(chatID, c.Language)
}

func (h *Handler) handlePhoneInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if ok, msg := helper.IsValidPhone(text); !ok {
		h.sendMessage(chatID, msg)
		return
	}
	h.savePhoneAndAskDoctor(ctx, chatID, userID, c, text)
}

func (h *Handler) savePhoneAndAskDoctor(ctx context.Context, chatID, userID int64, c *conversation.Context, phone string) {
	collected := c.Collected
	collected.Phone = helper.NormalizePhoneNumber(phone)
	if _, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: &collected}); err != nil {
		log.Printf("Не удалось сохранить телефон пользователя %d: %v", userID, err)
	}
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateWaitingDoctorChoice); err != nil {
		log.Printf("Переход после ввода телефона не удался: %v", err)
		return
	}

	// Убираем клавиатуру запроса контакта
	msg := tgbotapi.NewMessage(chatID, i18n.GetText("prompts.select_specialist", c.Language))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить сообщение: %v", err)
	}
	h.sendDoctorSelection(chatID, c.Language)
}

func (h *Handler) handleContact(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID
	c := h.userContext(ctx, message)

	phone := message.Contact.PhoneNumber
	if ok, msg := helper.IsValidPhone(phone); !ok {
		h.sendMessage(chatID, msg)
		return
	}

	if c.CurrentState == conversation.StateWaitingPhone {
		h.savePhoneAndAskDoctor(ctx, chatID, userID, c, phone)
		return
	}

	collected := c.Collected
	collected.Phone = helper.NormalizePhoneNumber(phone)
	if _, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: &collected}); err != nil {
		log.Printf("Не удалось сохранить контакт пользователя %d: %v", userID, err)
	}
}

func (h *Handler) requestContact(chatID int64, language string) {
	msg := tgbotapi.NewMessage(chatID, i18n.GetText("prompts.enter_phone", language))
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(i18n.GetText("prompts.share_contact", language)),
		),
	)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось запросить контакт: %v", err)
	}
}

func (h *Handler) sendDoctorSelection(chatID int64, language string) {
	specialists, err := h.service.ActiveSpecialists()
	if err != nil {
		log.Printf("Не удалось получить список специалистов: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.general", language))
		return
	}
	if len(specialists) == 0 {
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", language))
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, specialist := range specialists {
		button := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s (%s)", specialist.Name, specialist.Specialization),
			fmt.Sprintf("doctor:%d", specialist.ID),
		)
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{button})
	}
	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("common.cancel", language), "cancel_booking"),
	})

	msg := tgbotapi.NewMessage(chatID, i18n.GetText("prompts.select_specialist", language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить список специалистов: %v", err)
	}
}

func (h *Handler) handleDoctorSelection(ctx context.Context, chatID, userID int64, payload string) {
	c, err := h.contexts.Load(ctx, userID)
	if err != nil || c == nil {
		h.sendSessionExpired(chatID)
		return
	}

	specialistID, err := strconv.ParseUint(payload, 10, 32)
	if err != nil {
		h.sendMessage(chatID, i18n.GetText("errors.specialist_not_found", c.Language))
		return
	}
	specialist, err := h.service.SpecialistByID(uint(specialistID))
	if err != nil {
		h.sendMessage(chatID, i18n.GetText("errors.specialist_not_found", c.Language))
		return
	}

	collected := c.Collected
	collected.DoctorID = specialist.ID
	collected.DoctorName = specialist.Name
	if _, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: &collected}); err != nil {
		log.Printf("Не удалось сохранить выбор специалиста %d: %v", userID, err)
	}
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateWaitingDate); err != nil {
		log.Printf("Переход после выбора специалиста не удался: %v", err)
		return
	}
	h.sendMessage(chatID, i18n.GetText("prompts.select_date", c.Language))
}

func (h *Handler) handleDateInput(ctx context.Context, chatID, userID int64, text string) {
	c, err := h.contexts.Load(ctx, userID)
	if err != nil || c == nil {
		h.sendSessionExpired(chatID)
		return
	}

	date := strings.TrimSpace(text)
	if err := h.service.ValidateBookingDate(date); err != nil {
		h.sendMessage(chatID, h.describeSlotError(err, c.Language))
		return
	}

	collected := c.Collected
	collected.BookingDate = date
	if _, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: &collected}); err != nil {
		log.Printf("Не удалось сохранить дату записи %d: %v", userID, err)
	}
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateWaitingTime); err != nil {
		log.Printf("Переход после выбора даты не удался: %v", err)
		return
	}
	h.sendMessage(chatID, i18n.GetText("prompts.select_time", c.Language))
}

func (h *Handler) handleTimeInput(ctx context.Context, chatID, userID int64, text string) {
	c, err := h.contexts.Load(ctx, userID)
	if err != nil || c == nil {
		h.sendSessionExpired(chatID)
		return
	}

	timeStr := strings.TrimSpace(text)
	collected := c.Collected
	err = h.service.ValidateBookingSlot(collected.DoctorID, collected.BookingDate, timeStr, collected.BookingDuration)
	if errors.Is(err, ErrSlotTaken) {
		h.sendAlternativeSlots(chatID, c, collected.BookingDate)
		return
	}
	if err != nil {
		h.sendMessage(chatID, h.describeSlotError(err, c.Language))
		return
	}

	collected.BookingTime = timeStr
	c, updErr := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: &collected})
	if updErr != nil {
		log.Printf("Не удалось сохранить время записи %d: %v", userID, updErr)
		return
	}
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateConfirmBooking); err != nil {
		log.Printf("Переход к подтверждению не удался: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}
	h.sendBookingConfirmation(chatID, c)
}

// sendAlternativeSlots предлагает свободные слоты на выбранную дату.
func (h *Handler) sendAlternativeSlots(chatID int64, c *conversation.Context, date string) {
	alternatives, err := h.service.AlternativeSlots(c.Collected.DoctorID, date, c.Collected.BookingDuration)
	if err != nil {
		log.Printf("Не удалось подобрать альтернативные слоты: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.time_slot_unavailable", c.Language))
		return
	}
	if len(alternatives) == 0 {
		h.sendMessage(chatID, i18n.GetText("errors.time_slot_unavailable", c.Language))
		return
	}

	var row []tgbotapi.InlineKeyboardButton
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, slot := range alternatives {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(slot, "time:"+slot))
		if len(row) == 3 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	text := i18n.GetText("errors.time_slot_unavailable", c.Language) + "\n" +
		i18n.GetText("fallback.alternatives", c.Language)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить альтернативные слоты: %v", err)
	}
}

func (h *Handler) sendBookingConfirmation(chatID int64, c *conversation.Context) {
	collected := c.Collected
	text := i18n.GetText("prompts.confirm_booking", c.Language) + "\n" +
		i18n.GetText("booking.client_name", c.Language, i18n.Args{"name": collected.Name}) + "\n" +
		i18n.GetText("booking.specialist", c.Language, i18n.Args{"name": collected.DoctorName}) + "\n" +
		i18n.GetText("booking.date", c.Language, i18n.Args{"date": collected.BookingDate}) + "\n" +
		i18n.GetText("booking.time", c.Language, i18n.Args{"time": collected.BookingTime}) + "\n" +
		i18n.GetText("booking.duration", c.Language, i18n.Args{"duration": collected.BookingDuration})

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("common.yes", c.Language), "confirm_booking"),
			tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("common.no", c.Language), "cancel_booking"),
		},
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить подтверждение записи: %v", err)
	}
}

func (h *Handler) handleBookingConfirmation(ctx context.Context, chatID, userID int64) {
	c, err := h.contexts.Load(ctx, userID)
	if err != nil || c == nil {
		h.sendSessionExpired(chatID)
		return
	}
	if c.CurrentState != conversation.StateConfirmBooking {
		h.sendMessage(chatID, i18n.GetText("errors.invalid_input", c.Language))
		return
	}

	booking, err := h.service.CreateBooking(ctx, c.Collected, c.Language)
	if err != nil {
		log.Printf("Не удалось создать запись для %d: %v", userID, err)
		h.sendMessage(chatID, h.describeSlotError(err, c.Language))
		return
	}

	if done, err := h.contexts.Transition(ctx, userID, conversation.StateDone); err != nil {
		log.Printf("Переход в DONE не удался: %v", err)
	} else {
		c = done
	}
	h.service.SaveSession(c)

	h.sendMessage(chatID, i18n.GetText("confirmations.booking_created", c.Language, i18n.Args{
		"specialist": c.Collected.DoctorName,
		"date":       booking.BookingDate,
		"time":       booking.BookingTime,
		"duration":   booking.DurationMin,
	}))
}

func (h *Handler) handleBookingCancellation(ctx context.Context, chatID, userID int64) {
	c, err := h.contexts.Load(ctx, userID)
	language := "ru"
	if err == nil && c != nil {
		language = c.Language
	}
	if err := h.contexts.Clear(ctx, userID); err != nil {
		log.Printf("Не удалось очистить контекст %d: %v", userID, err)
	}
	h.sendMessage(chatID, i18n.GetText("confirmations.booking_cancelled", language))
}

func (h *Handler) handleMyBookingCancellation(ctx context.Context, chatID, userID int64, payload string) {
	c, err := h.contexts.Load(ctx, userID)
	if err != nil || c == nil {
		h.sendSessionExpired(chatID)
		return
	}

	bookingID, err := strconv.ParseUint(payload, 10, 32)
	if err != nil {
		h.sendMessage(chatID, i18n.GetText("errors.invalid_input", c.Language))
		return
	}

	_, err = h.service.CancelBooking(ctx, uint(bookingID), c.Collected.Phone, c.Language)
	switch {
	case errors.Is(err, common.ErrNotFound):
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", c.Language))
	case errors.Is(err, ErrAlreadyCancelled):
		h.sendMessage(chatID, i18n.GetText("confirmations.booking_cancelled", c.Language))
	case err != nil:
		log.Printf("Не удалось отменить запись %d: %v", bookingID, err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
	default:
		h.sendMessage(chatID, i18n.GetText("confirmations.booking_cancelled", c.Language))
	}
}

func (h *Handler) sendSessionExpired(chatID int64) {
	h.sendMessage(chatID, i18n.GetText("fallback.session_expired", "ru"))
}

// describeSlotError переводит ошибку проверки слота в текст для пользователя.
func (h *Handler) describeSlotError(err error, language string) string {
	var validationErr *common.ValidationError
	switch {
	case errors.Is(err, ErrPastDate):
		return i18n.GetText("errors.past_date", language)
	case errors.Is(err, ErrTooFarAhead):
		return i18n.GetText("errors.booking_too_far", language, i18n.Args{"days": MaxBookingDaysAhead})
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrSpecialistDayOff):
		return i18n.GetText("errors.time_slot_unavailable", language)
	case errors.Is(err, common.ErrNotFound):
		return i18n.GetText("errors.specialist_not_found", language)
	case errors.As(err, &validationErr):
		return validationErr.Message
	default:
		return i18n.GetText("errors.general", language)
	}
}

// ================Voice==================

// handleVoice скачивает голосовое сообщение, распознаёт его и передаёт
// текст в обычный обработчик.
func (h *Handler) handleVoice(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	c := h.userContext(ctx, message)

	if h.audio == nil || !h.audio.Available() {
		h.sendMessage(chatID, i18n.GetText("audio.transcription_error", c.Language))
		return
	}

	var fileID string
	if message.Voice != nil {
		fileID = message.Voice.FileID
	} else {
		fileID = message.Audio.FileID
	}

	h.sendMessage(chatID, i18n.GetText("audio.processing", c.Language))

	localPath, err := h.downloadFile(ctx, fileID)
	if err != nil {
		log.Printf("Не удалось скачать голосовое сообщение: %v", err)
		h.sendMessage(chatID, i18n.GetText("audio.transcription_error", c.Language))
		return
	}
	defer os.Remove(localPath)

	transcript, err := h.audio.ProcessVoiceMessage(ctx, localPath, c.Language)
	if err != nil {
		log.Printf("Не удалось распознать голосовое сообщение: %v", err)
		h.sendMessage(chatID, i18n.GetText("audio.transcription_error", c.Language))
		return
	}

	h.sendMessage(chatID, i18n.GetText("audio.transcribed", c.Language, i18n.Args{"text": transcript}))
	h.handleText(ctx, message, transcript)
}

// downloadFile скачивает файл Telegram во временный каталог.
func (h *Handler) downloadFile(ctx context.Context, fileID string) (string, error) {
	fileURL, err := h.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d while downloading file", resp.StatusCode)
	}

	ext := filepath.Ext(fileURL)
	if ext == "" {
		ext = ".oga"
	}
	tmpFile, err := os.CreateTemp("", "voice_*"+ext)
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return tmpFile.Name(), nil
}
