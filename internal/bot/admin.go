package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/config"
	"github.com/vitaplus/vitabot/helper"
	"github.com/vitaplus/vitabot/internal/conversation"
	"github.com/vitaplus/vitabot/internal/i18n"
)

// ================Admin commands==================

func (h *Handler) handleAdminCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID
	c := h.userContext(ctx, message)

	if !config.IsAdmin(userID) {
		h.sendMessage(chatID, i18n.GetText("errors.access_denied", c.Language))
		return
	}

	if err := h.contexts.Clear(ctx, userID); err != nil {
		log.Printf("Не удалось очистить контекст %d: %v", userID, err)
	}
	adminMode := true
	c, _ = h.contexts.UpdateContext(ctx, userID, conversation.Update{
		Language:  c.Language,
		AdminMode: &adminMode,
	})
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateAdminMenu); err != nil {
		log.Printf("Переход в меню администратора не удался: %v", err)
		return
	}
	h.sendAdminMenu(chatID, c.Language)
}

func (h *Handler) handleStatusCommand(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	c := h.userContext(ctx, message)

	if !config.IsAdmin(message.From.ID) {
		h.sendMessage(chatID, i18n.GetText("errors.access_denied", c.Language))
		return
	}
	if h.monitor == nil {
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", c.Language))
		return
	}

	status := h.monitor.Check(ctx)
	var sb strings.Builder
	if status.Healthy {
		sb.WriteString("✅ OK")
	} else {
		sb.WriteString("❌ Есть сбои")
	}
	for _, component := range status.Components {
		if component.Healthy {
			fmt.Fprintf(&sb, "\n%s: ✅ (%s)", component.Name, component.Latency.Round(time.Millisecond))
		} else {
			fmt.Fprintf(&sb, "\n%s: ❌ %s", component.Name, component.Error)
		}
	}
	fmt.Fprintf(&sb, "\nАктивных диалогов: %d", h.contexts.CacheSize())
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) sendAdminMenu(chatID int64, language string) {
	keyboard := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.add_specialist", language), "admin_add")},
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.edit_specialist", language), "admin_edit")},
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.delete_specialist", language), "admin_delete")},
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.set_day_off", language), "admin_dayoff")},
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.view_bookings", language), "admin_bookings")},
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.view_logs", language), "admin_logs")},
		{tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("admin.sync_data", language), "admin_sync")},
	}
	msg := tgbotapi.NewMessage(chatID, i18n.GetText("admin.menu", language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить меню администратора: %v", err)
	}
}

// ================Admin callbacks==================

func (h *Handler) handleAdminCallback(ctx context.Context, chatID, userID int64, action, payload string) {
	if !config.IsAdmin(userID) {
		h.sendMessage(chatID, i18n.GetText("errors.access_denied", "ru"))
		return
	}
	c, err := h.contexts.Load(ctx, userID)
	if err != nil || c == nil {
		h.sendSessionExpired(chatID)
		return
	}

	switch action {
	case "admin_add":
		h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminAddSpecialistName,
			i18n.GetText("admin.enter_specialist_name", c.Language))
	case "admin_edit":
		h.adminSelectSpecialist(ctx, chatID, userID, c, conversation.StateAdminEditSpecialistSelect,
			"admin.select_specialist_to_edit", "admin_edit_spec")
	case "admin_edit_spec":
		h.handleAdminEditSpecialistChosen(ctx, chatID, userID, c, payload)
	case "admin_edit_field":
		h.handleAdminEditFieldChosen(ctx, chatID, userID, c, payload)
	case "admin_delete":
		h.adminSelectSpecialist(ctx, chatID, userID, c, conversation.StateAdminDeleteSpecialistSelect,
			"admin.select_specialist_to_delete", "admin_delete_spec")
	case "admin_delete_spec":
		h.handleAdminDeleteSpecialistChosen(ctx, chatID, userID, c, payload)
	case "admin_confirm_delete":
		h.handleAdminDeleteConfirmed(ctx, chatID, userID, c)
	case "admin_dayoff":
		h.adminSelectSpecialist(ctx, chatID, userID, c, conversation.StateAdminSetDayOffSpecialist,
			"admin.select_dayoff_specialist", "admin_dayoff_spec")
	case "admin_dayoff_spec":
		h.handleAdminDayOffSpecialistChosen(ctx, chatID, userID, c, payload)
	case "admin_confirm_dayoff":
		h.handleAdminDayOffConfirmed(ctx, chatID, userID, c)
	case "admin_confirm_add":
		h.handleAdminAddConfirmed(ctx, chatID, userID, c)
	case "admin_bookings":
		h.handleAdminBookings(chatID, c)
	case "admin_logs":
		h.handleAdminLogs(chatID, c)
	case "admin_sync":
		h.handleAdminSync(ctx, chatID, c)
	case "admin_cancel":
		h.handleAdminCancel(ctx, chatID, userID, c)
	default:
		log.Printf("Неизвестный административный callback: %s", action)
	}
}

// adminTransition переводит администратора в состояние и шлёт подсказку.
func (h *Handler) adminTransition(ctx context.Context, chatID, userID int64, c *conversation.Context,
	state conversation.State, prompt string) {
	if _, err := h.contexts.Transition(ctx, userID, state); err != nil {
		log.Printf("Административный переход в %s не удался: %v", state, err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}
	h.sendMessage(chatID, prompt)
}

// adminSelectSpecialist показывает клавиатуру выбора специалиста
// для административного сценария.
func (h *Handler) adminSelectSpecialist(ctx context.Context, chatID, userID int64, c *conversation.Context,
	state conversation.State, promptKey, callbackAction string) {
	specialists, err := h.service.ActiveSpecialists()
	if err != nil {
		log.Printf("Не удалось получить список специалистов: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}
	if len(specialists) == 0 {
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", c.Language))
		return
	}

	if _, err := h.contexts.Transition(ctx, userID, state); err != nil {
		log.Printf("Административный переход в %s не удался: %v", state, err)
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, specialist := range specialists {
		button := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s (%s)", specialist.Name, specialist.Specialization),
			fmt.Sprintf("%s:%d", callbackAction, specialist.ID),
		)
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{button})
	}
	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("common.cancel", c.Language), "admin_cancel"),
	})

	msg := tgbotapi.NewMessage(chatID, i18n.GetText(promptKey, c.Language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить выбор специалиста: %v", err)
	}
}

// ================Add specialist==================

func (h *Handler) handleAdminText(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if !config.IsAdmin(userID) {
		h.sendMessage(chatID, i18n.GetText("errors.access_denied", c.Language))
		return
	}
	text = strings.TrimSpace(text)

	switch c.CurrentState {
	case conversation.StateAdminAddSpecialistName:
		h.handleAdminNameInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminAddSpecialistSpecialization:
		h.handleAdminSpecializationInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminAddSpecialistPhone:
		h.handleAdminPhoneInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminAddSpecialistEmail:
		h.handleAdminEmailInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminEditSpecialistValue:
		h.handleAdminEditValueInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminSetDayOffDate:
		h.handleAdminDayOffDateInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminSetDayOffReason:
		h.handleAdminDayOffReasonInput(ctx, chatID, userID, c, text)
	case conversation.StateAdminMenu:
		h.sendAdminMenu(chatID, c.Language)
	default:
		h.sendMessage(chatID, i18n.GetText("errors.invalid_input", c.Language))
	}
}

func (h *Handler) handleAdminNameInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if ok, msg := helper.IsValidName(text); !ok {
		h.sendMessage(chatID, msg)
		return
	}
	collected := c.Collected
	collected.SpecialistName = text
	h.saveCollected(ctx, userID, &collected)
	h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminAddSpecialistSpecialization,
		i18n.GetText("admin.enter_specialization", c.Language))
}

func (h *Handler) handleAdminSpecializationInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if ok, msg := helper.IsValidSpecialization(text); !ok {
		h.sendMessage(chatID, msg)
		return
	}
	collected := c.Collected
	collected.SpecialistSpecialization = text
	h.saveCollected(ctx, userID, &collected)
	h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminAddSpecialistPhone,
		i18n.GetText("admin.enter_specialist_phone", c.Language))
}

func (h *Handler) handleAdminPhoneInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if ok, msg := helper.IsValidPhone(text); !ok {
		h.sendMessage(chatID, msg)
		return
	}
	collected := c.Collected
	collected.SpecialistPhone = helper.NormalizePhoneNumber(text)
	h.saveCollected(ctx, userID, &collected)
	h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminAddSpecialistEmail,
		i18n.GetText("admin.enter_specialist_email", c.Language))
}

func (h *Handler) handleAdminEmailInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	collected := c.Collected
	if !isSkip(text, c.Language) {
		if ok, msg := helper.IsValidEmail(text); !ok {
			h.sendMessage(chatID, msg)
			return
		}
		collected.SpecialistEmail = text
	}
	h.saveCollected(ctx, userID, &collected)

	if _, err := h.contexts.Transition(ctx, userID, conversation.StateAdminAddSpecialistConfirm); err != nil {
		log.Printf("Переход к подтверждению специалиста не удался: %v", err)
		return
	}

	text = i18n.GetText("admin.confirm_specialist", c.Language, i18n.Args{
		"name":           collected.SpecialistName,
		"specialization": collected.SpecialistSpecialization,
		"phone":          collected.SpecialistPhone,
		"email":          collected.SpecialistEmail,
	})
	h.sendAdminConfirmation(chatID, c.Language, text, "admin_confirm_add")
}

func (h *Handler) sendAdminConfirmation(chatID int64, language, text, confirmAction string) {
	keyboard := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("common.yes", language), confirmAction),
			tgbotapi.NewInlineKeyboardButtonData(i18n.GetText("common.no", language), "admin_cancel"),
		},
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить подтверждение: %v", err)
	}
}

func (h *Handler) handleAdminAddConfirmed(ctx context.Context, chatID, userID int64, c *conversation.Context) {
	collected := c.Collected
	specialist, err := h.service.CreateSpecialist(ctx, collected.SpecialistName,
		collected.SpecialistSpecialization, collected.SpecialistPhone, collected.SpecialistEmail,
		strconv.FormatInt(userID, 10))
	if err != nil {
		log.Printf("Не удалось добавить специалиста: %v", err)
		h.sendMessage(chatID, h.describeSlotError(err, c.Language))
		return
	}

	h.backToAdminMenu(ctx, chatID, userID, c,
		i18n.GetText("admin.specialist_added", c.Language, i18n.Args{"name": specialist.Name}))
}

// ================Edit specialist==================

func (h *Handler) handleAdminEditSpecialistChosen(ctx context.Context, chatID, userID int64, c *conversation.Context, payload string) {
	specialistID, err := strconv.ParseUint(payload, 10, 32)
	if err != nil {
		h.sendMessage(chatID, i18n.GetText("errors.specialist_not_found", c.Language))
		return
	}

	collected := c.Collected
	collected.TargetSpecialistID = uint(specialistID)
	h.saveCollected(ctx, userID, &collected)

	if _, err := h.contexts.Transition(ctx, userID, conversation.StateAdminEditSpecialistField); err != nil {
		log.Printf("Переход к выбору поля не удался: %v", err)
		return
	}

	fields := []struct{ label, field string }{
		{"ФИО", "name"},
		{"Специализация", "specialization"},
		{"Телефон", "phone"},
		{"Email", "email"},
	}
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, f := range fields {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(f.label, "admin_edit_field:"+f.field),
		})
	}
	msg := tgbotapi.NewMessage(chatID, i18n.GetText("admin.select_field", c.Language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Не удалось отправить выбор поля: %v", err)
	}
}

func (h *Handler) handleAdminEditFieldChosen(ctx context.Context, chatID, userID int64, c *conversation.Context, field string) {
	collected := c.Collected
	collected.EditField = field
	h.saveCollected(ctx, userID, &collected)
	h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminEditSpecialistValue,
		i18n.GetText("admin.enter_new_value", c.Language))
}

func (h *Handler) handleAdminEditValueInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	collected := c.Collected
	specialist, err := h.service.UpdateSpecialistField(ctx, collected.TargetSpecialistID,
		collected.EditField, text, strconv.FormatInt(userID, 10))
	if err != nil {
		var validationErr *common.ValidationError
		if errors.As(err, &validationErr) {
			h.sendMessage(chatID, validationErr.Message)
			return
		}
		log.Printf("Не удалось обновить специалиста %d: %v", collected.TargetSpecialistID, err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}

	h.backToAdminMenu(ctx, chatID, userID, c,
		i18n.GetText("admin.specialist_updated", c.Language, i18n.Args{"name": specialist.Name}))
}

// ================Delete specialist==================

func (h *Handler) handleAdminDeleteSpecialistChosen(ctx context.Context, chatID, userID int64, c *conversation.Context, payload string) {
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
	collected.TargetSpecialistID = specialist.ID
	h.saveCollected(ctx, userID, &collected)

	if _, err := h.contexts.Transition(ctx, userID, conversation.StateAdminDeleteSpecialistConfirm); err != nil {
		log.Printf("Переход к подтверждению удаления не удался: %v", err)
		return
	}
	h.sendAdminConfirmation(chatID, c.Language,
		i18n.GetText("admin.confirm_delete", c.Language, i18n.Args{"name": specialist.Name}),
		"admin_confirm_delete")
}

func (h *Handler) handleAdminDeleteConfirmed(ctx context.Context, chatID, userID int64, c *conversation.Context) {
	specialist, err := h.service.SpecialistByID(c.Collected.TargetSpecialistID)
	if err != nil {
		h.sendMessage(chatID, i18n.GetText("errors.specialist_not_found", c.Language))
		return
	}
	if err := h.service.DeleteSpecialist(ctx, specialist.ID, strconv.FormatInt(userID, 10)); err != nil {
		log.Printf("Не удалось удалить специалиста %d: %v", specialist.ID, err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}

	h.backToAdminMenu(ctx, chatID, userID, c,
		i18n.GetText("admin.specialist_deleted", c.Language, i18n.Args{"name": specialist.Name}))
}

// ================Day off==================

func (h *Handler) handleAdminDayOffSpecialistChosen(ctx context.Context, chatID, userID int64, c *conversation.Context, payload string) {
	specialistID, err := strconv.ParseUint(payload, 10, 32)
	if err != nil {
		h.sendMessage(chatID, i18n.GetText("errors.specialist_not_found", c.Language))
		return
	}

	collected := c.Collected
	collected.DayOffSpecialistID = uint(specialistID)
	h.saveCollected(ctx, userID, &collected)
	h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminSetDayOffDate,
		i18n.GetText("admin.enter_dayoff_date", c.Language))
}

func (h *Handler) handleAdminDayOffDateInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	if ok, msg := helper.IsValidDate(text); !ok {
		h.sendMessage(chatID, msg)
		return
	}
	collected := c.Collected
	collected.DayOffDate = text
	h.saveCollected(ctx, userID, &collected)
	h.adminTransition(ctx, chatID, userID, c, conversation.StateAdminSetDayOffReason,
		i18n.GetText("admin.enter_dayoff_reason", c.Language))
}

func (h *Handler) handleAdminDayOffReasonInput(ctx context.Context, chatID, userID int64, c *conversation.Context, text string) {
	collected := c.Collected
	if !isSkip(text, c.Language) {
		collected.DayOffReason = text
	}
	h.saveCollected(ctx, userID, &collected)

	if _, err := h.contexts.Transition(ctx, userID, conversation.StateAdminSetDayOffConfirm); err != nil {
		log.Printf("Переход к подтверждению выходного не удался: %v", err)
		return
	}

	specialistName := fmt.Sprintf("#%d", collected.DayOffSpecialistID)
	if specialist, err := h.service.SpecialistByID(collected.DayOffSpecialistID); err == nil {
		specialistName = specialist.Name
	}
	h.sendAdminConfirmation(chatID, c.Language,
		i18n.GetText("admin.confirm_dayoff", c.Language, i18n.Args{
			"name":   specialistName,
			"date":   collected.DayOffDate,
			"reason": collected.DayOffReason,
		}),
		"admin_confirm_dayoff")
}

func (h *Handler) handleAdminDayOffConfirmed(ctx context.Context, chatID, userID int64, c *conversation.Context) {
	collected := c.Collected
	dayOff, err := h.service.SetDayOff(ctx, collected.DayOffSpecialistID,
		collected.DayOffDate, collected.DayOffReason, strconv.FormatInt(userID, 10))
	if err != nil {
		log.Printf("Не удалось назначить выходной: %v", err)
		h.sendMessage(chatID, h.describeSlotError(err, c.Language))
		return
	}

	h.backToAdminMenu(ctx, chatID, userID, c,
		i18n.GetText("admin.dayoff_added", c.Language, i18n.Args{"date": dayOff.Date}))
}

// ================Bookings, sync==================

func (h *Handler) handleAdminBookings(chatID int64, c *conversation.Context) {
	bookings, err := h.service.repo.GetAllBookings()
	if err != nil {
		log.Printf("Не удалось получить записи: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}

	var active []common.Booking
	for _, b := range bookings {
		if b.Status != common.BookingStatusCancelled {
			active = append(active, b)
		}
	}
	if len(active) == 0 {
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", c.Language))
		return
	}

	var sb strings.Builder
	for i, b := range active {
		if i >= 15 {
			fmt.Fprintf(&sb, "\n… и ещё %d", len(active)-i)
			break
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s — %s (специалист %d)", b.BookingDate, b.BookingTime, b.ClientName, b.SpecialistID)
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) handleAdminLogs(chatID int64, c *conversation.Context) {
	logs, err := h.service.repo.GetRecentAdminLogs(adminLogsLimit)
	if err != nil {
		log.Printf("Не удалось получить журнал действий: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.general", c.Language))
		return
	}
	if len(logs) == 0 {
		h.sendMessage(chatID, i18n.GetText("fallback.no_data", c.Language))
		return
	}
	h.sendMessage(chatID, formatAdminLogs(logs))
}

// adminLogsLimit сколько последних действий показывает журнал.
const adminLogsLimit = 15

func formatAdminLogs(logs []common.AdminLog) string {
	var sb strings.Builder
	for i, entry := range logs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s — %s (%s)", entry.CreatedAt.Format("2006-01-02 15:04"), entry.Action, entry.AdminID)
		if entry.Details != "" {
			fmt.Fprintf(&sb, ": %s", entry.Details)
		}
	}
	return sb.String()
}

func (h *Handler) handleAdminSync(ctx context.Context, chatID int64, c *conversation.Context) {
	h.sendMessage(chatID, i18n.GetText("admin.sync_started", c.Language))

	result, err := h.service.SyncWithSheets(ctx)
	if err != nil {
		log.Printf("Синхронизация не удалась: %v", err)
		h.sendMessage(chatID, i18n.GetText("errors.sheets_error", c.Language))
		return
	}
	h.sendMessage(chatID, i18n.GetText("admin.sync_done", c.Language, i18n.Args{
		"pushed": result.Pushed,
		"pulled": result.Pulled,
		"errors": len(result.Errors),
	}))
}

func (h *Handler) handleAdminCancel(ctx context.Context, chatID, userID int64, c *conversation.Context) {
	h.backToAdminMenu(ctx, chatID, userID, c, i18n.GetText("admin.action_cancelled", c.Language))
}

// backToAdminMenu возвращает администратора в меню со сбросом собранных данных.
func (h *Handler) backToAdminMenu(ctx context.Context, chatID, userID int64, c *conversation.Context, message string) {
	collected := conversation.CollectedInfo{BookingDuration: conversation.DefaultBookingDuration}
	h.saveCollected(ctx, userID, &collected)
	if _, err := h.contexts.Transition(ctx, userID, conversation.StateAdminMenu); err != nil {
		log.Printf("Возврат в меню администратора не удался: %v", err)
	}
	h.sendMessage(chatID, message)
	h.sendAdminMenu(chatID, c.Language)
}

func (h *Handler) saveCollected(ctx context.Context, userID int64, collected *conversation.CollectedInfo) {
	if _, err := h.contexts.UpdateContext(ctx, userID, conversation.Update{Collected: collected}); err != nil {
		log.Printf("Не удалось сохранить данные диалога %d: %v", userID, err)
	}
}

// isSkip распознаёт команду пропуска шага.
func isSkip(text, language string) bool {
	skip := strings.ToLower(strings.TrimSpace(text))
	return skip == strings.ToLower(i18n.GetText("common.skip", language)) ||
		skip == "пропустить" || skip == "skip" || skip == "-"
}
