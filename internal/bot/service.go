package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/config"
	"github.com/vitaplus/vitabot/helper"
	"github.com/vitaplus/vitabot/internal/conversation"
	"github.com/vitaplus/vitabot/internal/i18n"
	"github.com/vitaplus/vitabot/internal/notify"
	"github.com/vitaplus/vitabot/internal/sheets"
)

// Пределы записи на приём
const (
	MaxBookingDaysAhead = 90
	workDayStartHour    = 9
	workDayEndHour      = 17
	maxAlternatives     = 5
)

// Ошибки проверки слота записи
var (
	ErrPastDate         = errors.New("дата уже прошла")
	ErrTooFarAhead      = errors.New("дата слишком далеко в будущем")
	ErrSlotTaken        = errors.New("время занято")
	ErrSpecialistDayOff = errors.New("у специалиста выходной")
	ErrAlreadyCancelled = errors.New("запись уже отменена")
)

// Service бизнес-логика записи на приём: проверка слотов, конфликты,
// альтернативы, синхронизация с Google Sheets и уведомления.
type Service struct {
	repo     *Repository
	sheets   *sheets.Manager
	notifier *notify.Notifier
}

func NewService(repo *Repository, sheetsMgr *sheets.Manager, notifier *notify.Notifier) *Service {
	return &Service{repo: repo, sheets: sheetsMgr, notifier: notifier}
}

// ================Specialists==================

func (s *Service) ActiveSpecialists() ([]common.Specialist, error) {
	return s.repo.GetActiveSpecialists()
}

func (s *Service) SpecialistByID(id uint) (*common.Specialist, error) {
	return s.repo.GetSpecialistByID(id)
}

// CreateSpecialist добавляет специалиста, отражает его в Google Sheets
// и пишет административный лог.
func (s *Service) CreateSpecialist(ctx context.Context, name, specialization, phone, email, adminID string) (*common.Specialist, error) {
	if ok, msg := helper.IsValidName(name); !ok {
		return nil, &common.ValidationError{Field: "name", Message: msg}
	}
	if ok, msg := helper.IsValidSpecialization(specialization); !ok {
		return nil, &common.ValidationError{Field: "specialization", Message: msg}
	}
	if phone != "" {
		if ok, msg := helper.IsValidPhone(phone); !ok {
			return nil, &common.ValidationError{Field: "phone", Message: msg}
		}
		phone = helper.NormalizePhoneNumber(phone)
	}
	if email != "" {
		if ok, msg := helper.IsValidEmail(email); !ok {
			return nil, &common.ValidationError{Field: "email", Message: msg}
		}
	}

	specialist := &common.Specialist{
		Name:           name,
		Specialization: specialization,
		Phone:          phone,
		Email:          email,
		IsActive:       true,
	}
	created, err := s.repo.CreateSpecialist(specialist)
	if err != nil {
		return nil, err
	}

	s.logAdmin(ctx, adminID, "add_specialist",
		fmt.Sprintf("специалист %q (%s), id=%d", name, specialization, created.ID))
	if s.sheets != nil {
		if err := s.sheets.AddSpecialist(ctx, created); err != nil {
			log.Printf("Не удалось отразить специалиста %d в Sheets: %v", created.ID, err)
		}
	}
	return created, nil
}

// UpdateSpecialistField изменяет одно поле специалиста с валидацией ввода.
func (s *Service) UpdateSpecialistField(ctx context.Context, id uint, field, value, adminID string) (*common.Specialist, error) {
	specialist, err := s.repo.GetSpecialistByID(id)
	if err != nil {
		return nil, err
	}

	value = strings.TrimSpace(value)
	switch field {
	case "name":
		if ok, msg := helper.IsValidName(value); !ok {
			return nil, &common.ValidationError{Field: field, Message: msg}
		}
		specialist.Name = value
	case "specialization":
		if ok, msg := helper.IsValidSpecialization(value); !ok {
			return nil, &common.ValidationError{Field: field, Message: msg}
		}
		specialist.Specialization = value
	case "phone":
		if ok, msg := helper.IsValidPhone(value); !ok {
			return nil, &common.ValidationError{Field: field, Message: msg}
		}
		specialist.Phone = helper.NormalizePhoneNumber(value)
	case "email":
		if ok, msg := helper.IsValidEmail(value); !ok {
			return nil, &common.ValidationError{Field: field, Message: msg}
		}
		specialist.Email = value
	default:
		return nil, &common.ValidationError{Field: field, Message: "неизвестное поле"}
	}

	if err := s.repo.UpdateSpecialist(specialist); err != nil {
		return nil, err
	}

	s.logAdmin(ctx, adminID, "edit_specialist",
		fmt.Sprintf("специалист %d, поле %s", id, field))
	if s.sheets != nil {
		if err := s.sheets.UpdateSpecialist(ctx, specialist); err != nil {
			log.Printf("Не удалось отразить изменение специалиста %d в Sheets: %v", id, err)
		}
	}
	return specialist, nil
}

// DeleteSpecialist деактивирует специалиста и убирает его строку из Sheets.
func (s *Service) DeleteSpecialist(ctx context.Context, id uint, adminID string) error {
	specialist, err := s.repo.GetSpecialistByID(id)
	if err != nil {
		return err
	}

	specialist.IsActive = false
	if err := s.repo.UpdateSpecialist(specialist); err != nil {
		return err
	}

	s.logAdmin(ctx, adminID, "delete_specialist",
		fmt.Sprintf("специалист %q, id=%d", specialist.Name, id))
	if s.sheets != nil {
		if _, err := s.sheets.DeleteSpecialist(ctx, id); err != nil {
			log.Printf("Не удалось убрать специалиста %d из Sheets: %v", id, err)
		}
	}
	return nil
}

// SetDayOff назначает специалисту выходной.
func (s *Service) SetDayOff(ctx context.Context, specialistID uint, date, reason, adminID string) (*common.DayOff, error) {
	if ok, msg := helper.IsValidDate(date); !ok {
		return nil, &common.ValidationError{Field: "date", Message: msg}
	}
	if _, err := s.repo.GetSpecialistByID(specialistID); err != nil {
		return nil, err
	}

	dayOff, err := s.repo.CreateDayOff(&common.DayOff{
		SpecialistID: specialistID,
		Date:         date,
		Reason:       reason,
	})
	if err != nil {
		return nil, err
	}

	s.logAdmin(ctx, adminID, "set_day_off",
		fmt.Sprintf("специалист %d, дата %s", specialistID, date))
	if s.sheets != nil {
		if err := s.sheets.AddDayOff(ctx, dayOff); err != nil {
			log.Printf("Не удалось отразить выходной в Sheets: %v", err)
		}
	}
	return dayOff, nil
}

// ================Bookings==================

// ValidateBookingDate проверяет дату записи: не в прошлом и не дальше
// MaxBookingDaysAhead дней.
func (s *Service) ValidateBookingDate(date string) error {
	if ok, msg := helper.IsValidDate(date); !ok {
		return &common.ValidationError{Field: "date", Message: msg}
	}
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return &common.ValidationError{Field: "date", Message: "некорректная дата"}
	}
	today := time.Now()
	startOfToday := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local)
	if day.Before(startOfToday) {
		return ErrPastDate
	}
	if day.After(startOfToday.AddDate(0, 0, MaxBookingDaysAhead)) {
		return ErrTooFarAhead
	}
	return nil
}

// ValidateBookingSlot проверяет дату и время будущей записи: не в прошлом,
// не дальше MaxBookingDaysAhead дней, без выходного и без пересечения
// с другими записями специалиста.
func (s *Service) ValidateBookingSlot(specialistID uint, date, timeStr string, durationMin int) error {
	if ok, msg := helper.IsValidDate(date); !ok {
		return &common.ValidationError{Field: "date", Message: msg}
	}
	if ok, msg := helper.IsValidTime(timeStr); !ok {
		return &common.ValidationError{Field: "time", Message: msg}
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return &common.ValidationError{Field: "datetime", Message: "некорректная дата или время"}
	}
	now := time.Now()
	if start.Before(now) {
		return ErrPastDate
	}
	if start.After(now.AddDate(0, 0, MaxBookingDaysAhead)) {
		return ErrTooFarAhead
	}

	dayOff, err := s.repo.IsDayOff(specialistID, date)
	if err != nil {
		return err
	}
	if dayOff {
		return ErrSpecialistDayOff
	}

	conflict, err := s.hasConflict(specialistID, date, timeStr, durationMin)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotTaken
	}
	return nil
}

// hasConflict ищет пересечение интервала [start, start+duration) с
// неотменёнными записями специалиста на ту же дату.
func (s *Service) hasConflict(specialistID uint, date, timeStr string, durationMin int) (bool, error) {
	if durationMin <= 0 {
		durationMin = conversation.DefaultBookingDuration
	}
	existing, err := s.repo.GetActiveBookingsForDate(specialistID, date)
	if err != nil {
		return false, err
	}

	reqStart := helper.TimeToMinutes(timeStr)
	return slotConflicts(existing, reqStart, durationMin), nil
}

// slotConflicts пересекается ли интервал [start, start+duration)
// хотя бы с одной записью.
func slotConflicts(existing []common.Booking, startMin, durationMin int) bool {
	endMin := startMin + durationMin
	for _, b := range existing {
		bStart := helper.TimeToMinutes(b.BookingTime)
		bEnd := bStart + b.DurationMin
		if startMin < bEnd && endMin > bStart {
			return true
		}
	}
	return false
}

// AlternativeSlots свободные часовые слоты 09:00–17:00 на указанную дату,
// не более maxAlternatives вариантов.
func (s *Service) AlternativeSlots(specialistID uint, date string, durationMin int) ([]string, error) {
	if durationMin <= 0 {
		durationMin = conversation.DefaultBookingDuration
	}
	existing, err := s.repo.GetActiveBookingsForDate(specialistID, date)
	if err != nil {
		return nil, err
	}
	return freeHourlySlots(existing, durationMin), nil
}

// freeHourlySlots часовые слоты рабочего дня без пересечений с записями.
func freeHourlySlots(existing []common.Booking, durationMin int) []string {
	var alternatives []string
	for hour := workDayStartHour; hour <= workDayEndHour; hour++ {
		if slotConflicts(existing, hour*60, durationMin) {
			continue
		}
		alternatives = append(alternatives, fmt.Sprintf("%02d:00", hour))
		if len(alternatives) >= maxAlternatives {
			break
		}
	}
	return alternatives
}

// CreateBooking создаёт подтверждённую запись из собранного контекста
// диалога, отражает её в Sheets и уведомляет специалиста.
func (s *Service) CreateBooking(ctx context.Context, info conversation.CollectedInfo, language string) (*common.Booking, error) {
	duration := info.BookingDuration
	if duration <= 0 {
		duration = conversation.DefaultBookingDuration
	}
	if err := s.ValidateBookingSlot(info.DoctorID, info.BookingDate, info.BookingTime, duration); err != nil {
		return nil, err
	}

	specialist, err := s.repo.GetSpecialistByID(info.DoctorID)
	if err != nil {
		return nil, err
	}

	booking := &common.Booking{
		SpecialistID:   specialist.ID,
		ClientName:     info.Name,
		Phone:          helper.NormalizePhoneNumber(info.Phone),
		BookingDate:    info.BookingDate,
		BookingTime:    info.BookingTime,
		DurationMin:    duration,
		ProblemSummary: info.Notes,
		Status:         common.BookingStatusConfirmed,
	}
	created, err := s.repo.CreateBooking(booking)
	if err != nil {
		return nil, err
	}
	log.Printf("Создана запись %d: %s к %s на %s %s",
		created.ID, created.ClientName, specialist.Name, created.BookingDate, created.BookingTime)

	if s.sheets != nil {
		if err := s.sheets.AddBooking(ctx, created); err != nil {
			log.Printf("Не удалось отразить запись %d в Sheets: %v", created.ID, err)
		}
	}
	s.notifyBookingEvent(ctx, notify.EventBookingCreated, created, specialist, language)
	return created, nil
}

// CancelBooking отменяет запись. phone непустой у клиентских отмен и
// ограничивает их чужими записями.
func (s *Service) CancelBooking(ctx context.Context, bookingID uint, phone, language string) (*common.Booking, error) {
	booking, err := s.repo.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if phone != "" && booking.Phone != helper.NormalizePhoneNumber(phone) {
		return nil, common.ErrNotFound
	}
	if booking.Status == common.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	booking.Status = common.BookingStatusCancelled
	if err := s.repo.UpdateBooking(booking); err != nil {
		return nil, err
	}
	log.Printf("Отменена запись %d (%s %s)", booking.ID, booking.BookingDate, booking.BookingTime)

	specialist, err := s.repo.GetSpecialistByID(booking.SpecialistID)
	if err != nil {
		log.Printf("Специалист %d записи %d не найден: %v", booking.SpecialistID, booking.ID, err)
		return booking, nil
	}
	if s.sheets != nil {
		if err := s.sheets.UpdateBooking(ctx, booking); err != nil {
			log.Printf("Не удалось отразить отмену записи %d в Sheets: %v", booking.ID, err)
		}
	}
	s.notifyBookingEvent(ctx, notify.EventBookingCancelled, booking, specialist, language)
	return booking, nil
}

func (s *Service) BookingsByPhone(phone string) ([]common.Booking, error) {
	return s.repo.GetActiveBookingsByPhone(helper.NormalizePhoneNumber(phone))
}

// notifyBookingEvent шлёт специалисту уведомление о записи по всем его
// доступным каналам, с эскалацией для записей на сегодня.
func (s *Service) notifyBookingEvent(ctx context.Context, eventType string, booking *common.Booking, specialist *common.Specialist, language string) {
	if s.notifier == nil {
		return
	}

	data := i18n.Args{
		"client_name":     booking.ClientName,
		"specialist_name": specialist.Name,
		"booking_date":    booking.BookingDate,
		"booking_time":    booking.BookingTime,
	}
	bookingID := booking.ID

	start, _ := time.ParseInLocation("2006-01-02 15:04",
		booking.BookingDate+" "+booking.BookingTime, time.Local)
	urgent := eventType == notify.EventBookingCreated &&
		notify.ShouldEscalateToUrgent("booking", start, "", time.Now())

	for _, target := range specialistTargets(specialist) {
		event := notify.Event{
			EventType:     eventType,
			Recipient:     target.recipient,
			RecipientType: "specialist",
			Language:      language,
			Data:          data,
			Channels:      []string{target.channel},
			BookingID:     &bookingID,
		}
		if urgent {
			s.notifier.SendUrgentEscalation(ctx, event)
		} else {
			s.notifier.SendImmediateAlert(ctx, event)
		}
	}
}

type notifyTarget struct {
	channel   string
	recipient string
}

// specialistTargets контакты специалиста по каналам уведомлений.
func specialistTargets(specialist *common.Specialist) []notifyTarget {
	var targets []notifyTarget
	if specialist.TelegramID != "" {
		targets = append(targets, notifyTarget{notify.ChannelTelegram, specialist.TelegramID})
	}
	if specialist.WhatsApp != "" {
		targets = append(targets, notifyTarget{notify.ChannelWhatsApp, specialist.WhatsApp})
	}
	if specialist.Instagram != "" {
		targets = append(targets, notifyTarget{notify.ChannelInstagram, specialist.Instagram})
	}
	return targets
}

// NotifyComplaint уведомляет администраторов о жалобе, с эскалацией
// по уровню важности.
func (s *Service) NotifyComplaint(ctx context.Context, clientName, subject, severity, language string) {
	if s.notifier == nil {
		return
	}

	data := i18n.Args{
		"client_name":       clientName,
		"complaint_subject": subject,
		"severity":          severity,
	}
	urgent := notify.ShouldEscalateToUrgent("complaint", time.Time{}, severity, time.Now())
	for _, adminID := range config.AdminIDs() {
		event := notify.Event{
			EventType:     notify.EventComplaintReceived,
			Recipient:     strconv.FormatInt(adminID, 10),
			RecipientType: "admin",
			Language:      language,
			Data:          data,
			Channels:      []string{notify.ChannelTelegram},
		}
		if urgent {
			s.notifier.SendUrgentEscalation(ctx, event)
		} else {
			s.notifier.SendImmediateAlert(ctx, event)
		}
	}
}

// ================Sessions==================

// SaveSession сохраняет снимок контекста диалога в базе.
func (s *Service) SaveSession(convCtx *conversation.Context) {
	data, err := convCtx.ToJSON()
	if err != nil {
		log.Printf("Не удалось сериализовать контекст %s: %v", convCtx.ContextID, err)
		return
	}
	session := &common.UserSession{
		UserID:       strconv.FormatInt(convCtx.UserID, 10),
		Platform:     convCtx.Platform,
		Language:     convCtx.Language,
		CurrentState: string(convCtx.CurrentState),
		ContextData:  string(data),
	}
	if err := s.repo.SaveUserSession(session); err != nil {
		log.Printf("Не удалось сохранить сессию %d: %v", convCtx.UserID, err)
	}
}

// ================Digest==================

// DigestEvents собирает события ежедневной сводки для каждого
// администратора за последние сутки.
func (s *Service) DigestEvents(ctx context.Context) []notify.Event {
	since := time.Now().Add(-24 * time.Hour)

	newBookings, err := s.repo.CountBookingsCreatedSince(since)
	if err != nil {
		log.Printf("Не удалось посчитать новые записи для сводки: %v", err)
	}
	cancelled, err := s.repo.CountBookingsCancelledSince(since)
	if err != nil {
		log.Printf("Не удалось посчитать отмены для сводки: %v", err)
	}
	complaints, err := s.repo.CountComplaintsSince(since)
	if err != nil {
		log.Printf("Не удалось посчитать жалобы для сводки: %v", err)
	}
	urgentEvents, err := s.repo.CountNotificationsSince("urgent", since)
	if err != nil {
		log.Printf("Не удалось посчитать срочные события для сводки: %v", err)
	}

	data := i18n.Args{
		"date":               time.Now().Format("2006-01-02"),
		"new_bookings":       newBookings,
		"cancelled_bookings": cancelled,
		"complaints":         complaints,
		"urgent_events":      urgentEvents,
	}

	var events []notify.Event
	for _, adminID := range config.AdminIDs() {
		events = append(events, notify.Event{
			EventType:     notify.EventDailyDigest,
			Recipient:     strconv.FormatInt(adminID, 10),
			RecipientType: "admin",
			Language:      "ru",
			Data:          data,
			Channels:      []string{notify.ChannelTelegram},
		})
	}
	return events
}

// ================Sheets sync==================

// SyncResult итог двусторонней синхронизации с Google Sheets.
type SyncResult struct {
	Pushed int
	Pulled int
	Errors []string
}

// SyncWithSheets выталкивает локальные изменения и забирает удалённые.
// Частичные сбои накапливаются в Errors и не прерывают синхронизацию.
func (s *Service) SyncWithSheets(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	if s.sheets == nil {
		return result, fmt.Errorf("google sheets не настроен")
	}

	specialists, err := s.repo.GetAllSpecialists()
	if err != nil {
		return result, err
	}
	bookings, err := s.repo.GetAllBookings()
	if err != nil {
		return result, err
	}

	pushState := s.sheets.PushChanges(ctx, specialists, bookings)
	result.Pushed = pushState.ItemsPushed
	result.Errors = append(result.Errors, pushState.Errors...)

	pull := s.sheets.PullChanges(ctx)
	result.Errors = append(result.Errors, pull.State.Errors...)
	result.Pulled += s.applyPulledSpecialists(pull.Specialists, &result)
	result.Pulled += s.applyPulledSchedules(pull.Schedules, &result)
	result.Pulled += s.applyPulledDaysOff(pull.DaysOff, &result)

	log.Printf("Синхронизация с Sheets: отправлено %d, получено %d, ошибок %d",
		result.Pushed, result.Pulled, len(result.Errors))
	return result, nil
}

// pullAction решение по одной удалённой записи при pull-синхронизации.
type pullAction int

const (
	pullSkip pullAction = iota
	pullCreate
	pullUpdate
)

// resolvePull применяет правило «последняя запись побеждает» на стороне базы:
// строки без числового ID (добавленные в таблицу руками) пропускаются,
// неизвестные создаются, более свежая удалённая версия замещает локальную.
func resolvePull(id uint, remoteUpdated time.Time, localExists bool, localUpdated time.Time) pullAction {
	if id == 0 {
		return pullSkip
	}
	if !localExists {
		return pullCreate
	}
	if remoteUpdated.After(localUpdated) {
		return pullUpdate
	}
	return pullSkip
}

// applyPulledSpecialists переносит удалённые изменения специалистов в базу:
// новые строки создаются, более свежие удалённые версии замещают локальные.
func (s *Service) applyPulledSpecialists(remote []common.Specialist, result *SyncResult) int {
	applied := 0
	for i := range remote {
		r := remote[i]
		if r.ID == 0 {
			continue
		}
		local, err := s.repo.GetSpecialistByID(r.ID)
		localExists := err == nil
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		var localUpdated time.Time
		if localExists {
			localUpdated = local.UpdatedAt
		}
		switch resolvePull(r.ID, r.UpdatedAt, localExists, localUpdated) {
		case pullCreate:
			if _, err := s.repo.CreateSpecialist(&r); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			applied++
		case pullUpdate:
			r.CreatedAt = local.CreatedAt
			if err := s.repo.UpdateSpecialist(&r); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			applied++
		}
	}
	return applied
}

// applyPulledSchedules замещает локальное расписание более свежими
// удалёнными версиями, новые строки создаются.
func (s *Service) applyPulledSchedules(remote []common.Schedule, result *SyncResult) int {
	applied := 0
	for i := range remote {
		r := remote[i]
		if r.ID == 0 || r.SpecialistID == 0 {
			continue
		}
		local, err := s.repo.GetSchedulesBySpecialist(r.SpecialistID)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		fresh := true
		for _, l := range local {
			if l.ID == r.ID && !r.UpdatedAt.After(l.UpdatedAt) {
				fresh = false
				break
			}
		}
		if !fresh {
			continue
		}
		if err := s.repo.SaveSchedule(&r); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		applied++
	}
	return applied
}

// applyPulledDaysOff создаёт выходные, которых ещё нет локально.
func (s *Service) applyPulledDaysOff(remote []common.DayOff, result *SyncResult) int {
	applied := 0
	for i := range remote {
		r := remote[i]
		if r.SpecialistID == 0 || r.Date == "" {
			continue
		}
		exists, err := s.repo.IsDayOff(r.SpecialistID, r.Date)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if exists {
			continue
		}
		if _, err := s.repo.CreateDayOff(&r); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		applied++
	}
	return applied
}

// SavedLanguage язык из последней сохранённой сессии пользователя.
func (s *Service) SavedLanguage(userID int64) string {
	session, err := s.repo.GetUserSession(strconv.FormatInt(userID, 10))
	if err != nil || session == nil {
		return ""
	}
	return session.Language
}

// logAdmin пишет действие администратора в базу и в Sheets.
func (s *Service) logAdmin(ctx context.Context, adminID, action, details string) {
	if err := s.repo.CreateAdminLog(&common.AdminLog{
		AdminID: adminID,
		Action:  action,
		Details: details,
	}); err != nil {
		log.Printf("Не удалось записать действие администратора: %v", err)
	}
	if s.sheets != nil {
		s.sheets.LogAdminAction(ctx, action, "specialist", 0, details, adminID)
	}
}
