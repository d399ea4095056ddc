package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/helper"
)

// findRowByID ищет строку листа по значению первой колонки.
// Возвращает номер строки (с единицы, с учётом заголовка) и саму строку.
func (m *Manager) findRowByID(ctx context.Context, sheetName string, id uint) (int, []interface{}, error) {
	rows, err := m.readRows(ctx, sheetName)
	if err != nil {
		return 0, nil, err
	}
	for i, row := range rows {
		if uint(cellInt(row, 0)) == id && id != 0 {
			return i + 2, row, nil // +1 заголовок, +1 нумерация с единицы
		}
	}
	return 0, nil, helper.Permanent(common.ErrNotFound)
}

// ReadSpecialists читает всех специалистов из таблицы.
func (m *Manager) ReadSpecialists(ctx context.Context) ([]common.Specialist, error) {
	var specialists []common.Specialist
	err := m.withRetry(ctx, "sheets.read_specialists", func() error {
		rows, err := m.readRows(ctx, SheetSpecialists)
		if err != nil {
			return err
		}
		specialists = specialists[:0]
		for _, row := range rows {
			specialists = append(specialists, common.Specialist{
				ID:             uint(cellInt(row, 0)),
				Name:           cell(row, 1),
				Specialization: cell(row, 2),
				Phone:          cell(row, 3),
				Email:          cell(row, 4),
				IsActive:       cellBool(row, 5),
				CreatedAt:      parseTimestamp(cell(row, 6)),
				UpdatedAt:      parseTimestamp(cell(row, 7)),
			})
		}
		return nil
	})
	return specialists, err
}

// ReadSchedule читает расписание всех специалистов.
func (m *Manager) ReadSchedule(ctx context.Context) ([]common.Schedule, error) {
	var schedules []common.Schedule
	err := m.withRetry(ctx, "sheets.read_schedule", func() error {
		rows, err := m.readRows(ctx, SheetSchedule)
		if err != nil {
			return err
		}
		schedules = schedules[:0]
		for _, row := range rows {
			schedules = append(schedules, common.Schedule{
				ID:           uint(cellInt(row, 0)),
				SpecialistID: uint(cellInt(row, 1)),
				DayOfWeek:    cellInt(row, 2),
				StartTime:    cell(row, 3),
				EndTime:      cell(row, 4),
				IsActive:     cellBool(row, 5),
				CreatedAt:    parseTimestamp(cell(row, 6)),
				UpdatedAt:    parseTimestamp(cell(row, 7)),
			})
		}
		return nil
	})
	return schedules, err
}

// ReadDaysOff читает выходные дни специалистов.
func (m *Manager) ReadDaysOff(ctx context.Context) ([]common.DayOff, error) {
	var daysOff []common.DayOff
	err := m.withRetry(ctx, "sheets.read_days_off", func() error {
		rows, err := m.readRows(ctx, SheetDaysOff)
		if err != nil {
			return err
		}
		daysOff = daysOff[:0]
		for _, row := range rows {
			daysOff = append(daysOff, common.DayOff{
				ID:           uint(cellInt(row, 0)),
				SpecialistID: uint(cellInt(row, 1)),
				Date:         cell(row, 2),
				Reason:       cell(row, 3),
				CreatedAt:    parseTimestamp(cell(row, 4)),
			})
		}
		return nil
	})
	return daysOff, err
}

// ReadBookings читает все записи на приём.
func (m *Manager) ReadBookings(ctx context.Context) ([]common.Booking, error) {
	var bookings []common.Booking
	err := m.withRetry(ctx, "sheets.read_bookings", func() error {
		rows, err := m.readRows(ctx, SheetBookings)
		if err != nil {
			return err
		}
		bookings = bookings[:0]
		for _, row := range rows {
			date, clock := splitDateTime(cell(row, 3))
			duration := cellInt(row, 4)
			if duration == 0 {
				duration = 60
			}
			status := cell(row, 6)
			if status == "" {
				status = common.BookingStatusConfirmed
			}
			bookings = append(bookings, common.Booking{
				ID:             uint(cellInt(row, 0)),
				SpecialistID:   uint(cellInt(row, 1)),
				ClientName:     cell(row, 2),
				BookingDate:    date,
				BookingTime:    clock,
				DurationMin:    duration,
				ProblemSummary: cell(row, 5),
				Status:         status,
				CreatedAt:      parseTimestamp(cell(row, 7)),
				UpdatedAt:      parseTimestamp(cell(row, 8)),
			})
		}
		return nil
	})
	return bookings, err
}

// AddSpecialist добавляет специалиста в таблицу.
func (m *Manager) AddSpecialist(ctx context.Context, s *common.Specialist) error {
	err := m.withRetry(ctx, "sheets.add_specialist", func() error {
		now := time.Now().UTC().Format(time.RFC3339)
		return m.appendRow(ctx, SheetSpecialists, []interface{}{
			s.ID, s.Name, s.Specialization, s.Phone, s.Email,
			boolCell(s.IsActive), now, now,
		})
	})
	if err != nil {
		m.LogError(ctx, "api_error", fmt.Sprintf("Failed to add specialist: %v", err), "")
		return common.NewExternalServiceError("Google Sheets", "failed to add specialist", err)
	}
	log.Printf("Специалист добавлен в таблицу: %s", s.Name)
	m.logAdminAction(ctx, "create", "specialist", s.ID, "Добавлен специалист: "+s.Name, "system")
	return nil
}

// UpdateSpecialist перезаписывает строку специалиста по ID.
func (m *Manager) UpdateSpecialist(ctx context.Context, s *common.Specialist) error {
	err := m.withRetry(ctx, "sheets.update_specialist", func() error {
		rowIndex, row, err := m.findRowByID(ctx, SheetSpecialists, s.ID)
		if err != nil {
			return err
		}
		createdAt := cell(row, 6)
		now := time.Now().UTC().Format(time.RFC3339)
		if createdAt == "" {
			createdAt = now
		}
		return m.updateRow(ctx, SheetSpecialists, rowIndex, []interface{}{
			s.ID, s.Name, s.Specialization, s.Phone, s.Email,
			boolCell(s.IsActive), createdAt, now,
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Printf("Специалист с ID %d не найден в таблице", s.ID)
			return err
		}
		m.LogError(ctx, "api_error", fmt.Sprintf("Failed to update specialist: %v", err), "")
		return common.NewExternalServiceError("Google Sheets", "failed to update specialist", err)
	}
	log.Printf("Специалист обновлён в таблице: %s", s.Name)
	m.logAdminAction(ctx, "update", "specialist", s.ID, "Обновлен специалист: "+s.Name, "system")
	return nil
}

// DeleteSpecialist удаляет строку специалиста. Возвращает false, если строки нет.
func (m *Manager) DeleteSpecialist(ctx context.Context, specialistID uint) (bool, error) {
	found := false
	err := m.withRetry(ctx, "sheets.delete_specialist", func() error {
		rowIndex, _, err := m.findRowByID(ctx, SheetSpecialists, specialistID)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := m.deleteRow(ctx, SheetSpecialists, rowIndex); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		m.LogError(ctx, "api_error", fmt.Sprintf("Failed to delete specialist: %v", err), "")
		return false, common.NewExternalServiceError("Google Sheets", "failed to delete specialist", err)
	}
	if found {
		log.Printf("Специалист с ID %d удалён из таблицы", specialistID)
		m.logAdminAction(ctx, "delete", "specialist", specialistID,
			fmt.Sprintf("Удален специалист с ID: %d", specialistID), "system")
	} else {
		log.Printf("Специалист с ID %d не найден для удаления", specialistID)
	}
	return found, nil
}

// AddBooking добавляет запись на приём в таблицу.
func (m *Manager) AddBooking(ctx context.Context, b *common.Booking) error {
	err := m.withRetry(ctx, "sheets.add_booking", func() error {
		now := time.Now().UTC().Format(time.RFC3339)
		return m.appendRow(ctx, SheetBookings, []interface{}{
			b.ID, b.SpecialistID, b.ClientName,
			strings.TrimSpace(b.BookingDate + " " + b.BookingTime),
			b.DurationMin, b.ProblemSummary, b.Status, now, now,
		})
	})
	if err != nil {
		m.LogError(ctx, "api_error", fmt.Sprintf("Failed to add booking: %v", err), "")
		return common.NewExternalServiceError("Google Sheets", "failed to add booking", err)
	}
	log.Printf("Запись добавлена в таблицу для клиента: %s", b.ClientName)
	m.logAdminAction(ctx, "create", "booking", b.ID, "Добавлена запись для "+b.ClientName, "system")
	return nil
}

// UpdateBooking перезаписывает строку записи по ID (смена статуса, перенос).
func (m *Manager) UpdateBooking(ctx context.Context, b *common.Booking) error {
	err := m.withRetry(ctx, "sheets.update_booking", func() error {
		rowIndex, row, err := m.findRowByID(ctx, SheetBookings, b.ID)
		if err != nil {
			return err
		}
		createdAt := cell(row, 7)
		now := time.Now().UTC().Format(time.RFC3339)
		if createdAt == "" {
			createdAt = now
		}
		return m.updateRow(ctx, SheetBookings, rowIndex, []interface{}{
			b.ID, b.SpecialistID, b.ClientName,
			strings.TrimSpace(b.BookingDate + " " + b.BookingTime),
			b.DurationMin, b.ProblemSummary, b.Status, createdAt, now,
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		m.LogError(ctx, "api_error", fmt.Sprintf("Failed to update booking: %v", err), "")
		return common.NewExternalServiceError("Google Sheets", "failed to update booking", err)
	}
	log.Printf("Запись %d обновлена в таблице", b.ID)
	m.logAdminAction(ctx, "update", "booking", b.ID, "Обновлена запись для "+b.ClientName, "system")
	return nil
}

// AddDayOff добавляет выходной день специалиста.
func (m *Manager) AddDayOff(ctx context.Context, d *common.DayOff) error {
	err := m.withRetry(ctx, "sheets.add_day_off", func() error {
		now := time.Now().UTC().Format(time.RFC3339)
		return m.appendRow(ctx, SheetDaysOff, []interface{}{
			d.ID, d.SpecialistID, d.Date, d.Reason, now,
		})
	})
	if err != nil {
		m.LogError(ctx, "api_error", fmt.Sprintf("Failed to add day off: %v", err), "")
		return common.NewExternalServiceError("Google Sheets", "failed to add day off", err)
	}
	log.Printf("Выходной добавлен в таблицу для специалиста %d", d.SpecialistID)
	m.logAdminAction(ctx, "create", "day_off", d.SpecialistID, "Добавлен выходной день: "+d.Date, "system")
	return nil
}

// LogAdminAction записывает действие администратора в лист логов.
func (m *Manager) LogAdminAction(ctx context.Context, actionType, resourceType string, resourceID uint, description, performedBy string) {
	m.logAdminAction(ctx, actionType, resourceType, resourceID, description, performedBy)
}

// logAdminAction лог действий не должен ронять основную операцию: ошибки только в лог.
func (m *Manager) logAdminAction(ctx context.Context, actionType, resourceType string, resourceID uint, description, performedBy string) {
	if performedBy == "" {
		performedBy = "system"
	}
	var resourceCell interface{} = ""
	if resourceID != 0 {
		resourceCell = resourceID
	}
	now := time.Now().UTC().Format(time.RFC3339)
	err := m.appendRow(ctx, SheetAdminLogs, []interface{}{
		"", actionType, resourceType, resourceCell, description, performedBy, now,
	})
	if err != nil {
		log.Printf("Не удалось записать действие администратора: %v", err)
	}
}

// LogError записывает ошибку в лист ошибок. Сбой логирования не возвращается наружу.
func (m *Manager) LogError(ctx context.Context, errorType, message, errContext string) {
	now := time.Now().UTC().Format(time.RFC3339)
	err := m.appendRow(ctx, SheetErrors, []interface{}{
		"", errorType, message, errContext, "", now,
	})
	if err != nil {
		log.Printf("Не удалось записать ошибку в таблицу: %v", err)
	}
}

func (m *Manager) withRetry(ctx context.Context, name string, fn func() error) error {
	return helper.Retry(ctx, name,
		helper.DefaultRetryAttempts, helper.DefaultRetryMinDelay, helper.DefaultRetryMaxDelay, fn)
}

// splitDateTime делит "YYYY-MM-DD HH:MM" на дату и время.
func splitDateTime(value string) (string, string) {
	parts := strings.Fields(strings.ReplaceAll(value, "T", " "))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		clock := parts[1]
		if len(clock) > 5 {
			clock = clock[:5]
		}
		return parts[0], clock
	}
}
