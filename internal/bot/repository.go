package bot

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vitaplus/vitabot/common"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ================Specialist==================

func (r *Repository) CreateSpecialist(specialist *common.Specialist) (*common.Specialist, error) {
	if err := r.db.Create(specialist).Error; err != nil {
		return nil, fmt.Errorf("failed to create specialist: %w", err)
	}
	return specialist, nil
}

func (r *Repository) GetSpecialistByID(id uint) (*common.Specialist, error) {
	var specialist common.Specialist
	err := r.db.First(&specialist, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get specialist %d: %w", id, err)
	}
	return &specialist, nil
}

func (r *Repository) GetActiveSpecialists() ([]common.Specialist, error) {
	var specialists []common.Specialist
	err := r.db.Where("is_active = ?", true).Order("name").Find(&specialists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active specialists: %w", err)
	}
	return specialists, nil
}

func (r *Repository) GetAllSpecialists() ([]common.Specialist, error) {
	var specialists []common.Specialist
	if err := r.db.Find(&specialists).Error; err != nil {
		return nil, fmt.Errorf("failed to get specialists: %w", err)
	}
	return specialists, nil
}

func (r *Repository) UpdateSpecialist(specialist *common.Specialist) error {
	if err := r.db.Save(specialist).Error; err != nil {
		return fmt.Errorf("failed to update specialist %d: %w", specialist.ID, err)
	}
	return nil
}

// ================Schedule==================

func (r *Repository) GetSchedulesBySpecialist(specialistID uint) ([]common.Schedule, error) {
	var schedules []common.Schedule
	err := r.db.Where("specialist_id = ? AND is_active = ?", specialistID, true).
		Order("day_of_week").Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get schedules for specialist %d: %w", specialistID, err)
	}
	return schedules, nil
}

func (r *Repository) SaveSchedule(schedule *common.Schedule) error {
	if err := r.db.Save(schedule).Error; err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

// ================DayOff==================

func (r *Repository) CreateDayOff(dayOff *common.DayOff) (*common.DayOff, error) {
	if err := r.db.Create(dayOff).Error; err != nil {
		return nil, fmt.Errorf("failed to create day off: %w", err)
	}
	return dayOff, nil
}

// IsDayOff специалист отдыхает в указанную дату (YYYY-MM-DD).
func (r *Repository) IsDayOff(specialistID uint, date string) (bool, error) {
	var count int64
	err := r.db.Model(&common.DayOff{}).
		Where("specialist_id = ? AND date = ?", specialistID, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check day off: %w", err)
	}
	return count > 0, nil
}

// ================Booking==================

func (r *Repository) CreateBooking(booking *common.Booking) (*common.Booking, error) {
	if err := r.db.Create(booking).Error; err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

func (r *Repository) GetBookingByID(id uint) (*common.Booking, error) {
	var booking common.Booking
	err := r.db.First(&booking, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	return &booking, nil
}

// GetActiveBookingsForDate все неотменённые записи специалиста на дату.
func (r *Repository) GetActiveBookingsForDate(specialistID uint, date string) ([]common.Booking, error) {
	var bookings []common.Booking
	err := r.db.Where("specialist_id = ? AND booking_date = ? AND status <> ?",
		specialistID, date, common.BookingStatusCancelled).
		Order("booking_time").Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings for date %s: %w", date, err)
	}
	return bookings, nil
}

func (r *Repository) GetActiveBookingsByPhone(phone string) ([]common.Booking, error) {
	var bookings []common.Booking
	err := r.db.Where("phone = ? AND status <> ?", phone, common.BookingStatusCancelled).
		Order("booking_date, booking_time").Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by phone: %w", err)
	}
	return bookings, nil
}

func (r *Repository) GetAllBookings() ([]common.Booking, error) {
	var bookings []common.Booking
	if err := r.db.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

func (r *Repository) UpdateBooking(booking *common.Booking) error {
	if err := r.db.Save(booking).Error; err != nil {
		return fmt.Errorf("failed to update booking %d: %w", booking.ID, err)
	}
	return nil
}

// CountBookingsCreatedSince число записей, созданных после отметки времени.
func (r *Repository) CountBookingsCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&common.Booking{}).
		Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// CountBookingsCancelledSince число записей, отменённых после отметки времени.
func (r *Repository) CountBookingsCancelledSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&common.Booking{}).
		Where("status = ? AND updated_at >= ?", common.BookingStatusCancelled, since).
		Count(&count).Error
	return count, err
}

// ================UserSession==================

// SaveUserSession создаёт или обновляет сессию по user_id.
func (r *Repository) SaveUserSession(session *common.UserSession) error {
	var existing common.UserSession
	err := r.db.Where("user_id = ?", session.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(session).Error
	}
	if err != nil {
		return fmt.Errorf("failed to load session for %s: %w", session.UserID, err)
	}

	session.ID = existing.ID
	session.CreatedAt = existing.CreatedAt
	return r.db.Save(session).Error
}

func (r *Repository) GetUserSession(userID string) (*common.UserSession, error) {
	var session common.UserSession
	err := r.db.Where("user_id = ?", userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session for %s: %w", userID, err)
	}
	return &session, nil
}

// ================Logs==================

func (r *Repository) CreateAdminLog(entry *common.AdminLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create admin log: %w", err)
	}
	return nil
}

func (r *Repository) GetRecentAdminLogs(limit int) ([]common.AdminLog, error) {
	var logs []common.AdminLog
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get admin logs: %w", err)
	}
	return logs, nil
}

func (r *Repository) CreateNotificationLog(entry *common.NotificationLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}
	return nil
}

// CountNotificationsSince число уведомлений данного типа с отметки времени.
func (r *Repository) CountNotificationsSince(messageType string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&common.NotificationLog{}).
		Where("message_type = ? AND created_at >= ?", messageType, since).
		Count(&count).Error
	return count, err
}

// CountComplaintsSince число уведомлений о жалобах с отметки времени.
func (r *Repository) CountComplaintsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&common.NotificationLog{}).
		Where("subject = ? AND created_at >= ?", "complaint_received", since).
		Count(&count).Error
	return count, err
}
