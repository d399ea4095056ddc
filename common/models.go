package common

import (
	"time"
)

// Specialist модель специалиста (врача)
type Specialist struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Specialization string    `gorm:"type:varchar(100);not null" json:"specialization"`
	Phone          string    `gorm:"type:varchar(50)" json:"phone"`
	Email          string    `gorm:"type:varchar(255)" json:"email"`
	TelegramID     string    `gorm:"type:varchar(50);uniqueIndex" json:"telegram_id"`
	WhatsApp       string    `gorm:"type:varchar(50)" json:"whatsapp"`
	Instagram      string    `gorm:"type:varchar(50)" json:"instagram"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Schedules []Schedule `gorm:"foreignKey:SpecialistID;constraint:OnDelete:CASCADE" json:"schedules,omitempty"`
	DayOffs   []DayOff   `gorm:"foreignKey:SpecialistID;constraint:OnDelete:CASCADE" json:"day_offs,omitempty"`
	Bookings  []Booking  `gorm:"foreignKey:SpecialistID" json:"bookings,omitempty"`
}

// Schedule модель рабочего расписания специалиста
type Schedule struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SpecialistID uint      `gorm:"not null;index" json:"specialist_id"`
	DayOfWeek    int       `gorm:"type:int;not null" json:"day_of_week"`       // 0 - воскресенье, 1 - понедельник и т.д.
	StartTime    string    `gorm:"type:varchar(5);not null" json:"start_time"` // HH:MM
	EndTime      string    `gorm:"type:varchar(5);not null" json:"end_time"`   // HH:MM
	SlotMinutes  int       `gorm:"not null;default:60" json:"slot_minutes"`
	MaxPatients  int       `json:"max_patients"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DayOff модель выходного дня специалиста
type DayOff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SpecialistID uint      `gorm:"not null;index" json:"specialist_id"`
	Date         string    `gorm:"type:varchar(10);not null" json:"date"` // YYYY-MM-DD
	Reason       string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// Статусы записи на приём
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SpecialistID   uint      `gorm:"not null;index" json:"specialist_id"`
	ClientName     string    `gorm:"type:varchar(255);not null" json:"client_name"`
	Phone          string    `gorm:"type:varchar(20);not null;index" json:"phone"`
	BookingDate    string    `gorm:"type:varchar(10);not null" json:"booking_date"` // YYYY-MM-DD
	BookingTime    string    `gorm:"type:varchar(5);not null" json:"booking_time"`  // HH:MM
	DurationMin    int       `gorm:"not null;default:60" json:"duration_min"`
	ProblemSummary string    `gorm:"type:text" json:"problem_summary"`
	Status         string    `gorm:"type:varchar(50);not null;default:pending" json:"status"` // "pending", "confirmed", "completed", "cancelled"
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserSession модель сессии пользователя (FSM-состояние)
type UserSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"user_id"`
	Platform     string    `gorm:"type:varchar(50);not null" json:"platform"` // "telegram", "whatsapp", "instagram"
	Language     string    `gorm:"type:varchar(5);not null;default:ru" json:"language"`
	CurrentState string    `gorm:"type:varchar(100)" json:"current_state"`
	ContextData  string    `gorm:"type:text" json:"context_data"` // JSON сохранённый контекст
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AdminLog модель лога административных действий
type AdminLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AdminID   string    `gorm:"type:varchar(255);not null;index" json:"admin_id"`
	Action    string    `gorm:"type:varchar(100);not null" json:"action"` // "add_specialist", "set_day_off", "delete_booking" и т.д.
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationLog модель лога доставки уведомлений
type NotificationLog struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	RecipientID    int64      `gorm:"not null;index" json:"recipient_id"`
	RecipientType  string     `gorm:"type:varchar(50);not null" json:"recipient_type"` // "specialist", "admin", "client"
	Channel        string     `gorm:"type:varchar(100)" json:"channel"`
	MessageType    string     `gorm:"type:varchar(50)" json:"message_type"` // "immediate", "urgent", "digest"
	UrgencyLevel   string     `gorm:"type:varchar(20)" json:"urgency_level"`
	Subject        string     `gorm:"type:varchar(100)" json:"subject"`
	MessagePreview string     `gorm:"type:varchar(255)" json:"message_preview"`
	DeliveryStatus string     `gorm:"type:varchar(20)" json:"delivery_status"` // "sent", "failed", "retrying"
	BookingID      *uint      `json:"booking_id,omitempty"`
	ErrorDetails   string     `gorm:"type:text" json:"error_details"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
