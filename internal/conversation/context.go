package conversation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CollectedInfo данные, собранные в процессе диалога записи.
type CollectedInfo struct {
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	DoctorID        uint   `json:"doctor_id,omitempty"`
	DoctorName      string `json:"doctor_name,omitempty"`
	BookingDate     string `json:"booking_date,omitempty"` // YYYY-MM-DD
	BookingTime     string `json:"booking_time,omitempty"` // HH:MM
	BookingDuration int    `json:"booking_duration"`       // минуты
	Notes           string `json:"notes,omitempty"`

	// Поля административных сценариев
	SpecialistName           string `json:"specialist_name,omitempty"`
	SpecialistSpecialization string `json:"specialist_specialization,omitempty"`
	SpecialistPhone          string `json:"specialist_phone,omitempty"`
	SpecialistEmail          string `json:"specialist_email,omitempty"`
	DayOffSpecialistID       uint   `json:"day_off_specialist_id,omitempty"`
	DayOffDate               string `json:"day_off_date,omitempty"`
	DayOffReason             string `json:"day_off_reason,omitempty"`
	TargetSpecialistID       uint   `json:"target_specialist_id,omitempty"`
	EditField                string `json:"edit_field,omitempty"`
}

const DefaultBookingDuration = 60

// Context контекст диалога пользователя.
type Context struct {
	ContextID    string        `json:"context_id"`
	UserID       int64         `json:"user_id"`
	Platform     string        `json:"platform"`
	Language     string        `json:"language"`
	CurrentState State         `json:"current_state"`
	Collected    CollectedInfo `json:"collected_info"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	LastActivity time.Time     `json:"last_activity"`
	ErrorMessage string        `json:"error_message,omitempty"`
	AdminMode    bool          `json:"admin_mode"`
}

func NewContext(userID int64) *Context {
	now := time.Now()
	return &Context{
		ContextID:    uuid.NewString(),
		UserID:       userID,
		Platform:     "telegram",
		Language:     "ru",
		CurrentState: StateStart,
		Collected:    CollectedInfo{BookingDuration: DefaultBookingDuration},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
	}
}

func (c *Context) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

func ContextFromJSON(data []byte) (*Context, error) {
	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, err
	}
	return &ctx, nil
}

// MissingBookingFields возвращает незаполненные поля, обязательные для
// подтверждения записи.
func (c *Context) MissingBookingFields() []string {
	var missing []string
	if c.Collected.Name == "" {
		missing = append(missing, "name")
	}
	if c.Collected.Phone == "" {
		missing = append(missing, "phone")
	}
	if c.Collected.DoctorID == 0 {
		missing = append(missing, "doctor_id")
	}
	if c.Collected.BookingDate == "" {
		missing = append(missing, "booking_date")
	}
	if c.Collected.BookingTime == "" {
		missing = append(missing, "booking_time")
	}
	return missing
}
