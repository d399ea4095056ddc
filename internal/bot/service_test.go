package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaplus/vitabot/common"
)

func booking(timeStr string, durationMin int) common.Booking {
	return common.Booking{
		BookingTime: timeStr,
		DurationMin: durationMin,
		Status:      common.BookingStatusConfirmed,
	}
}

func TestSlotConflicts(t *testing.T) {
	existing := []common.Booking{booking("10:00", 60)}

	tests := []struct {
		name     string
		startMin int
		duration int
		want     bool
	}{
		{"точное совпадение", 10 * 60, 60, true},
		{"перекрытие началом", 9*60 + 30, 60, true},
		{"перекрытие концом", 10*60 + 30, 60, true},
		{"внутри существующей", 10*60 + 15, 30, true},
		{"поглощает существующую", 9 * 60, 180, true},
		{"встык до", 9 * 60, 60, false},
		{"встык после", 11 * 60, 60, false},
		{"далеко после", 15 * 60, 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slotConflicts(existing, tt.startMin, tt.duration))
		})
	}
}

func TestSlotConflictsEmptySchedule(t *testing.T) {
	assert.False(t, slotConflicts(nil, 10*60, 60))
}

func TestFreeHourlySlotsEmptySchedule(t *testing.T) {
	slots := freeHourlySlots(nil, 60)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00"}, slots)
}

func TestFreeHourlySlotsSkipsBusy(t *testing.T) {
	existing := []common.Booking{
		booking("09:00", 60),
		booking("11:00", 60),
	}
	slots := freeHourlySlots(existing, 60)
	assert.Equal(t, []string{"10:00", "12:00", "13:00", "14:00", "15:00"}, slots)
}

func TestFreeHourlySlotsFullyBooked(t *testing.T) {
	// Одна запись на весь рабочий день
	existing := []common.Booking{booking("09:00", 9 * 60)}
	assert.Empty(t, freeHourlySlots(existing, 60))
}

func TestFreeHourlySlotsLongDuration(t *testing.T) {
	// Двухчасовой приём не помещается перед записью на 11:00
	existing := []common.Booking{booking("11:00", 60)}
	slots := freeHourlySlots(existing, 120)
	assert.Equal(t, []string{"09:00", "12:00", "13:00", "14:00", "15:00"}, slots)
}

func TestValidateBookingDate(t *testing.T) {
	svc := &Service{}

	today := time.Now().Format("2006-01-02")
	assert.NoError(t, svc.ValidateBookingDate(today))

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	assert.NoError(t, svc.ValidateBookingDate(tomorrow))

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	assert.ErrorIs(t, svc.ValidateBookingDate(yesterday), ErrPastDate)

	farFuture := time.Now().AddDate(0, 0, MaxBookingDaysAhead+1).Format("2006-01-02")
	assert.ErrorIs(t, svc.ValidateBookingDate(farFuture), ErrTooFarAhead)

	lastAllowed := time.Now().AddDate(0, 0, MaxBookingDaysAhead).Format("2006-01-02")
	assert.NoError(t, svc.ValidateBookingDate(lastAllowed))
}

func TestValidateBookingDateBadFormat(t *testing.T) {
	svc := &Service{}

	for _, value := range []string{"", "завтра", "15.09.2026", "2026-13-40"} {
		err := svc.ValidateBookingDate(value)
		require.Error(t, err, "значение %q", value)

		var validationErr *common.ValidationError
		assert.True(t, errors.As(err, &validationErr), "значение %q: %v", value, err)
	}
}

func TestResolvePull(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		id            uint
		remoteUpdated time.Time
		localExists   bool
		localUpdated  time.Time
		want          pullAction
	}{
		{"строка без числового ID пропускается", 0, base, false, time.Time{}, pullSkip},
		{"неизвестный специалист создаётся", 3, base, false, time.Time{}, pullCreate},
		{"удалённая версия новее — замещает", 3, base.Add(time.Minute), true, base, pullUpdate},
		{"локальная версия новее — остаётся", 3, base, true, base.Add(time.Minute), pullSkip},
		{"одинаковое время — без изменений", 3, base, true, base, pullSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePull(tt.id, tt.remoteUpdated, tt.localExists, tt.localUpdated)
			assert.Equal(t, tt.want, got)
		})
	}
}
