package sheets

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vitaplus/vitabot/common"
)

// SyncState итоги одного прохода синхронизации.
type SyncState struct {
	ItemsPushed int       `json:"items_pushed"`
	ItemsPulled int       `json:"items_pulled"`
	Errors      []string  `json:"errors,omitempty"`
	LastSynced  time.Time `json:"last_synced"`
}

// PullResult данные, вычитанные из таблицы за один проход.
type PullResult struct {
	Specialists []common.Specialist
	Schedules   []common.Schedule
	DaysOff     []common.DayOff
	Bookings    []common.Booking
	State       SyncState
}

// pushAction решение по одной локальной записи при push-синхронизации.
type pushAction int

const (
	pushSkip pushAction = iota
	pushAdd
	pushUpdate
)

// resolvePush применяет правило «последняя запись побеждает»:
// записи без ID пропускаются, отсутствующие в таблице добавляются,
// более свежая локальная версия замещает удалённую.
func resolvePush(id uint, localUpdated, remoteUpdated time.Time, remoteExists bool) pushAction {
	if id == 0 {
		return pushSkip
	}
	if !remoteExists {
		return pushAdd
	}
	if localUpdated.After(remoteUpdated) {
		return pushUpdate
	}
	return pushSkip
}

// PushChanges выталкивает локальные изменения в таблицу.
// Конфликт решается по правилу «последняя запись побеждает» (updated_at).
// Ошибки по отдельным сущностям копятся в SyncState, проход не прерывается.
func (m *Manager) PushChanges(ctx context.Context, specialists []common.Specialist, bookings []common.Booking) SyncState {
	state := SyncState{}

	remoteSpecialists, err := m.ReadSpecialists(ctx)
	if err != nil {
		log.Printf("Не удалось прочитать специалистов для синхронизации: %v", err)
		state.Errors = append(state.Errors, fmt.Sprintf("Specialist sync failed: %v", err))
		m.LogError(ctx, "sync_error", fmt.Sprintf("Failed to sync specialists: %v", err), "")
	} else {
		m.pushSpecialists(ctx, specialists, remoteSpecialists, &state)
	}

	remoteBookings, err := m.ReadBookings(ctx)
	if err != nil {
		log.Printf("Не удалось прочитать записи для синхронизации: %v", err)
		state.Errors = append(state.Errors, fmt.Sprintf("Booking sync failed: %v", err))
		m.LogError(ctx, "sync_error", fmt.Sprintf("Failed to sync bookings: %v", err), "")
	} else {
		m.pushBookings(ctx, bookings, remoteBookings, &state)
	}

	state.LastSynced = time.Now().UTC()
	log.Printf("Push-синхронизация завершена: отправлено %d элементов, ошибок %d",
		state.ItemsPushed, len(state.Errors))
	return state
}

func (m *Manager) pushSpecialists(ctx context.Context, local, remote []common.Specialist, state *SyncState) {
	remoteByID := make(map[uint]common.Specialist, len(remote))
	for _, s := range remote {
		if s.ID != 0 {
			remoteByID[s.ID] = s
		}
	}

	for i := range local {
		s := &local[i]
		existing, ok := remoteByID[s.ID]
		switch resolvePush(s.ID, s.UpdatedAt, existing.UpdatedAt, ok) {
		case pushAdd:
			if err := m.AddSpecialist(ctx, s); err != nil {
				state.Errors = append(state.Errors, fmt.Sprintf("Failed to add specialist %s: %v", s.Name, err))
				continue
			}
			state.ItemsPushed++
		case pushUpdate:
			if err := m.UpdateSpecialist(ctx, s); err != nil {
				state.Errors = append(state.Errors, fmt.Sprintf("Failed to update specialist %s: %v", s.Name, err))
				continue
			}
			state.ItemsPushed++
		}
	}
}

func (m *Manager) pushBookings(ctx context.Context, local, remote []common.Booking, state *SyncState) {
	remoteByID := make(map[uint]common.Booking, len(remote))
	for _, b := range remote {
		if b.ID != 0 {
			remoteByID[b.ID] = b
		}
	}

	for i := range local {
		b := &local[i]
		existing, ok := remoteByID[b.ID]
		switch resolvePush(b.ID, b.UpdatedAt, existing.UpdatedAt, ok) {
		case pushAdd:
			if err := m.AddBooking(ctx, b); err != nil {
				state.Errors = append(state.Errors, fmt.Sprintf("Failed to add booking for %s: %v", b.ClientName, err))
				continue
			}
			state.ItemsPushed++
		case pushUpdate:
			if err := m.UpdateBooking(ctx, b); err != nil {
				state.Errors = append(state.Errors, fmt.Sprintf("Failed to update booking for %s: %v", b.ClientName, err))
				continue
			}
			state.ItemsPushed++
		}
	}
}

// PullChanges вычитывает актуальные данные из таблицы.
// Частичные сбои не прерывают проход: что удалось прочитать, то и возвращается.
func (m *Manager) PullChanges(ctx context.Context) PullResult {
	result := PullResult{}

	specialists, err := m.ReadSpecialists(ctx)
	if err != nil {
		log.Printf("Не удалось вычитать специалистов: %v", err)
		result.State.Errors = append(result.State.Errors, fmt.Sprintf("Failed to pull specialists: %v", err))
		m.LogError(ctx, "sync_error", fmt.Sprintf("Failed to pull specialists: %v", err), "")
	} else {
		result.Specialists = specialists
		result.State.ItemsPulled += len(specialists)
		log.Printf("Вычитано специалистов из таблицы: %d", len(specialists))
	}

	schedules, err := m.ReadSchedule(ctx)
	if err != nil {
		log.Printf("Не удалось вычитать расписание: %v", err)
		result.State.Errors = append(result.State.Errors, fmt.Sprintf("Failed to pull schedule: %v", err))
	} else {
		result.Schedules = schedules
		result.State.ItemsPulled += len(schedules)
	}

	daysOff, err := m.ReadDaysOff(ctx)
	if err != nil {
		log.Printf("Не удалось вычитать выходные: %v", err)
		result.State.Errors = append(result.State.Errors, fmt.Sprintf("Failed to pull days off: %v", err))
	} else {
		result.DaysOff = daysOff
		result.State.ItemsPulled += len(daysOff)
	}

	bookings, err := m.ReadBookings(ctx)
	if err != nil {
		log.Printf("Не удалось вычитать записи: %v", err)
		result.State.Errors = append(result.State.Errors, fmt.Sprintf("Failed to pull bookings: %v", err))
		m.LogError(ctx, "sync_error", fmt.Sprintf("Failed to pull bookings: %v", err), "")
	} else {
		result.Bookings = bookings
		result.State.ItemsPulled += len(bookings)
		log.Printf("Вычитано записей из таблицы: %d", len(bookings))
	}

	result.State.LastSynced = time.Now().UTC()
	log.Printf("Pull-синхронизация завершена: получено %d элементов", result.State.ItemsPulled)
	return result
}
