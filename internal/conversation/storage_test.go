package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/database"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStorage(database.NewRedisCache(mr.Addr()))
}

func TestLoadUnknownUser(t *testing.T) {
	storage := newTestStorage(t)

	c, err := storage.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestUpdateContextCreatesContext(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	c, err := storage.UpdateContext(ctx, 42, Update{Language: "kz"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, "kz", c.Language)
	assert.Equal(t, StateStart, c.CurrentState)
	assert.NotEmpty(t, c.ContextID)
	assert.Equal(t, DefaultBookingDuration, c.Collected.BookingDuration)
}

func TestContextSurvivesMemoryCacheLoss(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := database.NewRedisCache(mr.Addr())
	storage := NewStorage(cache)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 42, Update{
		Collected: &CollectedInfo{Name: "Айбек", BookingDuration: 60},
	})
	require.NoError(t, err)

	// После потери кэша в памяти контекст восстанавливается из Redis
	storage.ClearAll()
	assert.Equal(t, 0, storage.CacheSize())

	c, err := storage.Load(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Айбек", c.Collected.Name)
}

func TestTransitionValid(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 42, Update{})
	require.NoError(t, err)

	c, err := storage.Transition(ctx, 42, StateWaitingName)
	require.NoError(t, err)
	assert.Equal(t, StateWaitingName, c.CurrentState)
}

func TestTransitionInvalid(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 42, Update{})
	require.NoError(t, err)

	_, err = storage.Transition(ctx, 42, StateWaitingTime)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StateStart, transitionErr.From)
	assert.Equal(t, StateWaitingTime, transitionErr.To)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestTransitionWithoutContext(t *testing.T) {
	storage := newTestStorage(t)

	c, err := storage.Transition(context.Background(), 42, StateWaitingName)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestTransitionToConfirmRequiresCompleteBooking(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 42, Update{})
	require.NoError(t, err)

	walk := []State{StateWaitingName, StateWaitingPhone, StateWaitingDoctorChoice, StateWaitingDate, StateWaitingTime}
	for _, state := range walk {
		_, err = storage.Transition(ctx, 42, state)
		require.NoError(t, err)
	}

	// Без собранных полей подтверждение недоступно
	_, err = storage.Transition(ctx, 42, StateConfirmBooking)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Contains(t, transitionErr.Reason, "name")

	_, err = storage.UpdateContext(ctx, 42, Update{Collected: &CollectedInfo{
		Name:        "Айбек",
		Phone:       "+77011234567",
		DoctorID:    1,
		BookingDate: "2026-09-15",
		BookingTime: "10:00",
	}})
	require.NoError(t, err)

	c, err := storage.Transition(ctx, 42, StateConfirmBooking)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmBooking, c.CurrentState)

	c, err = storage.Transition(ctx, 42, StateDone)
	require.NoError(t, err)
	assert.Equal(t, StateDone, c.CurrentState)
}

func TestDoneOnlyFromConfirm(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 42, Update{})
	require.NoError(t, err)

	_, err = storage.Transition(ctx, 42, StateDone)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "booking not confirmed", transitionErr.Reason)
}

func TestSuccessfulTransitionClearsError(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	errMsg := "что-то пошло не так"
	_, err := storage.UpdateContext(ctx, 42, Update{ErrorMessage: &errMsg})
	require.NoError(t, err)

	c, err := storage.Transition(ctx, 42, StateWaitingName)
	require.NoError(t, err)
	assert.Empty(t, c.ErrorMessage)
}

func TestClear(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 42, Update{})
	require.NoError(t, err)
	require.NoError(t, storage.Clear(ctx, 42))

	c, err := storage.Load(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCleanupExpired(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.UpdateContext(ctx, 1, Update{})
	require.NoError(t, err)
	_, err = storage.UpdateContext(ctx, 2, Update{})
	require.NoError(t, err)

	storage.SetMaxAge(time.Nanosecond)
	time.Sleep(time.Millisecond)

	removed := storage.CleanupExpired(ctx)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, storage.CacheSize())
}

func TestConcurrentUpdates(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := storage.UpdateContext(ctx, userID, Update{Language: "ru"})
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 20, storage.CacheSize())
}

func TestContextJSONRoundTrip(t *testing.T) {
	c := NewContext(42)
	c.Collected.Name = "Айбек"
	c.CurrentState = StateWaitingPhone

	data, err := c.ToJSON()
	require.NoError(t, err)

	restored, err := ContextFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, c.ContextID, restored.ContextID)
	assert.Equal(t, StateWaitingPhone, restored.CurrentState)
	assert.Equal(t, "Айбек", restored.Collected.Name)
}

func TestMissingBookingFields(t *testing.T) {
	c := NewContext(42)
	assert.Len(t, c.MissingBookingFields(), 5)

	c.Collected.Name = "Айбек"
	c.Collected.Phone = "+77011234567"
	assert.Equal(t, []string{"doctor_id", "booking_date", "booking_time"}, c.MissingBookingFields())
}

func TestAllowedTransitions(t *testing.T) {
	assert.ElementsMatch(t,
		[]State{StateWaitingName, StateAdminMenu, StateErrorFallback},
		AllowedTransitions(StateStart))
	assert.ElementsMatch(t,
		[]State{StateDone, StateWaitingDate, StateErrorFallback},
		AllowedTransitions(StateConfirmBooking))
	assert.Empty(t, AllowedTransitions(State("NO_SUCH_STATE")))

	// Возвращается копия: изменение результата не трогает таблицу
	allowed := AllowedTransitions(StateStart)
	allowed[0] = StateDone
	assert.Contains(t, AllowedTransitions(StateStart), StateWaitingName)
}
