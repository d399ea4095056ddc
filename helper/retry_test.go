package helper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test", 3, time.Millisecond, 5*time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("still broken")
	err := Retry(context.Background(), "test", 3, time.Millisecond, 5*time.Millisecond, func() error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetryPermanentShortCircuits(t *testing.T) {
	calls := 0
	inner := errors.New("not found")
	err := Retry(context.Background(), "test", 5, time.Millisecond, 5*time.Millisecond, func() error {
		calls++
		return Permanent(inner)
	})
	// исходная ошибка возвращается без обёртки и без повторов
	assert.Equal(t, inner, err)
	assert.Equal(t, 1, calls)
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, "test", 3, 10*time.Millisecond, time.Second, func() error {
		return errors.New("temporary")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
