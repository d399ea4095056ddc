package helper

import (
	"context"
	"errors"
	"log"
	"time"
)

const (
	DefaultRetryAttempts = 3
	DefaultRetryMinDelay = 2 * time.Second
	DefaultRetryMaxDelay = 10 * time.Second
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неустранимую: Retry вернёт её сразу, без повторов.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry выполняет fn до maxAttempts раз с экспоненциальной задержкой
// между попытками (minDelay, потом удвоение до maxDelay).
// Возвращает ошибку последней попытки.
func Retry(ctx context.Context, name string, maxAttempts int, minDelay, maxDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := minDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt == maxAttempts {
			break
		}

		log.Printf("%s: attempt %d/%d failed: %v, retrying in %s", name, attempt, maxAttempts, lastErr, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	log.Printf("%s: failed after %d attempts: %v", name, maxAttempts, lastErr)
	return lastErr
}
