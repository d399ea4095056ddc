package common

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ExternalServiceError возвращается, когда внешний сервис недоступен
// после исчерпания повторных попыток.
type ExternalServiceError struct {
	Service string
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func NewExternalServiceError(service, message string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Message: message, Err: err}
}

// ValidationError ошибка валидации пользовательского ввода.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s (%s)", e.Message, e.Field)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ManualInterventionError сигнализирует, что автоматическая обработка не
// удалась и требуется ручное вмешательство администратора.
type ManualInterventionError struct {
	Message string
	Context map[string]string
}

func (e *ManualInterventionError) Error() string {
	return e.Message
}
