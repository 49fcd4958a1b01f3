package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError — типизированная ошибка уровня приложения. Каждый шаг
// валидации возвращает её явно, поэтому обработчикам не приходится
// угадывать класс ошибки по тексту.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation — ошибка некорректного ввода, всегда 400.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// NotFound — сущность с корректным идентификатором отсутствует, 404.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// Internal оборачивает неожиданную ошибку хранилища, 500.
// Клиент видит обобщённое сообщение, причина остаётся в Cause для логов.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternal, "internal server error")
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// HTTPStatusOf возвращает HTTP статус для ошибки; неизвестные ошибки
// считаются внутренними.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// MessageOf возвращает сообщение, пригодное для клиента.
// Для внутренних и неизвестных ошибок причина не раскрывается.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

var (
	ErrReportNotFound = New(ErrCodeNotFound, "report not found")
	ErrMediaNotFound  = New(ErrCodeNotFound, "file not found")
	ErrUserNotFound   = New(ErrCodeNotFound, "user not found")
	ErrUnauthorized   = New(ErrCodeUnauthorized, "could not validate credentials")
	ErrRateLimited    = New(ErrCodeRateLimited, "too many attempts, try again later")
)
