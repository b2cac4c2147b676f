package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error представляет кастомную ошибку с дополнительной информацией
type Error struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	StatusCode int               `json:"status,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Cause      error             `json:"-"`
}

// ErrorCode представляет код ошибки
type ErrorCode string

// Определение кодов ошибок
const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrUnavailable  ErrorCode = "UNAVAILABLE"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is проверяет, является ли ошибка указанного типа
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

// New создает новую кастомную ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает существующую ошибку в кастомную
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Details = details
	return &cp
}

// WithField добавляет ошибку конкретного поля формы
func (e *Error) WithField(field, message string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Fields = make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[field] = message
	return &cp
}

// FromHTTPStatus создает ошибку по HTTP статусу ответа сервера
func FromHTTPStatus(status int, message string) *Error {
	var code ErrorCode
	switch {
	case status == http.StatusUnauthorized:
		code = ErrUnauthorized
	case status == http.StatusForbidden:
		code = ErrForbidden
	case status == http.StatusNotFound:
		code = ErrNotFound
	case status == http.StatusConflict:
		code = ErrConflict
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		code = ErrUnavailable
	case status >= 400 && status < 500:
		code = ErrValidation
	case status >= 500:
		code = ErrUnavailable
	default:
		code = ErrInternal
	}

	if message == "" {
		message = http.StatusText(status)
	}

	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: status,
	}
}

// HTTPStatus возвращает соответствующий HTTP статус для ошибки
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetUserMessage возвращает пользовательское сообщение об ошибке.
// Для ошибок валидации и конфликтов сообщение сервера показывается как есть.
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}

	switch e.Code {
	case ErrValidation, ErrConflict:
		if e.Message != "" {
			return e.Message
		}
		return "Ошибка валидации данных"
	case ErrNotFound:
		return "Ресурс не найден"
	case ErrUnauthorized:
		return "Сессия истекла, войдите снова"
	case ErrForbidden:
		return "Доступ запрещен"
	case ErrUnavailable:
		return "Сервис временно недоступен, попробуйте позже"
	default:
		return "Произошла ошибка, попробуйте позже"
	}
}

// CodeOf возвращает код ошибки или ErrInternal для чужих ошибок
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// As извлекает *Error из цепочки ошибок
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsUnauthorized сообщает, отклонил ли сервер учетные данные
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrUnauthorized
}

// IsForbidden сообщает о нехватке прав
func IsForbidden(err error) bool {
	return CodeOf(err) == ErrForbidden
}

// IsNotFound сообщает об отсутствии ресурса
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrNotFound
}

// IsValidation сообщает об ошибке валидации
func IsValidation(err error) bool {
	return CodeOf(err) == ErrValidation
}

// IsTransient сообщает о сетевой или серверной ошибке
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrUnavailable, ErrInternal:
		return true
	}
	return false
}

// UserMessage возвращает сообщение для пользователя для любой ошибки
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.GetUserMessage()
	}
	return New(ErrInternal, err.Error()).GetUserMessage()
}
