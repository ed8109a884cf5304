package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда действие разрешено только создателю викторины.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState используется, когда операция недопустима в текущем статусе игры
	// (например, ответ на незапущенную викторину или удаление запущенной).
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrConflict используется для конфликтов состояния (повторный ответ на вопрос,
	// занятое имя участника, коллизия PIN при генерации).
	ErrConflict = errors.New("resource state conflict")

	// ErrTooEarly используется, когда следующий вопрос запрашивают до истечения
	// времени показа предыдущего. Не фатальна: вызывающий может повторить позже.
	ErrTooEarly = errors.New("previous question still running")
)
