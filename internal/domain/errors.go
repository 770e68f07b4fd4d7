package domain

import "errors"

var (
	// ErrNotFound возвращается когда запись не найдена
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized возвращается при ошибке авторизации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownStrategy возвращается для незарегистрированного имени стратегии
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrKillSwitchActive возвращается когда отправка ордеров остановлена
	ErrKillSwitchActive = errors.New("kill switch active")

	// ErrPolicyViolation возвращается когда заявка нарушает лимиты риск-профиля
	ErrPolicyViolation = errors.New("policy violation")

	// ErrGateway возвращается при ненулевом коде ответа брокера
	ErrGateway = errors.New("gateway error")

	// ErrMalformedField возвращается при разборе числового поля брокера
	ErrMalformedField = errors.New("malformed field")

	// ErrDatabaseConnection возвращается при ошибке подключения к БД
	ErrDatabaseConnection = errors.New("database connection error")
)
