package services

import "errors"

// Доменные ошибки. Хендлеры сверяются через errors.Is и мапят в HTTP-статусы.
var (
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailNotVerified = errors.New("email not verified")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	ErrOTPInvalid  = errors.New("invalid or expired OTP")
	ErrOTPDelivery = errors.New("OTP delivery failed")

	// Ошибки проверки внешнего (Google) токена.
	ErrAudienceMismatch = errors.New("token audience mismatch")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrMissingEmail     = errors.New("identity has no email")
)
