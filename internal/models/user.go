package models

import "time"

type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	IsVerified bool   `json:"is_verified"`

	// Оба поля либо nil, либо заданы вместе; следит репозиторий.
	OTP          *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	// Заполняются только при создании аккаунта через Google-логин.
	GoogleID *string `json:"google_id,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`

	// Результат последней отправки письма с подтверждением.
	VerificationEmailSent  bool    `json:"-"`
	VerificationEmailError *string `json:"-"`
}

type SignupRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type GoogleLoginRequest struct {
	Token string `json:"token" binding:"required"`
}
