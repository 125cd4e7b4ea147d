package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"mailauth/internal/models"
	"mailauth/internal/repositories"
)

const otpTTL = 5 * time.Minute

// OTPService выдаёт и гасит одноразовые коды. Код хранится парой
// otp/otp_expires_at на пользователе, один активный код на аккаунт.
type OTPService struct {
	repo repositories.UserRepository
}

func NewOTPService(repo repositories.UserRepository) *OTPService {
	return &OTPService{repo: repo}
}

// Generate возвращает равномерно случайный шестизначный код из [100000, 999999].
func (s *OTPService) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("otp generate: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue записывает новый код (перезаписывая действующий) и возвращает его
// открытым текстом для доставки. Отправкой занимается вызывающий.
func (s *OTPService) Issue(user *models.User) (string, error) {
	if !user.IsVerified {
		return "", ErrEmailNotVerified
	}
	code, err := s.Generate()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(otpTTL)
	if err := s.repo.SetOTP(user.ID, code, expiresAt); err != nil {
		return "", err
	}
	user.OTP = &code
	user.OTPExpiresAt = &expiresAt
	return code, nil
}

// Validate гасит код при точном совпадении в пределах окна действия.
// Любая причина отказа (нет кода, не совпал, истёк, проигран забег
// с повторной выдачей) — одна и та же ErrOTPInvalid.
func (s *OTPService) Validate(user *models.User, candidate string) error {
	if user.OTP == nil || user.OTPExpiresAt == nil {
		return ErrOTPInvalid
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(candidate)) != 1 {
		return ErrOTPInvalid
	}
	if time.Now().After(*user.OTPExpiresAt) {
		return ErrOTPInvalid
	}
	ok, err := s.repo.ConsumeOTP(user.ID, candidate)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOTPInvalid
	}
	user.OTP = nil
	user.OTPExpiresAt = nil
	return nil
}
