package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	verificationTokenTTL = 10 * time.Minute
	sessionTokenTTL      = 7 * 24 * time.Hour
)

// VerificationClaims привязывает токен подтверждения к email.
type VerificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionClaims — клейм сессионного токена.
type SessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService подписывает и проверяет stateless-токены сервиса.
// Секрет задаётся один раз при конструировании, глобального состояния нет.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

func (s *TokenService) IssueVerificationToken(email string) (string, error) {
	claims := &VerificationClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(verificationTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) ParseVerificationToken(raw string) (string, error) {
	claims := &VerificationClaims{}
	if err := s.parse(raw, claims); err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", ErrTokenInvalid
	}
	return claims.Email, nil
}

func (s *TokenService) IssueSessionToken(userID int64) (string, error) {
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) ParseSessionToken(raw string) (int64, error) {
	claims := &SessionClaims{}
	if err := s.parse(raw, claims); err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

func (s *TokenService) parse(raw string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
