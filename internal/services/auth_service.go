package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"mailauth/internal/models"
	"mailauth/internal/repositories"
)

// AuthService — пять пользовательских операций поверх хранилища, токенов,
// OTP-движка, гугл-верификатора и почты. Единственное, что зовёт HTTP-слой.
type AuthService interface {
	Signup(name, email, phone string) error
	VerifyEmail(token string) (*models.User, error)
	RequestOTP(email string) (string, error)
	VerifyOTP(email, otp string) (string, *models.User, error)
	GoogleLogin(ctx context.Context, token string) (string, *models.User, error)

	GetUserByID(id int64) (*models.User, error)
}

type authService struct {
	repo      repositories.UserRepository
	tokens    *TokenService
	otp       *OTPService
	google    *GoogleService
	mailer    EmailService
	serverURL string
}

func NewAuthService(
	repo repositories.UserRepository,
	tokens *TokenService,
	otp *OTPService,
	google *GoogleService,
	mailer EmailService,
	serverURL string,
) AuthService {
	return &authService{
		repo:      repo,
		tokens:    tokens,
		otp:       otp,
		google:    google,
		mailer:    mailer,
		serverURL: serverURL,
	}
}

// normalizeEmail — единая политика регистра: email сравнивается и хранится
// в нижнем регистре, нормализация ровно в одном месте.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup создаёт неподтверждённого пользователя и запускает доставку письма
// со ссылкой подтверждения. Ответ не ждёт доставки: её исход пишется в
// verification_email_sent/verification_email_error фоновой задачей.
func (s *authService) Signup(name, email, phone string) error {
	email = normalizeEmail(email)

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateEmail
	}

	user := &models.User{
		Name:       name,
		Email:      email,
		Phone:      phone,
		IsVerified: false,
	}
	if err := s.repo.Create(user); err != nil {
		// забег с параллельным signup на тот же email
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		return err
	}

	token, err := s.tokens.IssueVerificationToken(email)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/api/auth/verify/%s", s.serverURL, token)

	go s.deliverVerificationEmail(user.ID, email, link)

	return nil
}

// deliverVerificationEmail пишет исход доставки через тот же репозиторий,
// что и синхронный путь. Ошибка доставки не возвращается вызвавшему Signup.
func (s *authService) deliverVerificationEmail(userID int64, email, link string) {
	if err := s.mailer.SendVerificationEmail(email, link); err != nil {
		log.Printf("[auth][signup] verification email failed: user_id=%d err=%v", userID, err)
		if uerr := s.repo.SetVerificationEmailResult(userID, false, err.Error()); uerr != nil {
			log.Printf("[auth][signup] record delivery error failed: user_id=%d err=%v", userID, uerr)
		}
		return
	}
	if uerr := s.repo.SetVerificationEmailResult(userID, true, ""); uerr != nil {
		log.Printf("[auth][signup] record delivery result failed: user_id=%d err=%v", userID, uerr)
	}
}

// VerifyEmail гасит токен подтверждения. Повторное подтверждение уже
// подтверждённого пользователя — успех без записи.
func (s *authService) VerifyEmail(token string) (*models.User, error) {
	email, err := s.tokens.ParseVerificationToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsVerified {
		if err := s.repo.SetVerified(user.ID); err != nil {
			return nil, err
		}
		user.IsVerified = true
	}
	return user, nil
}

// RequestOTP выдаёт код и отправляет его письмом. При ошибке доставки код
// возвращается вместе с ErrOTPDelivery — отдавать ли его клиенту, решает
// хендлер по debug-флагу.
func (s *authService) RequestOTP(email string) (string, error) {
	email = normalizeEmail(email)

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	code, err := s.otp.Issue(user)
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendOTPEmail(email, code); err != nil {
		log.Printf("[auth][otp] delivery failed: user_id=%d err=%v", user.ID, err)
		return code, fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}

	log.Printf("[auth][otp] issued user_id=%d", user.ID)
	return code, nil
}

// VerifyOTP обменивает действующий код на сессионный токен.
func (s *authService) VerifyOTP(email, otp string) (string, *models.User, error) {
	email = normalizeEmail(email)

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		// несуществующий email неотличим от неверного кода
		return "", nil, ErrOTPInvalid
	}

	if err := s.otp.Validate(user, otp); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GoogleLogin проверяет внешний ID-токен и сводит личность с локальным
// аккаунтом. Первый вход с новым email создаёт сразу подтверждённого
// пользователя; существующий аккаунт возвращается как есть, поля федерации
// на него не переносятся.
func (s *authService) GoogleLogin(ctx context.Context, token string) (string, *models.User, error) {
	ident, err := s.google.Verify(ctx, token)
	if err != nil {
		return "", nil, err
	}

	email := normalizeEmail(ident.Email)
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		user = &models.User{
			Name:       ident.Name,
			Email:      email,
			IsVerified: true,
			GoogleID:   &ident.Subject,
		}
		if ident.Picture != "" {
			pic := ident.Picture
			user.Avatar = &pic
		}
		if err := s.repo.Create(user); err != nil {
			if !errors.Is(err, repositories.ErrDuplicateEmail) {
				return "", nil, err
			}
			// параллельный вход успел создать аккаунт — берём его
			if user, err = s.repo.GetByEmail(email); err != nil {
				return "", nil, err
			}
			if user == nil {
				return "", nil, ErrUserNotFound
			}
		}
		log.Printf("[auth][google] created user_id=%d", user.ID)
	}

	session, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return session, user, nil
}

func (s *authService) GetUserByID(id int64) (*models.User, error) {
	return s.repo.GetByID(id)
}
