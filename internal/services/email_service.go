package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationEmail(email, link string) error
	SendOTPEmail(email, code string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendVerificationEmail(email, link string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Verify your email")

	body := fmt.Sprintf(`
		<h3>Email Verification</h3>
		<p>Thanks for signing up. Please confirm your email address.</p>
		<p><a href="%s">Click here to verify your email</a></p>
		<p>The link is valid for 10 minutes.</p>
	`, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (s *emailService) SendOTPEmail(email, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your login code")

	body := fmt.Sprintf(`
		<h3>One-time passcode</h3>
		<p>Your login code is: <strong>%s</strong></p>
		<p>The code expires in 5 minutes. If you did not request it, ignore this email.</p>
	`, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	return nil
}
