package services

import (
	"sync"
	"time"

	"mailauth/internal/models"
	"mailauth/internal/repositories"
)

// fakeUserRepo — потокобезопасное in-memory хранилище с семантикой
// репозитория: уникальный email, условное гашение OTP, копии наружу.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.OTP != nil {
		s := *u.OTP
		cp.OTP = &s
	}
	if u.OTPExpiresAt != nil {
		t := *u.OTPExpiresAt
		cp.OTPExpiresAt = &t
	}
	return &cp
}

func (f *fakeUserRepo) Create(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUserRepo) GetByID(id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) SetVerified(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

func (f *fakeUserRepo) SetVerificationEmailResult(id int64, sent bool, sendErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.VerificationEmailSent = sent
		u.VerificationEmailError = nil
		if sendErr != "" {
			e := sendErr
			u.VerificationEmailError = &e
		}
	}
	return nil
}

func (f *fakeUserRepo) SetOTP(id int64, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		c := code
		t := expiresAt
		u.OTP = &c
		u.OTPExpiresAt = &t
	}
	return nil
}

func (f *fakeUserRepo) ConsumeOTP(id int64, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.OTP == nil || u.OTPExpiresAt == nil {
		return false, nil
	}
	if *u.OTP != code || time.Now().After(*u.OTPExpiresAt) {
		return false, nil
	}
	u.OTP = nil
	u.OTPExpiresAt = nil
	return true, nil
}
