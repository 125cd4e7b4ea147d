package services

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"mailauth/internal/models"
)

func seedUser(t *testing.T, repo *fakeUserRepo, email string, verified bool) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, IsVerified: verified}
	if err := repo.Create(u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if verified {
		if err := repo.SetVerified(u.ID); err != nil {
			t.Fatalf("seed verify: %v", err)
		}
	}
	return u
}

func TestGenerate_SixDigitRange(t *testing.T) {
	t.Parallel()

	svc := NewOTPService(newFakeUserRepo())
	for i := 0; i < 200; i++ {
		code, err := svc.Generate()
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of [100000, 999999]", n)
		}
	}
}

func TestIssue_RequiresVerifiedUser(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", false)

	if _, err := svc.Issue(user); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestIssue_SetsPairAndReturnsCode(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	code, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	stored, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.OTP == nil || stored.OTPExpiresAt == nil {
		t.Fatalf("otp pair not set in store")
	}
	if *stored.OTP != code {
		t.Fatalf("stored code %q != returned %q", *stored.OTP, code)
	}
	if until := time.Until(*stored.OTPExpiresAt); until <= 0 || until > otpTTL {
		t.Fatalf("expiry out of window: %v", until)
	}
}

func TestValidate_Success_ClearsPair(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	code, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.Validate(user, code); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if user.OTP != nil || user.OTPExpiresAt != nil {
		t.Fatalf("pair not cleared on struct")
	}
	stored, _ := repo.GetByID(user.ID)
	if stored.OTP != nil || stored.OTPExpiresAt != nil {
		t.Fatalf("pair not cleared in store")
	}
}

func TestValidate_SecondAttemptRejected(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	code, _ := svc.Issue(user)
	if err := svc.Validate(user, code); err != nil {
		t.Fatalf("first Validate: %v", err)
	}

	fresh, _ := repo.GetByID(user.ID)
	if err := svc.Validate(fresh, code); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid on reuse, got %v", err)
	}
}

func TestValidate_NoCodeSet(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	if err := svc.Validate(user, "123456"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}
}

func TestValidate_Mismatch(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	code, _ := svc.Issue(user)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := svc.Validate(user, wrong); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}
	// неверная попытка не гасит действующий код
	stored, _ := repo.GetByID(user.ID)
	if stored.OTP == nil {
		t.Fatalf("valid code was cleared by a failed attempt")
	}
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	code := "654321"
	past := time.Now().Add(-time.Second)
	if err := repo.SetOTP(user.ID, code, past); err != nil {
		t.Fatalf("SetOTP: %v", err)
	}
	user.OTP = &code
	user.OTPExpiresAt = &past

	if err := svc.Validate(user, code); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for expired code, got %v", err)
	}
}

func TestIssue_OverwritesPreviousCode(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewOTPService(repo)
	user := seedUser(t, repo, "u@x.com", true)

	first, _ := svc.Issue(user)
	fresh, _ := repo.GetByID(user.ID)
	second, err := svc.Issue(fresh)
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	// старый код больше не действует, даже если совпал с новым по времени
	current, _ := repo.GetByID(user.ID)
	if first != second {
		if err := svc.Validate(current, first); !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("expected old code rejected, got %v", err)
		}
	}
	current, _ = repo.GetByID(user.ID)
	if err := svc.Validate(current, second); err != nil {
		t.Fatalf("new code should validate: %v", err)
	}
}
