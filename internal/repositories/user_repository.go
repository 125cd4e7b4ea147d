package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"mailauth/internal/models"
)

// ErrDuplicateEmail возвращается при нарушении уникальности email.
var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)

	// verification
	SetVerified(id int64) error
	SetVerificationEmailResult(id int64, sent bool, sendErr string) error

	// otp: SetOTP перезаписывает действующий код, ConsumeOTP гасит его
	// условным UPDATE — читатель-модификатор не гоняется с повторной выдачей.
	SetOTP(id int64, code string, expiresAt time.Time) error
	ConsumeOTP(id int64, code string) (bool, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			name, email, phone, is_verified,
			otp, otp_expires_at,
			google_id, avatar,
			verification_email_sent, verification_email_error
		)
		VALUES ($1,$2,$3,$4,NULL,NULL,$5,$6,FALSE,NULL)
		RETURNING id
	`
	err := r.DB.QueryRow(q,
		user.Name,
		user.Email,
		user.Phone,
		user.IsVerified,
		user.GoogleID,
		user.Avatar,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

const userColumns = `
	id, name, email, phone, is_verified,
	otp, otp_expires_at,
	google_id, avatar,
	verification_email_sent, verification_email_error
`

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		phone     sql.NullString
		otp       sql.NullString
		otpExp    sql.NullTime
		googleID  sql.NullString
		avatar    sql.NullString
		mailSent  sql.NullBool
		mailError sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &phone, &u.IsVerified,
		&otp, &otpExp,
		&googleID, &avatar,
		&mailSent, &mailError,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	if otp.Valid {
		s := otp.String
		u.OTP = &s
	}
	if otpExp.Valid {
		t := otpExp.Time
		u.OTPExpiresAt = &t
	}
	if googleID.Valid {
		s := googleID.String
		u.GoogleID = &s
	}
	if avatar.Valid {
		s := avatar.String
		u.Avatar = &s
	}
	if mailSent.Valid {
		u.VerificationEmailSent = mailSent.Bool
	}
	if mailError.Valid {
		s := mailError.String
		u.VerificationEmailError = &s
	}
	return u, nil
}

func (r *userRepository) GetByID(id int64) (*models.User, error) {
	return r.scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// SetVerified идемпотентен: повторное подтверждение ничего не меняет.
func (r *userRepository) SetVerified(id int64) error {
	_, err := r.DB.Exec(`UPDATE users SET is_verified = TRUE WHERE id = $1`, id)
	return err
}

func (r *userRepository) SetVerificationEmailResult(id int64, sent bool, sendErr string) error {
	var e sql.NullString
	if sendErr != "" {
		e = sql.NullString{String: sendErr, Valid: true}
	}
	_, err := r.DB.Exec(
		`UPDATE users SET verification_email_sent = $1, verification_email_error = $2 WHERE id = $3`,
		sent, e, id,
	)
	return err
}

func (r *userRepository) SetOTP(id int64, code string, expiresAt time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE users SET otp = $1, otp_expires_at = $2 WHERE id = $3`,
		code, expiresAt, id,
	)
	return err
}

// ConsumeOTP очищает пару otp/otp_expires_at, только если код совпал и не истёк.
// false — код уже погашен, перезаписан или просрочен.
func (r *userRepository) ConsumeOTP(id int64, code string) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE users
		 SET otp = NULL, otp_expires_at = NULL
		 WHERE id = $1 AND otp = $2 AND otp_expires_at > NOW()`,
		id, code,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
