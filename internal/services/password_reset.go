package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/render"
)

const (
	otpDigits   = 6
	otpValidFor = 10 * time.Minute
)

// PasswordResetService lets a user who forgot their password set a new one
// with a six digit code mailed to their address.
type PasswordResetService interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type passwordResetService struct {
	log    *logger.Logger
	users  repos.UserRepo
	mailer Mailer
	now    func() time.Time
}

func NewPasswordResetService(log *logger.Logger, users repos.UserRepo, mailer Mailer) PasswordResetService {
	return &passwordResetService{
		log:    log.With("service", "PasswordResetService"),
		users:  users,
		mailer: mailer,
		now:    time.Now,
	}
}

func (s *passwordResetService) SendOTP(ctx context.Context, email string) error {
	const op = "auth.send_otp"
	u, err := s.userByEmail(ctx, op, email)
	if err != nil {
		return err
	}
	code, err := newOTP()
	if err != nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "generate code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "hash code", err)
	}
	expiry := s.now().Add(otpValidFor).UTC()
	if err := s.users.SetResetOTP(ctx, nil, u.ID, string(hash), &expiry); err != nil {
		return dataagg.MapError(op, err)
	}
	body, err := render.HTML(render.TemplateMailOTP, render.OTPView{
		Name:         strings.TrimSpace(u.FirstName),
		Code:         code,
		ValidMinutes: int(otpValidFor / time.Minute),
	})
	if err != nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "render mail body", err)
	}
	if err := s.mailer.Send(ctx, Mail{
		Kind:    "otp",
		Private: true,
		To:      []string{u.Email},
		Subject: "ATL - Password Reset OTP",
		HTML:    body,
	}); err != nil {
		return domainagg.Dependency(op, err)
	}
	s.log.Info("password reset code sent", "user_id", u.ID)
	return nil
}

func (s *passwordResetService) VerifyOTP(ctx context.Context, email, code string) error {
	const op = "auth.verify_otp"
	_, err := s.checkOTP(ctx, op, email, code)
	return err
}

func (s *passwordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "auth.update_password"
	if len(newPassword) < 6 {
		return domainagg.Validation(op, "password must be at least 6 characters")
	}
	u, err := s.checkOTP(ctx, op, email, code)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "hash password", err)
	}
	if err := s.users.ResetPassword(ctx, nil, u.ID, string(hash)); err != nil {
		return dataagg.MapError(op, err)
	}
	s.log.Info("password reset", "user_id", u.ID)
	return nil
}

// checkOTP returns the user whose pending code matches and has not expired.
func (s *passwordResetService) checkOTP(ctx context.Context, op, email, code string) (*types.User, error) {
	code = strings.TrimSpace(code)
	if strings.TrimSpace(email) == "" || code == "" {
		return nil, domainagg.Validation(op, "email and otp are required")
	}
	u, err := s.userByEmail(ctx, op, email)
	if err != nil {
		return nil, err
	}
	if u.ResetOTPHash == "" || u.ResetOTPExpiry == nil || !s.now().Before(*u.ResetOTPExpiry) {
		return nil, domainagg.Validation(op, "invalid or expired otp")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.ResetOTPHash), []byte(code)) != nil {
		return nil, domainagg.Validation(op, "invalid or expired otp")
	}
	return u, nil
}

func (s *passwordResetService) userByEmail(ctx context.Context, op, email string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domainagg.Validation(op, "email is required")
	}
	u, err := s.users.GetByEmail(ctx, nil, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainagg.NotFound(op, "no user with email %s", email)
	}
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return u, nil
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
