package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"

	"github.com/WillRy/kabanas-api/internal/domain/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOtp         = errors.New("invalid or expired otp")
	ErrWeakPassword       = errors.New("password is too weak")
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, userID int64) (model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateProfile(ctx context.Context, userID int64, name, avatar string) error
}

type OtpStore interface {
	Create(ctx context.Context, userID int64, code, otpType string, expiresAt time.Time) (pgrepo.OtpRecord, error)
	FindActive(ctx context.Context, userID int64, code, otpType string) (pgrepo.OtpRecord, error)
	MarkUsed(ctx context.Context, otpID int64) error
	DeleteSiblings(ctx context.Context, userID, keepOtpID int64, otpType string) error
}

// Mailer abstracts message delivery. Actual delivery is out of scope; the
// default implementation just logs.
type Mailer interface {
	SendPasswordResetOtp(ctx context.Context, to, code string) error
}

type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) SendPasswordResetOtp(_ context.Context, to, code string) error {
	if m.Logger != nil {
		m.Logger.Info("password reset otp issued", zap.String("to", to), zap.String("code", code))
	}
	return nil
}

type Service struct {
	store       UserStore
	otps        OtpStore
	mailer      Mailer
	otpValidity time.Duration
	now         func() time.Time
}

func NewService(store UserStore, otps OtpStore, mailer Mailer, otpValidity time.Duration) *Service {
	if otpValidity <= 0 {
		otpValidity = 15 * time.Minute
	}
	if mailer == nil {
		mailer = LogMailer{}
	}

	return &Service{
		store:       store,
		otps:        otps,
		mailer:      mailer,
		otpValidity: otpValidity,
		now:         time.Now,
	}
}

// VerifyPassword is the credential store contract consumed by the login
// endpoint. Any failure collapses into ErrInvalidCredentials.
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, avatar string) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	if err := s.store.UpdateProfile(ctx, userID, name, avatar); err != nil {
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}

	return s.GetByID(ctx, userID)
}

// StartPasswordReset generates an OTP and hands it to the mailer.
func (s *Service) StartPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user by email: %w", err)
	}

	code, err := newOtpCode()
	if err != nil {
		return fmt.Errorf("generate otp code: %w", err)
	}

	otp, err := s.otps.Create(ctx, user.ID, code, pgrepo.OtpTypePasswordReset, s.now().Add(s.otpValidity))
	if err != nil {
		return fmt.Errorf("create otp: %w", err)
	}

	if err := s.mailer.SendPasswordResetOtp(ctx, user.Email, otp.Code); err != nil {
		return fmt.Errorf("send password reset otp: %w", err)
	}

	return nil
}

// ResetPasswordWithOtp consumes a valid OTP, rehashes the password and drops
// the user's remaining reset OTPs.
func (s *Service) ResetPasswordWithOtp(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user by email: %w", err)
	}

	otp, err := s.otps.FindActive(ctx, user.ID, strings.TrimSpace(code), pgrepo.OtpTypePasswordReset)
	if err != nil {
		if errors.Is(err, pgrepo.ErrOtpNotFound) {
			return ErrInvalidOtp
		}
		return fmt.Errorf("find active otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.otps.MarkUsed(ctx, otp.ID); err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	if err := s.otps.DeleteSiblings(ctx, user.ID, otp.ID, pgrepo.OtpTypePasswordReset); err != nil {
		return fmt.Errorf("delete sibling otps: %w", err)
	}

	return nil
}

func newOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
