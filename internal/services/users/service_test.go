package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/WillRy/kabanas-api/internal/domain/model"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
)

type fakeUserStore struct {
	users     map[string]model.User
	passwords map[int64]string
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	user, ok := s.users[email]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, userID int64) (model.User, error) {
	for _, user := range s.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return model.User{}, pgrepo.ErrUserNotFound
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	if s.passwords == nil {
		s.passwords = make(map[int64]string)
	}
	s.passwords[userID] = passwordHash
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, userID int64, name, avatar string) error {
	for email, user := range s.users {
		if user.ID == userID {
			user.Name = name
			user.Avatar = avatar
			s.users[email] = user
		}
	}
	return nil
}

type fakeOtpStore struct {
	nextID  int64
	records map[int64]*pgrepo.OtpRecord
	dropped []int64
}

func newFakeOtpStore() *fakeOtpStore {
	return &fakeOtpStore{records: make(map[int64]*pgrepo.OtpRecord)}
}

func (s *fakeOtpStore) Create(_ context.Context, userID int64, code, otpType string, expiresAt time.Time) (pgrepo.OtpRecord, error) {
	s.nextID++
	record := &pgrepo.OtpRecord{ID: s.nextID, UserID: userID, Code: code, Type: otpType, ExpiresAt: expiresAt}
	s.records[record.ID] = record
	return *record, nil
}

func (s *fakeOtpStore) FindActive(_ context.Context, userID int64, code, otpType string) (pgrepo.OtpRecord, error) {
	for _, record := range s.records {
		if record.UserID == userID && record.Code == code && record.Type == otpType &&
			record.UsedAt == nil && record.ExpiresAt.After(time.Now()) {
			return *record, nil
		}
	}
	return pgrepo.OtpRecord{}, pgrepo.ErrOtpNotFound
}

func (s *fakeOtpStore) MarkUsed(_ context.Context, otpID int64) error {
	if record, ok := s.records[otpID]; ok {
		now := time.Now()
		record.UsedAt = &now
	}
	return nil
}

func (s *fakeOtpStore) DeleteSiblings(_ context.Context, userID, keepOtpID int64, otpType string) error {
	for id, record := range s.records {
		if record.UserID == userID && record.Type == otpType && id != keepOtpID {
			delete(s.records, id)
			s.dropped = append(s.dropped, id)
		}
	}
	return nil
}

type captureMailer struct {
	to   string
	code string
}

func (m *captureMailer) SendPasswordResetOtp(_ context.Context, to, code string) error {
	m.to = to
	m.code = code
	return nil
}

func newUsersFixture(t *testing.T) (*Service, *fakeUserStore, *fakeOtpStore, *captureMailer) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := &fakeUserStore{users: map[string]model.User{
		"user@example.com": {ID: 5, Name: "User", Email: "user@example.com", PasswordHash: string(hash)},
	}}
	otps := newFakeOtpStore()
	mailer := &captureMailer{}

	return NewService(store, otps, mailer, 15*time.Minute), store, otps, mailer
}

func TestVerifyPasswordNormalizesEmail(t *testing.T) {
	service, _, _, _ := newUsersFixture(t)

	user, err := service.VerifyPassword(context.Background(), "  USER@Example.COM ", "correct horse")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.ID != 5 {
		t.Fatalf("user id: %d", user.ID)
	}
}

func TestVerifyPasswordCollapsesFailures(t *testing.T) {
	service, _, _, _ := newUsersFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "user@example.com", "nope"},
		{"unknown user", "ghost@example.com", "correct horse"},
		{"empty password", "user@example.com", ""},
	}
	for _, tc := range cases {
		if _, err := service.VerifyPassword(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: got %v want ErrInvalidCredentials", tc.name, err)
		}
	}
}

func TestStartPasswordResetMailsOtp(t *testing.T) {
	service, _, otps, mailer := newUsersFixture(t)

	if err := service.StartPasswordReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("start reset: %v", err)
	}
	if mailer.to != "user@example.com" {
		t.Fatalf("mail recipient: %q", mailer.to)
	}
	if len(mailer.code) != 6 {
		t.Fatalf("otp code: %q", mailer.code)
	}
	if len(otps.records) != 1 {
		t.Fatalf("otp rows: %d", len(otps.records))
	}
}

func TestStartPasswordResetUnknownEmail(t *testing.T) {
	service, _, _, _ := newUsersFixture(t)

	if err := service.StartPasswordReset(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v want ErrUserNotFound", err)
	}
}

func TestResetPasswordWithOtpRotatesCredentials(t *testing.T) {
	service, store, otps, mailer := newUsersFixture(t)
	ctx := context.Background()

	if err := service.StartPasswordReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("start reset: %v", err)
	}
	// A second request leaves a sibling that must be swept on success.
	if err := service.StartPasswordReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("second start reset: %v", err)
	}

	if err := service.ResetPasswordWithOtp(ctx, "user@example.com", mailer.code, "brand new password"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	hash, ok := store.passwords[5]
	if !ok {
		t.Fatalf("password not updated")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("brand new password")) != nil {
		t.Fatalf("new password does not match stored hash")
	}
	if len(otps.dropped) != 1 {
		t.Fatalf("sibling otps dropped: %d", len(otps.dropped))
	}

	// The consumed code cannot be replayed.
	if err := service.ResetPasswordWithOtp(ctx, "user@example.com", mailer.code, "another password"); !errors.Is(err, ErrInvalidOtp) {
		t.Fatalf("replay: got %v want ErrInvalidOtp", err)
	}
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	service, _, _, _ := newUsersFixture(t)

	if err := service.ResetPasswordWithOtp(context.Background(), "user@example.com", "123456", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("got %v want ErrWeakPassword", err)
	}
}

func TestResetPasswordRejectsBadCode(t *testing.T) {
	service, _, _, _ := newUsersFixture(t)

	if err := service.ResetPasswordWithOtp(context.Background(), "user@example.com", "000000", "brand new password"); !errors.Is(err, ErrInvalidOtp) {
		t.Fatalf("got %v want ErrInvalidOtp", err)
	}
}
