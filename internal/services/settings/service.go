package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
	"github.com/WillRy/kabanas-api/internal/domain/model"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
	"github.com/WillRy/kabanas-api/internal/services/authz"
)

var ErrValidation = errors.New("validation error")

type SettingStore interface {
	Get(ctx context.Context) (model.Setting, error)
	Insert(ctx context.Context, setting model.Setting) (model.Setting, error)
	Update(ctx context.Context, setting model.Setting) error
}

type Service struct {
	store SettingStore
	authz *authz.Checker
}

func NewService(store SettingStore, checker *authz.Checker) *Service {
	return &Service{store: store, authz: checker}
}

// Get returns the settings row, seeding the defaults when none exists yet.
func (s *Service) Get(ctx context.Context) (model.Setting, error) {
	if s.store == nil {
		return model.Setting{}, fmt.Errorf("setting store is nil")
	}

	setting, err := s.store.Get(ctx)
	if err == nil {
		return setting, nil
	}
	if !errors.Is(err, pgrepo.ErrSettingNotFound) {
		return model.Setting{}, fmt.Errorf("get settings: %w", err)
	}

	setting, err = s.store.Insert(ctx, model.DefaultSetting())
	if err != nil {
		return model.Setting{}, fmt.Errorf("initialize settings: %w", err)
	}

	return setting, nil
}

func (s *Service) Update(ctx context.Context, userID int64, update model.Setting) (model.Setting, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageSettings); err != nil {
		return model.Setting{}, err
	}

	if update.MinBookingLength <= 0 ||
		update.MaxBookingLength < update.MinBookingLength ||
		update.MaxGuestsPerBooking <= 0 ||
		update.BreakfastPrice < 0 {
		return model.Setting{}, ErrValidation
	}

	current, err := s.Get(ctx)
	if err != nil {
		return model.Setting{}, err
	}

	update.ID = current.ID
	if err := s.store.Update(ctx, update); err != nil {
		return model.Setting{}, fmt.Errorf("update settings: %w", err)
	}

	return update, nil
}
