package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
	"github.com/WillRy/kabanas-api/internal/domain/model"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
	"github.com/WillRy/kabanas-api/internal/services/authz"
)

type fakeSettingStore struct {
	setting *model.Setting
}

func (s *fakeSettingStore) Get(_ context.Context) (model.Setting, error) {
	if s.setting == nil {
		return model.Setting{}, pgrepo.ErrSettingNotFound
	}
	return *s.setting, nil
}

func (s *fakeSettingStore) Insert(_ context.Context, setting model.Setting) (model.Setting, error) {
	setting.ID = 1
	s.setting = &setting
	return setting, nil
}

func (s *fakeSettingStore) Update(_ context.Context, setting model.Setting) error {
	if s.setting == nil {
		return pgrepo.ErrSettingNotFound
	}
	s.setting = &setting
	return nil
}

type managerPermissions struct{}

func (managerPermissions) Permissions(_ context.Context, userID int64) ([]string, error) {
	if userID == 1 {
		return []string{enums.PermManageSettings}, nil
	}
	return nil, nil
}

func newSettingsFixture() (*Service, *fakeSettingStore) {
	store := &fakeSettingStore{}
	return NewService(store, authz.NewChecker(managerPermissions{})), store
}

func TestGetSeedsDefaultsOnFirstRead(t *testing.T) {
	service, store := newSettingsFixture()

	setting, err := service.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := model.DefaultSetting()
	if setting.MinBookingLength != want.MinBookingLength ||
		setting.MaxBookingLength != want.MaxBookingLength ||
		setting.MaxGuestsPerBooking != want.MaxGuestsPerBooking ||
		setting.BreakfastPrice != want.BreakfastPrice {
		t.Fatalf("seeded setting: %+v", setting)
	}
	if store.setting == nil {
		t.Fatalf("defaults not persisted")
	}
}

func TestUpdatePersistsNewValues(t *testing.T) {
	service, store := newSettingsFixture()

	updated, err := service.Update(context.Background(), 1, model.Setting{
		MinBookingLength:    2,
		MaxBookingLength:    14,
		MaxGuestsPerBooking: 8,
		BreakfastPrice:      12.50,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.MaxBookingLength != 14 || store.setting.BreakfastPrice != 12.50 {
		t.Fatalf("updated setting: %+v", updated)
	}
}

func TestUpdateValidatesRanges(t *testing.T) {
	service, _ := newSettingsFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   model.Setting
	}{
		{"zero min", model.Setting{MinBookingLength: 0, MaxBookingLength: 10, MaxGuestsPerBooking: 4}},
		{"max below min", model.Setting{MinBookingLength: 5, MaxBookingLength: 3, MaxGuestsPerBooking: 4}},
		{"zero guests", model.Setting{MinBookingLength: 1, MaxBookingLength: 10, MaxGuestsPerBooking: 0}},
		{"negative breakfast", model.Setting{MinBookingLength: 1, MaxBookingLength: 10, MaxGuestsPerBooking: 4, BreakfastPrice: -1}},
	}
	for _, tc := range cases {
		if _, err := service.Update(ctx, 1, tc.in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: got %v want ErrValidation", tc.name, err)
		}
	}
}

func TestUpdateRequiresPermission(t *testing.T) {
	service, _ := newSettingsFixture()

	_, err := service.Update(context.Background(), 2, model.DefaultSetting())
	if !errors.Is(err, authz.ErrPermissionDenied) {
		t.Fatalf("got %v want ErrPermissionDenied", err)
	}
}
