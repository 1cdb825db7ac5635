package properties

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
	"github.com/WillRy/kabanas-api/internal/domain/model"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
	"github.com/WillRy/kabanas-api/internal/services/authz"
)

type fakePropertyStore struct {
	nextID     int64
	properties map[int64]model.Property
	ranges     map[int64][][2]time.Time
	deleted    []int64
}

func newFakePropertyStore() *fakePropertyStore {
	return &fakePropertyStore{
		properties: make(map[int64]model.Property),
		ranges:     make(map[int64][][2]time.Time),
	}
}

func (s *fakePropertyStore) Create(_ context.Context, property model.Property) (model.Property, error) {
	s.nextID++
	property.ID = s.nextID
	s.properties[property.ID] = property
	return property, nil
}

func (s *fakePropertyStore) FindByID(_ context.Context, propertyID int64) (model.Property, error) {
	property, ok := s.properties[propertyID]
	if !ok {
		return model.Property{}, pgrepo.ErrPropertyNotFound
	}
	return property, nil
}

func (s *fakePropertyStore) List(_ context.Context, _, _, _ string, page, perPage int) (pgrepo.PropertyPage, error) {
	items := make([]model.Property, 0, len(s.properties))
	for _, property := range s.properties {
		items = append(items, property)
	}
	return pgrepo.PropertyPage{Items: items, Total: int64(len(items)), Page: page, PerPage: perPage}, nil
}

func (s *fakePropertyStore) Update(_ context.Context, property model.Property) error {
	if _, ok := s.properties[property.ID]; !ok {
		return pgrepo.ErrPropertyNotFound
	}
	s.properties[property.ID] = property
	return nil
}

func (s *fakePropertyStore) SoftDelete(_ context.Context, propertyID int64) error {
	if _, ok := s.properties[propertyID]; !ok {
		return pgrepo.ErrPropertyNotFound
	}
	delete(s.properties, propertyID)
	s.deleted = append(s.deleted, propertyID)
	return nil
}

func (s *fakePropertyStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.properties)), nil
}

func (s *fakePropertyStore) FutureBookingRanges(_ context.Context, propertyID int64) ([][2]time.Time, error) {
	return s.ranges[propertyID], nil
}

type fakeImageStorage struct {
	deleted []string
}

func (s *fakeImageStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeImageStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

type allowAllPermissions struct{}

func (allowAllPermissions) Permissions(_ context.Context, userID int64) ([]string, error) {
	if userID == 1 {
		return []string{enums.PermManageProperties}, nil
	}
	return nil, nil
}

func newPropertiesFixture() (*Service, *fakePropertyStore, *fakeImageStorage) {
	store := newFakePropertyStore()
	images := &fakeImageStorage{}
	service := NewService(store, images, authz.NewChecker(allowAllPermissions{}), nil)
	return service, store, images
}

func TestCreateValidatesInput(t *testing.T) {
	service, store, _ := newPropertiesFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   Input
	}{
		{"blank name", Input{Name: "  ", MaxCapacity: 2, RegularPrice: 100}},
		{"zero capacity", Input{Name: "Cabin", MaxCapacity: 0, RegularPrice: 100}},
		{"zero price", Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 0}},
		{"negative discount", Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100, Discount: -1}},
		{"discount eats price", Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100, Discount: 100}},
	}
	for _, tc := range cases {
		if _, err := service.Create(ctx, 1, tc.in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: got %v want ErrValidation", tc.name, err)
		}
	}
	if len(store.properties) != 0 {
		t.Fatalf("invalid input persisted")
	}

	property, err := service.Create(ctx, 1, Input{Name: "Cabin", MaxCapacity: 4, RegularPrice: 150, Discount: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if property.ID == 0 {
		t.Fatalf("property id not assigned")
	}
}

func TestCreateRequiresPermission(t *testing.T) {
	service, _, _ := newPropertiesFixture()

	_, err := service.Create(context.Background(), 2, Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100})
	if !errors.Is(err, authz.ErrPermissionDenied) {
		t.Fatalf("got %v want ErrPermissionDenied", err)
	}
}

func TestUpdateReplacingImageDeletesOldObject(t *testing.T) {
	service, _, images := newPropertiesFixture()
	ctx := context.Background()

	property, err := service.Create(ctx, 1, Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100, Image: "old-key.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := service.Update(ctx, 1, property.ID, Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100, Image: "new-key.jpg"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Image != "new-key.jpg" {
		t.Fatalf("image: %q", updated.Image)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "old-key.jpg" {
		t.Fatalf("deleted objects: %v", images.deleted)
	}
}

func TestUpdateWithoutImageKeepsCurrent(t *testing.T) {
	service, _, images := newPropertiesFixture()
	ctx := context.Background()

	property, err := service.Create(ctx, 1, Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100, Image: "keep.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := service.Update(ctx, 1, property.ID, Input{Name: "Bigger cabin", MaxCapacity: 6, RegularPrice: 200})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Image != "keep.jpg" {
		t.Fatalf("image: %q", updated.Image)
	}
	if len(images.deleted) != 0 {
		t.Fatalf("image deleted: %v", images.deleted)
	}
}

func TestUpdateUnknownPropertyNotFound(t *testing.T) {
	service, _, _ := newPropertiesFixture()

	_, err := service.Update(context.Background(), 1, 999, Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}

func TestDeleteRemovesImageObject(t *testing.T) {
	service, store, images := newPropertiesFixture()
	ctx := context.Background()

	property, err := service.Create(ctx, 1, Input{Name: "Cabin", MaxCapacity: 2, RegularPrice: 100, Image: "gone.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.Delete(ctx, 1, property.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("soft deletes: %v", store.deleted)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "gone.jpg" {
		t.Fatalf("deleted objects: %v", images.deleted)
	}
}

func TestUnavailableDatesExpandsAndDeduplicates(t *testing.T) {
	service, store, _ := newPropertiesFixture()

	day := func(d int) time.Time {
		return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
	}
	store.ranges[1] = [][2]time.Time{
		{day(1), day(3)},
		{day(3), day(4)},
	}

	dates, err := service.UnavailableDates(context.Background(), 1)
	if err != nil {
		t.Fatalf("unavailable dates: %v", err)
	}

	want := []string{"2026-10-01", "2026-10-02", "2026-10-03", "2026-10-04"}
	if len(dates) != len(want) {
		t.Fatalf("dates: %v", dates)
	}
	for i, date := range want {
		if dates[i] != date {
			t.Fatalf("dates[%d]: got %q want %q", i, dates[i], date)
		}
	}
}

func TestImageURLPresignsStoredKeys(t *testing.T) {
	service, _, _ := newPropertiesFixture()

	url, err := service.ImageURL(context.Background(), "cabin.jpg")
	if err != nil {
		t.Fatalf("image url: %v", err)
	}
	if url != "https://cdn.example.com/cabin.jpg" {
		t.Fatalf("url: %q", url)
	}

	url, err = service.ImageURL(context.Background(), "")
	if err != nil || url != "" {
		t.Fatalf("empty key: url=%q err=%v", url, err)
	}
}
