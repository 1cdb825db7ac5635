package properties

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
	"github.com/WillRy/kabanas-api/internal/domain/model"
	"github.com/WillRy/kabanas-api/internal/pkg/validate"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
	"github.com/WillRy/kabanas-api/internal/services/authz"
)

var (
	ErrNotFound   = errors.New("property not found")
	ErrValidation = errors.New("validation error")
)

type PropertyStore interface {
	Create(ctx context.Context, property model.Property) (model.Property, error)
	FindByID(ctx context.Context, propertyID int64) (model.Property, error)
	List(ctx context.Context, sortBy, sortOrder, discountFilter string, page, perPage int) (pgrepo.PropertyPage, error)
	Update(ctx context.Context, property model.Property) error
	SoftDelete(ctx context.Context, propertyID int64) error
	Count(ctx context.Context) (int64, error)
	FutureBookingRanges(ctx context.Context, propertyID int64) ([][2]time.Time, error)
}

type ImageStorage interface {
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Input struct {
	Name         string
	MaxCapacity  int
	RegularPrice float64
	Discount     float64
	Description  string
	Image        string
}

type Service struct {
	store  PropertyStore
	images ImageStorage
	authz  *authz.Checker
	logger *zap.Logger
}

func NewService(store PropertyStore, images ImageStorage, checker *authz.Checker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		images: images,
		authz:  checker,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, userID int64, in Input) (model.Property, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageProperties); err != nil {
		return model.Property{}, err
	}
	if err := validateInput(in); err != nil {
		return model.Property{}, err
	}

	property, err := s.store.Create(ctx, model.Property{
		Name:         in.Name,
		MaxCapacity:  in.MaxCapacity,
		RegularPrice: in.RegularPrice,
		Discount:     in.Discount,
		Description:  in.Description,
		Image:        in.Image,
	})
	if err != nil {
		return model.Property{}, fmt.Errorf("create property: %w", err)
	}

	return property, nil
}

func (s *Service) List(ctx context.Context, userID int64, sortBy, sortOrder, discountFilter string, page int) (pgrepo.PropertyPage, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageProperties); err != nil {
		return pgrepo.PropertyPage{}, err
	}

	result, err := s.store.List(ctx, sortBy, sortOrder, discountFilter, page, 10)
	if err != nil {
		return pgrepo.PropertyPage{}, fmt.Errorf("list properties: %w", err)
	}

	return result, nil
}

func (s *Service) Update(ctx context.Context, userID, propertyID int64, in Input) (model.Property, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageProperties); err != nil {
		return model.Property{}, err
	}
	if err := validateInput(in); err != nil {
		return model.Property{}, err
	}

	current, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPropertyNotFound) {
			return model.Property{}, ErrNotFound
		}
		return model.Property{}, fmt.Errorf("find property: %w", err)
	}

	if in.Image != "" && in.Image != current.Image && current.Image != "" && s.images != nil {
		if err := s.images.Delete(ctx, current.Image); err != nil {
			s.logger.Warn("failed to delete replaced property image", zap.Error(err), zap.String("object_key", current.Image))
		}
	}

	current.Name = in.Name
	current.MaxCapacity = in.MaxCapacity
	current.RegularPrice = in.RegularPrice
	current.Discount = in.Discount
	current.Description = in.Description
	if in.Image != "" {
		current.Image = in.Image
	}

	if err := s.store.Update(ctx, current); err != nil {
		if errors.Is(err, pgrepo.ErrPropertyNotFound) {
			return model.Property{}, ErrNotFound
		}
		return model.Property{}, fmt.Errorf("update property: %w", err)
	}

	return current, nil
}

func (s *Service) Delete(ctx context.Context, userID, propertyID int64) error {
	if err := s.authz.Require(ctx, userID, enums.PermManageProperties); err != nil {
		return err
	}

	property, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPropertyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find property: %w", err)
	}

	if err := s.store.SoftDelete(ctx, propertyID); err != nil {
		if errors.Is(err, pgrepo.ErrPropertyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete property: %w", err)
	}

	if property.Image != "" && s.images != nil {
		if err := s.images.Delete(ctx, property.Image); err != nil {
			s.logger.Warn("failed to delete property image", zap.Error(err), zap.String("object_key", property.Image))
		}
	}

	return nil
}

// ImageURL resolves a stored object key into a short-lived signed URL.
func (s *Service) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" || s.images == nil {
		return "", nil
	}
	return s.images.PresignGet(ctx, key, 0)
}

// UnavailableDates expands future bookings of a property into the set of
// calendar days that cannot be booked, formatted YYYY-MM-DD.
func (s *Service) UnavailableDates(ctx context.Context, propertyID int64) ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("property store is nil")
	}

	ranges, err := s.store.FutureBookingRanges(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("load booking ranges: %w", err)
	}

	seen := make(map[string]struct{})
	var dates []string
	for _, r := range ranges {
		for day := r[0]; !day.After(r[1]); day = day.AddDate(0, 0, 1) {
			formatted := day.Format("2006-01-02")
			if _, ok := seen[formatted]; ok {
				continue
			}
			seen[formatted] = struct{}{}
			dates = append(dates, formatted)
		}
	}

	return dates, nil
}

func validateInput(in Input) error {
	if !validate.Required(in.Name) || in.MaxCapacity <= 0 || in.RegularPrice <= 0 {
		return ErrValidation
	}
	if in.Discount < 0 || in.Discount >= in.RegularPrice {
		return ErrValidation
	}
	return nil
}
