package guests

import (
	"context"
	"errors"
	"fmt"

	"github.com/WillRy/kabanas-api/internal/domain/model"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
)

var ErrGuestNotFound = errors.New("guest not found")

type GuestStore interface {
	FindByUserID(ctx context.Context, userID int64) (model.Guest, error)
	Autocomplete(ctx context.Context, search string) ([]model.Guest, error)
}

type Service struct {
	store GuestStore
}

func NewService(store GuestStore) *Service {
	return &Service{store: store}
}

func (s *Service) Autocomplete(ctx context.Context, search string) ([]model.Guest, error) {
	if s.store == nil {
		return nil, fmt.Errorf("guest store is nil")
	}

	guests, err := s.store.Autocomplete(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("autocomplete guests: %w", err)
	}

	return guests, nil
}

func (s *Service) ProfileForUser(ctx context.Context, userID int64) (model.Guest, error) {
	if s.store == nil {
		return model.Guest{}, fmt.Errorf("guest store is nil")
	}

	guest, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrGuestNotFound) {
			return model.Guest{}, ErrGuestNotFound
		}
		return model.Guest{}, fmt.Errorf("find guest profile: %w", err)
	}

	return guest, nil
}
