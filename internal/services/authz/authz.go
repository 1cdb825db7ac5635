package authz

import (
	"context"
	"errors"
	"fmt"
)

var ErrPermissionDenied = errors.New("permission denied")

type PermissionStore interface {
	Permissions(ctx context.Context, userID int64) ([]string, error)
}

// Checker answers the single question the policies need: does this user hold
// a given permission.
type Checker struct {
	store PermissionStore
}

func NewChecker(store PermissionStore) *Checker {
	return &Checker{store: store}
}

func (c *Checker) Permissions(ctx context.Context, userID int64) ([]string, error) {
	if c.store == nil {
		return nil, fmt.Errorf("permission store is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	return c.store.Permissions(ctx, userID)
}

func (c *Checker) Has(ctx context.Context, userID int64, permission string) (bool, error) {
	permissions, err := c.Permissions(ctx, userID)
	if err != nil {
		return false, err
	}

	return Contains(permissions, permission), nil
}

// Require returns ErrPermissionDenied when the permission is missing.
func (c *Checker) Require(ctx context.Context, userID int64, permission string) error {
	ok, err := c.Has(ctx, userID, permission)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func Contains(permissions []string, permission string) bool {
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}
