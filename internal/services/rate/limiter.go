package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const loginWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles login attempts per email over a fixed window.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

// AllowLogin reports whether another attempt is allowed and, when it is not,
// how many seconds the caller should wait.
func (l *Limiter) AllowLogin(ctx context.Context, email string) (int64, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, false, fmt.Errorf("email is required")
	}
	if l.store == nil || l.perMinute == 0 {
		return 0, true, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, loginKey(email), loginWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func loginKey(email string) string {
	return "rate:login:" + email
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
