package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
)

// stubTokenStore holds just enough state for Login and Validate. The rotation
// paths have their own tests next to the auth service.
type stubTokenStore struct {
	nextID int64
	access map[string]authsvc.AccessTokenRecord
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{access: make(map[string]authsvc.AccessTokenRecord)}
}

func (s *stubTokenStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *stubTokenStore) CreateSession(_ context.Context, userID int64) (authsvc.SessionRecord, error) {
	return authsvc.SessionRecord{ID: s.id(), UserID: userID, CreatedAt: time.Now()}, nil
}

func (s *stubTokenStore) InsertRefreshToken(_ context.Context, _, _ int64, _ string, _ time.Time, _ *int64) (int64, error) {
	return s.id(), nil
}

func (s *stubTokenStore) InsertAccessToken(_ context.Context, sessionID, userID int64, token string, expiresAt time.Time, refreshID int64) error {
	s.access[token] = authsvc.AccessTokenRecord{
		ID:        s.id(),
		SessionID: sessionID,
		UserID:    userID,
		RefreshID: refreshID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (s *stubTokenStore) FindRefreshToken(_ context.Context, _ string) (authsvc.RefreshTokenRecord, error) {
	return authsvc.RefreshTokenRecord{}, authsvc.ErrRefreshNotFound
}

func (s *stubTokenStore) FindAccessToken(_ context.Context, token string) (authsvc.AccessTokenRecord, error) {
	record, ok := s.access[token]
	if !ok {
		return authsvc.AccessTokenRecord{}, authsvc.ErrAccessTokenNotFound
	}
	record.Expired = record.ExpiresAt.Before(time.Now())
	return record, nil
}

func (s *stubTokenStore) FindLatestUnexpiredChild(_ context.Context, _ int64) (authsvc.RefreshTokenRecord, error) {
	return authsvc.RefreshTokenRecord{}, authsvc.ErrRefreshNotFound
}

func (s *stubTokenStore) MarkRefreshUsed(_ context.Context, _ int64, _ time.Duration) error {
	return nil
}

func (s *stubTokenStore) DeleteSession(_ context.Context, sessionID int64) error {
	for token, record := range s.access {
		if record.SessionID == sessionID {
			delete(s.access, token)
		}
	}
	return nil
}

func (s *stubTokenStore) DeleteExpired(_ context.Context) error { return nil }

func (s *stubTokenStore) DeleteOrphanSessions(_ context.Context) error { return nil }

func newMiddlewareFixture(t *testing.T) (*authsvc.Service, http.Handler, *authsvc.Identity) {
	t.Helper()

	store := newStubTokenStore()
	jwtManager := authsvc.NewJWTManager("middleware-secret", "http://localhost", time.Hour)
	service := authsvc.NewService(jwtManager, store, 7*time.Hour, 30*time.Second)

	var seen authsvc.Identity
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing from request context")
		}
		seen = identity
		w.WriteHeader(http.StatusOK)
	})

	return service, AuthMiddleware(service, nil)(probe), &seen
}

func loginTokens(t *testing.T, service *authsvc.Service, userID int64) authsvc.AuthResult {
	t.Helper()

	result, err := service.Login(context.Background(), userID)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return result
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	service, handler, seen := newMiddlewareFixture(t)
	result := loginTokens(t, service, 42)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+result.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if seen.UserID != 42 || seen.SessionID != result.Session.ID {
		t.Fatalf("identity: %+v", *seen)
	}
}

func TestAuthMiddlewareAcceptsCookieToken(t *testing.T) {
	service, handler, seen := newMiddlewareFixture(t)
	result := loginTokens(t, service, 7)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: result.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if seen.UserID != 7 {
		t.Fatalf("identity: %+v", *seen)
	}
}

func TestAuthMiddlewareHeaderWinsOverCookie(t *testing.T) {
	service, handler, seen := newMiddlewareFixture(t)
	headerLogin := loginTokens(t, service, 1)
	cookieLogin := loginTokens(t, service, 2)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+headerLogin.AccessToken)
	req.AddCookie(&http.Cookie{Name: "token", Value: cookieLogin.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if seen.UserID != 1 {
		t.Fatalf("expected header identity, got %+v", *seen)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	_, handler, _ := newMiddlewareFixture(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	_, handler, _ := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	service, handler, _ := newMiddlewareFixture(t)
	result := loginTokens(t, service, 9)

	if err := service.Logout(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+result.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}
