package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "unit-test-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return signed
}

func runAuthMiddleware(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/my-slots", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	reachedNext := false
	handler := NewEchoMiddleware(testSecret).RequireAuth()(func(echo.Context) error {
		reachedNext = true
		return nil
	})
	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec, ctx, reachedNext
}

func TestRequireAuthMissingHeader(t *testing.T) {
	rec, _, reachedNext := runAuthMiddleware(t, "")
	if reachedNext {
		t.Fatal("handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	rec, _, reachedNext := runAuthMiddleware(t, "Token abc")
	if reachedNext || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without handler run, got %d", rec.Code)
	}
}

func TestRequireAuthWrongSecret(t *testing.T) {
	token := mintToken(t, "other-secret", jwt.MapClaims{"sub": "u-1"})
	rec, _, reachedNext := runAuthMiddleware(t, "Bearer "+token)
	if reachedNext || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", rec.Code)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	rec, _, reachedNext := runAuthMiddleware(t, "Bearer "+token)
	if reachedNext || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestRequireAuthMissingSubject(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{"role": "admin"})
	rec, _, reachedNext := runAuthMiddleware(t, "Bearer "+token)
	if reachedNext || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without sub claim, got %d", rec.Code)
	}
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{"sub": "u-42", "role": "admin"})
	_, ctx, reachedNext := runAuthMiddleware(t, "Bearer "+token)
	if !reachedNext {
		t.Fatal("expected handler to run for valid token")
	}

	userID, ok := UserIDFromContext(ctx)
	if !ok || userID != "u-42" {
		t.Fatalf("unexpected user id: %q ok=%v", userID, ok)
	}
	role, ok := RoleFromContext(ctx)
	if !ok || role != "admin" {
		t.Fatalf("unexpected role: %q ok=%v", role, ok)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	m := NewEchoMiddleware(testSecret)

	handler := m.RequireRole(RoleAdmin)(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/subscriptions", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("auth.user_id", "u-1")
	ctx.Set("auth.role", "member")
	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ctx = e.NewContext(req, rec)
	ctx.Set("auth.user_id", "u-1")
	ctx.Set("auth.role", RoleAdmin)
	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}
