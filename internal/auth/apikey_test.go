package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, apiKey string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(APIKeyMiddleware(apiKey))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyMiddleware_NoKeyConfigured(t *testing.T) {
	rec := serve(t, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with no key configured, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_ValidKey(t *testing.T) {
	rec := serve(t, "secret-key", func(req *http.Request) {
		req.Header.Set("X-API-Key", "secret-key")
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid key, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_BearerToken(t *testing.T) {
	rec := serve(t, "secret-key", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer secret-key")
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with bearer token, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_MissingKey(t *testing.T) {
	rec := serve(t, "secret-key", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with missing key, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_InvalidKey(t *testing.T) {
	rec := serve(t, "secret-key", func(req *http.Request) {
		req.Header.Set("X-API-Key", "wrong-key")
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 with invalid key, got %d", rec.Code)
	}
}
