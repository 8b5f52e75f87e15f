package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCharmLogPassesThroughSuccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := CharmLog()(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !called {
		t.Error("CharmLog should invoke the wrapped handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", rec.Code)
	}
}

func TestCharmLogPropagatesError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/command", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	wantErr := errors.New("boom")
	h := CharmLog()(func(c echo.Context) error {
		return wantErr
	})

	if err := h(c); !errors.Is(err, wantErr) {
		t.Errorf("CharmLog should propagate the handler's error, got %v", err)
	}
}
