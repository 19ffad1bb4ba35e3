package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/planetarium-reservation/internal/service"
)

func TestErrorResponseConflictIsRetriable(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	_ = errorResponse(c, slog.Default(), service.ErrConflict)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"conflict","reason":"conflict","retriable":true}`, rec.Body.String())
}

func TestErrorResponseHidesInternalErrors(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	_ = errorResponse(c, logger, errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
	assert.Contains(t, logs.String(), "connection refused")
}

func TestCallerFrom(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := callerFrom(c)
	assert.Error(t, err)

	c.Set("user_id", int64(4))
	c.Set("role", "ADMIN")
	caller, err := callerFrom(c)
	assert.NoError(t, err)
	assert.Equal(t, service.Caller{ID: 4, Privileged: true}, caller)

	c.Set("user_id", "9")
	c.Set("role", "CUSTOMER")
	caller, err = callerFrom(c)
	assert.NoError(t, err)
	assert.Equal(t, service.Caller{ID: 9}, caller)
}
