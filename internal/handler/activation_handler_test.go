package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pagepilot/pkg/errors"
)

// fakeKeyExchange captures the forwarded activation arguments
type fakeKeyExchange struct {
	lastCode      string
	lastReconnect bool
	failWith      error
}

func (f *fakeKeyExchange) Activate(_ context.Context, code string, reconnect bool) (string, error) {
	f.lastCode = code
	f.lastReconnect = reconnect
	if f.failWith != nil {
		return "", f.failWith
	}
	return "Activation successful!", nil
}

func TestActivate(t *testing.T) {
	exchange := &fakeKeyExchange{}
	h := NewActivationHandler(exchange, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/connect/activate",
		strings.NewReader(`{"field_value":"ABC123","reconnect":true}`))
	rec := httptest.NewRecorder()

	h.Activate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC123", exchange.lastCode)
	assert.True(t, exchange.lastReconnect)
	assert.Contains(t, rec.Body.String(), "Activation successful!")
}

func TestActivateInvalidBody(t *testing.T) {
	h := NewActivationHandler(&fakeKeyExchange{}, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/connect/activate", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	h.Activate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivatePropagatesExchangeError(t *testing.T) {
	exchange := &fakeKeyExchange{
		failWith: apperrors.NewExternalError("Invalid token, token has been used or expired", nil),
	}
	h := NewActivationHandler(exchange, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/connect/activate",
		strings.NewReader(`{"field_value":"ABC123"}`))
	rec := httptest.NewRecorder()

	h.Activate(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}
