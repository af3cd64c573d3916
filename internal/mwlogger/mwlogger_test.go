package mwlogger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMWLogger_RequestID(t *testing.T) {
	var seenCtx context.Context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtx = r.Context()
		w.WriteHeader(http.StatusTeapot)
	})

	h := NewMWLogger(next)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
	require.NotNil(t, seenCtx.Value(loggerWithRequestID{}))
}

func TestNewMWLogger_GeneratesID(t *testing.T) {
	h := NewMWLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	require.NotPanics(t, func() {
		l := LoggerFromContext(context.Background())
		l.Info().Msg("fallback logger works")
	})
}
