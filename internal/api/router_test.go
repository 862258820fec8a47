package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/binpacker/internal/packer"
	"github.com/eugenenazirov/binpacker/internal/storage"
)

func TestLoggingMiddlewareLevels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{status: http.StatusOK, level: zapcore.InfoLevel},
		{status: http.StatusNotFound, level: zapcore.WarnLevel},
		{status: http.StatusInternalServerError, level: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := loggingMiddleware(zap.New(core), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/layouts/abc/render?format=svg", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(contextWithRequestID(req.Context(), "rid-1")))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected one log entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Level != tt.level {
				t.Fatalf("expected level %s, got %s", tt.level, entry.Level)
			}
			fields := entry.ContextMap()
			if fields["status"] != int64(tt.status) || fields["bytes"] != int64(5) {
				t.Fatalf("unexpected status/bytes fields %v", fields)
			}
			if fields["request_id"] != "rid-1" || fields["format"] != "svg" {
				t.Fatalf("unexpected request fields %v", fields)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := recoveryMiddleware(zap.New(core), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/pack", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

func TestResponseRecorderCountsBytes(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: underlying}
	rec.WriteHeader(http.StatusTeapot)
	_, _ = rec.Write([]byte("abc"))
	_, _ = rec.Write([]byte("de"))

	if rec.status != http.StatusTeapot || underlying.Code != http.StatusTeapot {
		t.Fatalf("expected status to be recorded and propagated")
	}
	if rec.bytes != 5 || underlying.Body.Len() != 5 {
		t.Fatalf("expected 5 bytes written, got %d", rec.bytes)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	router := newTestRouter(t, WithLogging(false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", got)
	}
}

func TestWithRateLimiterOptionAppliesLimiter(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block request, got %d", rec.Code)
	}
}

func TestWithRateLimitDisablesLimiterWhenZero(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}), WithRateLimit(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
	}
}

func TestWithRateLimitIsPerClient(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(1, 1))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("198.51.100.1:1000"); code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
	if code := send("198.51.100.1:1001"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same client to be limited, got %d", code)
	}
	if code := send("198.51.100.2:1000"); code != http.StatusOK {
		t.Fatalf("expected another client to be served, got %d", code)
	}
}

func TestWithTrustedProxyKeysOnForwardedFor(t *testing.T) {
	send := func(router http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:8080"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	direct := newTestRouter(t, WithLogging(false), WithRateLimit(1, 1))
	send(direct, "203.0.113.1")
	if code := send(direct, "203.0.113.2"); code != http.StatusTooManyRequests {
		t.Fatalf("expected spoofed header to be ignored, got %d", code)
	}

	proxied := newTestRouter(t, WithLogging(false), WithRateLimit(1, 1), WithTrustedProxy(true))
	send(proxied, "203.0.113.1")
	if code := send(proxied, "203.0.113.2"); code != http.StatusOK {
		t.Fatalf("expected forwarded clients to be limited separately, got %d", code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	router := newTestRouter(t, WithLogging(false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/layouts", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for wrong method, got %d", rec.Code)
	}
}

func newTestRouter(t *testing.T, opts ...RouterOption) http.Handler {
	t.Helper()

	handler := NewHandler(packer.New(), storage.NewMemoryStorage())
	return NewRouter(handler, zaptest.NewLogger(t), opts...)
}
