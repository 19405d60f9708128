package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dreschagin/release-confidence/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func echoBody() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		_, _ = w.Write(body)
	})
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func TestWebhookSignature(t *testing.T) {
	const secret = "s3cr3t"
	body := []byte(`{"repository":{"full_name":"acme/api"}}`)
	h := WebhookSignature(secret, testLogger())(echoBody())

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid", header: Sign(secret, body), wantStatus: http.StatusOK},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "no prefix", header: strings.TrimPrefix(Sign(secret, body), "sha256="), wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: Sign("other", body), wantStatus: http.StatusUnauthorized},
		{name: "not hex", header: "sha256=zz", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/coverage", bytes.NewReader(body))
			if tt.header != "" {
				req.Header.Set(SignatureHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, string(body), rec.Body.String(), "handler must see the original body")
			}
		})
	}
}

func TestWebhookSignatureDisabledWithoutSecret(t *testing.T) {
	h := WebhookSignature("", testLogger())(echoBody())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(8)(echoBody())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "small", rec.Body.String())
}

func TestRateLimitPerIP(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewIPRateLimiter(1, 2)
	defer limiter.Stop()
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1").Code)
	limited := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do("10.0.0.2").Code)
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(60, 1)
	defer limiter.Stop()

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(10 * time.Minute)
	limiter.Allow("b")

	limiter.evictIdle()
	assert.Equal(t, 1, limiter.size())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestAuth(t *testing.T) {
	cfg := AuthConfig{Enabled: true, BearerToken: "token-1"}
	h := Auth(cfg, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ws?token=token-1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, TokenMatches("token-1", " token-1 "))
	assert.False(t, TokenMatches("token-2", "token-1"))
	assert.False(t, TokenMatches("", ""))
	assert.False(t, TokenMatches("token-1", ""))
}

func TestCompressionGzipsJSON(t *testing.T) {
	payload := strings.Repeat(`{"releaseConfidence":90.04}`, 50)
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/releases", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestCompressionSkipsBinaryAndPlainClients(t *testing.T) {
	png := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("binary"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/static/logo.png", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	png.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "binary", rec.Body.String())

	noContent := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNoContent)
	}))
	rec = httptest.NewRecorder()
	noContent.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))

	plain := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	rec = httptest.NewRecorder()
	plain.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/releases", nil))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, `{}`, rec.Body.String())
}

func TestLoggerSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(logger.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/releases", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "[WARN] HTTP Request | request_id=req-42")
	assert.Contains(t, buf.String(), "status=418")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}
