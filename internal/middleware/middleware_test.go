package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/renzo/client/internal/logging"
)

func TestLogRequestsSetsRequestID(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logging.WithLogger(context.Background(), logger)

	client := &http.Client{Transport: Chain(nil, LogRequests())}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/videos", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	if seen == "" {
		t.Fatal("expected X-Request-ID header to reach the server")
	}
	if req.Header.Get(RequestIDHeader) != "" {
		t.Fatal("transport must not mutate the caller's request")
	}
	if !strings.Contains(buf.String(), "request_id="+seen) || !strings.Contains(buf.String(), "path=/api/videos") {
		t.Fatalf("expected request to be logged with its id, got %s", buf.String())
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Transport {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
	})

	rt := Chain(base, mark("first"), mark("second"))
	req := httptest.NewRequest(http.MethodGet, "http://backend/api/users", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if strings.Join(order, ",") != "first,second,base" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	calls := 0
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	rt := RateLimit(limiter)(base)

	req := httptest.NewRequest(http.MethodGet, "http://backend/api/users", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("first request should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := rt.RoundTrip(req.WithContext(ctx)); err == nil {
		t.Fatal("expected second request to fail while waiting for a token")
	}
	if calls != 1 {
		t.Fatalf("expected one request to reach the base transport, got %d", calls)
	}
}

func TestRequestLoggerReusesClientID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=req-123") || !strings.Contains(out, "status=418") {
		t.Fatalf("expected request log with client id and status, got %s", out)
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	handler := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

type headerCounter struct {
	*httptest.ResponseRecorder
	writes int
}

func (h *headerCounter) WriteHeader(status int) {
	h.writes++
	h.ResponseRecorder.WriteHeader(status)
}

func TestRequestLoggerPanicAfterHeaderKeepsStatus(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic(errors.New("boom"))
	}))

	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/videos", nil))

	if rec.writes != 1 || rec.Code != http.StatusAccepted {
		t.Fatalf("expected a single 202 header, got %d writes and status %d", rec.writes, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Internal Server Error") {
		t.Fatalf("unexpected error body %q", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "status=202") {
		t.Fatalf("expected logged status 202, got %s", buf.String())
	}
}
