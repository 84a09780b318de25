package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestServerLifecycle(t *testing.T) {
	srv := New(0, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	addr, err := srv.Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
}

func TestListenIsIdempotent(t *testing.T) {
	srv := New(0, http.NotFoundHandler())
	first, err := srv.Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer srv.listener.Close()

	second, err := srv.Listen()
	if err != nil {
		t.Fatalf("second listen: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("expected the same address, got %s and %s", first, second)
	}
}
