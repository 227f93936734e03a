package http

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestNewServerDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	s := NewServer(engine, ":8080")
	if s.Engine != engine {
		t.Fatalf("expected server to carry the engine it was built with")
	}
	if s.srv.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", s.srv.Addr)
	}
	if got, want := s.srv.ReadHeaderTimeout, 10*time.Second; got != want {
		t.Fatalf("read header timeout = %v, want %v", got, want)
	}
	if got, want := s.srv.IdleTimeout, 120*time.Second; got != want {
		t.Fatalf("idle timeout = %v, want %v", got, want)
	}
}

func TestNewServerTimeoutOverrides(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("HTTP_READ_HEADER_TIMEOUT_SECONDS", "3")
	t.Setenv("HTTP_IDLE_TIMEOUT_SECONDS", "45")

	s := NewServer(gin.New(), ":0")
	if got, want := s.srv.ReadHeaderTimeout, 3*time.Second; got != want {
		t.Fatalf("read header timeout = %v, want %v", got, want)
	}
	if got, want := s.srv.IdleTimeout, 45*time.Second; got != want {
		t.Fatalf("idle timeout = %v, want %v", got, want)
	}
}

func TestServerRunAfterShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(gin.New(), "127.0.0.1:0")

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	// ListenAndServe on a shut-down server reports ErrServerClosed, which
	// Run treats as a clean exit.
	if err := s.Run(); err != nil {
		t.Fatalf("run after shutdown: %v", err)
	}
}
