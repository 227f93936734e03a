package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CryptracSolutions/ultaura-insights/internal/platform/envutil"
)

const (
	defaultReadHeaderTimeoutSeconds = 10
	defaultIdleTimeoutSeconds       = 120
)

// Server wraps the composed gin engine in an http.Server so the listener
// carries header/idle timeouts and can drain in-flight requests on shutdown.
type Server struct {
	Engine *gin.Engine
	srv    *http.Server
}

func NewServer(engine *gin.Engine, address string) *Server {
	return &Server{
		Engine: engine,
		srv: &http.Server{
			Addr:              address,
			Handler:           engine,
			ReadHeaderTimeout: time.Duration(envutil.Int("HTTP_READ_HEADER_TIMEOUT_SECONDS", defaultReadHeaderTimeoutSeconds)) * time.Second,
			IdleTimeout:       time.Duration(envutil.Int("HTTP_IDLE_TIMEOUT_SECONDS", defaultIdleTimeoutSeconds)) * time.Second,
		},
	}
}

// Run blocks serving requests until the listener fails or Shutdown is
// called. A clean shutdown is not an error.
func (s *Server) Run() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections and waits for in-flight
// requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
