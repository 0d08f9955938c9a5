package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPServer manages the public API server lifecycle.
type HTTPServer struct {
	server *http.Server
	port   int
}

// NewHTTPServer creates a new API server instance serving the given handler.
func NewHTTPServer(port int, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		port: port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start begins listening and serving API requests.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("API server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the API server, draining in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("API server stopped")
	return nil
}
