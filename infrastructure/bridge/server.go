package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server is the local HTTP bridge the UI shell talks to. It exposes the
// connector operations as JSON endpoints on a loopback address and carries
// no state of its own; every answer is computed from the services behind it.
type Server struct {
	settings *config.Settings
	router   *gin.Engine
}

// NewServer wires the bridge routes onto a fresh engine. Gin runs in
// release mode so the framework's own request dump stays out of the logs.
func NewServer(
	settings *config.Settings,
	connector *application.Connector,
	device *application.DeviceFlowAuthenticator,
	monitor *application.ConnectivityMonitor,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	RegisterRoutes(router, connector, device, monitor)
	return &Server{settings: settings, router: router}
}

// Run serves the bridge until the context is cancelled, then drains open
// requests before returning.
func (s *Server) Run(ctx context.Context) error {
	address := s.settings.Bridge.Address
	warnIfNotLoopback(address)

	server := &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	failed := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()
	logger.Infof("Bridge listening on http://%s", address)

	select {
	case err := <-failed:
		return fmt.Errorf("failed to serve the bridge: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the bridge: %w", err)
	}
	logger.Info("Bridge stopped")
	return nil
}

// warnIfNotLoopback flags configurations that expose the bridge beyond the
// local machine. The bridge hands out repository content for any caller
// that can reach it, so anything but loopback deserves a loud note.
func warnIfNotLoopback(address string) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return
	}
	if host == "localhost" {
		return
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return
	}
	logger.Warnf("Bridge address %q is not loopback, the API is reachable from the network", address)
}

// requestLogger records method, path, status, and duration for every
// request. Bodies are never logged; they can carry tokens.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf(
			"%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start),
		)
	}
}
