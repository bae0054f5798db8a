package api

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// NewServer wraps handler in an http.Server bound to the configured port.
// PORT overrides the config. Request contexts derive from ctx, so open
// streams end when ctx is cancelled. Stream handlers lift the write
// deadline for their own connections.
func NewServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
