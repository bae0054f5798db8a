package api

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
)

type ctxKey struct{}

func TestNewServerUsesConfiguredPort(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := &config.Config{App: config.AppConfig{Port: "8081"}}

	srv := NewServer(context.Background(), cfg, http.NotFoundHandler())

	assert.Equal(t, ":8081", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}

func TestNewServerPrefersPortEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg := &config.Config{App: config.AppConfig{Port: "8081"}}

	srv := NewServer(context.Background(), cfg, http.NotFoundHandler())

	assert.Equal(t, ":9000", srv.Addr)
}

func TestNewServerBaseContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "root")
	srv := NewServer(ctx, &config.Config{}, http.NotFoundHandler())

	base := srv.BaseContext(&net.TCPListener{})
	assert.Equal(t, "root", base.Value(ctxKey{}))
}
