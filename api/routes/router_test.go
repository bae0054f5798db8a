package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/internal/menus"
	"github.com/angelmondragon/tableorder-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/tableorder-backend/pkg/auth"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

// stubMenuService answers Catalog; every other method panics if reached.
type stubMenuService struct {
	menus.Service
}

func (stubMenuService) Catalog(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID) (*menus.Catalog, error) {
	return &menus.Catalog{Categories: []menus.CategoryMenus{}}, nil
}

type stubOrderService struct {
	orders.Service
}

func (stubOrderService) LiveBoard(ctx context.Context, storeID uuid.UUID, filters orders.BoardFilters) ([]orders.TableBoard, error) {
	return []orders.TableBoard{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "dev", Name: "tableorder-api", Timezone: "UTC"},
		JWT:    config.JWTConfig{Secret: "secret", Issuer: "tableorder", ExpirationMinutes: 60},
		Stream: config.StreamConfig{Heartbeat: time.Second, SubscriberBuffer: 8},
	}
}

type routerFixture struct {
	cfg      *config.Config
	hub      *broadcast.Hub
	registry *prometheus.Registry
	handler  http.Handler
}

func newRouterFixture(t *testing.T, mutate func(*config.Config)) routerFixture {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	registry := prometheus.NewRegistry()
	hub := broadcast.NewHub(broadcast.Options{Buffer: 8, Metrics: metrics.NewStreamMetrics(registry)})
	t.Cleanup(hub.Close)

	handler := NewRouter(
		cfg,
		logger.Nop(),
		stubPinger{},
		nil,
		registry,
		hub,
		nil,
		nil,
		stubMenuService{},
		stubOrderService{},
		nil,
		nil,
	)
	return routerFixture{cfg: cfg, hub: hub, registry: registry, handler: handler}
}

func (f routerFixture) tableToken(t *testing.T) string {
	t.Helper()
	tableID := uuid.New()
	sessionID := uuid.New()
	number := 3
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		Subject:     pkgAuth.TableSubject(tableID),
		UserType:    enums.UserTypeTable,
		StoreID:     uuid.New(),
		TableID:     &tableID,
		TableNumber: &number,
		SessionID:   &sessionID,
	})
	require.NoError(t, err)
	return token
}

func (f routerFixture) adminToken(t *testing.T) string {
	t.Helper()
	storeID := uuid.New()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		Subject:  storeID.String(),
		UserType: enums.UserTypeAdmin,
		StoreID:  storeID,
	})
	require.NoError(t, err)
	return token
}

func (f routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-Tableorder-Env"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	f.hub.Register(uuid.New())
	rec = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			StreamConnections int `json:"stream_connections"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.StreamConnections)
}

func TestMetricsRouteExposesStreamGauge(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.hub.Register(uuid.New())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stream_subscribers 1")
}

func TestCustomerRoutesRequireTableToken(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/customer/v1/menus", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/customer/v1/menus", nil)
	req.Header.Set("Authorization", "Bearer "+f.adminToken(t))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/customer/v1/menus", nil)
	req.Header.Set("Authorization", "Bearer "+f.tableToken(t))
	assert.Equal(t, http.StatusOK, f.do(req).Code)
}

func TestAdminRoutesRejectTableTokens(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+f.tableToken(t))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
}

func TestQueryTokenOnlyAcceptedOnStreams(t *testing.T) {
	f := newRouterFixture(t, nil)
	token := f.adminToken(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?access_token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/admin/v1/orders/sse?access_token="+token, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
}

func TestWebsocketRouteFollowsFeatureFlag(t *testing.T) {
	off := newRouterFixture(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/ws", nil)
	req.Header.Set("Authorization", "Bearer "+off.adminToken(t))
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, off.do(req).Code)

	on := newRouterFixture(t, func(cfg *config.Config) { cfg.FeatureFlags.EnableWebsocket = true })
	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/ws", nil)
	req.Header.Set("Authorization", "Bearer "+on.adminToken(t))
	// A plain GET reaches the handler and fails the upgrade handshake.
	assert.Equal(t, http.StatusBadRequest, on.do(req).Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newRouterFixture(t, func(cfg *config.Config) {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/customer/v1/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := f.do(req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
