package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/platform"
	"github.com/lakedesk/lakedesk/internal/service/records"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/internal/store/memory"
)

type testBackend struct {
	*memory.Store
}

func (testBackend) Mode() platform.Mode { return platform.ModeMock }

func newTestServer(t *testing.T) (*echo.Echo, *records.Service) {
	t.Helper()
	svc := records.NewService(records.Params{
		Backend: testBackend{Store: memory.New()},
		Logger:  zap.NewNop(),
	})

	cfg := config.Config{
		Platform:  config.Platform{WorkspaceHost: "dbc-123.cloud.example.com", ClusterID: "warehouse-7"},
		Warehouse: config.Warehouse{Driver: "postgres"},
		Cache:     config.Cache{Driver: "noop"},
		Upload:    config.Upload{Driver: "local"},
		Archive:   config.Archive{Enabled: true},
	}

	e := echo.New()
	Register(e, NewHandler(svc, cfg))
	return e, svc
}

func TestStatus(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data statusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	assert.Equal(t, "mock", env.Data.Mode)
	assert.Equal(t, "dbc-123.cloud.example.com", env.Data.WorkspaceHost)
	assert.Equal(t, "warehouse-7", env.Data.ClusterID)
	assert.Equal(t, "postgres", env.Data.WarehouseDriver)
	assert.True(t, env.Data.ArchiveEnabled)
}

func TestSeed(t *testing.T) {
	e, svc := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/seed", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	orders, err := svc.ListOrders(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	// Second seed is a no-op.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/seed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	orders, err = svc.ListOrders(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestSchema(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/schema", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"schema":"ok"`)
}
