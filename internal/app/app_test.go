package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"rempah/internal/app"
	"rempah/internal/config"
	"rempah/pkg/logging"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

func newTestApp(t *testing.T, overrides map[string]any) *app.App {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "memory")
	v.Set("JWT_SECRET", "test_jwt_secret")
	for k, val := range overrides {
		v.Set(k, val)
	}

	a, err := app.New(context.Background(), config.FromViper(v))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestHealthCheck(t *testing.T) {
	a := newTestApp(t, nil)

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, nil)

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/products", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rempah_http_request_duration_seconds")
}

func TestUnauthenticatedAccess(t *testing.T) {
	a := newTestApp(t, nil)

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/products", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "catalogue is public")

	resp, err = a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/orders/myorders", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/users/wishlist", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = a.Fiber.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSeedProducts(t *testing.T) {
	a := newTestApp(t, map[string]any{"SEED_PRODUCTS": true})

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/products?keyword=masala", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var page struct {
		Products []struct {
			Name string `json:"name"`
		} `json:"products"`
		TotalProducts int `json:"totalProducts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 2, page.TotalProducts)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "oracle")

	_, err := app.New(context.Background(), config.FromViper(v))
	assert.ErrorContains(t, err, "unsupported database driver")
}
