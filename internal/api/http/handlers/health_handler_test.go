package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/observability"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthApp(deps map[string]Pinger, metrics *observability.Metrics) *fiber.App {
	h := NewHealthHandler("event-service", "test", deps, metrics)
	app := fiber.New()
	app.Get("/live", h.Live)
	app.Get("/ready", h.Ready)
	app.Get("/metrics", h.Metrics)
	return app
}

func TestReadyReportsDependencies(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	app := healthApp(map[string]Pinger{"postgres": ok, "redis": ok}, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app = healthApp(map[string]Pinger{"postgres": ok, "redis": down}, nil)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Error.Details["postgres"])
	assert.Contains(t, body.Error.Details["redis"], "refused")
}

func TestLiveAndMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.RecordAuth("login", "success", "")
	app := healthApp(nil, metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	var body struct {
		Data observability.Snapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1, body.Data.Auth["login|success"])
}
