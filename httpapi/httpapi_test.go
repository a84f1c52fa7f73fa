package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ampnode/config"
	"ampnode/logx"
	"ampnode/router"
)

func TestGetStatusServesJSON(t *testing.T) {
	r := router.New()
	log := logx.New(nil, nil)
	s := New(
		func() config.Config { return config.Config{Node: "101"} },
		func() StatusSnapshot { return StatusSnapshot{Node: "101", ActiveCalls: 2, DroppedTotal: 3} },
		func(config.Config) error { return nil },
		r, log,
	)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"node":"101"`)
	assert.Contains(t, rec.Body.String(), `"activeCalls":2`)
}

func TestGetConfigServesSnapshot(t *testing.T) {
	r := router.New()
	log := logx.New(nil, nil)
	s := New(
		func() config.Config { return config.Config{Node: "202", IAXPort: 4569} },
		func() StatusSnapshot { return StatusSnapshot{} },
		func(config.Config) error { return nil },
		r, log,
	)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"node":"202"`)
	assert.Contains(t, rec.Body.String(), `"iaxPort":4569`)
}

func TestMetricsEndpointIsRegistered(t *testing.T) {
	r := router.New()
	log := logx.New(nil, nil)
	s := New(
		func() config.Config { return config.Config{} },
		func() StatusSnapshot { return StatusSnapshot{} },
		func(config.Config) error { return nil },
		r, log,
	)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
