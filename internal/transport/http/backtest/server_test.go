package backtesthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxlab/internal/backtest"
	"fxlab/internal/indicator"
	"fxlab/internal/market"
	"fxlab/internal/strategy"
)

type emptySource struct{}

func (emptySource) GetCandles(context.Context, string, string, int64, int64) ([]market.Candle, error) {
	return nil, nil
}

func (emptySource) GetExecutionWindow(context.Context, string, int64, int, int) ([]market.Candle, error) {
	return nil, nil
}

func (emptySource) Name() string { return "empty" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := strategy.DefaultRegistry()
	runner := backtest.NewRunner(emptySource{}, indicator.NewProvider(), registry)
	svc := backtest.NewService(runner, 1)
	srv, err := NewServer(Config{Addr: ":0", Svc: svc, Registry: registry})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestServerMetaEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/api/backtest/strategies", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["strategies"], "ma_cross")

	rec, body = doJSON(t, srv.Handler(), http.MethodGet, "/api/backtest/timeframes", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["timeframes"], "15m")
}

func TestServerRunValidation(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/api/backtest/runs",
		`{"symbol":"","timeframe":"15m"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])

	rec, _ = doJSON(t, srv.Handler(), http.MethodGet, "/api/backtest/runs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerRunLifecycle(t *testing.T) {
	srv := newTestServer(t)

	payload := `{
		"symbol": "EURUSD",
		"timeframe": "15m",
		"start_ts": 1704067200000,
		"end_ts": 1704153600000,
		"stop_loss_pips": 10,
		"take_profit_pips": 15,
		"strategy": "ma_cross"
	}`
	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/api/backtest/runs", payload)
	require.Equal(t, http.StatusAccepted, rec.Code)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	// 空数据源导致 run 以 failed 收场
	assert.Eventually(t, func() bool {
		rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/api/backtest/runs/"+id, "")
		if rec.Code != http.StatusOK {
			return false
		}
		run, _ := body["run"].(map[string]any)
		return run != nil && run["status"] == string(backtest.StatusFailed)
	}, 5*time.Second, 20*time.Millisecond)

	rec, body = doJSON(t, srv.Handler(), http.MethodGet, "/api/backtest/runs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	runs, _ := body["runs"].([]any)
	assert.Len(t, runs, 1)
}
