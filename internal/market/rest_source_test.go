package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKlinePayload(t *testing.T) {
	body := []byte(`[
		[1704067200000, "1.1000", "1.1010", "1.0990", "1.1005", "123.4", 1704067259999, "x", 1, "y", "z", "0"],
		[1704067260000, "1.1005", "1.1015", "1.1000", "1.1010", "98.7", 1704067319999, "x", 1, "y", "z", "0"]
	]`)
	candles, err := parseKlinePayload(body)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1704067200000), candles[0].OpenTime)
	assert.Equal(t, int64(1704067259999), candles[0].CloseTime)
	assert.Equal(t, 1.1000, candles[0].Open)
	assert.Equal(t, 1.1010, candles[1].Close)
	assert.Equal(t, 123.4, candles[0].Volume)
}

func TestParseKlinePayloadRejectsGarbage(t *testing.T) {
	_, err := parseKlinePayload([]byte(`{"not":"an array"}`))
	assert.Error(t, err)

	_, err = parseKlinePayload([]byte(`not json`))
	assert.Error(t, err)

	// 列数不足的行被跳过
	candles, err := parseKlinePayload([]byte(`[[1704067200000, "1.1"]]`))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestRESTSourceFetch(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"symbol":   r.URL.Query().Get("symbol"),
			"interval": r.URL.Query().Get("interval"),
		}
		rows := [][]any{
			{1704067200000, "1.1000", "1.1010", "1.0990", "1.1005", "123.4", 1704067259999},
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer ts.Close()

	src := NewRESTSource(ts.URL)
	candles, err := src.GetCandles(context.Background(), "eur/usd", "1m", 1704067200000, 1704067260000)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, "EURUSD", gotQuery["symbol"])
	assert.Equal(t, "1m", gotQuery["interval"])
}

func TestRESTSourceHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	src := NewRESTSource(ts.URL)
	_, err := src.GetCandles(context.Background(), "EURUSD", "1m", 0, 60_000)
	assert.Error(t, err)
}
