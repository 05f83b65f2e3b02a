package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxlab/internal/market"
)

func seqCandles(n int) []market.Candle {
	out := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		open := int64(i) * 60_000
		price := float64(i + 1)
		out = append(out, market.Candle{
			OpenTime:  open,
			CloseTime: open + 59_999,
			Open:      price, High: price + 0.5, Low: price - 0.5, Close: price,
		})
	}
	return out
}

func TestValidateFailFast(t *testing.T) {
	p := NewProvider()
	assert.NoError(t, p.Validate([]string{"ema_9", "sma_21", "rsi_14", "atr_14", "macd", "macd_hist"}))
	assert.Error(t, p.Validate([]string{"ema_9", "bogus_14"}))
	assert.Error(t, p.Validate([]string{"ema_0"}))
	assert.Error(t, p.Validate([]string{"ema_x"}))
}

func TestComputeSMA(t *testing.T) {
	p := NewProvider()
	candles := seqCandles(10)
	series, err := p.Compute(candles, []string{"sma_3"})
	require.NoError(t, err)

	points := series["sma_3"]
	require.NotNil(t, points)
	// warmup 区间（前 period-1 根）不出现
	_, ok := points[candles[0].CloseTime]
	assert.False(t, ok)
	_, ok = points[candles[1].CloseTime]
	assert.False(t, ok)
	assert.InDelta(t, 2.0, points[candles[2].CloseTime], 1e-9)
	assert.InDelta(t, 9.0, points[candles[9].CloseTime], 1e-9)
	assert.Len(t, points, 8)
}

func TestComputeEmptyCandles(t *testing.T) {
	p := NewProvider()
	_, err := p.Compute(nil, []string{"ema_9"})
	assert.Error(t, err)
}
