package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxlab/internal/indicator"
	"fxlab/internal/market"
	"fxlab/internal/strategy"
)

// trendSource 返回先跌后涨的 1m 序列，保证均线交叉一定出现；
// 执行窗口固定给出一段足以触发止盈的上涨行情。
type trendSource struct {
	candles []market.Candle
}

func newTrendSource() *trendSource {
	candles := make([]market.Candle, 0, 60)
	price := 1.1300
	for i := 0; i < 60; i++ {
		if i < 30 {
			price -= 0.0010
		} else {
			price += 0.0015
		}
		open := baseTS + int64(i)*minuteMs
		candles = append(candles, mc(open, price, price+0.0002, price-0.0002, price))
	}
	return &trendSource{candles: candles}
}

func (s *trendSource) GetCandles(_ context.Context, _, _ string, start, end int64) ([]market.Candle, error) {
	var out []market.Candle
	for _, c := range s.candles {
		if c.OpenTime >= start && c.OpenTime <= end {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *trendSource) GetExecutionWindow(_ context.Context, _ string, signalTime int64, _, _ int) ([]market.Candle, error) {
	start := (signalTime/minuteMs + 1) * minuteMs
	out := make([]market.Candle, 0, 5)
	price := 1.1000
	for i := 0; i < 5; i++ {
		open := start + int64(i)*minuteMs
		out = append(out, mc(open, price, price+0.0008, price-0.0002, price+0.0007))
		price += 0.0007
	}
	return out, nil
}

func (s *trendSource) Name() string { return "trend" }

func TestRunnerEndToEnd(t *testing.T) {
	source := newTrendSource()
	runner := NewRunner(source, indicator.NewProvider(), strategy.DefaultRegistry())

	cfg := Config{
		Symbol:         "EURUSD",
		Timeframe:      "1m",
		StartTS:        baseTS,
		EndTS:          baseTS + 60*minuteMs,
		StopLossPips:   10,
		TakeProfitPips: 15,
		Strategy:       "ma_cross",
	}
	results, err := runner.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, results.Trades)

	for _, trade := range results.Trades {
		assert.Equal(t, "EURUSD", trade.Symbol)
		assert.Equal(t, strategy.Buy, trade.Direction)
		assert.Equal(t, strategy.ResultWin, trade.Result)
		assert.InDelta(t, 15, trade.Pips, 1e-9)
		assert.Greater(t, trade.ExitTime, trade.EntryTime)
	}
	assert.Equal(t, len(results.Trades), results.Stats.TotalTrades)
	assert.InDelta(t, float64(15*len(results.Trades)), results.Stats.TotalPips, 1e-9)
	assert.Equal(t, 1.0, results.Stats.WinRate)
}

func TestRunnerNoData(t *testing.T) {
	runner := NewRunner(&fakeSource{}, indicator.NewProvider(), strategy.DefaultRegistry())
	cfg := Config{
		Symbol:         "EURUSD",
		Timeframe:      "15m",
		StartTS:        baseTS,
		EndTS:          baseTS + 90*minuteMs,
		StopLossPips:   10,
		TakeProfitPips: 15,
		Strategy:       "ma_cross",
	}
	_, err := runner.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}

func TestRunnerUnknownStrategy(t *testing.T) {
	runner := NewRunner(&fakeSource{}, indicator.NewProvider(), strategy.DefaultRegistry())
	cfg := Config{
		Symbol:         "EURUSD",
		Timeframe:      "15m",
		StartTS:        baseTS,
		EndTS:          baseTS + 90*minuteMs,
		StopLossPips:   10,
		TakeProfitPips: 15,
		Strategy:       "does_not_exist",
	}
	_, err := runner.Run(context.Background(), cfg)
	assert.Error(t, err)
}
