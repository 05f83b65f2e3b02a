package backtest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxlab/internal/strategy"
)

func tr(pips float64, result strategy.TradeResult) *strategy.Trade {
	return &strategy.Trade{Pips: pips, Result: result}
}

func TestReduceEmpty(t *testing.T) {
	stats := Reduce(nil)
	assert.Equal(t, 0, stats.TotalTrades)
	assert.Equal(t, 0.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.ProfitFactor)
}

func TestReduceBasic(t *testing.T) {
	stats := Reduce([]*strategy.Trade{
		tr(15, strategy.ResultWin),
		tr(-10, strategy.ResultLoss),
		tr(20, strategy.ResultWin),
		tr(-5, strategy.ResultLoss),
	})
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades)
	assert.InDelta(t, 0.5, stats.WinRate, 1e-9)
	assert.InDelta(t, 20, stats.TotalPips, 1e-9)
	assert.InDelta(t, 35.0/15.0, stats.ProfitFactor, 1e-9)
	assert.InDelta(t, 17.5, stats.AverageWin, 1e-9)
	assert.InDelta(t, 7.5, stats.AverageLoss, 1e-9)
	assert.InDelta(t, 20, stats.LargestWin, 1e-9)
	assert.InDelta(t, 10, stats.LargestLoss, 1e-9)
}

// 全胜时 profit factor 为 +Inf，没有盈利时为 0。
func TestReduceProfitFactorEdges(t *testing.T) {
	allWins := Reduce([]*strategy.Trade{tr(5, strategy.ResultWin), tr(8, strategy.ResultWin)})
	assert.True(t, math.IsInf(allWins.ProfitFactor, 1))

	allLosses := Reduce([]*strategy.Trade{tr(-5, strategy.ResultLoss)})
	assert.Equal(t, 0.0, allLosses.ProfitFactor)
}

// 回撤以累计 pips 相对历史峰值衡量，峰值从 0 起算。
func TestReduceMaxDrawdown(t *testing.T) {
	stats := Reduce([]*strategy.Trade{
		tr(10, strategy.ResultWin),  // cum 10, peak 10
		tr(-15, strategy.ResultLoss), // cum -5, dd 15
		tr(-5, strategy.ResultLoss),  // cum -10, dd 20
		tr(30, strategy.ResultWin),  // cum 20
	})
	assert.InDelta(t, 20, stats.MaxDrawdown, 1e-9)
}

// BREAKEVEN 与 EOD_CLOSE 同时打断连胜和连败。
func TestReduceStreaks(t *testing.T) {
	stats := Reduce([]*strategy.Trade{
		tr(5, strategy.ResultWin),
		tr(5, strategy.ResultWin),
		tr(0, strategy.ResultBreakeven),
		tr(5, strategy.ResultWin),
		tr(-5, strategy.ResultLoss),
		tr(-5, strategy.ResultLoss),
		tr(-5, strategy.ResultLoss),
		tr(3, strategy.ResultEODClose),
		tr(-5, strategy.ResultLoss),
	})
	assert.Equal(t, 2, stats.MaxConsecutiveWins)
	assert.Equal(t, 3, stats.MaxConsecutiveLosses)
}

// EOD_CLOSE 的盈亏照常计入总 pips。
func TestReduceEODCloseCounted(t *testing.T) {
	stats := Reduce([]*strategy.Trade{
		tr(10, strategy.ResultWin),
		tr(4, strategy.ResultEODClose),
	})
	assert.InDelta(t, 14, stats.TotalPips, 1e-9)
	assert.Equal(t, 2, stats.WinningTrades) // pips>0 即计入盈利笔数
}

func TestStatsMarshalInfiniteProfitFactor(t *testing.T) {
	stats := Reduce([]*strategy.Trade{tr(5, strategy.ResultWin)})
	raw, err := json.Marshal(stats)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["profit_factor"])
	assert.Equal(t, true, decoded["profit_factor_infinite"])
}
