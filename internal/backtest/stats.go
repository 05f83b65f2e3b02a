package backtest

import (
	"encoding/json"
	"math"

	"fxlab/internal/strategy"
)

// Stats 是交易列表的纯函数汇总。
type Stats struct {
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	WinRate              float64 `json:"win_rate"`
	TotalPips            float64 `json:"total_pips"`
	ProfitFactor         float64 `json:"profit_factor"` // 无亏损且有盈利时为 +Inf
	AverageWin           float64 `json:"average_win"`
	AverageLoss          float64 `json:"average_loss"`
	LargestWin           float64 `json:"largest_win"`
	LargestLoss          float64 `json:"largest_loss"`
	MaxDrawdown          float64 `json:"max_drawdown"` // 基于累计 pips，而非资金曲线
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// Reduce 把按时间排列的交易列表归并为统计结果，不修改输入。
func Reduce(trades []*strategy.Trade) Stats {
	stats := Stats{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return stats
	}

	var winSum, lossSum float64
	var cum, peak, maxDD float64
	var curWins, curLosses int

	for _, t := range trades {
		stats.TotalPips += t.Pips
		switch {
		case t.Pips > 0:
			stats.WinningTrades++
			winSum += t.Pips
			if t.Pips > stats.LargestWin {
				stats.LargestWin = t.Pips
			}
		case t.Pips < 0:
			stats.LosingTrades++
			lossSum += -t.Pips
			if -t.Pips > stats.LargestLoss {
				stats.LargestLoss = -t.Pips
			}
		}

		cum += t.Pips
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}

		// 连胜/连败只认 WIN/LOSS 归类，BREAKEVEN 和 EOD_CLOSE 双双清零
		switch t.Result {
		case strategy.ResultWin:
			curWins++
			curLosses = 0
		case strategy.ResultLoss:
			curLosses++
			curWins = 0
		default:
			curWins, curLosses = 0, 0
		}
		if curWins > stats.MaxConsecutiveWins {
			stats.MaxConsecutiveWins = curWins
		}
		if curLosses > stats.MaxConsecutiveLosses {
			stats.MaxConsecutiveLosses = curLosses
		}
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	switch {
	case stats.WinningTrades == 0:
		stats.ProfitFactor = 0
	case lossSum == 0:
		stats.ProfitFactor = math.Inf(1)
	default:
		stats.ProfitFactor = winSum / lossSum
	}
	if stats.WinningTrades > 0 {
		stats.AverageWin = winSum / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = lossSum / float64(stats.LosingTrades)
	}
	stats.MaxDrawdown = maxDD
	return stats
}

// MarshalJSON 把 +Inf 的 profit factor 序列化为 null 并带显式标记，
// 避免 encoding/json 对 Inf 报错。
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	out := struct {
		alias
		ProfitFactor         *float64 `json:"profit_factor"`
		ProfitFactorInfinite bool     `json:"profit_factor_infinite,omitempty"`
	}{alias: alias(s)}
	if math.IsInf(s.ProfitFactor, 1) {
		out.ProfitFactorInfinite = true
	} else {
		pf := s.ProfitFactor
		out.ProfitFactor = &pf
	}
	return json.Marshal(out)
}
