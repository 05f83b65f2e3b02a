package backtest

import (
	"math"

	"fxlab/internal/logger"
	"fxlab/internal/market"
	"fxlab/internal/strategy"
)

// Simulator 把一个信号和一段执行窗口解析成一笔完成的交易。
// 返回 nil 表示窗口内没有可用的入场 K 线，信号作废。
type Simulator interface {
	Execute(sig *strategy.Signal, window []market.Candle, port strategy.Port) *strategy.Trade
}

// WindowSimulator 是默认实现：在细粒度窗口上走 SL/TP/追踪止损。
type WindowSimulator struct {
	cfg Config
}

func NewWindowSimulator(cfg Config) *WindowSimulator {
	return &WindowSimulator{cfg: cfg}
}

// Execute 解析信号。入场取窗口内第一根 open_time >= 信号时间的 K 线，
// 以其开盘价成交；信号里的参考价可能已经过时，永远不用。
func (s *WindowSimulator) Execute(sig *strategy.Signal, window []market.Candle, port strategy.Port) *strategy.Trade {
	if sig == nil || len(window) == 0 {
		return nil
	}
	entryIdx := -1
	for i, c := range window {
		if c.OpenTime >= sig.Time {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		return nil
	}
	entry := window[entryIdx]
	trade := s.openTrade(sig, entry)
	port.OnTradeOpened(trade, s.execContext(entry, trade))

	for i := entryIdx + 1; i < len(window); i++ {
		if s.cfg.Trailing.Enabled {
			// 追踪止损只能用上一根 K 线的收盘更新：OHLC 不暴露单根内部的
			// 先后顺序，用本根的有利极值推高保护位再用同一根的不利极值去
			// 触发它，等于假设“先有利后不利”，属于未来函数。
			s.updateTrailing(trade, window[i-1])
		}
		if s.resolveBar(trade, window[i]) {
			port.OnTradeClosed(trade, s.execContext(window[i], trade))
			return trade
		}
	}

	// 窗口耗尽，按最后一根收盘平仓
	last := window[len(window)-1]
	trade.ExitTime = last.CloseTime
	trade.ExitPrice = last.Close
	trade.Pips = s.signedPips(trade.ExitPrice, trade.EntryPrice, trade.Direction)
	trade.Result = strategy.ResultEODClose
	port.OnTradeClosed(trade, s.execContext(last, trade))
	return trade
}

func (s *WindowSimulator) openTrade(sig *strategy.Signal, entry market.Candle) *strategy.Trade {
	symbol := s.cfg.Symbol
	price := entry.Open
	var stop, target float64
	if sig.Direction == strategy.Buy {
		stop = market.PriceOffset(symbol, price, -s.cfg.StopLossPips)
		target = market.PriceOffset(symbol, price, s.cfg.TakeProfitPips)
	} else {
		stop = market.PriceOffset(symbol, price, s.cfg.StopLossPips)
		target = market.PriceOffset(symbol, price, -s.cfg.TakeProfitPips)
	}
	if s.cfg.Trailing.Enabled {
		// sentinel：固定目标不可触及，盈利只能由追踪机制兑现
		if sig.Direction == strategy.Buy {
			target = math.Inf(1)
		} else {
			target = math.Inf(-1)
		}
	}
	return &strategy.Trade{
		Symbol:     symbol,
		Direction:  sig.Direction,
		EntryTime:  entry.OpenTime,
		EntryPrice: price,
		StopLoss:   stop,
		TakeProfit: target,
	}
}

// updateTrailing 用已收盘 K 线（上一根）的 close 推进追踪止损。
// 激活前保护位维持初始 stop_loss；激活后只朝有利方向移动。
func (s *WindowSimulator) updateTrailing(trade *strategy.Trade, prev market.Candle) {
	profitPips := s.signedPips(prev.Close, trade.EntryPrice, trade.Direction)
	if trade.TrailingStop == nil && profitPips <= s.cfg.Trailing.ActivationPips {
		return
	}
	var candidate float64
	if trade.Direction == strategy.Buy {
		candidate = market.PriceOffset(trade.Symbol, prev.Close, -s.cfg.Trailing.TrailDistancePips)
	} else {
		candidate = market.PriceOffset(trade.Symbol, prev.Close, s.cfg.Trailing.TrailDistancePips)
	}
	if trade.TrailingStop == nil {
		trade.TrailingStop = &candidate
		return
	}
	if trade.Direction == strategy.Buy && decimalGT(candidate, *trade.TrailingStop) {
		trade.TrailingStop = &candidate
	}
	if trade.Direction == strategy.Sell && decimalLT(candidate, *trade.TrailingStop) {
		trade.TrailingStop = &candidate
	}
}

// resolveBar 检查一根 K 线是否触发出场，返回 true 表示交易已解析。
// 保护位与固定目标在同一根 K 线都可能触发时，保守起见按止损处理。
func (s *WindowSimulator) resolveBar(trade *strategy.Trade, c market.Candle) bool {
	protective := trade.StopLoss
	if trade.TrailingStop != nil {
		protective = *trade.TrailingStop
	}
	var stopHit, targetHit bool
	if trade.Direction == strategy.Buy {
		stopHit = decimalLTE(c.Low, protective)
		targetHit = decimalGTE(c.High, trade.TakeProfit)
	} else {
		stopHit = decimalGTE(c.High, protective)
		targetHit = decimalLTE(c.Low, trade.TakeProfit)
	}
	if stopHit {
		if targetHit {
			logger.Warnf("[backtest] %s K 线 %d 同时覆盖保护位与目标位，按保守规则判止损", s.cfg.Symbol, c.OpenTime)
		}
		s.closeTrade(trade, c, protective)
		return true
	}
	if targetHit {
		s.closeTrade(trade, c, trade.TakeProfit)
		return true
	}
	return false
}

func (s *WindowSimulator) closeTrade(trade *strategy.Trade, c market.Candle, price float64) {
	trade.ExitTime = c.CloseTime
	trade.ExitPrice = price
	trade.Pips = s.signedPips(price, trade.EntryPrice, trade.Direction)
	switch {
	case trade.Pips > 0:
		trade.Result = strategy.ResultWin
	case trade.Pips < 0:
		trade.Result = strategy.ResultLoss
	default:
		trade.Result = strategy.ResultBreakeven
	}
}

// signedPips 把价差换算为带方向的 pip 数（多头顺势为正，空头反之）。
func (s *WindowSimulator) signedPips(price, entry float64, dir strategy.Direction) float64 {
	pips := market.PipsBetween(s.cfg.Symbol, price, entry)
	if dir == strategy.Sell {
		return -pips
	}
	return pips
}

func (s *WindowSimulator) execContext(c market.Candle, trade *strategy.Trade) strategy.Context {
	return strategy.Context{
		Symbol:    s.cfg.Symbol,
		Timeframe: market.ExecutionInterval,
		Candle:    c,
		Position:  trade,
	}
}
