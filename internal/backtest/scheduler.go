package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fxlab/internal/indicator"
	"fxlab/internal/logger"
	"fxlab/internal/market"
	"fxlab/internal/strategy"
)

// 外汇时段收盘（UTC），执行窗口缺省长度按“信号到收盘”折算。
const sessionCloseHourUTC = 22

// Scheduler 按时间顺序驱动策略，维护持仓，触发信号执行。
// 全局不变式：任意时刻至多一笔活跃交易。
type Scheduler struct {
	cfg    Config
	tf     Timeframe
	source market.DataSource
	sim    Simulator
}

func NewScheduler(cfg Config, tf Timeframe, source market.DataSource, sim Simulator) *Scheduler {
	return &Scheduler{cfg: cfg, tf: tf, source: source, sim: sim}
}

// Run 遍历 candles 并返回按时间排列的已解析交易。
// candles 要求严格递增；series 的时间戳与策略周期的收盘对齐。
func (s *Scheduler) Run(ctx context.Context, candles []market.Candle, series indicator.Series, port strategy.Port) ([]*strategy.Trade, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("no data: %s %s 区间内没有 K 线", s.cfg.Symbol, s.cfg.Timeframe)
	}
	if !market.Ordered(candles) {
		return nil, fmt.Errorf("K 线时间戳必须严格递增")
	}

	boundaries := collectTimestamps(series)
	cursor := 0
	snapshot := make(map[string]float64)

	var trades []*strategy.Trade
	var active *strategy.Trade

	for i, candle := range candles {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		now := candle.OpenTime

		// 1) 退役：交易在自身 exit_time 时刻已不占用仓位（边界含）。
		// 入场前的在途信号同样占位，所以这里不用 ActiveAt。
		if active != nil && !active.Open() && now >= active.ExitTime {
			active = nil
		}

		// 2) 指标快照前移（tick 模式下即边界间的 forward-fill）
		advanced := false
		for cursor < len(boundaries) && boundaries[cursor] <= candle.CloseTime {
			for name, points := range series {
				if v, ok := points[boundaries[cursor]]; ok {
					snapshot[name] = v
				}
			}
			cursor++
			advanced = true
		}

		sctx := strategy.Context{
			Symbol:     s.cfg.Symbol,
			Timeframe:  s.cfg.Timeframe,
			Candle:     candle,
			History:    candles[:i+1],
			Indicators: copySnapshot(snapshot),
			Position:   active,
		}
		port.OnCandle(sctx)

		if active != nil {
			continue
		}
		// 3) 信号评估：tick 模式只在周期边界评估，否则拿指标值和它自己的
		//    forward-fill 比较会凭空制造或漏掉交叉。
		if s.cfg.UseTickData && !s.evalBoundary(candle, advanced, len(series) > 0) {
			continue
		}
		sig := port.GenerateSignal(sctx)
		if sig == nil {
			continue
		}
		trade, err := s.executeSignal(ctx, sig, port)
		if err != nil {
			return nil, err
		}
		if trade == nil {
			continue
		}
		trades = append(trades, trade)
		active = trade
	}
	return trades, nil
}

// evalBoundary 判断 tick 模式下本根 K 线是否允许评估信号。
func (s *Scheduler) evalBoundary(c market.Candle, snapshotAdvanced, hasIndicators bool) bool {
	if hasIndicators {
		return snapshotAdvanced
	}
	return s.tf.BoundaryAt(c)
}

// executeSignal 拉取执行窗口并交给模拟器。窗口为空只告警不终止。
func (s *Scheduler) executeSignal(ctx context.Context, sig *strategy.Signal, port strategy.Port) (*strategy.Trade, error) {
	windowMinutes := port.ExecutionWindowMinutes()
	if windowMinutes <= 0 {
		windowMinutes = sessionRemainingMinutes(sig.Time)
	}
	window, err := s.source.GetExecutionWindow(ctx, s.cfg.Symbol, sig.Time, windowMinutes, s.cfg.PreMinutes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("[backtest] %s 信号(%s@%d)执行窗口拉取失败，丢弃: %v", s.cfg.Symbol, sig.Direction, sig.Time, err)
		return nil, nil
	}
	if len(window) == 0 {
		logger.Warnf("[backtest] %s 信号(%s@%d)无执行窗口数据，丢弃", s.cfg.Symbol, sig.Direction, sig.Time)
		return nil, nil
	}
	trade := s.sim.Execute(sig, window, port)
	if trade == nil {
		logger.Warnf("[backtest] %s 信号(%s@%d)窗口内无入场 K 线，丢弃", s.cfg.Symbol, sig.Direction, sig.Time)
	}
	return trade, nil
}

// sessionRemainingMinutes 计算信号时间到当日 22:00 UTC 收盘的分钟数。
func sessionRemainingMinutes(ts int64) int {
	t := time.UnixMilli(ts).UTC()
	close := time.Date(t.Year(), t.Month(), t.Day(), sessionCloseHourUTC, 0, 0, 0, time.UTC)
	if !t.Before(close) {
		close = close.Add(24 * time.Hour)
	}
	minutes := int(close.Sub(t) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func collectTimestamps(series indicator.Series) []int64 {
	seen := make(map[int64]struct{})
	for _, points := range series {
		for ts := range points {
			seen[ts] = struct{}{}
		}
	}
	out := make([]int64, 0, len(seen))
	for ts := range seen {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func copySnapshot(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
