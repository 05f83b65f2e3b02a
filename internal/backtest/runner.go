package backtest

import (
	"context"
	"fmt"

	"fxlab/internal/indicator"
	"fxlab/internal/logger"
	"fxlab/internal/market"
	"fxlab/internal/strategy"
)

// Runner 把数据源、指标、策略和调度器串成一次完整回测。
type Runner struct {
	source   market.DataSource
	provider *indicator.Provider
	registry *strategy.Registry
}

func NewRunner(source market.DataSource, provider *indicator.Provider, registry *strategy.Registry) *Runner {
	return &Runner{source: source, provider: provider, registry: registry}
}

// Run 执行一次回测。配置非法、指标不可算、区间无数据都直接报错。
func (r *Runner) Run(ctx context.Context, cfg Config) (*Results, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	tf, err := ParseTimeframe(cfg.Timeframe)
	if err != nil {
		return nil, err
	}

	port, err := r.registry.Create(cfg.Strategy, cfg.StrategyParams)
	if err != nil {
		return nil, err
	}
	required := port.RequiredIndicators()
	if err := r.provider.Validate(required); err != nil {
		return nil, fmt.Errorf("策略 %s 指标不可用: %w", cfg.Strategy, err)
	}

	// tick 模式下驱动序列用 1m 细粒度，指标仍按策略周期聚合后计算，
	// 避免细粒度收盘价污染周期指标。
	driveInterval := tf.SourceInterval
	if cfg.UseTickData {
		driveInterval = market.ExecutionInterval
	}
	candles, err := r.source.GetCandles(ctx, cfg.Symbol, driveInterval, cfg.StartTS, cfg.EndTS)
	if err != nil {
		return nil, fmt.Errorf("拉取 %s %s K 线失败: %w", cfg.Symbol, driveInterval, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no data: %s %s 在 [%d, %d] 区间内没有 K 线", cfg.Symbol, cfg.Timeframe, cfg.StartTS, cfg.EndTS)
	}

	var series indicator.Series
	if len(required) > 0 {
		indicatorCandles := candles
		if cfg.UseTickData {
			indicatorCandles = tf.Resample(candles)
		}
		series, err = r.provider.Compute(indicatorCandles, required)
		if err != nil {
			return nil, fmt.Errorf("计算指标失败: %w", err)
		}
	}

	sim := NewWindowSimulator(cfg)
	sched := NewScheduler(cfg, tf, r.source, sim)
	trades, err := sched.Run(ctx, candles, series, port)
	if err != nil {
		return nil, err
	}

	stats := Reduce(trades)
	logger.Infof("[backtest] %s %s 完成: %d 笔交易, 净 %.1f pips, 胜率 %.1f%%",
		cfg.Symbol, cfg.Strategy, stats.TotalTrades, stats.TotalPips, stats.WinRate*100)
	return &Results{Trades: trades, Stats: stats}, nil
}
