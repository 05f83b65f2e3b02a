package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。区间与 pips 的细节校验留给回测引擎。
func validate(c *Config) error {
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	return c.Sweep.validate()
}

func (d *DataConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(d.Source)) {
	case "rest", "binance":
	default:
		return fmt.Errorf("data.source 只支持 rest/binance，收到: %s", d.Source)
	}
	if d.CacheEnabled && strings.TrimSpace(d.CacheDir) == "" {
		return fmt.Errorf("data.cache_dir 不能为空（已启用缓存）")
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if strings.TrimSpace(b.Symbol) == "" {
		return fmt.Errorf("backtest.symbol 不能为空")
	}
	if strings.TrimSpace(b.Start) == "" || strings.TrimSpace(b.End) == "" {
		return fmt.Errorf("backtest.start/end 不能为空")
	}
	if b.StopLossPips <= 0 {
		return fmt.Errorf("backtest.stop_loss_pips 必须大于 0")
	}
	if !b.Trailing.Enabled && b.TakeProfitPips <= 0 {
		return fmt.Errorf("backtest.take_profit_pips 必须大于 0（未启用追踪止损时）")
	}
	if b.Trailing.Enabled && b.Trailing.TrailDistancePips <= 0 {
		return fmt.Errorf("backtest.trailing.trail_distance_pips 必须大于 0")
	}
	return nil
}

func (s *StrategyConfig) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("strategy.name 不能为空")
	}
	return nil
}

func (s *SweepConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if len(s.Symbols) == 0 {
		return fmt.Errorf("sweep.symbols 不能为空（已启用批量回测）")
	}
	for _, sym := range s.Symbols {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("sweep.symbols 含空白项")
		}
	}
	return nil
}
