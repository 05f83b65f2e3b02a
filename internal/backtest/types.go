package backtest

import (
	"fmt"
	"strings"

	"fxlab/internal/strategy"
)

// TrailingConfig 控制追踪止损。
type TrailingConfig struct {
	Enabled           bool    `json:"enabled"`
	ActivationPips    float64 `json:"activation_pips"`
	TrailDistancePips float64 `json:"trail_distance_pips"`
}

// Config 是一次回测的参数快照。
type Config struct {
	Symbol         string         `json:"symbol"`
	Timeframe      string         `json:"timeframe"`
	StartTS        int64          `json:"start_ts"` // Unix 毫秒
	EndTS          int64          `json:"end_ts"`
	StopLossPips   float64        `json:"stop_loss_pips"`
	TakeProfitPips float64        `json:"take_profit_pips"`
	Trailing       TrailingConfig `json:"trailing"`
	MaxOpenTrades  int            `json:"max_open_trades"` // 固定为 1
	UseTickData    bool           `json:"use_tick_data"`
	PreMinutes     int            `json:"pre_minutes"` // 执行窗口提前量
	Strategy       string         `json:"strategy"`
	StrategyParams map[string]any `json:"strategy_params,omitempty"`
}

// Normalize 填默认值并做基础校验。
func (c *Config) Normalize() error {
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	if c.Symbol == "" {
		return fmt.Errorf("symbol 不能为空")
	}
	tf, err := ParseTimeframe(c.Timeframe)
	if err != nil {
		return err
	}
	c.Timeframe = tf.Key
	c.StartTS, c.EndTS = tf.AlignRange(c.StartTS, c.EndTS)
	if c.StartTS <= 0 || c.EndTS <= 0 || c.EndTS <= c.StartTS {
		return fmt.Errorf("start/end 非法")
	}
	if c.StopLossPips <= 0 {
		return fmt.Errorf("stop_loss_pips 必须大于 0")
	}
	if !c.Trailing.Enabled && c.TakeProfitPips <= 0 {
		return fmt.Errorf("take_profit_pips 必须大于 0（未启用追踪止损时）")
	}
	if c.Trailing.Enabled {
		if c.Trailing.ActivationPips < 0 {
			return fmt.Errorf("trailing.activation_pips 不能为负")
		}
		if c.Trailing.TrailDistancePips <= 0 {
			return fmt.Errorf("trailing.trail_distance_pips 必须大于 0")
		}
	}
	if c.MaxOpenTrades <= 0 {
		c.MaxOpenTrades = 1
	}
	if c.MaxOpenTrades != 1 {
		return fmt.Errorf("max_open_trades 目前仅支持 1")
	}
	if c.PreMinutes <= 0 {
		c.PreMinutes = 2
	}
	if strings.TrimSpace(c.Strategy) == "" {
		return fmt.Errorf("strategy 不能为空")
	}
	return nil
}

// Results 汇总一次回测的全部产出。
type Results struct {
	Trades []*strategy.Trade `json:"trades"`
	Stats  Stats             `json:"stats"`
}
