package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fxlab/internal/backtest"
)

// Config 是 fxlab 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Data     DataConfig     `toml:"data"`
	Backtest BacktestConfig `toml:"backtest"`
	Strategy StrategyConfig `toml:"strategy"`
	Sweep    SweepConfig    `toml:"sweep"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	Serve    bool   `toml:"serve"`
}

// DataConfig 描述行情数据来源与本地缓存。
type DataConfig struct {
	Source       string `toml:"source"` // "rest" | "binance"
	RESTBaseURL  string `toml:"rest_base_url"`
	CacheEnabled bool   `toml:"cache_enabled"`
	CacheDir     string `toml:"cache_dir"`
}

// BacktestConfig 描述一次回测的品种、区间与风控参数。
// start/end 接受 RFC3339 或 Unix 毫秒两种写法。
type BacktestConfig struct {
	Symbol         string         `toml:"symbol"`
	Timeframe      string         `toml:"timeframe"`
	Start          string         `toml:"start"`
	End            string         `toml:"end"`
	StopLossPips   float64        `toml:"stop_loss_pips"`
	TakeProfitPips float64        `toml:"take_profit_pips"`
	Trailing       TrailingConfig `toml:"trailing"`
	UseTickData    bool           `toml:"use_tick_data"`
	PreMinutes     int            `toml:"pre_minutes"`
	MaxConcurrent  int            `toml:"max_concurrent"`
}

type TrailingConfig struct {
	Enabled           bool    `toml:"enabled"`
	ActivationPips    float64 `toml:"activation_pips"`
	TrailDistancePips float64 `toml:"trail_distance_pips"`
}

type StrategyConfig struct {
	Name       string         `toml:"name"`
	ParamsFile string         `toml:"params_file"`
	Params     map[string]any `toml:"params"`
}

// SweepConfig 控制多品种批量回测。
type SweepConfig struct {
	Enabled  bool     `toml:"enabled"`
	Symbols  []string `toml:"symbols"`
	Parallel int      `toml:"parallel"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// RunConfig 把文件配置转换为回测引擎的参数快照。
func (c *Config) RunConfig(params map[string]any) (backtest.Config, error) {
	start, err := parseTimestamp(c.Backtest.Start)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("backtest.start 非法: %w", err)
	}
	end, err := parseTimestamp(c.Backtest.End)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("backtest.end 非法: %w", err)
	}
	return backtest.Config{
		Symbol:         c.Backtest.Symbol,
		Timeframe:      c.Backtest.Timeframe,
		StartTS:        start,
		EndTS:          end,
		StopLossPips:   c.Backtest.StopLossPips,
		TakeProfitPips: c.Backtest.TakeProfitPips,
		Trailing: backtest.TrailingConfig{
			Enabled:           c.Backtest.Trailing.Enabled,
			ActivationPips:    c.Backtest.Trailing.ActivationPips,
			TrailDistancePips: c.Backtest.Trailing.TrailDistancePips,
		},
		MaxOpenTrades:  1,
		UseTickData:    c.Backtest.UseTickData,
		PreMinutes:     c.Backtest.PreMinutes,
		Strategy:       c.Strategy.Name,
		StrategyParams: params,
	}, nil
}

// parseTimestamp 解析 RFC3339 或 Unix 毫秒字符串。
func parseTimestamp(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("不能为空")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UnixMilli(), nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("既不是 RFC3339 也不是毫秒时间戳: %s", raw)
	}
	return ms, nil
}
