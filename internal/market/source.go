package market

import "context"

// ExecutionInterval 是执行窗口使用的细粒度周期。
const ExecutionInterval = "1m"

// DataSource 统一不同数据后端的 K 线获取行为。
// GetCandles 返回按 open_time 升序的策略周期序列；
// GetExecutionWindow 返回信号时间附近的细粒度窗口（提前 preMinutes 开始）。
type DataSource interface {
	GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]Candle, error)
	GetExecutionWindow(ctx context.Context, symbol string, signalTime int64, windowMinutes, preMinutes int) ([]Candle, error)
	Name() string
}

// WindowRange 计算执行窗口的毫秒时间范围。
func WindowRange(signalTime int64, windowMinutes, preMinutes int) (int64, int64) {
	start := signalTime - int64(preMinutes)*60_000
	end := signalTime + int64(windowMinutes)*60_000
	if start < 0 {
		start = 0
	}
	return start, end
}
