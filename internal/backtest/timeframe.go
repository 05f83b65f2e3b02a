package backtest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fxlab/internal/market"
)

// Timeframe 描述策略周期（内部 duration + 数据源 interval）。
type Timeframe struct {
	Key            string
	Duration       time.Duration
	SourceInterval string
}

var supportedTimeframes = map[string]Timeframe{
	"1m":  {Key: "1m", Duration: time.Minute, SourceInterval: "1m"},
	"5m":  {Key: "5m", Duration: 5 * time.Minute, SourceInterval: "5m"},
	"15m": {Key: "15m", Duration: 15 * time.Minute, SourceInterval: "15m"},
	"30m": {Key: "30m", Duration: 30 * time.Minute, SourceInterval: "30m"},
	"1h":  {Key: "1h", Duration: time.Hour, SourceInterval: "1h"},
	"4h":  {Key: "4h", Duration: 4 * time.Hour, SourceInterval: "4h"},
	"1d":  {Key: "1d", Duration: 24 * time.Hour, SourceInterval: "1d"},
}

// ParseTimeframe 返回标准化周期定义。
func ParseTimeframe(input string) (Timeframe, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	tf, ok := supportedTimeframes[key]
	if !ok {
		return Timeframe{}, fmt.Errorf("不支持的周期: %s", input)
	}
	return tf, nil
}

// SupportedTimeframes 返回所有支持的 key（排序后）。
func SupportedTimeframes() []string {
	keys := make([]string, 0, len(supportedTimeframes))
	for k := range supportedTimeframes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (tf Timeframe) durationMillis() int64 {
	return tf.Duration.Milliseconds()
}

func alignDown(ts, step int64) int64 {
	if step <= 0 {
		return ts
	}
	rem := ts % step
	if rem < 0 {
		rem += step
	}
	return ts - rem
}

// AlignRange 将毫秒时间对齐到周期网格，保证 start<=end。
func (tf Timeframe) AlignRange(start, end int64) (int64, int64) {
	step := tf.durationMillis()
	if end < start {
		start, end = end, start
	}
	alStart := alignDown(start, step)
	alEnd := alignDown(end, step)
	if alEnd < alStart {
		alEnd = alStart
	}
	return alStart, alEnd
}

// BoundaryAt 判断一根细粒度 K 线是否恰好收在本周期的网格点上。
func (tf Timeframe) BoundaryAt(c market.Candle) bool {
	end := c.CloseTime + 1 // close_time 多为区间末毫秒（…:59.999）
	if end%tf.durationMillis() == 0 {
		return true
	}
	return c.CloseTime%tf.durationMillis() == 0
}

// Resample 把细粒度序列聚合为本周期的 K 线；末尾的桶可能不完整。
func (tf Timeframe) Resample(fine []market.Candle) []market.Candle {
	if len(fine) == 0 {
		return nil
	}
	step := tf.durationMillis()
	var out []market.Candle
	var cur *market.Candle
	var bucket int64 = -1
	for _, c := range fine {
		b := alignDown(c.OpenTime, step)
		if b != bucket {
			if cur != nil {
				out = append(out, *cur)
			}
			bucket = b
			copied := c
			copied.OpenTime = b
			copied.CloseTime = b + step - 1
			cur = &copied
			continue
		}
		cur.High = maxFloat(cur.High, c.High)
		cur.Low = minFloat(cur.Low, c.Low)
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
