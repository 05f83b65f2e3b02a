package market

import "time"

// Candle 表示一根 K 线，时间均为 Unix 毫秒。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time 返回 open_time 对应的 UTC 时间。
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// Ordered 校验序列时间严格递增且无重复。
func Ordered(candles []Candle) bool {
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime <= candles[i-1].OpenTime {
			return false
		}
	}
	return true
}
