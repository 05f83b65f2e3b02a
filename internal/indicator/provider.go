package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/markcheno/go-talib"

	"fxlab/internal/market"
)

// Series 是指标名到「close_time → 值」的映射。
type Series map[string]map[int64]float64

// Provider 基于 talib 计算命名指标序列，时间戳与输入 K 线对齐。
// 支持的名字：ema_N / sma_N / rsi_N / atr_N / macd / macd_signal / macd_hist。
type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

// Validate 校验名字列表是否全部可计算，供启动前快速失败。
func (p *Provider) Validate(names []string) error {
	for _, name := range names {
		if _, _, err := parseName(name); err != nil {
			return err
		}
	}
	return nil
}

// Compute 计算 names 指定的所有指标。warmup 区间内的点不会出现在结果里。
func (p *Provider) Compute(candles []market.Candle, names []string) (Series, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles")
	}
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		// 退化 K 线（high == low）会让部分指标除零，做 epsilon 替换
		if highs[i] == lows[i] {
			highs[i] += 1e-9
		}
	}
	out := make(Series, len(names))
	for _, name := range names {
		kind, period, err := parseName(name)
		if err != nil {
			return nil, err
		}
		var values []float64
		var warmup int
		switch kind {
		case "ema":
			values = talib.Ema(closes, period)
			warmup = period - 1
		case "sma":
			values = talib.Sma(closes, period)
			warmup = period - 1
		case "rsi":
			values = talib.Rsi(closes, period)
			warmup = period
		case "atr":
			values = talib.Atr(highs, lows, closes, period)
			warmup = period
		case "macd", "macd_signal", "macd_hist":
			macd, signal, hist := talib.Macd(closes, 12, 26, 9)
			switch kind {
			case "macd":
				values = macd
			case "macd_signal":
				values = signal
			default:
				values = hist
			}
			warmup = 33 // 26+9-2
		}
		if len(values) < len(candles) {
			return nil, fmt.Errorf("指标 %s 输出长度异常: %d/%d", name, len(values), len(candles))
		}
		points := make(map[int64]float64, len(candles))
		for i := warmup; i < len(candles); i++ {
			points[candles[i].CloseTime] = values[i]
		}
		out[name] = points
	}
	return out, nil
}

// parseName 拆解 "rsi_14" 这类指标名。
func parseName(name string) (kind string, period int, err error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	switch lowered {
	case "macd", "macd_signal", "macd_hist":
		return lowered, 0, nil
	}
	idx := strings.LastIndex(lowered, "_")
	if idx <= 0 {
		return "", 0, fmt.Errorf("未知指标: %s", name)
	}
	kind = lowered[:idx]
	switch kind {
	case "ema", "sma", "rsi", "atr":
	default:
		return "", 0, fmt.Errorf("未知指标: %s", name)
	}
	period, convErr := strconv.Atoi(lowered[idx+1:])
	if convErr != nil || period <= 0 {
		return "", 0, fmt.Errorf("指标周期无效: %s", name)
	}
	return kind, period, nil
}
