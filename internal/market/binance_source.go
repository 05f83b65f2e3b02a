package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"
)

const binanceMaxLimit = 1500

// BinanceSource 基于 go-binance SDK 实现 DataSource，用于加密货币品种。
type BinanceSource struct {
	client *futures.Client
}

func NewBinanceSource(baseURL string) *BinanceSource {
	client := futures.NewClient("", "")
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		client.BaseURL = trimmed
	}
	return &BinanceSource{client: client}
}

func (b *BinanceSource) Name() string { return "binance" }

func (b *BinanceSource) GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]Candle, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	interval := strings.ToLower(strings.TrimSpace(timeframe))
	if interval == "" {
		return nil, fmt.Errorf("timeframe 不能为空")
	}
	var out []Candle
	cursor := start
	for {
		svc := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(binanceMaxLimit)
		if cursor > 0 {
			svc = svc.StartTime(cursor)
		}
		if end > 0 {
			svc = svc.EndTime(end)
		}
		kls, err := svc.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines 拉取失败: %w", err)
		}
		if len(kls) == 0 {
			break
		}
		for _, k := range kls {
			out = append(out, Candle{
				OpenTime:  k.OpenTime,
				CloseTime: k.CloseTime,
				Open:      parsePrice(k.Open),
				High:      parsePrice(k.High),
				Low:       parsePrice(k.Low),
				Close:     parsePrice(k.Close),
				Volume:    parsePrice(k.Volume),
			})
		}
		last := kls[len(kls)-1]
		if len(kls) < binanceMaxLimit || last.OpenTime >= end {
			break
		}
		cursor = last.OpenTime + 1
	}
	return out, nil
}

func (b *BinanceSource) GetExecutionWindow(ctx context.Context, symbol string, signalTime int64, windowMinutes, preMinutes int) ([]Candle, error) {
	start, end := WindowRange(signalTime, windowMinutes, preMinutes)
	return b.GetCandles(ctx, symbol, ExecutionInterval, start, end)
}

func parsePrice(raw string) float64 {
	f, _ := strconv.ParseFloat(raw, 64)
	return f
}
