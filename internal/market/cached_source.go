package market

import (
	"context"
	"fmt"

	"fxlab/internal/logger"
)

// CachedSource 在远端数据源之上加一层 sqlite 缓存：
// 覆盖范围内直接走本地文件，未覆盖时整段拉取后回填。
// 执行窗口也走缓存，保证同一信号附近的细粒度数据只下载一次。
type CachedSource struct {
	remote DataSource
	store  *Store
}

func NewCachedSource(remote DataSource, store *Store) (*CachedSource, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote source 不能为空")
	}
	if store == nil {
		return nil, fmt.Errorf("candle store 不能为空")
	}
	return &CachedSource{remote: remote, store: store}, nil
}

func (c *CachedSource) Name() string { return c.remote.Name() + "+cache" }

func (c *CachedSource) GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]Candle, error) {
	manifest, err := c.store.Manifest(ctx, symbol, timeframe)
	if err == nil && manifest.Covers(start, end) {
		return c.store.RangeCandles(ctx, symbol, timeframe, start, end)
	}
	fetched, err := c.remote.GetCandles(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	if n, err := c.store.InsertCandles(ctx, symbol, timeframe, fetched); err != nil {
		logger.Warnf("[market] 缓存写入失败 %s %s: %v", symbol, timeframe, err)
	} else if n > 0 {
		logger.Debugf("[market] 缓存回填 %s %s: %d 条", symbol, timeframe, n)
	}
	return fetched, nil
}

func (c *CachedSource) GetExecutionWindow(ctx context.Context, symbol string, signalTime int64, windowMinutes, preMinutes int) ([]Candle, error) {
	start, end := WindowRange(signalTime, windowMinutes, preMinutes)
	return c.GetCandles(ctx, symbol, ExecutionInterval, start, end)
}
