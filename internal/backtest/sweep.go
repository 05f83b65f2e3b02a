package backtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"fxlab/internal/logger"
)

// SweepResult 是单个品种在批量回测中的产出。
type SweepResult struct {
	Symbol  string   `json:"symbol"`
	Results *Results `json:"results,omitempty"`
	Err     string   `json:"error,omitempty"`
}

// Sweep 用同一份配置并行回测多个品种。单品种失败只记录，不中断其余品种；
// ctx 取消则整体终止。
func (r *Runner) Sweep(ctx context.Context, base Config, symbols []string, parallel int) ([]SweepResult, error) {
	if parallel <= 0 {
		parallel = 4
	}
	var mu sync.Mutex
	out := make([]SweepResult, 0, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			cfg := base
			cfg.Symbol = symbol
			results, err := r.Run(gctx, cfg)
			item := SweepResult{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warnf("[sweep] %s 回测失败: %v", symbol, err)
				item.Err = err.Error()
			} else {
				item.Results = results
			}
			mu.Lock()
			out = append(out, item)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
