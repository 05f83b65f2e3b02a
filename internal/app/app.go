package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"fxlab/internal/backtest"
	"fxlab/internal/config"
	"fxlab/internal/indicator"
	"fxlab/internal/logger"
	"fxlab/internal/market"
	"fxlab/internal/strategy"
	backtesthttp "fxlab/internal/transport/http/backtest"
)

// App 装配数据源、策略注册表与回测服务。
type App struct {
	cfg      *config.Config
	store    *market.Store
	source   market.DataSource
	registry *strategy.Registry
	runner   *backtest.Runner
	svc      *backtest.Service
}

// NewApp 按配置构建整个应用。
func NewApp(cfg *config.Config) (*App, error) {
	remote, err := buildRemoteSource(cfg.Data)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, registry: strategy.DefaultRegistry()}

	source := remote
	if cfg.Data.CacheEnabled {
		store, err := market.NewStore(cfg.Data.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("打开 K 线缓存失败: %w", err)
		}
		cached, err := market.NewCachedSource(remote, store)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.store = store
		source = cached
	}
	a.source = source
	a.runner = backtest.NewRunner(source, indicator.NewProvider(), a.registry)
	a.svc = backtest.NewService(a.runner, cfg.Backtest.MaxConcurrent)
	return a, nil
}

func buildRemoteSource(data config.DataConfig) (market.DataSource, error) {
	switch strings.ToLower(strings.TrimSpace(data.Source)) {
	case "binance":
		return market.NewBinanceSource(data.RESTBaseURL), nil
	case "rest", "":
		return market.NewRESTSource(data.RESTBaseURL), nil
	default:
		return nil, fmt.Errorf("未知数据源: %s", data.Source)
	}
}

// Close 释放缓存等底层资源。
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Run 根据配置选择运行模式：HTTP 服务、批量回测或单次回测。
func (a *App) Run(ctx context.Context) error {
	if a.cfg.App.Serve {
		return a.serve(ctx)
	}
	if a.cfg.Sweep.Enabled {
		return a.runSweep(ctx)
	}
	return a.runOnce(ctx)
}

func (a *App) serve(ctx context.Context) error {
	srv, err := backtesthttp.NewServer(backtesthttp.Config{
		Addr:     a.cfg.App.HTTPAddr,
		Svc:      a.svc,
		Registry: a.registry,
	})
	if err != nil {
		return err
	}
	logger.Infof("[app] HTTP 服务监听 %s", a.cfg.App.HTTPAddr)
	return srv.Start(ctx)
}

func (a *App) runOnce(ctx context.Context) error {
	runCfg, err := a.buildRunConfig()
	if err != nil {
		return err
	}
	results, err := a.runner.Run(ctx, runCfg)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func (a *App) runSweep(ctx context.Context) error {
	runCfg, err := a.buildRunConfig()
	if err != nil {
		return err
	}
	results, err := a.runner.Sweep(ctx, runCfg, a.cfg.Sweep.Symbols, a.cfg.Sweep.Parallel)
	if err != nil {
		return err
	}
	return printJSON(results)
}

// buildRunConfig 合并策略参数（参数文件优先级低于内联 params）。
func (a *App) buildRunConfig() (backtest.Config, error) {
	params := map[string]any{}
	if path := strings.TrimSpace(a.cfg.Strategy.ParamsFile); path != "" {
		file, err := strategy.LoadParamsFile(path)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("读取策略参数文件失败: %w", err)
		}
		for k, v := range file.Lookup(a.cfg.Strategy.Name) {
			params[k] = v
		}
	}
	for k, v := range a.cfg.Strategy.Params {
		params[k] = v
	}
	return a.cfg.RunConfig(params)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
