package config

import "strings"

const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9991"
	defaultAppLogPath    = "data/logs/fxlab.log"
	defaultDataSource    = "rest"
	defaultDataREST      = "https://fapi.binance.com"
	defaultDataCacheDir  = "data/candles"
	defaultTimeframe     = "15m"
	defaultPreMinutes    = 2
	defaultMaxConcurrent = 2
	defaultSweepParallel = 4
)

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

// applyDefaults 为所有子配置应用默认值，keys 里出现过的键不覆盖。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Data.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
	c.Sweep.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DataConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("data.source", &d.Source, defaultDataSource),
		stringFieldDefault("data.rest_base_url", &d.RESTBaseURL, defaultDataREST),
		stringFieldDefault("data.cache_dir", &d.CacheDir, defaultDataCacheDir),
		fieldDefault{
			key:   "data.cache_enabled",
			apply: func() { d.CacheEnabled = true },
		},
	)
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("backtest.timeframe", &b.Timeframe, defaultTimeframe),
		fieldDefault{
			key:   "backtest.pre_minutes",
			need:  func() bool { return b.PreMinutes <= 0 },
			apply: func() { b.PreMinutes = defaultPreMinutes },
		},
		fieldDefault{
			key:   "backtest.max_concurrent",
			need:  func() bool { return b.MaxConcurrent <= 0 },
			apply: func() { b.MaxConcurrent = defaultMaxConcurrent },
		},
	)
}

func (s *SweepConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "sweep.parallel",
			need:  func() bool { return s.Parallel <= 0 },
			apply: func() { s.Parallel = defaultSweepParallel },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && strings.TrimSpace(*target) == "" },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
