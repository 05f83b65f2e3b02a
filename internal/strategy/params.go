package strategy

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParamsFile 映射策略参数文件：
//
//	strategies:
//	  ma_cross:
//	    fast: 9
//	    slow: 21
type ParamsFile struct {
	Strategies map[string]map[string]any `yaml:"strategies"`
}

// LoadParamsFile 读取 YAML 参数文件，未知字段视为错误。
func LoadParamsFile(path string) (ParamsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParamsFile{}, fmt.Errorf("读取策略参数文件失败: %w", err)
	}
	var cfg ParamsFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return ParamsFile{}, fmt.Errorf("解析策略参数文件失败: %w", err)
	}
	return cfg, nil
}

// Lookup 返回指定策略的参数，未配置时返回空 map。
func (f ParamsFile) Lookup(name string) map[string]any {
	if f.Strategies == nil {
		return map[string]any{}
	}
	if params, ok := f.Strategies[name]; ok && params != nil {
		return params
	}
	return map[string]any{}
}

// numParam 从参数 map 里取数字，支持 YAML/JSON 解码出的各种数值类型。
func numParam(params map[string]any, key string, fallback float64) float64 {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		return fallback
	default:
		return fallback
	}
}

func intParam(params map[string]any, key string, fallback int) int {
	return int(numParam(params, key, float64(fallback)))
}
