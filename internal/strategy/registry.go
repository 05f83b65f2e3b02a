package strategy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Factory 按参数构建一个策略实例。
type Factory func(params map[string]any) (Port, error)

// Definition 描述一个可注册的策略：工厂函数加可选的参数 JSON Schema。
type Definition struct {
	Name    string
	Factory Factory
	Schema  map[string]any

	schemaCompiled *jsonschema.Schema
}

// Registry 管理策略定义。实例显式构建并注入，不存在包级全局状态。
type Registry struct {
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register 注册策略定义；重名或 schema 编译失败返回错误。
func (r *Registry) Register(def Definition) error {
	name := strings.ToLower(strings.TrimSpace(def.Name))
	if name == "" {
		return fmt.Errorf("策略名不能为空")
	}
	if def.Factory == nil {
		return fmt.Errorf("策略 %s 缺少 factory", name)
	}
	if _, ok := r.defs[name]; ok {
		return fmt.Errorf("策略 %s 已注册", name)
	}
	def.Name = name
	if len(def.Schema) > 0 {
		compiled, err := compileSchema(def.Schema)
		if err != nil {
			return fmt.Errorf("策略 %s 参数 schema 编译失败: %w", name, err)
		}
		def.schemaCompiled = compiled
	}
	r.defs[name] = def
	return nil
}

// Names 返回已注册的策略名（排序后）。
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create 校验参数并实例化策略。
func (r *Registry) Create(name string, params map[string]any) (Port, error) {
	def, ok := r.defs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("未知策略: %s（可选: %s）", name, strings.Join(r.Names(), ", "))
	}
	if def.schemaCompiled != nil {
		if err := def.schemaCompiled.Validate(sanitizeParams(params)); err != nil {
			return nil, fmt.Errorf("策略 %s 参数校验失败: %w", def.Name, err)
		}
	}
	return def.Factory(params)
}

func compileSchema(data map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// sanitizeParams 递归把字符串形式的数字转成 float64，兼容 YAML/JSON 两侧的宽松输入。
func sanitizeParams(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = sanitizeParams(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = sanitizeParams(child)
		}
		return out
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}

// DefaultRegistry 返回带内置策略的注册表。
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// 内置策略注册失败属于编程错误，直接 panic 暴露。
	mustRegister(r, maCrossDefinition())
	mustRegister(r, rsiRevertDefinition())
	return r
}

func mustRegister(r *Registry, def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}
