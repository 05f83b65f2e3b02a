package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryNames(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"ma_cross", "rsi_revert"}, r.Names())
}

func TestRegistryCreate(t *testing.T) {
	r := DefaultRegistry()

	port, err := r.Create("ma_cross", map[string]any{"fast": 5, "slow": 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"ema_5", "ema_20"}, port.RequiredIndicators())

	// 大小写与空白不敏感
	_, err = r.Create("  MA_CROSS ", nil)
	assert.NoError(t, err)

	_, err = r.Create("nonexistent", nil)
	assert.Error(t, err)
}

func TestRegistryCreateSchemaViolation(t *testing.T) {
	r := DefaultRegistry()

	// additionalProperties: false
	_, err := r.Create("ma_cross", map[string]any{"fasst": 5})
	assert.Error(t, err)

	// minimum 校验
	_, err = r.Create("ma_cross", map[string]any{"fast": 1})
	assert.Error(t, err)
}

// YAML 里写成字符串的数字也能通过 schema 校验。
func TestRegistryCreateStringNumbers(t *testing.T) {
	r := DefaultRegistry()
	port, err := r.Create("ma_cross", map[string]any{"fast": "5", "slow": 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"ema_5", "ema_20"}, port.RequiredIndicators())
}

func TestRegistryCreateFactoryError(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Create("ma_cross", map[string]any{"fast": 21, "slow": 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fast")
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	def := maCrossDefinition()
	require.NoError(t, r.Register(def))
	assert.Error(t, r.Register(def))
}
