package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParamsFile(t *testing.T) {
	path := writeParams(t, `
strategies:
  ma_cross:
    fast: 5
    slow: 20
  rsi_revert:
    period: 7
`)
	file, err := LoadParamsFile(path)
	require.NoError(t, err)

	params := file.Lookup("ma_cross")
	assert.Equal(t, 5, params["fast"])
	assert.Equal(t, 20, params["slow"])

	// 未配置的策略返回空 map 而不是 nil
	assert.NotNil(t, file.Lookup("unknown"))
	assert.Empty(t, file.Lookup("unknown"))
}

func TestLoadParamsFileUnknownField(t *testing.T) {
	path := writeParams(t, `
strategiez:
  ma_cross: {}
`)
	_, err := LoadParamsFile(path)
	assert.Error(t, err)
}

func TestLoadParamsFileMissing(t *testing.T) {
	_, err := LoadParamsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
