package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxlab/internal/market"
)

func crossCtx(closeTime int64, fast, slow float64) Context {
	return Context{
		Symbol: "EURUSD",
		Candle: market.Candle{OpenTime: closeTime - 59_999, CloseTime: closeTime, Close: 1.1000},
		Indicators: map[string]float64{
			"ema_9":  fast,
			"ema_21": slow,
		},
	}
}

func TestMACrossSignals(t *testing.T) {
	port, err := NewMACross(nil)
	require.NoError(t, err)

	// 第一根只记录状态
	assert.Nil(t, port.GenerateSignal(crossCtx(60_000, 1.0, 1.1)))
	// 快线仍在慢线下方，无信号
	assert.Nil(t, port.GenerateSignal(crossCtx(120_000, 1.05, 1.1)))

	sig := port.GenerateSignal(crossCtx(180_000, 1.2, 1.1))
	require.NotNil(t, sig)
	assert.Equal(t, Buy, sig.Direction)
	assert.Equal(t, int64(180_000), sig.Time)

	// 上穿之后保持在上方，不重复发信号
	assert.Nil(t, port.GenerateSignal(crossCtx(240_000, 1.3, 1.1)))

	sig = port.GenerateSignal(crossCtx(300_000, 1.0, 1.1))
	require.NotNil(t, sig)
	assert.Equal(t, Sell, sig.Direction)
}

// 指标缺失（warmup）会清空交叉状态，恢复后需重新建立基线。
func TestMACrossWarmupReset(t *testing.T) {
	port, err := NewMACross(nil)
	require.NoError(t, err)

	assert.Nil(t, port.GenerateSignal(crossCtx(60_000, 1.0, 1.1)))

	empty := Context{Candle: market.Candle{CloseTime: 120_000}}
	assert.Nil(t, port.GenerateSignal(empty))

	// 基线丢失，直接给出上穿后的值也不触发
	assert.Nil(t, port.GenerateSignal(crossCtx(180_000, 1.2, 1.1)))
	sig := port.GenerateSignal(crossCtx(240_000, 1.0, 1.1))
	require.NotNil(t, sig)
	assert.Equal(t, Sell, sig.Direction)
}

func TestMACrossParamValidation(t *testing.T) {
	_, err := NewMACross(map[string]any{"fast": 21, "slow": 9})
	assert.Error(t, err)

	port, err := NewMACross(map[string]any{"window_minutes": 90})
	require.NoError(t, err)
	assert.Equal(t, 90, port.ExecutionWindowMinutes())
}
