package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipSize(t *testing.T) {
	cases := []struct {
		symbol string
		want   float64
	}{
		{"EURUSD", 0.0001},
		{"GBPUSD", 0.0001},
		{"USDJPY", 0.01},
		{"eur/jpy", 0.01},
		{"XAUUSD", 0.01},
		{"xag_usd", 0.01},
		{"NAS100", 1.0},
		{"us30", 1.0},
		{"GER40", 1.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PipSize(tc.symbol), tc.symbol)
	}
}

func TestPipsBetween(t *testing.T) {
	// 0.0001 的浮点尾差不应影响结果
	assert.InDelta(t, 15, PipsBetween("EURUSD", 1.1015, 1.1000), 1e-9)
	assert.InDelta(t, -50, PipsBetween("USDJPY", 149.50, 150.00), 1e-9)
	assert.InDelta(t, 120, PipsBetween("NAS100", 15620, 15500), 1e-9)
}

func TestPriceOffset(t *testing.T) {
	assert.Equal(t, 1.0990, PriceOffset("EURUSD", 1.1000, -10))
	assert.Equal(t, 150.25, PriceOffset("USDJPY", 150.00, 25))
	assert.Equal(t, 1815.0, PriceOffset("XAUUSD", 1800.0, 1500))
}

func TestWindowRange(t *testing.T) {
	start, end := WindowRange(600_000, 10, 2)
	assert.Equal(t, int64(480_000), start)
	assert.Equal(t, int64(1_200_000), end)

	start, _ = WindowRange(60_000, 5, 2)
	assert.Equal(t, int64(0), start)
}

func TestOrdered(t *testing.T) {
	a := Candle{OpenTime: 1, CloseTime: 2}
	b := Candle{OpenTime: 3, CloseTime: 4}
	assert.True(t, Ordered([]Candle{a, b}))
	assert.False(t, Ordered([]Candle{b, a}))
	assert.True(t, Ordered(nil))
}
