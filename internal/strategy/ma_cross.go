package strategy

import (
	"fmt"
	"math"
)

// MACross 是内置的均线交叉策略：快线上穿慢线做多，下穿做空。
type MACross struct {
	fastName string
	slowName string
	window   int

	prevFast float64
	prevSlow float64
	prevOK   bool
}

func maCrossDefinition() Definition {
	return Definition{
		Name: "ma_cross",
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"fast":           map[string]any{"type": "number", "minimum": 2},
				"slow":           map[string]any{"type": "number", "minimum": 3},
				"window_minutes": map[string]any{"type": "number", "minimum": 0},
			},
		},
		Factory: NewMACross,
	}
}

// NewMACross 按参数构建均线交叉策略。
func NewMACross(params map[string]any) (Port, error) {
	fast := intParam(params, "fast", 9)
	slow := intParam(params, "slow", 21)
	if fast >= slow {
		return nil, fmt.Errorf("ma_cross: fast(%d) 必须小于 slow(%d)", fast, slow)
	}
	return &MACross{
		fastName: fmt.Sprintf("ema_%d", fast),
		slowName: fmt.Sprintf("ema_%d", slow),
		window:   intParam(params, "window_minutes", 0),
	}, nil
}

func (s *MACross) RequiredIndicators() []string {
	return []string{s.fastName, s.slowName}
}

func (s *MACross) OnCandle(Context) {}

func (s *MACross) GenerateSignal(ctx Context) *Signal {
	fast, okFast := ctx.Indicators[s.fastName]
	slow, okSlow := ctx.Indicators[s.slowName]
	if !okFast || !okSlow {
		// warmup 区间，重置交叉状态
		s.prevOK = false
		return nil
	}
	defer func() {
		s.prevFast, s.prevSlow, s.prevOK = fast, slow, true
	}()
	if !s.prevOK {
		return nil
	}
	var dir Direction
	switch {
	case s.prevFast <= s.prevSlow && fast > slow:
		dir = Buy
	case s.prevFast >= s.prevSlow && fast < slow:
		dir = Sell
	default:
		return nil
	}
	confidence := 0.5
	if slow != 0 {
		confidence = math.Min(1, 0.5+math.Abs(fast-slow)/math.Abs(slow)*100)
	}
	return &Signal{
		Direction:  dir,
		Price:      ctx.Candle.Close,
		Time:       ctx.Candle.CloseTime,
		Confidence: confidence,
		Metadata: map[string]any{
			"fast": fast,
			"slow": slow,
		},
	}
}

func (s *MACross) OnTradeOpened(*Trade, Context) {}
func (s *MACross) OnTradeClosed(*Trade, Context) {}

func (s *MACross) ExecutionWindowMinutes() int { return s.window }
