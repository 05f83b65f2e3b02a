package strategy

import (
	"fmt"
)

// RSIRevert 是内置的 RSI 均值回归策略：
// RSI 从超卖区上穿回来做多，从超买区下穿回来做空。
type RSIRevert struct {
	name       string
	oversold   float64
	overbought float64
	window     int

	prev   float64
	prevOK bool
}

func rsiRevertDefinition() Definition {
	return Definition{
		Name: "rsi_revert",
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"period":         map[string]any{"type": "number", "minimum": 2},
				"oversold":       map[string]any{"type": "number", "minimum": 1, "maximum": 50},
				"overbought":     map[string]any{"type": "number", "minimum": 50, "maximum": 99},
				"window_minutes": map[string]any{"type": "number", "minimum": 0},
			},
		},
		Factory: NewRSIRevert,
	}
}

// NewRSIRevert 按参数构建 RSI 回归策略。
func NewRSIRevert(params map[string]any) (Port, error) {
	period := intParam(params, "period", 14)
	oversold := numParam(params, "oversold", 30)
	overbought := numParam(params, "overbought", 70)
	if oversold >= overbought {
		return nil, fmt.Errorf("rsi_revert: oversold(%.1f) 必须小于 overbought(%.1f)", oversold, overbought)
	}
	return &RSIRevert{
		name:       fmt.Sprintf("rsi_%d", period),
		oversold:   oversold,
		overbought: overbought,
		window:     intParam(params, "window_minutes", 0),
	}, nil
}

func (s *RSIRevert) RequiredIndicators() []string {
	return []string{s.name}
}

func (s *RSIRevert) OnCandle(Context) {}

func (s *RSIRevert) GenerateSignal(ctx Context) *Signal {
	val, ok := ctx.Indicators[s.name]
	if !ok {
		s.prevOK = false
		return nil
	}
	defer func() {
		s.prev, s.prevOK = val, true
	}()
	if !s.prevOK {
		return nil
	}
	var dir Direction
	switch {
	case s.prev < s.oversold && val >= s.oversold:
		dir = Buy
	case s.prev > s.overbought && val <= s.overbought:
		dir = Sell
	default:
		return nil
	}
	// 离中轴越远信心越高
	confidence := 0.5
	if dir == Buy {
		confidence += (s.oversold - s.prev) / 100
	} else {
		confidence += (s.prev - s.overbought) / 100
	}
	return &Signal{
		Direction:  dir,
		Price:      ctx.Candle.Close,
		Time:       ctx.Candle.CloseTime,
		Confidence: confidence,
		Metadata:   map[string]any{"rsi": val, "prev_rsi": s.prev},
	}
}

func (s *RSIRevert) OnTradeOpened(*Trade, Context) {}
func (s *RSIRevert) OnTradeClosed(*Trade, Context) {}

func (s *RSIRevert) ExecutionWindowMinutes() int { return s.window }
