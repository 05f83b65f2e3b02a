package strategy

import (
	"encoding/json"
	"math"

	"fxlab/internal/market"
)

// Direction 表示信号/持仓方向。
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// TradeResult 表示一笔交易的最终归类。
type TradeResult string

const (
	ResultWin       TradeResult = "WIN"
	ResultLoss      TradeResult = "LOSS"
	ResultBreakeven TradeResult = "BREAKEVEN"
	ResultEODClose  TradeResult = "EOD_CLOSE"
)

// Signal 由策略产生，描述一次开仓意图。产生后不可变，仅被消费一次。
type Signal struct {
	Direction  Direction      `json:"direction"`
	Price      float64        `json:"price"` // 参考价，真实入场价以执行窗口为准
	Time       int64          `json:"time"`  // Unix 毫秒
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Trade 记录一笔模拟交易的全生命周期。
// 在执行模拟器解析完成前由其独占修改，之后不可变。
type Trade struct {
	Symbol       string      `json:"symbol"`
	Direction    Direction   `json:"direction"`
	EntryTime    int64       `json:"entry_time"`
	EntryPrice   float64     `json:"entry_price"`
	StopLoss     float64     `json:"stop_loss"`
	TakeProfit   float64     `json:"take_profit"`
	TrailingStop *float64    `json:"trailing_stop,omitempty"`
	ExitTime     int64       `json:"exit_time,omitempty"`
	ExitPrice    float64     `json:"exit_price,omitempty"`
	Pips         float64     `json:"pips"`
	Result       TradeResult `json:"result,omitempty"`
}

// MarshalJSON 处理追踪止损模式下 take_profit 的 ±Inf 哨兵值：
// 序列化时直接省略该字段，否则 encoding/json 会报错。
func (t Trade) MarshalJSON() ([]byte, error) {
	type alias Trade
	out := struct {
		alias
		TakeProfit *float64 `json:"take_profit,omitempty"`
	}{alias: alias(t)}
	if !math.IsInf(t.TakeProfit, 0) {
		tp := t.TakeProfit
		out.TakeProfit = &tp
	}
	return json.Marshal(out)
}

// Open 表示交易尚未解析完成。
func (t *Trade) Open() bool { return t.ExitTime == 0 }

// ActiveAt 判断 ts 时刻该交易是否占用仓位。
// 边界规则：交易在自身 exit_time 时刻已不再活跃。
func (t *Trade) ActiveAt(ts int64) bool {
	if t == nil {
		return false
	}
	if ts < t.EntryTime {
		return false
	}
	return t.Open() || ts < t.ExitTime
}

// Context 是传给策略的单根 K 线快照，每根 K 线重建，策略不得跨调用持有。
type Context struct {
	Symbol     string
	Timeframe  string
	Candle     market.Candle
	History    []market.Candle
	Indicators map[string]float64
	Position   *Trade
}

// Port 是策略接入点。实现方只产生信号与接收通知，不直接改动交易状态。
type Port interface {
	// RequiredIndicators 返回策略依赖的指标名，启动前统一校验。
	RequiredIndicators() []string
	// OnCandle 每根 K 线调用一次，纯通知。
	OnCandle(ctx Context)
	// GenerateSignal 在无持仓时调用，返回 nil 表示不开仓。
	GenerateSignal(ctx Context) *Signal
	// OnTradeOpened / OnTradeClosed 是交易生命周期通知，不得改动 trade。
	OnTradeOpened(trade *Trade, ctx Context)
	OnTradeClosed(trade *Trade, ctx Context)
	// ExecutionWindowMinutes 返回执行窗口分钟数，0 表示默认（剩余交易时段）。
	ExecutionWindowMinutes() int
}
