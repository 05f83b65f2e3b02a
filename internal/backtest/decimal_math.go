package backtest

import (
	"math"

	"github.com/shopspring/decimal"
)

var decimalZero = decimal.Zero

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimalZero
	}
	return decimal.NewFromFloat(val)
}

// decimalCompare 在十进制域比较两个价格，规避二进制浮点的边界误判。
// ±Inf 的 sentinel 价格单独处理，永远不可触及。
func decimalCompare(a, b float64) int {
	if math.IsInf(b, 1) {
		return -1
	}
	if math.IsInf(b, -1) {
		return 1
	}
	return decFromFloat(a).Cmp(decFromFloat(b))
}

func decimalLTE(a, b float64) bool { return decimalCompare(a, b) <= 0 }
func decimalGTE(a, b float64) bool { return decimalCompare(a, b) >= 0 }
func decimalGT(a, b float64) bool  { return decimalCompare(a, b) > 0 }
func decimalLT(a, b float64) bool  { return decimalCompare(a, b) < 0 }
