package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 各品种类别的最小报价单位。
const (
	pipForex = 0.0001
	pipJPY   = 0.01
	pipMetal = 0.01
	pipIndex = 1.0
)

var indexSymbols = map[string]struct{}{
	"NAS100": {},
	"US30":   {},
	"US500":  {},
	"SPX500": {},
	"GER40":  {},
	"UK100":  {},
	"JPN225": {},
	"AUS200": {},
	"FRA40":  {},
	"EU50":   {},
}

var metalPrefixes = []string{"XAU", "XAG", "XPT", "XPD"}

// PipSize 按品种类别返回一个 pip 的十进制大小：
// 日元报价对 0.01，主流指数 1.0，贵金属 0.01，其余外汇 0.0001。
func PipSize(symbol string) float64 {
	s := normalizeSymbol(symbol)
	if _, ok := indexSymbols[s]; ok {
		return pipIndex
	}
	for _, prefix := range metalPrefixes {
		if strings.HasPrefix(s, prefix) {
			return pipMetal
		}
	}
	if strings.HasSuffix(s, "JPY") {
		return pipJPY
	}
	return pipForex
}

// PipsBetween 计算 a-b 的 pip 数（带符号），用 decimal 规避浮点尾差。
func PipsBetween(symbol string, a, b float64) float64 {
	pip := decimal.NewFromFloat(PipSize(symbol))
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b))
	out, _ := diff.Div(pip).Float64()
	return out
}

// PriceOffset 返回 price 偏移 pips 个 pip 后的价格。
func PriceOffset(symbol string, price, pips float64) float64 {
	pip := decimal.NewFromFloat(PipSize(symbol))
	base := decimal.NewFromFloat(price)
	out, _ := base.Add(pip.Mul(decimal.NewFromFloat(pips))).Float64()
	return out
}

func normalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}
