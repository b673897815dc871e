package market

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueExtractor 从记录里尝试取出一个美元价格
type ValueExtractor interface {
	Extract(rec Record) (decimal.Decimal, bool)
}

// FieldExtractor 按字段路径取值，例如 "metadata.usdPrice"
type FieldExtractor string

func (f FieldExtractor) Extract(rec Record) (decimal.Decimal, bool) {
	return toDecimal(rec.Get(string(f)))
}

// ValueChain 有序候选列表，第一个能解析为有限数值的候选胜出
type ValueChain []ValueExtractor

func NewValueChain(extractors ...ValueExtractor) ValueChain {
	return ValueChain(extractors)
}

// DefaultValueChain 已知的价格字段
var DefaultValueChain = NewValueChain(
	FieldExtractor("usdPrice"),
	FieldExtractor("priceUsd"),
	FieldExtractor("price_usd"),
	FieldExtractor("priceUSD"),
	FieldExtractor("metadata.usdPrice"),
)

func (c ValueChain) Extract(rec Record) (decimal.Decimal, bool) {
	for _, e := range c {
		if d, ok := e.Extract(rec); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

// Num 数值价格，没有则为 0
func (c ValueChain) Num(rec Record) float64 {
	d, ok := c.Extract(rec)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// Display 展示价格："$1234" (>=100) 或 "$12.50"，没有则为空串
func (c ValueChain) Display(rec Record) string {
	d, ok := c.Extract(rec)
	if !ok {
		return ""
	}
	places := int32(2)
	if d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		places = 0
	}
	return "$" + d.StringFixed(places)
}

// UsdNum 记录的数值美元价格
func UsdNum(rec Record) float64 { return DefaultValueChain.Num(rec) }

// PickUsd 记录的展示价格
func PickUsd(rec Record) string { return DefaultValueChain.Display(rec) }

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		return parseDecimal(t.String())
	case string:
		return parseDecimal(t)
	}
	return decimal.Zero, false
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	// "1e400" 之类超出 float64 范围的值视为不可解析
	if f, _ := d.Float64(); math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return d, true
}
