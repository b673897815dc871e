package market

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUsdNumFields(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want float64
	}{
		{"usdPrice", Record{"usdPrice": 12.5}, 12.5},
		{"priceUsd", Record{"priceUsd": "7"}, 7},
		{"price_usd", Record{"price_usd": json.Number("3.25")}, 3.25},
		{"priceUSD", Record{"priceUSD": 150}, 150},
		{"metadata.usdPrice", Record{"metadata": map[string]any{"usdPrice": "42"}}, 42},
		{"first wins", Record{"usdPrice": 1, "priceUsd": 2}, 1},
		{"skip unparsable", Record{"usdPrice": "n/a", "priceUsd": "9"}, 9},
		{"skip overflow", Record{"usdPrice": "1e400", "priceUsd": 7}, 7},
		{"skip overflow number", Record{"usdPrice": json.Number("-1e400"), "priceUsd": "7"}, 7},
		{"none", Record{"name": "x"}, 0},
		{"nil record", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UsdNum(tt.rec); got != tt.want {
				t.Errorf("UsdNum 应该为 %v，实际为 %v", tt.want, got)
			}
		})
	}
}

func TestPickUsd(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{}, ""},
		{Record{"usdPrice": 12.5}, "$12.50"},
		{Record{"priceUsd": "0.1"}, "$0.10"},
		{Record{"priceUSD": 149.6}, "$150"},
		{Record{"usdPrice": 100}, "$100"},
		{Record{"metadata": map[string]any{"usdPrice": 5}}, "$5.00"},
		{Record{"usdPrice": "1e400"}, ""},
	}
	for _, tt := range tests {
		if got := PickUsd(tt.rec); got != tt.want {
			t.Errorf("PickUsd(%v) 应该为 %q，实际为 %q", tt.rec, tt.want, got)
		}
	}
}

type constExtractor float64

func (c constExtractor) Extract(Record) (decimal.Decimal, bool) {
	return decimal.NewFromFloat(float64(c)), true
}

func TestCustomValueChain(t *testing.T) {
	chain := NewValueChain(FieldExtractor("floor"), constExtractor(1))
	if got := chain.Num(Record{"floor": "3"}); got != 3 {
		t.Errorf("应该取 floor 字段 3，实际为 %v", got)
	}
	if got := chain.Num(Record{}); got != 1 {
		t.Errorf("缺字段时应该退回下一个候选 1，实际为 %v", got)
	}
}
