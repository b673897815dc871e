package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Rarity 归一化后的稀有度，只会是四个值之一
type Rarity string

const (
	Common    Rarity = "COMMON"
	Rare      Rarity = "RARE"
	Epic      Rarity = "EPIC"
	Legendary Rarity = "LEGENDARY"
)

// Rarities 从低到高
var Rarities = []Rarity{Common, Rare, Epic, Legendary}

// NormalizeRarity 把上游的数字编码(1-4)或不区分大小写的名称映射为 Rarity，未知值一律 COMMON
func NormalizeRarity(v any) Rarity {
	switch t := v.(type) {
	case nil:
		return Common
	case Rarity:
		return NormalizeRarity(string(t))
	case string:
		return rarityFromString(t)
	case json.Number:
		return rarityFromString(t.String())
	case int:
		return rarityFromCode(int64(t))
	case int64:
		return rarityFromCode(t)
	case float64:
		if t != math.Trunc(t) {
			return Common
		}
		return rarityFromCode(int64(t))
	}
	return Common
}

func rarityFromString(s string) Rarity {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "4", string(Legendary):
		return Legendary
	case "3", string(Epic):
		return Epic
	case "2", string(Rare):
		return Rare
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n == math.Trunc(n) {
		return rarityFromCode(int64(n))
	}
	return Common
}

func rarityFromCode(n int64) Rarity {
	switch n {
	case 4:
		return Legendary
	case 3:
		return Epic
	case 2:
		return Rare
	}
	return Common
}

// Rank COMMON=1 ... LEGENDARY=4
func (r Rarity) Rank() int {
	switch r {
	case Legendary:
		return 4
	case Epic:
		return 3
	case Rare:
		return 2
	}
	return 1
}

// Stars 展示用星标
func (r Rarity) Stars() string {
	return strings.Repeat("★", NormalizeRarity(r).Rank())
}

// ParseRarityFilter 解析列表筛选参数；空或 ALL 返回 ok=false 表示不过滤
func ParseRarityFilter(s string) (Rarity, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "ALL" {
		return "", false
	}
	return NormalizeRarity(s), true
}
