package market

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultMarketURL 记录没有链接时的落地页
const DefaultMarketURL = "https://vibechain.com/market"

// Record 上游返回的一条原始对象，只读；访问器按字段别名依次探测
type Record map[string]any

// RecordsOf 把解码后的列表转成 Record，跳过非对象元素
func RecordsOf(list []any) []Record {
	out := make([]Record, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Get 按点分路径取值，例如 "metadata.rarity"
func (r Record) Get(path string) any {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// String 返回第一个非空的字符串化字段
func (r Record) String(paths ...string) string {
	for _, p := range paths {
		if s := stringify(r.Get(p)); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func (r Record) ID() string      { return r.String("id") }
func (r Record) Creator() string { return r.String("creator", "creatorAddress") }

// Name pack 展示名
func (r Record) Name() string {
	if s := r.String("name", "collectionName"); s != "" {
		return s
	}
	return "Pack"
}

// Collection 开包事件所属系列
func (r Record) Collection() string {
	if s := r.String("collectionName", "series"); s != "" {
		return s
	}
	return "Pack"
}

// RawRarity 未归一化的稀有度字段
func (r Record) RawRarity() any {
	if v := r.Get("rarity"); v != nil && v != "" {
		return v
	}
	return r.Get("metadata.rarity")
}

func (r Record) Rarity() Rarity { return NormalizeRarity(r.RawRarity()) }

func (r Record) Image() string { return r.String("image", "metadata.image") }

func (r Record) URL() string {
	if s := r.String("url", "metadata.url"); s != "" {
		return s
	}
	return DefaultMarketURL
}

// Verified 只认严格的布尔 true
func (r Record) Verified() bool {
	if b, ok := r.Get("metadata.verified").(bool); ok && b {
		return true
	}
	b, ok := r.Get("verified").(bool)
	return ok && b
}

func (r Record) Contract() string { return r.String("contractAddress", "contract", "address") }
func (r Record) TokenID() string  { return r.String("tokenId") }
func (r Record) Owner() string    { return r.String("owner", "to") }

// Timestamp 毫秒时间戳；支持数字、数字字符串、RFC3339，缺失时返回 fallback
// 小于 1e12 的数字按秒处理
func (r Record) Timestamp(fallback time.Time) int64 {
	for _, p := range []string{"timestamp", "time"} {
		if ms, ok := parseMillis(r.Get(p)); ok {
			return ms
		}
	}
	return fallback.UnixMilli()
}

func parseMillis(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f = n
			break
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, false
		}
		return ts.UnixMilli(), true
	default:
		return 0, false
	}
	if f <= 0 {
		return 0, false
	}
	if f < 1e12 {
		f *= 1000
	}
	return int64(f), true
}

// Short 地址缩写 0x1234…abcd，10 位以内原样返回
func Short(s string) string {
	r := []rune(s)
	if len(r) <= 10 {
		return s
	}
	return string(r[:6]) + "…" + string(r[len(r)-4:])
}
